// Package store persists generated walkthroughs. Backed by Postgres when a
// DSN is configured, otherwise by a JSON file next to the process.
package store

import (
	"database/sql"
	"os"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"

	"codewalk/internal/walkthrough"
)

type Store struct {
	path string
	db   *sql.DB

	loadOnce sync.Once
	mu       sync.RWMutex
	byID     map[string]*walkthrough.Walkthrough

	schemaOnce sync.Once
	schemaErr  error

	cache *lru.Cache[string, *walkthrough.Walkthrough]
}

// New returns a file-backed store rooted at path.
func New(path string) *Store {
	return &Store{
		path: path,
		byID: make(map[string]*walkthrough.Walkthrough),
	}
}

// NewPostgres returns a Postgres-backed store.
func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	cache, err := lru.New[string, *walkthrough.Walkthrough](256)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, cache: cache}, nil
}

// NewFromEnv prefers Postgres via WALKTHROUGH_STORE_PG_DSN and falls back to
// the file store at path.
func NewFromEnv(path string) *Store {
	dsn := strings.TrimSpace(os.Getenv("WALKTHROUGH_STORE_PG_DSN"))
	if dsn == "" {
		return New(path)
	}
	s, err := NewPostgres(dsn)
	if err != nil {
		return New(path)
	}
	return s
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put stores a walkthrough, replacing any previous one with the same id.
func (s *Store) Put(w *walkthrough.Walkthrough) error {
	if s == nil || w == nil || strings.TrimSpace(w.ID) == "" {
		return nil
	}
	if s.db != nil {
		if err := s.putDB(w); err != nil {
			return err
		}
		s.cache.Add(w.ID, w)
		return nil
	}
	return s.putFile(w)
}

// Get returns the walkthrough with the given id.
func (s *Store) Get(id string) (*walkthrough.Walkthrough, bool) {
	if s == nil {
		return nil, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, false
	}
	if s.db != nil {
		if w, ok := s.cache.Get(id); ok {
			return w, true
		}
		w, ok := s.getDB(id)
		if ok {
			s.cache.Add(id, w)
		}
		return w, ok
	}
	return s.getFile(id)
}

// FindByCommit returns the newest walkthrough for a repo snapshot, so a
// repeated request for an unchanged repository skips the model entirely.
func (s *Store) FindByCommit(owner, repo, commit string) (*walkthrough.Walkthrough, bool) {
	if s == nil {
		return nil, false
	}
	if s.db != nil {
		return s.findByCommitDB(owner, repo, commit)
	}
	return s.findByCommitFile(owner, repo, commit)
}
