package store

import (
	"encoding/json"
	"log"

	"codewalk/internal/walkthrough"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS walkthroughs (
	id          TEXT PRIMARY KEY,
	owner       TEXT NOT NULL,
	repo        TEXT NOT NULL,
	commit_sha  TEXT NOT NULL,
	payload     JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS walkthroughs_snapshot_idx
	ON walkthroughs (owner, repo, commit_sha, created_at DESC);
`

func (s *Store) ensureSchema() error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(schemaSQL)
	})
	return s.schemaErr
}

func (s *Store) putDB(w *walkthrough.Walkthrough) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	payload, err := json.Marshal(w)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO walkthroughs (id, owner, repo, commit_sha, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload`,
		w.ID, w.Owner, w.Repo, w.Commit, payload, w.CreatedAt)
	return err
}

func (s *Store) getDB(id string) (*walkthrough.Walkthrough, bool) {
	if err := s.ensureSchema(); err != nil {
		log.Printf("store: schema: %v", err)
		return nil, false
	}
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM walkthroughs WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		return nil, false
	}
	var w walkthrough.Walkthrough
	if err := json.Unmarshal(payload, &w); err != nil {
		log.Printf("store: decode %s: %v", id, err)
		return nil, false
	}
	return &w, true
}

func (s *Store) findByCommitDB(owner, repo, commit string) (*walkthrough.Walkthrough, bool) {
	if err := s.ensureSchema(); err != nil {
		log.Printf("store: schema: %v", err)
		return nil, false
	}
	var payload []byte
	err := s.db.QueryRow(`
		SELECT payload FROM walkthroughs
		WHERE owner = $1 AND repo = $2 AND commit_sha = $3
		ORDER BY created_at DESC LIMIT 1`,
		owner, repo, commit).Scan(&payload)
	if err != nil {
		return nil, false
	}
	var w walkthrough.Walkthrough
	if err := json.Unmarshal(payload, &w); err != nil {
		log.Printf("store: decode snapshot %s/%s@%s: %v", owner, repo, commit, err)
		return nil, false
	}
	return &w, true
}
