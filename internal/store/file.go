package store

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"codewalk/internal/walkthrough"
)

type fileIndex struct {
	Walkthroughs []*walkthrough.Walkthrough `json:"walkthroughs"`
}

func (s *Store) ensureLoadedFile() {
	s.loadOnce.Do(func() {
		raw, err := os.ReadFile(s.path)
		if err != nil {
			if !os.IsNotExist(err) {
				log.Printf("store: read %s: %v", s.path, err)
			}
			return
		}
		var idx fileIndex
		if err := json.Unmarshal(raw, &idx); err != nil {
			log.Printf("store: parse %s: %v", s.path, err)
			return
		}
		s.mu.Lock()
		for _, w := range idx.Walkthroughs {
			if w != nil && w.ID != "" {
				s.byID[w.ID] = w
			}
		}
		s.mu.Unlock()
	})
}

func (s *Store) saveFileLocked() {
	idx := fileIndex{Walkthroughs: make([]*walkthrough.Walkthrough, 0, len(s.byID))}
	for _, w := range s.byID {
		idx.Walkthroughs = append(idx.Walkthroughs, w)
	}
	raw, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		log.Printf("store: marshal index: %v", err)
		return
	}
	if dir := filepath.Dir(s.path); dir != "." {
		_ = os.MkdirAll(dir, 0o755)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		log.Printf("store: write %s: %v", tmp, err)
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		log.Printf("store: rename %s: %v", tmp, err)
	}
}

func (s *Store) putFile(w *walkthrough.Walkthrough) error {
	s.ensureLoadedFile()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[w.ID] = w
	s.saveFileLocked()
	return nil
}

func (s *Store) getFile(id string) (*walkthrough.Walkthrough, bool) {
	s.ensureLoadedFile()
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.byID[id]
	return w, ok
}

func (s *Store) findByCommitFile(owner, repo, commit string) (*walkthrough.Walkthrough, bool) {
	s.ensureLoadedFile()
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *walkthrough.Walkthrough
	for _, w := range s.byID {
		if w.Owner != owner || w.Repo != repo || w.Commit != commit {
			continue
		}
		if best == nil || w.CreatedAt.After(best.CreatedAt) {
			best = w
		}
	}
	return best, best != nil
}
