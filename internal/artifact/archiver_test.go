package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
)

type memWriter struct {
	mu   sync.Mutex
	puts map[string][]byte
}

func (m *memWriter) Put(ctx context.Context, runID, path string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.puts == nil {
		m.puts = map[string][]byte{}
	}
	m.puts[runID+"/"+path] = content
	return nil
}

func TestArchiverRecordsExchange(t *testing.T) {
	w := &memWriter{}
	a := NewArchiver(w, "run-1")
	ctx := context.Background()

	a.Before(ctx, "sections", "the prompt", map[string]string{"repo": "acme/demo"})
	a.After(ctx, "sections", json.RawMessage(`{"sections":[]}`), nil)

	if string(w.puts["run-1/01_sections/prompt.txt"]) != "the prompt" {
		t.Fatalf("prompt not archived: %v", w.puts)
	}
	if _, ok := w.puts["run-1/01_sections/input.json"]; !ok {
		t.Fatalf("input not archived")
	}
	if string(w.puts["run-1/01_sections/response.json"]) != `{"sections":[]}` {
		t.Fatalf("response not archived: %v", w.puts)
	}
}

func TestArchiverRecordsError(t *testing.T) {
	w := &memWriter{}
	a := NewArchiver(w, "run-2")
	ctx := context.Background()

	a.Before(ctx, "sections", "p", nil)
	a.After(ctx, "sections", nil, errors.New("model blew up"))

	if string(w.puts["run-2/01_sections/error.txt"]) != "model blew up" {
		t.Fatalf("error not archived: %v", w.puts)
	}
}

func TestArchiverNilSafe(t *testing.T) {
	var a *Archiver
	a.Before(context.Background(), "x", "p", nil)
	a.After(context.Background(), "x", nil, nil)

	NewArchiver(nil, "run").Before(context.Background(), "x", "p", nil)
}
