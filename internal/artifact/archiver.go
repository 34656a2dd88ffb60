package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"
)

// Writer is the subset of S3Store the archiver needs; satisfied by *S3Store.
type Writer interface {
	Put(ctx context.Context, runID, path string, content []byte) error
}

// Store is the full artifact surface: the archiver writes exchanges, the
// read-side handlers list and fetch them for debugging/replay.
type Store interface {
	Writer
	Get(ctx context.Context, runID, path string) ([]byte, error)
	List(ctx context.Context, runID string) ([]string, error)
}

// Archiver persists each model exchange of a run as an llm.PromptHook.
// Failures are logged, never surfaced: archival must not break a run.
type Archiver struct {
	store Writer
	runID string
	seq   atomic.Int64
}

func NewArchiver(store Writer, runID string) *Archiver {
	return &Archiver{store: store, runID: runID}
}

func (a *Archiver) Before(ctx context.Context, phase, prompt string, input any) {
	if a == nil || a.store == nil {
		return
	}
	n := a.seq.Add(1)
	a.put(ctx, fmt.Sprintf("%02d_%s/prompt.txt", n, phase), []byte(prompt))
	if input != nil {
		if b, err := json.MarshalIndent(input, "", "  "); err == nil {
			a.put(ctx, fmt.Sprintf("%02d_%s/input.json", n, phase), b)
		}
	}
}

func (a *Archiver) After(ctx context.Context, phase string, raw json.RawMessage, err error) {
	if a == nil || a.store == nil {
		return
	}
	n := a.seq.Load()
	if err != nil {
		a.put(ctx, fmt.Sprintf("%02d_%s/error.txt", n, phase), []byte(err.Error()))
		return
	}
	a.put(ctx, fmt.Sprintf("%02d_%s/response.json", n, phase), raw)
}

func (a *Archiver) put(ctx context.Context, path string, content []byte) {
	// Detach from the request context so archival survives cancellation.
	putCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := a.store.Put(putCtx, a.runID, path, content); err != nil {
		log.Printf("artifact: archive %s/%s: %v", a.runID, path, err)
	}
}
