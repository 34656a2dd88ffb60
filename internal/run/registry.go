// Package run tracks in-flight walkthrough generations and fans their
// progress events out to SSE and websocket watchers.
package run

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	EventProgress = "progress"
	EventComplete = "complete"
	EventError    = "error"
)

// Event is one progress update of a run. Terminal events carry either the
// walkthrough id or an error string.
type Event struct {
	Type          string `json:"type"`
	Stage         string `json:"stage,omitempty"`
	Percent       int    `json:"percent"`
	Message       string `json:"message,omitempty"`
	WalkthroughID string `json:"walkthrough_id,omitempty"`
	Error         string `json:"error,omitempty"`
}

func (e Event) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}

var ErrNotFound = errors.New("run: not found")

// Run is one background generation. Subscribers joining late receive the
// full event history before live events.
type Run struct {
	ID string

	mu      sync.Mutex
	history []Event
	subs    map[int]chan Event
	nextSub int
	done    bool
}

// Registry holds runs; completed runs are evicted after retention.
type Registry struct {
	mu        sync.RWMutex
	runs      map[string]*Run
	retention time.Duration
}

func NewRegistry(retention time.Duration) *Registry {
	if retention <= 0 {
		retention = 10 * time.Minute
	}
	return &Registry{
		runs:      make(map[string]*Run),
		retention: retention,
	}
}

func (g *Registry) Create() *Run {
	r := &Run{
		ID:   uuid.NewString(),
		subs: make(map[int]chan Event),
	}
	g.mu.Lock()
	g.runs[r.ID] = r
	g.mu.Unlock()
	return r
}

func (g *Registry) Get(id string) (*Run, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.runs[id]
	return r, ok
}

func (g *Registry) remove(id string) {
	g.mu.Lock()
	delete(g.runs, id)
	g.mu.Unlock()
}

// Publish records the event and delivers it to all subscribers. Events after
// a terminal event are dropped. A terminal event schedules eviction.
func (g *Registry) Publish(r *Run, ev Event) {
	if r == nil {
		return
	}
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return
	}
	r.history = append(r.history, ev)
	if ev.Terminal() {
		r.done = true
	}
	subs := make([]chan Event, 0, len(r.subs))
	for _, ch := range r.subs {
		subs = append(subs, ch)
	}
	r.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
			// Slow subscriber; it will catch up from history on resubscribe.
		}
	}

	if ev.Terminal() {
		id := r.ID
		time.AfterFunc(g.retention, func() { g.remove(id) })
	}
}

// Subscribe returns a channel that replays history and then streams live
// events. The channel closes after a terminal event or when ctx is done.
func (r *Run) Subscribe(ctx context.Context) <-chan Event {
	out := make(chan Event, 64)

	r.mu.Lock()
	history := make([]Event, len(r.history))
	copy(history, r.history)
	done := r.done

	var id int
	var live chan Event
	if !done {
		live = make(chan Event, 64)
		id = r.nextSub
		r.nextSub++
		r.subs[id] = live
	}
	r.mu.Unlock()

	go func() {
		defer close(out)
		if live != nil {
			defer func() {
				r.mu.Lock()
				delete(r.subs, id)
				r.mu.Unlock()
			}()
		}
		for _, ev := range history {
			select {
			case <-ctx.Done():
				return
			case out <- ev:
			}
			if ev.Terminal() {
				return
			}
		}
		if live == nil {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-live:
				select {
				case <-ctx.Done():
					return
				case out <- ev:
				}
				if ev.Terminal() {
					return
				}
			}
		}
	}()

	return out
}
