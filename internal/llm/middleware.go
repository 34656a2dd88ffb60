package llm

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"golang.org/x/time/rate"
)

// Middleware decorates a Client to inject cross-cutting concerns
// (rate limiting, retries, logging, hooks).
type Middleware func(Client) Client

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Client, mws ...Middleware) Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// RateLimit throttles GenerateJSON to at most rps requests per second with
// the given burst. rps <= 0 disables the limiter.
func RateLimit(rps float64, burst int) Middleware {
	return func(next Client) Client {
		var rl *rate.Limiter
		if rps > 0 {
			if burst < 1 {
				burst = 1
			}
			rl = rate.NewLimiter(rate.Limit(rps), burst)
		}
		return &rateLimited{next: next, rl: rl}
	}
}

type rateLimited struct {
	next Client
	rl   *rate.Limiter
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) Close() error { return c.next.Close() }
func (c *rateLimited) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	if c.rl != nil {
		if err := c.rl.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return c.next.GenerateJSON(ctx, prompt, input)
}

// MultiLimit combines provider quota ceilings: requests per minute, requests
// per day and tokens per minute. Token spend is estimated from the request
// size (bytes/4). Any value <= 0 disables that ceiling.
func MultiLimit(rpm, rpd, tpm int) Middleware {
	return func(next Client) Client {
		m := &multiLimited{next: next}
		if rpm > 0 {
			m.rpm = rate.NewLimiter(rate.Limit(float64(rpm)/60), rpm)
		}
		if rpd > 0 {
			m.rpd = rate.NewLimiter(rate.Limit(float64(rpd)/86400), rpd)
		}
		if tpm > 0 {
			m.tpm = rate.NewLimiter(rate.Limit(float64(tpm)/60), tpm)
		}
		return m
	}
}

type multiLimited struct {
	next Client
	rpm  *rate.Limiter
	rpd  *rate.Limiter
	tpm  *rate.Limiter
}

func (m *multiLimited) Name() string { return m.next.Name() }
func (m *multiLimited) Close() error { return m.next.Close() }
func (m *multiLimited) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	if m.rpm != nil {
		if err := m.rpm.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if m.rpd != nil {
		if err := m.rpd.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if m.tpm != nil {
		in, _ := json.Marshal(input)
		est := (len(prompt) + len(in)) / 4
		if est < 1 {
			est = 1
		}
		// WaitN fails outright when est exceeds burst; cap at the
		// limiter's burst so oversized requests wait instead.
		if b := m.tpm.Burst(); est > b {
			est = b
		}
		if err := m.tpm.WaitN(ctx, est); err != nil {
			return nil, err
		}
	}
	return m.next.GenerateJSON(ctx, prompt, input)
}

// Retry retries GenerateJSON up to maxAttempts with exponential backoff
// starting at baseDelay. If the context is canceled, it stops immediately.
func Retry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return func(next Client) Client {
		return &retrying{next: next, max: maxAttempts, base: baseDelay}
	}
}

type retrying struct {
	next Client
	max  int
	base time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) Close() error { return r.next.Close() }
func (r *retrying) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	var last error
	for i := 0; i < r.max; i++ {
		resp, err := r.next.GenerateJSON(ctx, prompt, input)
		if err == nil {
			return resp, nil
		}
		last = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.base * time.Duration(1<<i)):
		}
	}
	return nil, last
}

// WithLogging logs request size and errors. Pass nil to use log.Default().
func WithLogging(logger *log.Logger) Middleware {
	if logger == nil {
		logger = log.Default()
	}
	return func(next Client) Client {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next Client
	log  *log.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }
func (l *logging) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	in, _ := json.Marshal(input)
	l.log.Printf("LLM request (%s): %d bytes", PhaseFrom(ctx), len(prompt)+len(in))
	raw, err := l.next.GenerateJSON(ctx, prompt, input)
	if err != nil {
		l.log.Printf("LLM error (%s): %v", PhaseFrom(ctx), err)
	}
	return raw, err
}

// WithHooks calls HookFrom(ctx).Before/After around GenerateJSON.
// If no hook is present in the context, it is a no-op.
func WithHooks() Middleware {
	return func(next Client) Client {
		return &hookedMW{next: next}
	}
}

type hookedMW struct{ next Client }

func (h *hookedMW) Name() string { return h.next.Name() }
func (h *hookedMW) Close() error { return h.next.Close() }
func (h *hookedMW) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	if hook := HookFrom(ctx); hook != nil {
		hook.Before(ctx, PhaseFrom(ctx), prompt, input)
	}
	raw, err := h.next.GenerateJSON(ctx, prompt, input)
	if hook := HookFrom(ctx); hook != nil {
		hook.After(ctx, PhaseFrom(ctx), raw, err)
	}
	return raw, err
}
