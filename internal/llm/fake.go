package llm

import (
	"context"
	"encoding/json"
)

// FakeClient returns deterministic payloads for offline runs and tests.
// When Fn is set it is consulted first; otherwise Response/Err are returned
// as-is.
type FakeClient struct {
	Response json.RawMessage
	Err      error
	Fn       func(ctx context.Context, prompt string, input any) (json.RawMessage, error)

	Calls []string // prompts seen, in order
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	f.Calls = append(f.Calls, prompt)
	if f.Fn != nil {
		return f.Fn(ctx, prompt, input)
	}
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Response != nil {
		return f.Response, nil
	}
	return json.RawMessage(`{"sections":[]}`), nil
}
