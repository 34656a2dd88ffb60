package jsonutil

import (
	"testing"
)

func TestExtractFromCodeFence(t *testing.T) {
	text := "Here is the walkthrough:\n```json\n{\"sections\": []}\n```\nHope that helps!"
	got, err := Extract(text)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got != `{"sections": []}` {
		t.Fatalf("unexpected extraction: %q", got)
	}
}

func TestExtractArrayWithProse(t *testing.T) {
	text := `Sure! [{"title":"Overview"},{"title":"Core"}] as requested.`
	got, err := Extract(text)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got != `[{"title":"Overview"},{"title":"Core"}]` {
		t.Fatalf("unexpected extraction: %q", got)
	}
}

func TestExtractHonorsBracesInsideStrings(t *testing.T) {
	text := `{"content":"if x { return }"} trailing`
	got, err := Extract(text)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got != `{"content":"if x { return }"}` {
		t.Fatalf("unexpected extraction: %q", got)
	}
}

func TestExtractNoJSON(t *testing.T) {
	if _, err := Extract("no structured data here"); err != ErrNoJSON {
		t.Fatalf("expected ErrNoJSON, got %v", err)
	}
}

func TestUnmarshalFlexDirect(t *testing.T) {
	var v struct {
		Title string `json:"title"`
	}
	if err := UnmarshalFlex([]byte(`{"title":"x"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.Title != "x" {
		t.Fatalf("got %q", v.Title)
	}
}

func TestUnmarshalFlexFenced(t *testing.T) {
	var v []struct {
		Title string `json:"title"`
	}
	raw := []byte("```json\n[{\"title\":\"a\"}]\n```")
	if err := UnmarshalFlex(raw, &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(v) != 1 || v[0].Title != "a" {
		t.Fatalf("unexpected value: %+v", v)
	}
}
