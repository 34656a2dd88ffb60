package walkthrough

import (
	"testing"

	"codewalk/internal/gh"
)

func entries(paths ...string) []gh.TreeEntry {
	out := make([]gh.TreeEntry, len(paths))
	for i, p := range paths {
		out[i] = gh.TreeEntry{Path: p, SHA: "sha", Size: 100}
	}
	return out
}

func TestFilterInclusionExclusion(t *testing.T) {
	in := entries(
		"main.go",
		"internal/api/server.go",
		"vendor/lib/lib.go",
		"node_modules/left-pad/index.js",
		"web/app.min.js",
		"gen/service.pb.go",
		"README.md",
		"assets/logo.png",
		"package-lock.json",
		"src/index.ts",
	)
	got := Filter(in, nil, 0)

	want := map[string]bool{
		"main.go":                true,
		"internal/api/server.go": true,
		"src/index.ts":           true,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d: %+v", len(want), len(got), got)
	}
	for _, e := range got {
		if !want[e.Path] {
			t.Fatalf("unexpected path %q in result", e.Path)
		}
	}
}

func TestFilterSizeCap(t *testing.T) {
	in := []gh.TreeEntry{
		{Path: "small.go", Size: 10},
		{Path: "huge.go", Size: 1 << 20},
	}
	got := Filter(in, nil, 1000)
	if len(got) != 1 || got[0].Path != "small.go" {
		t.Fatalf("expected only small.go, got %+v", got)
	}
}

func TestFilterCustomExtensions(t *testing.T) {
	in := entries("a.go", "b.py", "c.rs")
	got := Filter(in, []string{"py", ".rs"}, 0)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %+v", got)
	}
	for _, e := range got {
		if e.Path == "a.go" {
			t.Fatalf("a.go should be excluded by custom allowlist")
		}
	}
}
