package walkthrough

import (
	"sort"
	"strings"

	"codewalk/internal/gh"
)

// Budget bounds how much of the repository is sent to the model.
type Budget struct {
	MaxFiles  int // <=0 means 30
	MaxTokens int // total estimated tokens across files; <=0 means 48000
}

func (b Budget) withDefaults() Budget {
	if b.MaxFiles <= 0 {
		b.MaxFiles = 30
	}
	if b.MaxTokens <= 0 {
		b.MaxTokens = 48000
	}
	return b
}

// estimateTokens is a rough token count: four bytes per token, matching the
// heuristic the rest of the pipeline uses for request weighting.
func estimateTokens(byteSize int) int {
	n := byteSize / 4
	if n == 0 && byteSize > 0 {
		n = 1
	}
	return n
}

// SelectEntries picks entries within budget, preferring entrypoints and
// shallow paths so the model sees the repository's shape before its leaves.
// The returned slice preserves the original lexical order of selected paths.
func SelectEntries(entries []gh.TreeEntry, b Budget) []gh.TreeEntry {
	b = b.withDefaults()

	ranked := make([]gh.TreeEntry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		pi, pj := pathPriority(ranked[i].Path), pathPriority(ranked[j].Path)
		if pi != pj {
			return pi < pj
		}
		di, dj := strings.Count(ranked[i].Path, "/"), strings.Count(ranked[j].Path, "/")
		if di != dj {
			return di < dj
		}
		return ranked[i].Size < ranked[j].Size
	})

	selected := make(map[string]struct{}, b.MaxFiles)
	tokens := 0
	for _, e := range ranked {
		if len(selected) >= b.MaxFiles {
			break
		}
		cost := estimateTokens(e.Size)
		if tokens+cost > b.MaxTokens {
			continue
		}
		tokens += cost
		selected[e.Path] = struct{}{}
	}

	out := make([]gh.TreeEntry, 0, len(selected))
	for _, e := range entries {
		if _, ok := selected[e.Path]; ok {
			out = append(out, e)
		}
	}
	return out
}

// pathPriority buckets paths so entrypoints sort first. Lower is better.
func pathPriority(p string) int {
	base := strings.ToLower(p)
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	switch {
	case strings.HasPrefix(base, "main."), strings.HasPrefix(base, "index."),
		strings.HasPrefix(base, "app."), strings.HasPrefix(base, "server."):
		return 0
	case strings.Contains(p, "cmd/") || strings.Contains(p, "src/"):
		return 1
	default:
		return 2
	}
}
