package walkthrough

import (
	"path"
	"regexp"
	"sort"
	"strings"

	"codewalk/internal/gh"
)

// Import extraction is heuristic by design: it only needs to produce edges
// between files that were actually fetched, so unresolved targets are
// silently dropped.
var (
	jsImportRe   = regexp.MustCompile(`(?m)^\s*(?:import\s+(?:[\w*{}\s,$]+\s+from\s+)?|export\s+[\w*{}\s,]+\s+from\s+)['"]([^'"]+)['"]`)
	jsRequireRe  = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)
	goImportRe   = regexp.MustCompile(`(?m)^\s*(?:import\s+)?(?:[\w.]+\s+)?"([^"]+)"`)
	pyImportRe   = regexp.MustCompile(`(?m)^\s*(?:from\s+([\w.]+)\s+import|import\s+([\w.]+))`)
	rsUseRe      = regexp.MustCompile(`(?m)^\s*(?:pub\s+)?(?:use|mod)\s+([\w:]+)`)
	rubyRequire  = regexp.MustCompile(`(?m)^\s*require(?:_relative)?\s+['"]([^'"]+)['"]`)
	cIncludeRe   = regexp.MustCompile(`(?m)^\s*#include\s+"([^"]+)"`)
	javaImportRe = regexp.MustCompile(`(?m)^\s*import\s+(?:static\s+)?([\w.]+);`)
)

// BuildEdges derives import edges between fetched files. Targets are
// resolved against the fetched set: relative specifiers against the
// importing file's directory, everything else by path suffix or basename.
func BuildEdges(files []gh.File) []Edge {
	byPath := make(map[string]struct{}, len(files))
	for _, f := range files {
		byPath[f.Path] = struct{}{}
	}

	seen := make(map[[2]string]struct{})
	var edges []Edge
	for _, f := range files {
		for _, target := range importTargets(f) {
			resolved := resolveTarget(f.Path, target, byPath)
			if resolved == "" || resolved == f.Path {
				continue
			}
			key := [2]string{f.Path, resolved}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			edges = append(edges, Edge{From: f.Path, To: resolved, Kind: "import"})
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

func importTargets(f gh.File) []string {
	var targets []string
	add := func(matches [][]string) {
		for _, m := range matches {
			for _, g := range m[1:] {
				if g != "" {
					targets = append(targets, g)
				}
			}
		}
	}

	switch LanguageForPath(f.Path) {
	case "go":
		add(goImportRe.FindAllStringSubmatch(importBlockOnly(f.Content), -1))
	case "javascript", "typescript", "jsx", "tsx":
		add(jsImportRe.FindAllStringSubmatch(f.Content, -1))
		add(jsRequireRe.FindAllStringSubmatch(f.Content, -1))
	case "python":
		add(pyImportRe.FindAllStringSubmatch(f.Content, -1))
	case "rust":
		add(rsUseRe.FindAllStringSubmatch(f.Content, -1))
	case "ruby":
		add(rubyRequire.FindAllStringSubmatch(f.Content, -1))
	case "c", "cpp":
		add(cIncludeRe.FindAllStringSubmatch(f.Content, -1))
	case "java", "kotlin", "scala":
		add(javaImportRe.FindAllStringSubmatch(f.Content, -1))
	}
	return targets
}

// importBlockOnly cuts a Go file down to its import section so the quoted
// string regex does not pick up string literals from the body.
func importBlockOnly(src string) string {
	lines := strings.Split(src, "\n")
	var out []string
	inBlock := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "import ("):
			inBlock = true
		case inBlock && trimmed == ")":
			inBlock = false
		case inBlock, strings.HasPrefix(trimmed, "import "):
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func resolveTarget(from, target string, byPath map[string]struct{}) string {
	target = strings.TrimSpace(target)
	if target == "" {
		return ""
	}

	if strings.HasPrefix(target, ".") {
		base := path.Join(path.Dir(from), target)
		for _, cand := range candidatePaths(base) {
			if _, ok := byPath[cand]; ok {
				return cand
			}
		}
		return ""
	}

	// Module-style specifier: dots/colons to slashes, then suffix match.
	norm := strings.ReplaceAll(target, "::", "/")
	norm = strings.ReplaceAll(norm, ".", "/")
	if strings.Contains(target, "/") {
		norm = target
	}

	var matches []string
	for p := range byPath {
		noExt := strings.TrimSuffix(p, path.Ext(p))
		if suffixMatch(noExt, norm) || suffixMatch(norm, noExt) || suffixMatch(norm, path.Dir(p)) {
			matches = append(matches, p)
		}
	}
	if len(matches) == 0 {
		// Fall back to basename match.
		want := norm
		if i := strings.LastIndex(norm, "/"); i >= 0 {
			want = norm[i+1:]
		}
		for p := range byPath {
			base := strings.TrimSuffix(path.Base(p), path.Ext(p))
			if base == want {
				matches = append(matches, p)
			}
		}
	}
	if len(matches) == 0 {
		return ""
	}
	sort.Strings(matches)
	return matches[0]
}

// suffixMatch reports whether s equals suffix or ends with "/"+suffix,
// keeping matches on path-segment boundaries.
func suffixMatch(s, suffix string) bool {
	if suffix == "" || suffix == "." {
		return false
	}
	return s == suffix || strings.HasSuffix(s, "/"+suffix)
}

func candidatePaths(base string) []string {
	exts := []string{"", ".ts", ".tsx", ".js", ".jsx", ".py", ".rb", ".go", ".rs", ".h", ".hpp"}
	out := make([]string, 0, len(exts)+2)
	for _, ext := range exts {
		out = append(out, base+ext)
	}
	out = append(out, path.Join(base, "index.ts"), path.Join(base, "index.js"))
	return out
}
