package walkthrough

import (
	"path"
	"strings"

	"codewalk/internal/gh"
)

// defaultExtensions are the source extensions considered analyzable.
var defaultExtensions = []string{
	".go", ".ts", ".tsx", ".js", ".jsx", ".py", ".rb", ".rs", ".java",
	".kt", ".c", ".h", ".cc", ".cpp", ".hpp", ".cs", ".swift", ".php",
	".scala", ".sh", ".sql", ".proto",
}

// skipDirs are path segments that never contain hand-written source worth
// walking through.
var skipDirs = map[string]struct{}{
	"vendor":       {},
	"node_modules": {},
	"dist":         {},
	"build":        {},
	"out":          {},
	"target":       {},
	"testdata":     {},
	".git":         {},
	".github":      {},
	"third_party":  {},
	"__pycache__":  {},
}

// skipSuffixes match generated or minified artifacts by filename.
var skipSuffixes = []string{
	".min.js", ".min.css", ".pb.go", "_pb2.py", ".generated.go",
	".lock", "-lock.json", "-lock.yaml",
}

// Filter selects analyzable tree entries: allowed extension, no skipped
// directory segment, no generated/minified suffix, and under maxFileBytes
// (<=0 means no size cap). Extensions may be passed with or without the
// leading dot; nil means the default set.
func Filter(entries []gh.TreeEntry, exts []string, maxFileBytes int) []gh.TreeEntry {
	if exts == nil {
		exts = defaultExtensions
	}
	allowed := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}

	var out []gh.TreeEntry
	for _, e := range entries {
		if maxFileBytes > 0 && e.Size > maxFileBytes {
			continue
		}
		if !includePath(e.Path, allowed) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func includePath(p string, allowed map[string]struct{}) bool {
	lower := strings.ToLower(p)
	for _, suf := range skipSuffixes {
		if strings.HasSuffix(lower, suf) {
			return false
		}
	}
	for _, seg := range strings.Split(path.Dir(lower), "/") {
		if _, skip := skipDirs[seg]; skip {
			return false
		}
	}
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return false
	}
	_, ok := allowed[ext]
	return ok
}
