// Package compress strips whitespace from source text before it is sent to
// the model and records the mapping needed to translate line numbers back.
package compress

import "strings"

// Result holds compressed text plus the mapping from compressed line index
// (0-based) to the original 1-based line number. Blank lines are dropped
// during compression, so the mapping is not contiguous.
type Result struct {
	Text    string
	LineMap []int
}

// File compresses src by dropping blank lines and trimming trailing
// whitespace from the remaining ones. Tabs at line starts are collapsed to a
// single space to save tokens without destroying indentation structure.
func File(src string) Result {
	lines := strings.Split(src, "\n")
	out := make([]string, 0, len(lines))
	lineMap := make([]int, 0, len(lines))

	for i, line := range lines {
		trimmed := strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(trimmed) == "" {
			continue
		}
		out = append(out, collapseIndent(trimmed))
		lineMap = append(lineMap, i+1)
	}

	return Result{
		Text:    strings.Join(out, "\n"),
		LineMap: lineMap,
	}
}

// OriginalLine translates a 1-based line number in the compressed text to the
// 1-based line number in the original source. It returns false when the
// compressed line number is out of range.
func (r Result) OriginalLine(compressed int) (int, bool) {
	idx := compressed - 1
	if idx < 0 || idx >= len(r.LineMap) {
		return 0, false
	}
	return r.LineMap[idx], true
}

// LineCount reports the number of lines in the compressed text.
func (r Result) LineCount() int {
	return len(r.LineMap)
}

func collapseIndent(line string) string {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	if i == 0 {
		return line
	}
	// One level of visual indent per two spaces / one tab keeps nesting
	// readable at a fraction of the bytes.
	depth := 0
	for _, c := range line[:i] {
		if c == '\t' {
			depth++
		}
	}
	spaces := strings.Count(line[:i], " ")
	depth += spaces / 2
	if depth == 0 && spaces > 0 {
		depth = 1
	}
	return strings.Repeat(" ", depth) + line[i:]
}
