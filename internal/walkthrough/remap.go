package walkthrough

import (
	"strconv"
	"strings"

	"codewalk/internal/compress"
)

// sourceFile pairs a file's original content with its compression result so
// annotation lines can be translated back.
type sourceFile struct {
	original  string
	origLines int
	comp      compress.Result
}

func newSourceFile(content string) sourceFile {
	return sourceFile{
		original:  content,
		origLines: strings.Count(content, "\n") + 1,
		comp:      compress.File(content),
	}
}

// remapSections converts model output into the public Section shape:
// annotation line numbers move from compressed space to original space,
// and file contents are replaced with the original, uncompressed source.
// Code files naming paths that were never sent are dropped, as are
// annotations whose line has no mapping.
func remapSections(ms []modelSection, sources map[string]sourceFile) []Section {
	out := make([]Section, 0, len(ms))
	for _, sec := range ms {
		s := Section{
			Title:   strings.TrimSpace(sec.Title),
			Content: strings.TrimSpace(sec.Content),
		}
		for _, cf := range sec.Code {
			name := strings.TrimSpace(cf.Filename)
			src, ok := sources[name]
			if !ok {
				continue
			}
			file := CodeFile{
				Filename: name,
				Language: LanguageForPath(name),
				Content:  src.original,
			}
			if ann := remapAnnotations(cf.Annotations, src); len(ann) > 0 {
				file.Annotations = ann
			}
			s.Code = append(s.Code, file)
		}
		if s.Title == "" && s.Content == "" && len(s.Code) == 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}

func remapAnnotations(raw map[string]string, src sourceFile) map[int]string {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[int]string, len(raw))
	for key, text := range raw {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		compLine, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			continue
		}
		orig, ok := src.comp.OriginalLine(compLine)
		if !ok || orig < 1 || orig > src.origLines {
			continue
		}
		out[orig] = text
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
