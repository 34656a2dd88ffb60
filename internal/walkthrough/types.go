// Package walkthrough turns a repository snapshot into an annotated code
// walkthrough by way of a language model.
package walkthrough

import "time"

// CodeFile is one source file in a section, with optional line-keyed
// annotations. Content is the original, uncompressed source; annotation
// line numbers refer to it.
type CodeFile struct {
	Filename    string         `json:"filename"`
	Language    string         `json:"language"`
	Content     string         `json:"content"`
	Annotations map[int]string `json:"annotations,omitempty"`
}

// Section is a titled block of explanatory markdown, optionally paired with
// annotated code files.
type Section struct {
	Title   string     `json:"title"`
	Content string     `json:"content"`
	Code    []CodeFile `json:"code,omitempty"`
}

// Edge is a derived import relationship between two files.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind"`
}

// Walkthrough is the full result for one repository snapshot.
type Walkthrough struct {
	ID        string    `json:"id"`
	RepoURL   string    `json:"repo"`
	Owner     string    `json:"owner"`
	Repo      string    `json:"name"`
	Commit    string    `json:"commit"`
	Sections  []Section `json:"sections"`
	Edges     []Edge    `json:"edges,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
