package walkthrough

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"codewalk/internal/gh"
	"codewalk/internal/llm"
)

type stubFetcher struct {
	tree  *gh.Tree
	blobs map[string]string
	err   error
}

func (s *stubFetcher) GetTree(ctx context.Context, owner, repo string) (*gh.Tree, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.tree, nil
}

func (s *stubFetcher) FetchBlobs(ctx context.Context, t *gh.Tree, entries []gh.TreeEntry) ([]gh.File, error) {
	var out []gh.File
	for _, e := range entries {
		if content, ok := s.blobs[e.Path]; ok {
			out = append(out, gh.File{Path: e.Path, SHA: e.SHA, Content: content})
		}
	}
	return out, nil
}

const mainGo = `package main

import "fmt"

func main() {
	fmt.Println("hello")
}
`

const utilGo = `package main

func helper() int {
	return 42
}
`

func testFetcher() *stubFetcher {
	return &stubFetcher{
		tree: &gh.Tree{
			Owner:     "acme",
			Repo:      "demo",
			Branch:    "main",
			CommitSHA: "abc1234def",
			Entries: []gh.TreeEntry{
				{Path: "main.go", SHA: "s1", Size: len(mainGo)},
				{Path: "util.go", SHA: "s2", Size: len(utilGo)},
				{Path: "logo.png", SHA: "s3", Size: 10},
			},
		},
		blobs: map[string]string{"main.go": mainGo, "util.go": utilGo},
	}
}

func TestGenerateRemapsAnnotations(t *testing.T) {
	// main.go compresses to 5 lines; compressed line 4 is the println,
	// which is original line 6.
	model := &llm.FakeClient{Response: json.RawMessage(`{
		"sections": [
			{"title": "Overview", "content": "A tiny demo."},
			{"title": "Entrypoint", "content": "main prints a greeting.",
			 "code": [{"filename": "main.go", "annotations": {"4": "prints the greeting", "99": "bogus"}}]}
		]
	}`)}

	svc := New(testFetcher(), model, nil, Options{})
	w, err := svc.Generate(context.Background(), "https://github.com/acme/demo", nil)
	require.NoError(t, err)

	require.Equal(t, "acme", w.Owner)
	require.Equal(t, "abc1234def", w.Commit)
	require.Len(t, w.Sections, 2)

	code := w.Sections[1].Code
	require.Len(t, code, 1)
	require.Equal(t, mainGo, code[0].Content, "content must be the original source")
	require.Equal(t, "go", code[0].Language)

	require.Len(t, code[0].Annotations, 1, "out-of-range annotation must be dropped")
	text, ok := code[0].Annotations[6]
	require.True(t, ok, "compressed line 4 should map to original line 6, got %v", code[0].Annotations)
	require.Equal(t, "prints the greeting", text)
}

func TestGenerateParsesFencedResponse(t *testing.T) {
	model := &llm.FakeClient{Response: json.RawMessage(
		"```json\n{\"sections\":[{\"title\":\"Overview\",\"content\":\"x\"}]}\n```")}

	svc := New(testFetcher(), model, nil, Options{})
	w, err := svc.Generate(context.Background(), "github.com/acme/demo", nil)
	require.NoError(t, err)
	require.Len(t, w.Sections, 1)
}

func TestGenerateBareArrayResponse(t *testing.T) {
	model := &llm.FakeClient{Response: json.RawMessage(`[{"title":"Overview","content":"x"}]`)}

	svc := New(testFetcher(), model, nil, Options{})
	w, err := svc.Generate(context.Background(), "github.com/acme/demo", nil)
	require.NoError(t, err)
	require.Len(t, w.Sections, 1)
}

func TestGenerateInvalidURL(t *testing.T) {
	svc := New(testFetcher(), &llm.FakeClient{}, nil, Options{})
	_, err := svc.Generate(context.Background(), "https://gitlab.com/a/b", nil)
	require.ErrorIs(t, err, gh.ErrInvalidRepoURL)
}

func TestGenerateTooFewFiles(t *testing.T) {
	f := testFetcher()
	f.tree.Entries = f.tree.Entries[:1] // one source file, below MinFiles
	svc := New(f, &llm.FakeClient{}, nil, Options{MinFiles: 2})
	_, err := svc.Generate(context.Background(), "github.com/acme/demo", nil)
	require.ErrorIs(t, err, ErrTooFewFiles)
}

func TestGenerateModelGarbage(t *testing.T) {
	model := &llm.FakeClient{Response: json.RawMessage(`total nonsense, no json here`)}
	svc := New(testFetcher(), model, nil, Options{})
	_, err := svc.Generate(context.Background(), "github.com/acme/demo", nil)
	require.ErrorIs(t, err, ErrModelResponse)
}

func TestGenerateModelError(t *testing.T) {
	model := &llm.FakeClient{Err: errors.New("upstream 503")}
	svc := New(testFetcher(), model, nil, Options{})
	_, err := svc.Generate(context.Background(), "github.com/acme/demo", nil)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrModelResponse)
}

func TestGenerateDropsUnknownFilenames(t *testing.T) {
	model := &llm.FakeClient{Response: json.RawMessage(`{
		"sections": [{"title":"Bad","content":"x",
		"code":[{"filename":"invented.go","annotations":{"1":"nope"}}]}]
	}`)}
	svc := New(testFetcher(), model, nil, Options{})
	w, err := svc.Generate(context.Background(), "github.com/acme/demo", nil)
	require.NoError(t, err)
	require.Len(t, w.Sections, 1)
	require.Empty(t, w.Sections[0].Code)
}

func TestGenerateReportsProgress(t *testing.T) {
	model := &llm.FakeClient{Response: json.RawMessage(`{"sections":[{"title":"a","content":"b"}]}`)}
	svc := New(testFetcher(), model, nil, Options{})

	var stages []string
	_, err := svc.Generate(context.Background(), "github.com/acme/demo", func(stage string, pct int, msg string) {
		stages = append(stages, stage)
		require.GreaterOrEqual(t, pct, 0)
		require.LessOrEqual(t, pct, 100)
	})
	require.NoError(t, err)
	require.Equal(t, "resolve", stages[0])
	require.Equal(t, "remap", stages[len(stages)-1])
	require.True(t, strings.Contains(strings.Join(stages, ","), "model"))
}

type memResults struct {
	byCommit map[string]*Walkthrough
	puts     int
}

func (m *memResults) FindByCommit(owner, repo, commit string) (*Walkthrough, bool) {
	w, ok := m.byCommit[owner+"/"+repo+"@"+commit]
	return w, ok
}

func (m *memResults) Put(w *Walkthrough) error {
	if m.byCommit == nil {
		m.byCommit = make(map[string]*Walkthrough)
	}
	m.byCommit[w.Owner+"/"+w.Repo+"@"+w.Commit] = w
	m.puts++
	return nil
}

func TestGenerateReusesStoredResultForSameCommit(t *testing.T) {
	model := &llm.FakeClient{Response: json.RawMessage(`{"sections":[{"title":"a","content":"b"}]}`)}
	results := &memResults{}
	svc := New(testFetcher(), model, results, Options{})

	first, err := svc.Generate(context.Background(), "github.com/acme/demo", nil)
	require.NoError(t, err)
	require.Equal(t, 1, results.puts)

	var stages []string
	second, err := svc.Generate(context.Background(), "github.com/acme/demo", func(stage string, pct int, msg string) {
		stages = append(stages, stage)
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 1, results.puts, "unchanged commit should not regenerate")
	require.Contains(t, stages, "cached")
	require.Len(t, model.Calls, 1)
}

func TestGenerateFlagsTruncatedTree(t *testing.T) {
	model := &llm.FakeClient{Response: json.RawMessage(`{"sections":[{"title":"a","content":"b"}]}`)}
	fetch := testFetcher()
	fetch.tree.Truncated = true
	svc := New(fetch, model, nil, Options{})

	var treeMsg string
	_, err := svc.Generate(context.Background(), "github.com/acme/demo", func(stage string, pct int, msg string) {
		if stage == "tree" {
			treeMsg = msg
		}
	})
	require.NoError(t, err)
	require.Contains(t, treeMsg, "truncated")
}
