package walkthrough

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"codewalk/internal/gh"
	"codewalk/internal/jsonutil"
	"codewalk/internal/llm"
)

var (
	// ErrTooFewFiles means the repository has too little analyzable source
	// to be worth a walkthrough.
	ErrTooFewFiles = errors.New("walkthrough: not enough analyzable files in repository")
	// ErrModelResponse means the model's output could not be parsed even
	// after substring extraction.
	ErrModelResponse = errors.New("walkthrough: unparsable model response")
)

// Fetcher lists a repository tree and downloads blob contents.
type Fetcher interface {
	GetTree(ctx context.Context, owner, repo string) (*gh.Tree, error)
	FetchBlobs(ctx context.Context, t *gh.Tree, entries []gh.TreeEntry) ([]gh.File, error)
}

// ResultStore lets the service reuse a walkthrough generated for the same
// commit and persist new ones. May be nil.
type ResultStore interface {
	FindByCommit(owner, repo, commit string) (*Walkthrough, bool)
	Put(w *Walkthrough) error
}

// Options bound what the service sends to the model.
type Options struct {
	Budget       Budget
	Extensions   []string // nil means the default allowlist
	MaxFileBytes int      // per-file size cap before fetch; <=0 means 128 KiB
	MinFiles     int      // minimum analyzable files; <=0 means 2
}

func (o Options) withDefaults() Options {
	if o.MaxFileBytes <= 0 {
		o.MaxFileBytes = 128 << 10
	}
	if o.MinFiles <= 0 {
		o.MinFiles = 2
	}
	return o
}

// ProgressFunc receives coarse pipeline progress for streaming to watchers.
type ProgressFunc func(stage string, percent int, message string)

// Service runs the fetch -> filter -> compress -> model -> remap pipeline.
type Service struct {
	fetch   Fetcher
	model   llm.Client
	results ResultStore
	opts    Options
}

func New(fetch Fetcher, model llm.Client, results ResultStore, opts Options) *Service {
	return &Service{fetch: fetch, model: model, results: results, opts: opts.withDefaults()}
}

// Generate produces a walkthrough for the repository at rawURL. progress may
// be nil.
func (s *Service) Generate(ctx context.Context, rawURL string, progress ProgressFunc) (*Walkthrough, error) {
	report := func(stage string, pct int, msg string) {
		if progress != nil {
			progress(stage, pct, msg)
		}
	}

	owner, repo, err := gh.ParseRepoURL(rawURL)
	if err != nil {
		return nil, err
	}
	report("resolve", 5, fmt.Sprintf("resolved %s/%s", owner, repo))

	tree, err := s.fetch.GetTree(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	treeMsg := fmt.Sprintf("listed %d entries at %.7s", len(tree.Entries), tree.CommitSHA)
	if tree.Truncated {
		treeMsg += " (listing truncated; analyzing a partial tree)"
		log.Printf("walkthrough: %s/%s tree listing truncated at %d entries", owner, repo, len(tree.Entries))
	}
	report("tree", 15, treeMsg)

	if s.results != nil {
		if cached, ok := s.results.FindByCommit(owner, repo, tree.CommitSHA); ok {
			report("cached", 100, fmt.Sprintf("reusing walkthrough %s for unchanged commit", cached.ID))
			return cached, nil
		}
	}

	filtered := Filter(tree.Entries, s.opts.Extensions, s.opts.MaxFileBytes)
	if len(filtered) < s.opts.MinFiles {
		return nil, fmt.Errorf("%w: %d of %d entries analyzable", ErrTooFewFiles, len(filtered), len(tree.Entries))
	}
	selected := SelectEntries(filtered, s.opts.Budget)
	report("select", 25, fmt.Sprintf("selected %d of %d analyzable files", len(selected), len(filtered)))

	files, err := s.fetch.FetchBlobs(ctx, tree, selected)
	if err != nil {
		return nil, fmt.Errorf("walkthrough: fetch blobs: %w", err)
	}
	if len(files) < s.opts.MinFiles {
		return nil, fmt.Errorf("%w: only %d files fetched", ErrTooFewFiles, len(files))
	}
	report("fetch", 55, fmt.Sprintf("fetched %d files", len(files)))

	sources := make(map[string]sourceFile, len(files))
	input := promptInput{Repo: owner + "/" + repo, Commit: tree.CommitSHA}
	for _, f := range files {
		src := newSourceFile(f.Content)
		if src.comp.LineCount() == 0 {
			continue
		}
		sources[f.Path] = src
		input.Files = append(input.Files, promptFile{
			Filename: f.Path,
			Language: LanguageForPath(f.Path),
			Content:  src.comp.Text,
		})
	}
	if len(input.Files) < s.opts.MinFiles {
		return nil, fmt.Errorf("%w: %d non-empty files after compression", ErrTooFewFiles, len(input.Files))
	}
	report("prompt", 65, fmt.Sprintf("prompting with %d compressed files", len(input.Files)))

	raw, err := s.model.GenerateJSON(llm.WithPhase(ctx, "sections"), sectionsPrompt, input)
	if err != nil {
		return nil, fmt.Errorf("walkthrough: model: %w", err)
	}
	report("model", 85, fmt.Sprintf("model returned %d bytes", len(raw)))

	var resp modelResponse
	if err := jsonutil.UnmarshalFlex(raw, &resp); err != nil {
		// Some models return the bare array instead of the wrapper object.
		var bare []modelSection
		if err2 := jsonutil.UnmarshalFlex(raw, &bare); err2 != nil {
			return nil, fmt.Errorf("%w: %v", ErrModelResponse, err)
		}
		resp.Sections = bare
	}
	if len(resp.Sections) == 0 {
		return nil, fmt.Errorf("%w: no sections", ErrModelResponse)
	}

	sections := remapSections(resp.Sections, sources)
	if len(sections) == 0 {
		return nil, fmt.Errorf("%w: all sections empty after remap", ErrModelResponse)
	}
	edges := BuildEdges(files)
	report("remap", 95, fmt.Sprintf("%d sections, %d edges", len(sections), len(edges)))

	w := &Walkthrough{
		ID:        uuid.NewString(),
		RepoURL:   "https://github.com/" + owner + "/" + repo,
		Owner:     owner,
		Repo:      repo,
		Commit:    tree.CommitSHA,
		Sections:  sections,
		Edges:     edges,
		CreatedAt: time.Now().UTC(),
	}
	if s.results != nil {
		if err := s.results.Put(w); err != nil {
			log.Printf("walkthrough %s: persist: %v", w.ID, err)
		}
	}
	log.Printf("walkthrough %s: %s/%s@%.7s, %d sections", w.ID, owner, repo, tree.CommitSHA, len(sections))
	return w, nil
}
