// Package gh fetches repository trees and blob contents from the GitHub
// REST API.
package gh

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/go-github/v68/github"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"

	"codewalk/internal/cache/memory"
)

var ErrRepoNotFound = errors.New("gh: repository not found")

// TreeEntry is one blob in a repository tree listing.
type TreeEntry struct {
	Path string
	SHA  string
	Size int
}

// File is a fetched blob with decoded content.
type File struct {
	Path    string
	SHA     string
	Content string
}

// Tree is a repository snapshot: the resolved commit plus its blob entries.
type Tree struct {
	Owner     string
	Repo      string
	Branch    string
	CommitSHA string
	Entries   []TreeEntry
	Truncated bool
}

// Options configures a Client. Zero values fall back to sane defaults.
type Options struct {
	Token       string
	BaseURL     string  // GitHub Enterprise base URL; empty for github.com
	RPS         float64 // client-side request rate; <=0 disables
	Burst       int
	Concurrency int // parallel blob fetches; default 8
	CacheTTL    time.Duration
}

// Client wraps the go-github client with rate limiting and a blob cache.
type Client struct {
	gh          *github.Client
	limiter     *rate.Limiter
	concurrency int
	blobs       *memory.LRUTTL[string, string]
}

func NewClient(opts Options) (*Client, error) {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.Logger = nil
	hc := rc.StandardClient()
	hc.Timeout = 30 * time.Second

	cli := github.NewClient(hc)
	if tok := strings.TrimSpace(opts.Token); tok != "" {
		cli = cli.WithAuthToken(tok)
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		var err error
		cli, err = cli.WithEnterpriseURLs(base, base)
		if err != nil {
			return nil, fmt.Errorf("gh: enterprise base url: %w", err)
		}
	}

	var limiter *rate.Limiter
	if opts.RPS > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 8
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	return &Client{
		gh:          cli,
		limiter:     limiter,
		concurrency: concurrency,
		// Blob contents are immutable per SHA; cap the cache at 64 MiB.
		blobs: memory.NewLRUTTL[string, string](4096, 64<<20, ttl),
	}, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// GetTree resolves the repository's default branch and lists its full tree.
func (c *Client) GetTree(ctx context.Context, owner, repo string) (*Tree, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	r, resp, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s/%s", ErrRepoNotFound, owner, repo)
		}
		return nil, fmt.Errorf("gh: get repository %s/%s: %w", owner, repo, err)
	}
	branch := r.GetDefaultBranch()
	if branch == "" {
		branch = "main"
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	b, _, err := c.gh.Repositories.GetBranch(ctx, owner, repo, branch, 1)
	if err != nil {
		return nil, fmt.Errorf("gh: get branch %s: %w", branch, err)
	}
	commit := b.GetCommit().GetSHA()

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	tree, _, err := c.gh.Git.GetTree(ctx, owner, repo, commit, true)
	if err != nil {
		return nil, fmt.Errorf("gh: get tree %s@%s: %w", repo, commit, err)
	}

	entries := make([]TreeEntry, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		if e.GetType() != "blob" {
			continue
		}
		entries = append(entries, TreeEntry{
			Path: e.GetPath(),
			SHA:  e.GetSHA(),
			Size: e.GetSize(),
		})
	}

	return &Tree{
		Owner:     owner,
		Repo:      repo,
		Branch:    branch,
		CommitSHA: commit,
		Entries:   entries,
		Truncated: tree.GetTruncated(),
	}, nil
}

// FetchBlobs downloads the given entries concurrently. Entries that fail to
// download or decode are skipped and logged; order of the result follows the
// input order.
func (c *Client) FetchBlobs(ctx context.Context, t *Tree, entries []TreeEntry) ([]File, error) {
	if t == nil {
		return nil, errors.New("gh: tree is nil")
	}

	results := make([]*File, len(entries))
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(c.concurrency)
	for i, e := range entries {
		i, e := i, e
		p.Go(func() {
			content, err := c.fetchBlob(ctx, t.Owner, t.Repo, e.SHA)
			if err != nil {
				log.Printf("gh: skip %s: %v", e.Path, err)
				return
			}
			mu.Lock()
			results[i] = &File{Path: e.Path, SHA: e.SHA, Content: content}
			mu.Unlock()
		})
	}
	p.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	files := make([]File, 0, len(entries))
	for _, f := range results {
		if f != nil {
			files = append(files, *f)
		}
	}
	return files, nil
}

func (c *Client) fetchBlob(ctx context.Context, owner, repo, sha string) (string, error) {
	if content, ok := c.blobs.Get(sha); ok {
		return content, nil
	}
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	blob, _, err := c.gh.Git.GetBlob(ctx, owner, repo, sha)
	if err != nil {
		return "", err
	}
	raw := blob.GetContent()
	if blob.GetEncoding() == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(raw, "\n", ""))
		if err != nil {
			return "", fmt.Errorf("decode blob %s: %w", sha, err)
		}
		raw = string(decoded)
	}
	c.blobs.Set(sha, raw, len(raw))
	return raw, nil
}
