package gh

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var ErrInvalidRepoURL = errors.New("gh: not a valid GitHub repository URL")

// ParseRepoURL extracts owner and repo from a GitHub repository URL.
// Accepted forms:
//
//	https://github.com/{owner}/{repo}
//	https://github.com/{owner}/{repo}.git
//	github.com/{owner}/{repo}
//
// Deep links (blob/tree paths) and non-GitHub hosts are rejected.
func ParseRepoURL(raw string) (owner, repo string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", ErrInvalidRepoURL
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidRepoURL, err)
	}
	host := strings.ToLower(u.Hostname())
	if host != "github.com" && host != "www.github.com" {
		return "", "", fmt.Errorf("%w: host %q", ErrInvalidRepoURL, u.Hostname())
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: path %q", ErrInvalidRepoURL, u.Path)
	}
	owner = parts[0]
	repo = strings.TrimSuffix(parts[1], ".git")
	if repo == "" {
		return "", "", fmt.Errorf("%w: path %q", ErrInvalidRepoURL, u.Path)
	}
	return owner, repo, nil
}
