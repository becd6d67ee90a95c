package alsource

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/go-github/v74/github"
)

// GitHubAdapter fetches .al files from a GitHub repository. Listing the
// tree goes through the GitHub API (go-github); fetching each file's raw
// content goes through a plain HTTP client (resty) against
// raw.githubusercontent.com, mirroring original_source/.../adapters/
// github.py's split between the git-trees API for listing and raw blob
// fetches for content.
type GitHubAdapter struct {
	// Repo is "owner/name".
	Repo string
	// Ref is a branch, tag, or commit SHA. Defaults to "main".
	Ref string
	// Token is an optional GitHub token, used for private repos and to
	// raise API rate limits.
	Token string
	// Paths, if non-empty, restricts discovery to files whose repository
	// path starts with one of these prefixes.
	Paths []string

	ghClient   *github.Client
	restClient *resty.Client
}

// NewGitHubAdapter returns a GitHubAdapter over repo ("owner/name") at the
// "main" branch.
func NewGitHubAdapter(repo string) *GitHubAdapter {
	return &GitHubAdapter{Repo: repo, Ref: "main"}
}

func (a *GitHubAdapter) ownerRepo() (owner, repo string, err error) {
	parts := strings.SplitN(a.Repo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf(`alsource: invalid repo %q, want "owner/name"`, a.Repo)
	}
	return parts[0], parts[1], nil
}

func (a *GitHubAdapter) client() *github.Client {
	if a.ghClient == nil {
		c := github.NewClient(nil)
		if a.Token != "" {
			c = c.WithAuthToken(a.Token)
		}
		a.ghClient = c
	}
	return a.ghClient
}

func (a *GitHubAdapter) rest() *resty.Client {
	if a.restClient == nil {
		a.restClient = resty.New().SetTimeout(30 * time.Second)
	}
	return a.restClient
}

func (a *GitHubAdapter) ref() string {
	if a.Ref == "" {
		return "main"
	}
	return a.Ref
}

// Files implements FileSource.
func (a *GitHubAdapter) Files(ctx context.Context) ([]SourceFile, error) {
	owner, repo, err := a.ownerRepo()
	if err != nil {
		return nil, err
	}

	tree, _, err := a.client().Git.GetTree(ctx, owner, repo, a.ref(), true)
	if err != nil {
		return nil, fmt.Errorf("alsource: listing tree for %s: %w", a.Repo, err)
	}

	var files []SourceFile
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}
		path := entry.GetPath()
		if !isALFile(path) || !a.pathAllowed(path) {
			continue
		}
		content, err := a.fetchRaw(ctx, owner, repo, path)
		if err != nil {
			return nil, err
		}
		files = append(files, SourceFile{Path: path, Content: content})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// GetAppJSON fetches app.json from the repository root, returning ("", nil)
// if it doesn't exist.
func (a *GitHubAdapter) GetAppJSON(ctx context.Context) (string, error) {
	owner, repo, err := a.ownerRepo()
	if err != nil {
		return "", err
	}
	content, err := a.fetchRaw(ctx, owner, repo, "app.json")
	if isNotFound(err) {
		return "", nil
	}
	return content, err
}

func (a *GitHubAdapter) pathAllowed(path string) bool {
	if len(a.Paths) == 0 {
		return true
	}
	for _, prefix := range a.Paths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (a *GitHubAdapter) fetchRaw(ctx context.Context, owner, repo, path string) (string, error) {
	url := fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s", owner, repo, a.ref(), path)
	req := a.rest().R().SetContext(ctx)
	if a.Token != "" {
		req.SetHeader("Authorization", "Bearer "+a.Token)
	}
	resp, err := req.Get(url)
	if err != nil {
		return "", fmt.Errorf("alsource: fetching %s: %w", path, err)
	}
	if resp.StatusCode() == 404 {
		return "", errNotFound
	}
	if resp.IsError() {
		return "", fmt.Errorf("alsource: fetching %s: status %d", path, resp.StatusCode())
	}
	return resp.String(), nil
}

var errNotFound = fmt.Errorf("alsource: not found")

func isNotFound(err error) bool {
	return err == errNotFound
}
