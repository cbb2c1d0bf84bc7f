package forge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultAPIURL is the GitHub REST API base URL.
	DefaultAPIURL = "https://api.github.com"

	// DefaultRawURL serves raw file bodies.
	DefaultRawURL = "https://raw.githubusercontent.com"

	// DefaultTimeout bounds every forge call.
	DefaultTimeout = 15 * time.Second
)

// GitHubClient implements Client against the GitHub REST API.
type GitHubClient struct {
	apiURL     string
	rawURL     string
	token      string
	httpClient *http.Client
}

// GitHubOption is a functional option for configuring GitHubClient.
type GitHubOption func(*GitHubClient)

// WithAPIURL sets a custom API base URL (for GitHub Enterprise or tests).
func WithAPIURL(url string) GitHubOption {
	return func(c *GitHubClient) {
		c.apiURL = strings.TrimSuffix(url, "/")
	}
}

// WithRawURL sets a custom raw-content base URL.
func WithRawURL(url string) GitHubOption {
	return func(c *GitHubClient) {
		c.rawURL = strings.TrimSuffix(url, "/")
	}
}

// WithToken sets a bearer token to extend API rate limits.
func WithToken(token string) GitHubOption {
	return func(c *GitHubClient) {
		c.token = token
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) GitHubOption {
	return func(c *GitHubClient) {
		c.httpClient = client
	}
}

// NewGitHubClient creates a forge client with the given options.
func NewGitHubClient(opts ...GitHubOption) *GitHubClient {
	c := &GitHubClient{
		apiURL: DefaultAPIURL,
		rawURL: DefaultRawURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// repoResponse is the subset of repository metadata we read.
type repoResponse struct {
	DefaultBranch string `json:"default_branch"`
}

// treeResponse is the subset of a git tree listing we read.
type treeResponse struct {
	Tree []struct {
		Path string `json:"path"`
		Type string `json:"type"`
	} `json:"tree"`
	Truncated bool `json:"truncated"`
}

// DefaultBranch resolves the default branch from repository metadata.
func (c *GitHubClient) DefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s", c.apiURL, owner, repo)

	var meta repoResponse
	if err := c.getJSON(ctx, url, &meta); err != nil {
		return "", fmt.Errorf("resolving default branch: %w", err)
	}
	if meta.DefaultBranch == "" {
		return "", fmt.Errorf("resolving default branch: empty default_branch for %s/%s", owner, repo)
	}

	return meta.DefaultBranch, nil
}

// ListTree lists blob paths recursively. On failure it retries once on the
// alternate of main/master and returns the branch that actually served the
// listing.
func (c *GitHubClient) ListTree(ctx context.Context, owner, repo, branch string) ([]string, string, error) {
	paths, err := c.listTreeOnce(ctx, owner, repo, branch)
	if err == nil {
		return paths, branch, nil
	}

	alt := alternateBranch(branch)
	paths, altErr := c.listTreeOnce(ctx, owner, repo, alt)
	if altErr == nil {
		return paths, alt, nil
	}

	return nil, "", fmt.Errorf("%w: listing tree for %s/%s@%s: %v", ErrUpstream, owner, repo, branch, err)
}

func (c *GitHubClient) listTreeOnce(ctx context.Context, owner, repo, branch string) ([]string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/git/trees/%s?recursive=1", c.apiURL, owner, repo, branch)

	var tree treeResponse
	if err := c.getJSON(ctx, url, &tree); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(tree.Tree))
	for _, entry := range tree.Tree {
		if entry.Type == "blob" {
			paths = append(paths, entry.Path)
		}
	}

	return paths, nil
}

// alternateBranch returns the other of main/master. For any other branch
// the fallback lands on main first, matching the resolution order used
// when no default branch could be read.
func alternateBranch(branch string) string {
	if branch == "main" {
		return "master"
	}
	return "main"
}

// FetchRaw fetches one file body. Failures, oversized bodies, and binary
// content all yield ok=false so the pipeline skips the file instead of
// aborting the whole build.
func (c *GitHubClient) FetchRaw(ctx context.Context, owner, repo, branch, path string) (string, bool) {
	url := fmt.Sprintf("%s/%s/%s/%s/%s", c.rawURL, owner, repo, branch, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	// Read one byte past the cap to detect oversized bodies without
	// buffering them.
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxFileBytes+1))
	if err != nil {
		return "", false
	}
	if len(body) > MaxFileBytes {
		return "", false
	}
	if containsNUL(body) {
		return "", false
	}

	return string(body), true
}

// FetchReadme fetches the repository README in raw form. Any failure
// degrades to an empty string.
func (c *GitHubClient) FetchReadme(ctx context.Context, owner, repo string) string {
	url := fmt.Sprintf("%s/repos/%s/%s/readme", c.apiURL, owner, repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("Accept", "application/vnd.github.v3.raw")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxFileBytes))
	if err != nil {
		return ""
	}

	return string(body)
}

// getJSON performs an authorized GET and decodes a JSON body.
func (c *GitHubClient) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("github API error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

func (c *GitHubClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func containsNUL(b []byte) bool {
	for _, c := range b {
		if c == 0 {
			return true
		}
	}
	return false
}

// Ensure GitHubClient implements Client.
var _ Client = (*GitHubClient)(nil)
