// Package github is a minimal read-only client for the GitHub REST API,
// covering the single endpoint the app consumes: listing a repository's
// pull requests.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultAPIBase is the public GitHub REST API endpoint.
const DefaultAPIBase = "https://api.github.com"

// PullRequest is a pull request as returned by the GitHub API. It is
// never persisted.
type PullRequest struct {
	ID       int64      `json:"id"`
	Number   int        `json:"number"`
	Title    string     `json:"title"`
	URL      string     `json:"html_url"`
	State    string     `json:"state"`
	MergedAt *time.Time `json:"merged_at"`
	User     Author     `json:"user"`
}

// Author identifies the account that opened a pull request.
type Author struct {
	Login string `json:"login"`
}

// Client calls the GitHub REST API.
type Client struct {
	base   string
	token  string
	client *http.Client
}

// NewClient creates a GitHub client. base falls back to DefaultAPIBase
// when empty; token is optional and sent as a bearer token when set.
func NewClient(base, token string, timeout time.Duration) *Client {
	if base == "" {
		base = DefaultAPIBase
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		token:  token,
		client: &http.Client{Timeout: timeout},
	}
}

// ListPullRequests fetches all pull requests (state=all) for the given
// owner/repo. A non-2xx response is a hard failure.
func (c *Client) ListPullRequests(ctx context.Context, owner, repo string) ([]PullRequest, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls?state=all", c.base, owner, repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building pull request query: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching pull requests: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("github api error: %s", resp.Status)
	}

	var prs []PullRequest
	if err := json.NewDecoder(resp.Body).Decode(&prs); err != nil {
		return nil, fmt.Errorf("decoding pull requests: %w", err)
	}
	return prs, nil
}

// FilterByAuthor returns the pull requests whose author login equals
// login, compared case-insensitively.
func FilterByAuthor(prs []PullRequest, login string) []PullRequest {
	var out []PullRequest
	for _, pr := range prs {
		if strings.EqualFold(pr.User.Login, login) {
			out = append(out, pr)
		}
	}
	return out
}
