package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.github.com"

// Client is a minimal source-hosting API client. Every call is bounded by
// the underlying http.Client timeout and the caller's context.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client against the public GitHub API
func NewClient(timeout time.Duration) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NewClientWithBaseURL creates a client against a custom API endpoint,
// used by tests to point at a stub server
func NewClientWithBaseURL(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// APIError is a non-2xx upstream response
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github api error: status %d: %s", e.StatusCode, e.Body)
}

// IsRateLimited reports whether the upstream rejected the call for quota reasons
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusForbidden || e.StatusCode == http.StatusTooManyRequests
}

func (c *Client) get(ctx context.Context, token, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	// An empty token means an anonymous call; a bare "Bearer" header would
	// turn a public endpoint into a 401
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("github request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode github response: %w", err)
	}
	return nil
}

// GetUser fetches a user's public profile
func (c *Client) GetUser(ctx context.Context, token, username string) (*UserProfile, error) {
	var profile UserProfile
	if err := c.get(ctx, token, "/users/"+url.PathEscape(username), &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListPersonalRepos fetches the authenticated user's repositories,
// most recently updated first
func (c *Client) ListPersonalRepos(ctx context.Context, token string) ([]*Repository, error) {
	var repos []*Repository
	if err := c.get(ctx, token, "/user/repos?per_page=100&sort=updated&direction=desc&type=all", &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// ListOrgs fetches the authenticated user's organization memberships
func (c *Client) ListOrgs(ctx context.Context, token string) ([]*Organization, error) {
	var orgs []*Organization
	if err := c.get(ctx, token, "/user/orgs", &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

// ListOrgRepos fetches an organization's repositories, most recently updated first
func (c *Client) ListOrgRepos(ctx context.Context, token, org string) ([]*Repository, error) {
	var repos []*Repository
	path := fmt.Sprintf("/orgs/%s/repos?per_page=100&sort=updated&direction=desc", url.PathEscape(org))
	if err := c.get(ctx, token, path, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// ListIssues fetches open issues for a repository filtered by labels.
// The upstream endpoint conflates issues and pull requests; callers must
// skip entries with a non-nil PullRequest field.
func (c *Client) ListIssues(ctx context.Context, token, repoFullName, labels string, perPage int) ([]*Issue, error) {
	var issues []*Issue
	path := fmt.Sprintf("/repos/%s/issues?state=open&labels=%s&per_page=%d",
		repoFullName, url.QueryEscape(labels), perPage)
	if err := c.get(ctx, token, path, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

// GetRepo fetches a single repository by owner and name
func (c *Client) GetRepo(ctx context.Context, token, owner, repo string) (*Repository, error) {
	var r Repository
	path := fmt.Sprintf("/repos/%s/%s", url.PathEscape(owner), url.PathEscape(repo))
	if err := c.get(ctx, token, path, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
