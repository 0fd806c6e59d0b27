// Package github implements the documentation content source on top of the
// GitHub REST API.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/formwork-dev/docs-mcp-server/internal/docs"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public GitHub API endpoint
	DefaultBaseURL = "https://api.github.com"

	// DefaultTimeout bounds each HTTP request
	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerSecond paces requests to stay friendly with the API
	DefaultRequestsPerSecond = 5.0

	perPage = 100
)

// Client reads repository contents, tags and commits
type Client struct {
	owner      string
	repo       string
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      RetryPolicy
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API host (GitHub Enterprise, tests)
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithToken authenticates requests with a bearer token
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimit sets the client-side request rate. Zero or negative disables pacing.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithRetryPolicy replaces the retry policy
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) {
		c.retry = p
	}
}

// WithLogger sets the logger used for retries and degraded responses
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for owner/repo
func NewClient(owner, repo string, opts ...Option) *Client {
	c := &Client{
		owner:      owner,
		repo:       repo,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), 1),
		retry:      DefaultRetryPolicy(),
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry.Logger == nil {
		c.retry.Logger = c.logger
	}
	return c
}

// BlobURL is the canonical browser link of a file at ref
func (c *Client) BlobURL(path, ref string) string {
	return fmt.Sprintf("https://github.com/%s/%s/blob/%s/%s", c.owner, c.repo, ref, path)
}

type contentResponse struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Type     string `json:"type"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// GetFile returns the raw text of path at ref
func (c *Client) GetFile(ctx context.Context, path, ref string) (string, error) {
	var file contentResponse
	err := c.retry.Do(ctx, "get file "+path, func(ctx context.Context) error {
		return c.getJSON(ctx, c.contentsPath(path, ref), &file)
	})
	if err != nil {
		return "", err
	}

	if file.Encoding != "base64" {
		return file.Content, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(file.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", path, err)
	}
	return string(decoded), nil
}

// ListDirectory lists path at ref. A directory that does not exist at ref
// yields an empty listing, not an error.
func (c *Client) ListDirectory(ctx context.Context, path, ref string) ([]docs.Entry, error) {
	var items []contentResponse
	err := c.retry.Do(ctx, "list directory "+path, func(ctx context.Context) error {
		return c.getJSON(ctx, c.contentsPath(path, ref), &items)
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return []docs.Entry{}, nil
		}
		return nil, err
	}

	entries := make([]docs.Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, docs.Entry{Name: item.Name, Path: item.Path, Type: item.Type})
	}
	return entries, nil
}

// ListVersions returns the repository tag names. It is a single attempt;
// callers decide how to degrade.
func (c *Client) ListVersions(ctx context.Context) ([]string, error) {
	var tags []struct {
		Name string `json:"name"`
	}
	p := fmt.Sprintf("/repos/%s/%s/tags?per_page=%d", c.owner, c.repo, perPage)
	if err := c.getJSON(ctx, p, &tags); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	versions := make([]string, 0, len(tags))
	for _, tag := range tags {
		versions = append(versions, tag.Name)
	}
	return versions, nil
}

// ListChangesSince returns the distinct file paths touched under the
// documentation tree by commits on ref after since, in first-seen order.
func (c *Client) ListChangesSince(ctx context.Context, ref string, since time.Time) ([]string, error) {
	q := url.Values{}
	q.Set("sha", ref)
	q.Set("path", docs.SourceTree)
	q.Set("since", since.UTC().Format(time.RFC3339))
	q.Set("per_page", strconv.Itoa(perPage))

	type commitRef struct {
		SHA string `json:"sha"`
	}
	var commits []commitRef
	for page := 1; ; page++ {
		q.Set("page", strconv.Itoa(page))
		listPath := fmt.Sprintf("/repos/%s/%s/commits?%s", c.owner, c.repo, q.Encode())

		var batch []commitRef
		err := c.retry.Do(ctx, "list commits", func(ctx context.Context) error {
			return c.getJSON(ctx, listPath, &batch)
		})
		if err != nil {
			return nil, err
		}
		commits = append(commits, batch...)
		if len(batch) < perPage {
			break
		}
	}

	seen := make(map[string]struct{})
	var paths []string
	for _, commit := range commits {
		var detail struct {
			Files []struct {
				Filename string `json:"filename"`
			} `json:"files"`
		}
		detailPath := fmt.Sprintf("/repos/%s/%s/commits/%s", c.owner, c.repo, commit.SHA)
		err := c.retry.Do(ctx, "get commit "+commit.SHA, func(ctx context.Context) error {
			return c.getJSON(ctx, detailPath, &detail)
		})
		if err != nil {
			return nil, err
		}
		for _, f := range detail.Files {
			if _, ok := seen[f.Filename]; ok {
				continue
			}
			seen[f.Filename] = struct{}{}
			paths = append(paths, f.Filename)
		}
	}
	return paths, nil
}

func (c *Client) contentsPath(path, ref string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("/repos/%s/%s/contents/%s?ref=%s",
		c.owner, c.repo, strings.Join(segments, "/"), url.QueryEscape(ref))
}

// getJSON performs one GET and decodes the JSON body into out
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if rateErr := rateLimitFromResponse(resp, req.URL.String()); rateErr != nil {
		return rateErr
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, URL: req.URL.String(), Message: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// rateLimitFromResponse recognises primary and secondary rate limits
func rateLimitFromResponse(resp *http.Response, u string) *RateLimitError {
	if resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusTooManyRequests {
		return nil
	}

	if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
		if secs, err := strconv.Atoi(retryAfter); err == nil {
			return &RateLimitError{Reset: time.Now().Add(time.Duration(secs) * time.Second), URL: u}
		}
	}

	if resp.Header.Get("X-RateLimit-Remaining") == "0" || resp.StatusCode == http.StatusTooManyRequests {
		reset := time.Now()
		if v := resp.Header.Get("X-RateLimit-Reset"); v != "" {
			if unix, err := strconv.ParseInt(v, 10, 64); err == nil {
				reset = time.Unix(unix, 0)
			}
		}
		return &RateLimitError{Reset: reset, URL: u}
	}
	return nil
}
