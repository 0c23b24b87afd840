// Package xapi implements the X API v2 resource endpoints the sync
// engine uses: the authenticated user lookup and the blocking list.
package xapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/blockwatch/internal/core/ports/driven"
)

const (
	// DefaultBaseURL is the X API v2 host.
	DefaultBaseURL = "https://api.x.com"

	// PageSize is the max_results value for blocking-list pages.
	PageSize = 1000

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// proactiveInterval paces outgoing requests under the provider's
	// window limits regardless of what the persisted tracker has seen.
	proactiveInterval = 2 * time.Second
)

// Ensure Client implements the port.
var _ driven.XProvider = (*Client)(nil)

// Client is a thin X API v2 client. Authorization uses bearer tokens
// supplied per request by the token provider, so a mid-process refresh
// is picked up transparently. Non-success statuses are reported through
// the result types, not as errors; the sync engine owns that policy.
type Client struct {
	baseURL    string
	tokens     driven.TokenProvider
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API host. Used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// NewClient creates an X API client with proactive request pacing.
func NewClient(tokens driven.TokenProvider, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Every(proactiveInterval), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Me calls GET /2/users/me.
func (c *Client) Me(ctx context.Context) (*driven.MeResult, error) {
	resp, err := c.get(ctx, c.baseURL+"/2/users/me")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	result := &driven.MeResult{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
	}
	if resp.StatusCode != http.StatusOK {
		return result, nil
	}

	var payload struct {
		Data *struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Username string `json:"username"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode users/me response: %w", err)
	}
	if payload.Data != nil {
		result.ID = payload.Data.ID
		result.Name = payload.Data.Name
		result.Username = payload.Data.Username
	}
	return result, nil
}

// Blocking calls GET /2/users/{id}/blocking for one page.
// paginationToken is empty for the first page.
func (c *Client) Blocking(ctx context.Context, userID, paginationToken string) (*driven.BlockingPage, error) {
	q := url.Values{}
	q.Set("max_results", strconv.Itoa(PageSize))
	if paginationToken != "" {
		q.Set("pagination_token", paginationToken)
	}
	u := fmt.Sprintf("%s/2/users/%s/blocking?%s", c.baseURL, url.PathEscape(userID), q.Encode())

	resp, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	page := &driven.BlockingPage{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
	}
	if resp.StatusCode != http.StatusOK {
		return page, nil
	}

	var payload struct {
		Data []struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Username string `json:"username"`
		} `json:"data"`
		Meta *struct {
			NextToken string `json:"next_token"`
		} `json:"meta"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode users/blocking response: %w", err)
	}
	for _, u := range payload.Data {
		page.Usernames = append(page.Usernames, u.Username)
	}
	if payload.Meta != nil {
		page.NextToken = payload.Meta.NextToken
	}
	return page, nil
}

// get issues a paced, bearer-authenticated GET.
func (c *Client) get(ctx context.Context, u string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", "blockwatch/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", u, err)
	}
	return resp, nil
}
