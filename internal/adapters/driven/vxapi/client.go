// Package vxapi resolves tweet authors through the public vxtwitter
// JSON mirror, so the message listener spends no X API quota.
package vxapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/blockwatch/internal/core/domain"
	"github.com/custodia-labs/blockwatch/internal/core/ports/driven"
)

// DefaultHost is the vxtwitter API host.
const DefaultHost = "api.vxtwitter.com"

// DefaultTimeout bounds a single resolution request.
const DefaultTimeout = 15 * time.Second

// Ensure Client implements the port.
var _ driven.TweetResolver = (*Client)(nil)

// Client resolves status URLs by rewriting their host to the vxtwitter
// mirror and decoding its JSON payload.
type Client struct {
	host       string
	scheme     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHost overrides the mirror host. Used by tests.
func WithHost(host string) Option {
	return func(c *Client) { c.host = host }
}

// WithScheme overrides the request scheme. Used by tests.
func WithScheme(scheme string) Option {
	return func(c *Client) { c.scheme = scheme }
}

// NewClient creates a resolver client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		host:       DefaultHost,
		scheme:     "https",
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResolveStatus fetches the tweet behind a matched status URL.
func (c *Client) ResolveStatus(ctx context.Context, statusURL string) (*domain.Tweet, error) {
	u, err := url.Parse(statusURL)
	if err != nil {
		return nil, fmt.Errorf("parse status url: %w", err)
	}
	u.Scheme = c.scheme
	u.Host = c.host

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u.String(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vxtwitter returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	// The mirror reports scan failures with a 200 and a plain message.
	if bytes.Contains(body, []byte("Failed to scan your link")) {
		return nil, fmt.Errorf("vxtwitter could not scan %s", statusURL)
	}

	var payload struct {
		Text       string `json:"text"`
		TweetID    string `json:"tweetID"`
		TweetURL   string `json:"tweetURL"`
		UserName   string `json:"user_name"`
		ScreenName string `json:"user_screen_name"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode tweet payload: %w", err)
	}
	if strings.TrimSpace(payload.ScreenName) == "" {
		return nil, fmt.Errorf("tweet payload carried no author handle")
	}

	return &domain.Tweet{
		ID:         payload.TweetID,
		URL:        payload.TweetURL,
		Text:       payload.Text,
		AuthorName: payload.UserName,
		ScreenName: payload.ScreenName,
	}, nil
}
