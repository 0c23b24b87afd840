// Package oauth implements the provider's token endpoint: the initial
// authorization-code exchange and refreshes, both authenticated with
// HTTP Basic auth of client_id:client_secret.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/blockwatch/internal/core/domain"
	"github.com/custodia-labs/blockwatch/internal/core/ports/driven"
)

// DefaultAuthorizeURL is the X OAuth2 browser authorization endpoint.
const DefaultAuthorizeURL = "https://twitter.com/i/oauth2/authorize"

// DefaultTokenURL is the X API v2 token endpoint.
const DefaultTokenURL = "https://api.twitter.com/2/oauth2/token"

// requestTimeout bounds a single token-endpoint call.
const requestTimeout = 30 * time.Second

// Ensure TokenClient implements the port.
var _ driven.TokenExchanger = (*TokenClient)(nil)

// TokenClient talks to the OAuth token endpoint for a single client.
type TokenClient struct {
	tokenURL     string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	now          func() time.Time
}

// NewTokenClient creates a token client for the given OAuth app.
// tokenURL may be empty to use DefaultTokenURL.
func NewTokenClient(tokenURL, clientID, clientSecret string) *TokenClient {
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	return &TokenClient{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: requestTimeout},
		now:          time.Now,
	}
}

// Exchange swaps an authorization code for a credential.
func (c *TokenClient) Exchange(ctx context.Context, code, redirectURI, codeVerifier string) (*domain.Credential, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("client_id", c.clientID)
	data.Set("redirect_uri", redirectURI)
	data.Set("code_verifier", codeVerifier)

	cred, err := c.post(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenExchange, err)
	}
	return cred, nil
}

// Refresh obtains a new credential from a refresh token.
func (c *TokenClient) Refresh(ctx context.Context, refreshToken string) (*domain.Credential, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)
	data.Set("client_id", c.clientID)

	cred, err := c.post(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenRefreshFailed, err)
	}
	return cred, nil
}

// post issues a form-encoded token request and decodes the credential,
// computing the absolute expiry from expires_in.
func (c *TokenClient) post(ctx context.Context, data url.Values) (*domain.Credential, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.clientID, c.clientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error       string `json:"error"`
			Description string `json:"error_description"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
			return nil, fmt.Errorf("token error: %s - %s", errResp.Error, errResp.Description)
		}
		return nil, fmt.Errorf("token request failed with status %d", resp.StatusCode)
	}

	var cred domain.Credential
	if err := json.NewDecoder(resp.Body).Decode(&cred); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}

	// Expiry is always derived from issue time + lifetime, never read
	// back from the payload.
	cred.ExpiresAt = c.now().UTC().Add(time.Duration(cred.ExpiresIn) * time.Second)
	return &cred, nil
}
