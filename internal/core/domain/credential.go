package domain

import "time"

// ExpiryBuffer is how long before the access token's expiry a refresh
// is triggered. A token inside the buffer is treated as already stale.
const ExpiryBuffer = time.Minute

// Credential holds the OAuth tokens for the single managed X account.
//
// There is exactly one Credential per process. The session manager owns
// the writable copy; everything else reads snapshots through its accessor.
type Credential struct {
	// AccessToken is the bearer token for API access.
	AccessToken string `json:"access_token"`
	// RefreshToken is used to obtain new access tokens. May be absent.
	RefreshToken string `json:"refresh_token,omitempty"`
	// TokenType is typically "Bearer".
	TokenType string `json:"token_type"`
	// ExpiresIn is the issued lifetime in seconds, as reported by the provider.
	ExpiresIn int `json:"expires_in"`
	// ExpiresAt is the absolute expiry instant (UTC), always computed as
	// issue time + ExpiresIn, never trusted from elsewhere.
	ExpiresAt time.Time `json:"expires_at"`
	// UserID is the owning account's X user id, cached after the first
	// "who am I" lookup so subsequent syncs skip that call.
	UserID string `json:"user_id,omitempty"`
}

// HasRefreshToken returns true if a refresh token is available.
func (c *Credential) HasRefreshToken() bool {
	return c != nil && c.RefreshToken != ""
}

// NeedsRefresh returns true if the access token expires within the buffer
// as of the given instant.
func (c *Credential) NeedsRefresh(now time.Time) bool {
	if c == nil || c.ExpiresAt.IsZero() {
		return true
	}
	return !now.Before(c.ExpiresAt.Add(-ExpiryBuffer))
}

// Clone returns an independent copy so callers can never mutate the
// session manager's state through a returned credential.
func (c *Credential) Clone() *Credential {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
