package driven

import (
	"context"
	"net/http"
)

// MeResult is the outcome of a "who am I" lookup. StatusCode and Header
// are always populated so the caller can record rate-limit headers and
// branch on non-success statuses; the identity fields are only set on
// success.
type MeResult struct {
	ID         string
	Name       string
	Username   string
	StatusCode int
	Header     http.Header
}

// BlockingPage is one page of the "accounts blocked by me" endpoint.
// NextToken is empty on the final page.
type BlockingPage struct {
	Usernames  []string
	NextToken  string
	StatusCode int
	Header     http.Header
}

// XProvider is the X API v2 surface the sync engine uses. Methods
// return an error only for transport or decoding failures; HTTP-level
// non-success is reported through StatusCode so the engine can apply
// its own policy (record headers, treat 429 as a pagination stop).
type XProvider interface {
	Me(ctx context.Context) (*MeResult, error)
	Blocking(ctx context.Context, userID, paginationToken string) (*BlockingPage, error)
}

// TokenProvider supplies a currently valid access token. Implemented by
// the session manager; called by API clients immediately before each
// request so a mid-process refresh is picked up transparently.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}
