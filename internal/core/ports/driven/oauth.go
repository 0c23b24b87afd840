package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/blockwatch/internal/core/domain"
)

// TokenExchanger talks to the provider's token endpoint. Both calls
// authenticate with HTTP Basic auth using the client id and secret.
type TokenExchanger interface {
	// Exchange swaps an authorization code (plus the PKCE verifier that
	// produced its challenge) for a credential. The returned credential
	// has ExpiresAt computed from the response's expires_in.
	Exchange(ctx context.Context, code, redirectURI, codeVerifier string) (*domain.Credential, error)

	// Refresh obtains a new credential from a refresh token.
	Refresh(ctx context.Context, refreshToken string) (*domain.Credential, error)
}

// CodeReceiver runs the one-shot local callback listener for the
// authorization-code flow. It accepts exactly one request on the
// redirect URI, validates the state parameter against expectedState,
// and returns the authorization code.
//
// Receive never outlives its context: cancellation or the timeout
// releases the listener socket.
type CodeReceiver interface {
	Receive(ctx context.Context, redirectURI, expectedState string, timeout time.Duration) (string, error)
}
