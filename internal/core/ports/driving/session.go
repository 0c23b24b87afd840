package driving

import (
	"context"

	"github.com/custodia-labs/blockwatch/internal/core/domain"
)

// SessionManager owns the single OAuth credential for the process.
type SessionManager interface {
	// EnsureValidSession returns a credential valid for at least the
	// expiry buffer. It runs the interactive login flow when no refresh
	// token is known and refreshes proactively when expiry approaches.
	// On failure, stored state is left untouched. The returned value is
	// a snapshot; mutating it does not affect the manager.
	EnsureValidSession(ctx context.Context) (*domain.Credential, error)

	// CacheUserID stores the owner account id on the credential and
	// persists it, so later syncs skip the "who am I" lookup.
	CacheUserID(ctx context.Context, id string) error

	// Login always runs the interactive authorization-code flow,
	// replacing any existing credential on success.
	Login(ctx context.Context) (*domain.Credential, error)
}
