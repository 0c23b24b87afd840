package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/blockwatch/internal/core/domain"
)

// CredentialStore persists the single managed credential.
type CredentialStore interface {
	// GetCredential returns the stored credential, or domain.ErrNotFound
	// if none has been saved yet.
	GetCredential(ctx context.Context) (*domain.Credential, error)

	// SaveCredential replaces the stored credential. The write is
	// all-or-nothing; a failed save leaves the previous record intact.
	SaveCredential(ctx context.Context, cred *domain.Credential) error

	// DeleteCredential removes the stored credential.
	DeleteCredential(ctx context.Context) error
}

// RateLimitStore persists per-endpoint rate-limit windows.
type RateLimitStore interface {
	// GetWindow returns the window for an endpoint, or domain.ErrNotFound
	// if none exists or the stored one has passed its expiry.
	GetWindow(ctx context.Context, endpoint string) (*domain.RateLimitWindow, error)

	// SaveWindow stores a window, overwriting any previous one for the
	// endpoint. expiresAt is when the record stops being relevant and
	// may be dropped.
	SaveWindow(ctx context.Context, window *domain.RateLimitWindow, expiresAt time.Time) error
}

// BlocklistStore persists the blocked-username set.
type BlocklistStore interface {
	// ReplaceBlocked atomically replaces the whole set. Usernames are
	// case-normalized to lowercase; readers never observe a
	// half-replaced set.
	ReplaceBlocked(ctx context.Context, usernames []string) error

	// IsBlocked is a case-insensitive membership test. An empty
	// username is never blocked.
	IsBlocked(ctx context.Context, username string) (bool, error)

	// CountBlocked returns the current set size.
	CountBlocked(ctx context.Context) (int, error)
}

// SyncRunStore records sync pass outcomes.
type SyncRunStore interface {
	// SaveRun persists one run record.
	SaveRun(ctx context.Context, run *domain.SyncRun) error

	// ListRuns returns up to limit runs, most recent first.
	ListRuns(ctx context.Context, limit int) ([]domain.SyncRun, error)
}
