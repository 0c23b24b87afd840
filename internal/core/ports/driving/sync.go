package driving

import "context"

// BlocklistQuery is the read-only membership test exposed to the
// message listener. It never blocks on, and is never errored by, an
// in-flight sync.
type BlocklistQuery interface {
	// IsBlocked reports whether the username is in the persisted
	// blocked set. Case-insensitive; empty usernames are never blocked.
	IsBlocked(ctx context.Context, username string) (bool, error)
}

// BlocklistSync drives synchronization of the blocked set.
type BlocklistSync interface {
	BlocklistQuery

	// SyncOnce runs a single synchronization pass.
	SyncOnce(ctx context.Context) error

	// Run executes SyncOnce on a fixed interval until the context is
	// cancelled. Pass errors are logged and swallowed; the loop itself
	// never terminates because of one.
	Run(ctx context.Context)
}
