package domain

import "time"

// SyncRun records the outcome of one blocked-list sync pass.
// Kept so operators can inspect the sync cadence and its failures.
type SyncRun struct {
	// ID is the unique identifier (UUID).
	ID string
	// StartedAt is when the pass began.
	StartedAt time.Time
	// EndedAt is when the pass finished, successfully or not.
	EndedAt time.Time
	// UsernamesSynced is the size of the set stored by this pass.
	UsernamesSynced int
	// Partial is true when pagination was cut short by a rate-limited
	// response and the accumulated subset was stored anyway.
	Partial bool
	// Error holds the failure message for passes that stored nothing.
	Error string
}
