package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Configuration errors.

	// ErrConfigIncomplete indicates required credentials or identifiers
	// are missing from the configuration. Fatal at startup.
	ErrConfigIncomplete = errors.New("configuration incomplete")

	// Authentication errors.

	// ErrStateMismatch indicates the OAuth callback carried a state token
	// that does not match the one generated for this login attempt.
	// Treated as a possible CSRF attempt; the login attempt is aborted
	// before any code exchange.
	ErrStateMismatch = errors.New("oauth state mismatch")

	// ErrMissingAuthCode indicates the OAuth callback carried no
	// authorization code. Fatal to the login attempt.
	ErrMissingAuthCode = errors.New("no authorization code received")

	// ErrLoginTimeout indicates the callback listener timed out waiting
	// for the operator to complete the browser flow.
	ErrLoginTimeout = errors.New("timed out waiting for authorization callback")

	// ErrTokenExchange indicates the token endpoint rejected the initial
	// authorization-code exchange. Fatal to initialization.
	ErrTokenExchange = errors.New("token exchange failed")

	// ErrTokenRefreshFailed indicates the token endpoint rejected a
	// refresh. The current operation aborts; there is no automatic
	// fallback to the interactive flow.
	ErrTokenRefreshFailed = errors.New("token refresh failed")

	// ErrNoSession indicates no usable credential exists for an operation
	// that requires one.
	ErrNoSession = errors.New("no authenticated session")

	// Sync errors.

	// ErrRateLimited indicates an endpoint's persisted window is exhausted
	// and resets soon; the current sync pass is skipped.
	ErrRateLimited = errors.New("rate limited")

	// ErrRateLimitLongWait indicates the window resets more than
	// LongWaitThreshold away; the operation aborts entirely.
	ErrRateLimitLongWait = errors.New("rate limited, reset too far away")
)
