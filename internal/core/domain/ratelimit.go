package domain

import "time"

// LongWaitThreshold separates a short rate-limit wait (skip this pass,
// retry on the next scheduled one) from a long one (abort and log loudly).
const LongWaitThreshold = 15 * time.Minute

// WindowTTLSlack is added to a window's reset instant when persisting it,
// so stored windows self-clean shortly after they stop mattering.
const WindowTTLSlack = time.Minute

// RateLimitWindow is the provider-reported quota state for one endpoint.
// Remaining is only ever updated from the provider's own response headers,
// never decremented locally.
type RateLimitWindow struct {
	Endpoint  string
	Limit     int
	Remaining int
	Reset     time.Time
}

// RateVerdict classifies a rate-limit gate decision.
type RateVerdict int

const (
	// RateAllowed means the call may be issued now.
	RateAllowed RateVerdict = iota
	// RateRetryLater means the window is exhausted but resets soon;
	// the caller should skip this pass and retry on the next tick.
	RateRetryLater
	// RateAbortLong means the window resets more than LongWaitThreshold
	// away; the caller should abort the operation entirely.
	RateAbortLong
)

// RateDecision is the explicit result of a rate-limit check. Callers
// branch on the verdict rather than catching control-flow errors; the
// gate itself never blocks.
type RateDecision struct {
	Verdict RateVerdict
	// Wait is how long until the window resets. Zero when allowed.
	Wait time.Duration
}

// Allowed reports whether the call may proceed.
func (d RateDecision) Allowed() bool {
	return d.Verdict == RateAllowed
}
