package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/custodia-labs/blockwatch/internal/core/domain"
	"github.com/custodia-labs/blockwatch/internal/core/ports/driven"
	"github.com/custodia-labs/blockwatch/internal/logger"
)

// X API rate-limit headers (unix seconds for the reset).
const (
	HeaderRateLimit     = "x-rate-limit-limit"
	HeaderRateRemaining = "x-rate-limit-remaining"
	HeaderRateReset     = "x-rate-limit-reset"
)

// RateLimitTracker gates calls against persisted, provider-reported
// windows. It decides before a call is issued and records the
// provider's headers after; it never sleeps a caller through a window.
type RateLimitTracker struct {
	store driven.RateLimitStore
	now   func() time.Time
}

// NewRateLimitTracker creates a tracker over the given window store.
func NewRateLimitTracker(store driven.RateLimitStore) *RateLimitTracker {
	return &RateLimitTracker{store: store, now: time.Now}
}

// CheckAllowed decides whether a call to the endpoint may be issued now.
// No persisted window, remaining calls, or a reset already in the past
// all allow the call. An exhausted window yields RateRetryLater, or
// RateAbortLong when the reset is more than LongWaitThreshold away.
// The returned error reports storage failures only.
func (t *RateLimitTracker) CheckAllowed(ctx context.Context, endpoint string) (domain.RateDecision, error) {
	window, err := t.store.GetWindow(ctx, endpoint)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.RateDecision{Verdict: domain.RateAllowed}, nil
	}
	if err != nil {
		return domain.RateDecision{}, fmt.Errorf("loading rate-limit window for %s: %w", endpoint, err)
	}

	if window.Remaining > 0 {
		return domain.RateDecision{Verdict: domain.RateAllowed}, nil
	}

	wait := window.Reset.Sub(t.now())
	if wait <= 0 {
		// Window has rolled over.
		return domain.RateDecision{Verdict: domain.RateAllowed}, nil
	}

	if wait > domain.LongWaitThreshold {
		logger.Warn("rate limit on %s resets in %s, aborting", endpoint, wait.Round(time.Second))
		return domain.RateDecision{Verdict: domain.RateAbortLong, Wait: wait}, nil
	}

	logger.Debug("rate limit on %s resets in %s, skipping until next pass", endpoint, wait.Round(time.Second))
	return domain.RateDecision{Verdict: domain.RateRetryLater, Wait: wait}, nil
}

// RecordResponse parses the rate-limit headers from a provider response
// and persists them as the endpoint's window. All three headers must be
// present together; their absence is normal for some responses and
// leaves prior state untouched.
func (t *RateLimitTracker) RecordResponse(ctx context.Context, endpoint string, header http.Header) error {
	limitRaw := header.Get(HeaderRateLimit)
	remainingRaw := header.Get(HeaderRateRemaining)
	resetRaw := header.Get(HeaderRateReset)
	if limitRaw == "" || remainingRaw == "" || resetRaw == "" {
		return nil
	}

	limit, err := strconv.Atoi(limitRaw)
	if err != nil {
		return nil
	}
	remaining, err := strconv.Atoi(remainingRaw)
	if err != nil {
		return nil
	}
	reset, err := strconv.ParseInt(resetRaw, 10, 64)
	if err != nil {
		return nil
	}

	window := &domain.RateLimitWindow{
		Endpoint:  endpoint,
		Limit:     limit,
		Remaining: remaining,
		Reset:     time.Unix(reset, 0).UTC(),
	}
	// Persist slightly past the reset so stale windows self-clean.
	expiresAt := window.Reset.Add(domain.WindowTTLSlack)

	if err := t.store.SaveWindow(ctx, window, expiresAt); err != nil {
		return fmt.Errorf("persisting rate-limit window for %s: %w", endpoint, err)
	}
	logger.Debug("rate limit for %s: %d/%d remaining, resets %s",
		endpoint, remaining, limit, window.Reset.Format(time.RFC3339))
	return nil
}
