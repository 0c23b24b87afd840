package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/blockwatch/internal/core/domain"
	"github.com/custodia-labs/blockwatch/internal/core/ports/driven"
	"github.com/custodia-labs/blockwatch/internal/core/ports/driving"
	"github.com/custodia-labs/blockwatch/internal/logger"
)

// DefaultSyncInterval is the cadence of the background sync loop. The
// X blocking endpoint allows 15 calls per 15-minute window, so one
// pass every 16 minutes stays clear of it in the steady state.
const DefaultSyncInterval = 16 * time.Minute

// Endpoint keys for rate-limit windows.
const (
	EndpointUsersMe       = "users_me"
	EndpointUsersBlocking = "users_blocking"
)

// Ensure SyncEngine implements the interface.
var _ driving.BlocklistSync = (*SyncEngine)(nil)

// SyncEngine keeps the persisted blocked-username set in step with the
// provider. One pass resolves the owning account id (cached after the
// first lookup), paginates the blocking endpoint through the rate-limit
// tracker, and atomically replaces the stored set.
type SyncEngine struct {
	session   driving.SessionManager
	tracker   *RateLimitTracker
	provider  driven.XProvider
	blocklist driven.BlocklistStore
	runs      driven.SyncRunStore
	interval  time.Duration
}

// NewSyncEngine creates a sync engine. runs may be nil to skip
// bookkeeping. interval <= 0 means DefaultSyncInterval.
func NewSyncEngine(
	session driving.SessionManager,
	tracker *RateLimitTracker,
	provider driven.XProvider,
	blocklist driven.BlocklistStore,
	runs driven.SyncRunStore,
	interval time.Duration,
) *SyncEngine {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	return &SyncEngine{
		session:   session,
		tracker:   tracker,
		provider:  provider,
		blocklist: blocklist,
		runs:      runs,
		interval:  interval,
	}
}

// SyncOnce runs a single synchronization pass.
//
// A refresh failure or a rate-limit gate that fires before any page was
// fetched aborts the pass with the stored set untouched. A rate-limited
// response (or gate) mid-pagination stops pagination and stores the
// partial set; the shrink window is bounded by the sync cadence.
func (e *SyncEngine) SyncOnce(ctx context.Context) error {
	run := &domain.SyncRun{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	usernames, partial, err := e.syncPass(ctx)
	run.EndedAt = time.Now().UTC()
	run.Partial = partial
	run.UsernamesSynced = len(usernames)
	if err != nil {
		run.Error = err.Error()
		e.recordRun(ctx, run)
		return err
	}

	if partial {
		logger.Warn("sync interrupted by rate limit, storing partial set of %d usernames", len(usernames))
	} else {
		logger.Info("synced %d blocked usernames", len(usernames))
	}
	e.recordRun(ctx, run)
	return nil
}

// syncPass does the work of one pass and reports the set it stored.
func (e *SyncEngine) syncPass(ctx context.Context) (usernames []string, partial bool, err error) {
	cred, err := e.session.EnsureValidSession(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("ensuring session: %w", err)
	}

	userID := cred.UserID
	if userID == "" {
		userID, err = e.resolveOwnerID(ctx)
		if err != nil {
			return nil, false, err
		}
	}

	usernames, partial, err = e.fetchBlocking(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	if err := e.blocklist.ReplaceBlocked(ctx, usernames); err != nil {
		return nil, false, fmt.Errorf("replacing blocked set: %w", err)
	}
	return usernames, partial, nil
}

// resolveOwnerID calls the "who am I" endpoint and caches the result on
// the credential.
func (e *SyncEngine) resolveOwnerID(ctx context.Context) (string, error) {
	decision, err := e.tracker.CheckAllowed(ctx, EndpointUsersMe)
	if err != nil {
		return "", err
	}
	if !decision.Allowed() {
		return "", rateDecisionError(EndpointUsersMe, decision)
	}

	me, err := e.provider.Me(ctx)
	if err != nil {
		return "", fmt.Errorf("looking up own account: %w", err)
	}
	if err := e.tracker.RecordResponse(ctx, EndpointUsersMe, me.Header); err != nil {
		logger.Warn("recording rate-limit headers for %s: %v", EndpointUsersMe, err)
	}
	if me.StatusCode != http.StatusOK {
		return "", fmt.Errorf("users/me returned status %d", me.StatusCode)
	}
	if me.ID == "" {
		return "", fmt.Errorf("users/me response carried no account id")
	}

	if err := e.session.CacheUserID(ctx, me.ID); err != nil {
		return "", err
	}
	logger.Debug("resolved own account id %s (@%s)", me.ID, me.Username)
	return me.ID, nil
}

// fetchBlocking paginates the blocking endpoint, lower-casing usernames
// as it accumulates. A 429 response or a tripped gate after at least
// one page stops pagination with partial=true; a gate tripped before
// any page aborts; any other non-success status aborts.
func (e *SyncEngine) fetchBlocking(ctx context.Context, userID string) ([]string, bool, error) {
	var usernames []string
	cursor := ""
	fetchedAny := false

	for {
		decision, err := e.tracker.CheckAllowed(ctx, EndpointUsersBlocking)
		if err != nil {
			return nil, false, err
		}
		if !decision.Allowed() {
			if !fetchedAny {
				return nil, false, rateDecisionError(EndpointUsersBlocking, decision)
			}
			return usernames, true, nil
		}

		page, err := e.provider.Blocking(ctx, userID, cursor)
		if err != nil {
			return nil, false, fmt.Errorf("fetching blocking page: %w", err)
		}
		if err := e.tracker.RecordResponse(ctx, EndpointUsersBlocking, page.Header); err != nil {
			logger.Warn("recording rate-limit headers for %s: %v", EndpointUsersBlocking, err)
		}

		if page.StatusCode == http.StatusTooManyRequests {
			logger.Warn("rate limited mid-pagination, keeping %d usernames gathered so far", len(usernames))
			return usernames, true, nil
		}
		if page.StatusCode != http.StatusOK {
			return nil, false, fmt.Errorf("users/blocking returned status %d", page.StatusCode)
		}

		fetchedAny = true
		for _, u := range page.Usernames {
			usernames = append(usernames, strings.ToLower(u))
		}

		cursor = page.NextToken
		if cursor == "" {
			return usernames, false, nil
		}
	}
}

// Run drives SyncOnce on the configured interval until ctx is
// cancelled. Errors are logged and swallowed; the loop never
// terminates because of a failed pass.
func (e *SyncEngine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	logger.Info("sync loop started, interval %s", e.interval)
	for {
		select {
		case <-ctx.Done():
			logger.Info("sync loop stopped: %v", ctx.Err())
			return
		case <-ticker.C:
			if err := e.SyncOnce(ctx); err != nil {
				logger.Warn("sync pass failed: %v", err)
			}
		}
	}
}

// IsBlocked is the case-insensitive membership test exposed to the
// message listener.
func (e *SyncEngine) IsBlocked(ctx context.Context, username string) (bool, error) {
	if username == "" {
		return false, nil
	}
	return e.blocklist.IsBlocked(ctx, username)
}

// recordRun saves bookkeeping best-effort.
func (e *SyncEngine) recordRun(ctx context.Context, run *domain.SyncRun) {
	if e.runs == nil {
		return
	}
	if err := e.runs.SaveRun(ctx, run); err != nil {
		logger.Warn("recording sync run: %v", err)
	}
}

// rateDecisionError maps a non-allowed decision onto the sentinel that
// distinguishes a short skip from a long abort.
func rateDecisionError(endpoint string, d domain.RateDecision) error {
	if d.Verdict == domain.RateAbortLong {
		return fmt.Errorf("%s resets in %s: %w", endpoint, d.Wait.Round(time.Second), domain.ErrRateLimitLongWait)
	}
	return fmt.Errorf("%s resets in %s: %w", endpoint, d.Wait.Round(time.Second), domain.ErrRateLimited)
}
