// Package memory provides in-memory store implementations used by
// service tests and local experiments. Nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/blockwatch/internal/core/domain"
	"github.com/custodia-labs/blockwatch/internal/core/ports/driven"
)

// Store holds every dataset behind one mutex.
type Store struct {
	mu      sync.RWMutex
	cred    *domain.Credential
	windows map[string]windowEntry
	blocked map[string]struct{}
	runs    []domain.SyncRun
	now     func() time.Time
}

type windowEntry struct {
	window    domain.RateLimitWindow
	expiresAt time.Time
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		windows: make(map[string]windowEntry),
		blocked: make(map[string]struct{}),
		now:     time.Now,
	}
}

// SetNow swaps the clock. Used by tests.
func (s *Store) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

var (
	_ driven.CredentialStore = (*Store)(nil)
	_ driven.RateLimitStore  = (*Store)(nil)
	_ driven.BlocklistStore  = (*Store)(nil)
	_ driven.SyncRunStore    = (*Store)(nil)
)

// SaveCredential stores a copy of the credential.
func (s *Store) SaveCredential(_ context.Context, cred *domain.Credential) error {
	if cred == nil || cred.AccessToken == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = cred.Clone()
	return nil
}

// GetCredential returns a copy of the stored credential.
func (s *Store) GetCredential(_ context.Context) (*domain.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cred == nil {
		return nil, domain.ErrNotFound
	}
	return s.cred.Clone(), nil
}

// DeleteCredential removes the stored credential.
func (s *Store) DeleteCredential(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = nil
	return nil
}

// SaveWindow stores or overwrites the window for an endpoint.
func (s *Store) SaveWindow(_ context.Context, window *domain.RateLimitWindow, expiresAt time.Time) error {
	if window == nil || window.Endpoint == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows[window.Endpoint] = windowEntry{window: *window, expiresAt: expiresAt}
	return nil
}

// GetWindow returns the window for an endpoint, treating expired
// entries as absent.
func (s *Store) GetWindow(_ context.Context, endpoint string) (*domain.RateLimitWindow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.windows[endpoint]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.windows, endpoint)
		return nil, domain.ErrNotFound
	}
	window := entry.window
	return &window, nil
}

// ReplaceBlocked swaps the whole blocked set.
func (s *Store) ReplaceBlocked(_ context.Context, usernames []string) error {
	next := make(map[string]struct{}, len(usernames))
	for _, username := range usernames {
		username = strings.ToLower(strings.TrimSpace(username))
		if username == "" {
			continue
		}
		next[username] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocked = next
	return nil
}

// IsBlocked is a case-insensitive membership test.
func (s *Store) IsBlocked(_ context.Context, username string) (bool, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blocked[username]
	return ok, nil
}

// CountBlocked returns the current set size.
func (s *Store) CountBlocked(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blocked), nil
}

// BlockedUsernames returns the set sorted. Used by tests.
func (s *Store) BlockedUsernames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.blocked))
	for username := range s.blocked {
		out = append(out, username)
	}
	sort.Strings(out)
	return out
}

// SaveRun appends one run record.
func (s *Store) SaveRun(_ context.Context, run *domain.SyncRun) error {
	if run == nil || run.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, *run)
	return nil
}

// ListRuns returns up to limit runs, most recent first.
func (s *Store) ListRuns(_ context.Context, limit int) ([]domain.SyncRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SyncRun, len(s.runs))
	copy(out, s.runs)
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
