package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/blockwatch/internal/core/domain"
)

func TestStoreCredential(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	_, err := store.GetCredential(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	cred := &domain.Credential{AccessToken: "access", ExpiresAt: time.Now().UTC()}
	require.NoError(t, store.SaveCredential(ctx, cred))

	got, err := store.GetCredential(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access", got.AccessToken)

	// Mutating the returned copy must not leak into the store.
	got.AccessToken = "tampered"
	again, err := store.GetCredential(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access", again.AccessToken)

	require.NoError(t, store.DeleteCredential(ctx))
	_, err = store.GetCredential(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStoreWindowTTL(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.SetNow(func() time.Time { return now })

	window := &domain.RateLimitWindow{Endpoint: "users_me", Limit: 75, Remaining: 1, Reset: now.Add(10 * time.Minute)}
	require.NoError(t, store.SaveWindow(ctx, window, now.Add(11*time.Minute)))

	got, err := store.GetWindow(ctx, "users_me")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Remaining)

	store.SetNow(func() time.Time { return now.Add(12 * time.Minute) })
	_, err = store.GetWindow(ctx, "users_me")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStoreBlocklist(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.ReplaceBlocked(ctx, []string{"Alice", "BOB", "", "alice"}))
	assert.Equal(t, []string{"alice", "bob"}, store.BlockedUsernames())

	blocked, err := store.IsBlocked(ctx, "ALICE")
	require.NoError(t, err)
	assert.True(t, blocked)

	count, err := store.CountBlocked(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, store.ReplaceBlocked(ctx, []string{"carol"}))
	assert.Equal(t, []string{"carol"}, store.BlockedUsernames())
}

func TestStoreSyncRuns(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveRun(ctx, &domain.SyncRun{ID: "older", StartedAt: base}))
	require.NoError(t, store.SaveRun(ctx, &domain.SyncRun{ID: "newer", StartedAt: base.Add(time.Hour)}))

	runs, err := store.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "newer", runs[0].ID)
}
