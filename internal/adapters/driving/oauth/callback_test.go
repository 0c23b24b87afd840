package oauth

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/blockwatch/internal/core/domain"
)

// freeRedirectURI reserves a loopback port and builds a redirect URI on it.
func freeRedirectURI(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return "http://" + addr + "/callback"
}

// hitCallback retries the redirect request until the one-shot server is up.
func hitCallback(t *testing.T, redirectURI string, query url.Values) {
	t.Helper()
	target := redirectURI + "?" + query.Encode()
	client := &http.Client{Timeout: time.Second}

	var lastErr error
	for i := 0; i < 50; i++ {
		resp, err := client.Get(target)
		if err == nil {
			resp.Body.Close()
			return
		}
		lastErr = err
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("callback endpoint never came up: %v", lastErr)
}

type receiveResult struct {
	code string
	err  error
}

func startReceive(ctx context.Context, redirectURI, state string, timeout time.Duration) chan receiveResult {
	results := make(chan receiveResult, 1)
	go func() {
		code, err := NewCallbackReceiver().Receive(ctx, redirectURI, state, timeout)
		results <- receiveResult{code: code, err: err}
	}()
	return results
}

func TestCallbackReceiverReceive(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers the code when the state matches", func(t *testing.T) {
		redirectURI := freeRedirectURI(t)
		results := startReceive(ctx, redirectURI, "expected-state", 5*time.Second)

		hitCallback(t, redirectURI, url.Values{
			"code":  {"the-auth-code"},
			"state": {"expected-state"},
		})

		res := <-results
		require.NoError(t, res.err)
		assert.Equal(t, "the-auth-code", res.code)
	})

	t.Run("rejects a mismatched state", func(t *testing.T) {
		redirectURI := freeRedirectURI(t)
		results := startReceive(ctx, redirectURI, "expected-state", 5*time.Second)

		hitCallback(t, redirectURI, url.Values{
			"code":  {"the-auth-code"},
			"state": {"forged-state"},
		})

		res := <-results
		assert.ErrorIs(t, res.err, domain.ErrStateMismatch)
		assert.Empty(t, res.code)
	})

	t.Run("rejects a redirect without a code", func(t *testing.T) {
		redirectURI := freeRedirectURI(t)
		results := startReceive(ctx, redirectURI, "expected-state", 5*time.Second)

		hitCallback(t, redirectURI, url.Values{
			"state": {"expected-state"},
		})

		res := <-results
		assert.ErrorIs(t, res.err, domain.ErrMissingAuthCode)
	})

	t.Run("reports a provider denial", func(t *testing.T) {
		redirectURI := freeRedirectURI(t)
		results := startReceive(ctx, redirectURI, "expected-state", 5*time.Second)

		hitCallback(t, redirectURI, url.Values{
			"error":             {"access_denied"},
			"error_description": {"The user denied your request."},
		})

		res := <-results
		require.Error(t, res.err)
		assert.Contains(t, res.err.Error(), "access_denied")
	})

	t.Run("times out when no redirect arrives", func(t *testing.T) {
		redirectURI := freeRedirectURI(t)

		_, err := NewCallbackReceiver().Receive(ctx, redirectURI, "expected-state", 100*time.Millisecond)
		assert.ErrorIs(t, err, domain.ErrLoginTimeout)
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		redirectURI := freeRedirectURI(t)
		cancelCtx, cancel := context.WithCancel(ctx)
		results := startReceive(cancelCtx, redirectURI, "expected-state", time.Minute)

		cancel()
		res := <-results
		assert.ErrorIs(t, res.err, context.Canceled)
	})

	t.Run("rejects an unusable redirect uri", func(t *testing.T) {
		_, err := NewCallbackReceiver().Receive(ctx, "not a uri", "state", time.Second)
		assert.Error(t, err)
	})
}
