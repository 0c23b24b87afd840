package xapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticTokens always hands back the same bearer token.
type staticTokens struct {
	token string
}

func (s staticTokens) Token(_ context.Context) (string, error) {
	return s.token, nil
}

func TestClientMe(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes the authenticated user", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/2/users/me", r.URL.Path)
			assert.Equal(t, "Bearer the-token", r.Header.Get("Authorization"))

			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("x-rate-limit-limit", "75")
			w.Header().Set("x-rate-limit-remaining", "74")
			w.Header().Set("x-rate-limit-reset", "1749000000")
			w.Write([]byte(`{"data":{"id":"2244994945","name":"X Dev","username":"XDevelopers"}}`)) //nolint:errcheck
		}))
		defer server.Close()

		c := NewClient(staticTokens{token: "the-token"}, WithBaseURL(server.URL))

		me, err := c.Me(ctx)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, me.StatusCode)
		assert.Equal(t, "2244994945", me.ID)
		assert.Equal(t, "XDevelopers", me.Username)
		assert.Equal(t, "74", me.Header.Get("x-rate-limit-remaining"))
	})

	t.Run("passes non-success statuses through", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("x-rate-limit-limit", "75")
			w.Header().Set("x-rate-limit-remaining", "0")
			w.Header().Set("x-rate-limit-reset", "1749000900")
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		c := NewClient(staticTokens{token: "the-token"}, WithBaseURL(server.URL))

		me, err := c.Me(ctx)
		require.NoError(t, err, "a 429 is a result, not an error")
		assert.Equal(t, http.StatusTooManyRequests, me.StatusCode)
		assert.Empty(t, me.ID)
		assert.Equal(t, "0", me.Header.Get("x-rate-limit-remaining"))
	})
}

func TestClientBlocking(t *testing.T) {
	ctx := context.Background()

	t.Run("requests full pages and decodes usernames", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/2/users/12345/blocking", r.URL.Path)
			assert.Equal(t, "1000", r.URL.Query().Get("max_results"))
			assert.Empty(t, r.URL.Query().Get("pagination_token"))

			w.Header().Set("Content-Type", "application/json")
			//nolint:errcheck
			w.Write([]byte(`{
				"data":[
					{"id":"1","name":"Alice","username":"Alice_A"},
					{"id":"2","name":"Bob","username":"bob_b"}
				],
				"meta":{"next_token":"page-two"}
			}`))
		}))
		defer server.Close()

		c := NewClient(staticTokens{token: "the-token"}, WithBaseURL(server.URL))

		page, err := c.Blocking(ctx, "12345", "")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, page.StatusCode)
		assert.Equal(t, []string{"Alice_A", "bob_b"}, page.Usernames)
		assert.Equal(t, "page-two", page.NextToken)
	})

	t.Run("forwards the pagination token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "page-two", r.URL.Query().Get("pagination_token"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"data":[{"id":"3","name":"Carol","username":"carol_c"}],"meta":{}}`)) //nolint:errcheck
		}))
		defer server.Close()

		c := NewClient(staticTokens{token: "the-token"}, WithBaseURL(server.URL))

		page, err := c.Blocking(ctx, "12345", "page-two")
		require.NoError(t, err)
		assert.Equal(t, []string{"carol_c"}, page.Usernames)
		assert.Empty(t, page.NextToken, "last page carries no next token")
	})

	t.Run("an empty blocklist decodes to no usernames", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"meta":{"result_count":0}}`)) //nolint:errcheck
		}))
		defer server.Close()

		c := NewClient(staticTokens{token: "the-token"}, WithBaseURL(server.URL))

		page, err := c.Blocking(ctx, "12345", "")
		require.NoError(t, err)
		assert.Empty(t, page.Usernames)
		assert.Empty(t, page.NextToken)
	})

	t.Run("passes a 429 through with its headers", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("x-rate-limit-remaining", "0")
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		c := NewClient(staticTokens{token: "the-token"}, WithBaseURL(server.URL))

		page, err := c.Blocking(ctx, "12345", "")
		require.NoError(t, err)
		assert.Equal(t, http.StatusTooManyRequests, page.StatusCode)
		assert.Equal(t, "0", page.Header.Get("x-rate-limit-remaining"))
	})
}
