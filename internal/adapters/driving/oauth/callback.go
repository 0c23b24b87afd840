// Package oauth hosts the loopback HTTP listener that catches the
// authorization-code redirect during an interactive login.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/custodia-labs/blockwatch/internal/core/domain"
	"github.com/custodia-labs/blockwatch/internal/core/ports/driven"
	"github.com/custodia-labs/blockwatch/internal/logger"
)

// successHTML is shown in the browser after a successful callback.
const successHTML = `<!DOCTYPE html>
<html>
<head><title>blockwatch</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 4em;">
<h1>Authorization complete</h1>
<p>You can close this tab and return to the terminal.</p>
</body>
</html>`

// Ensure CallbackReceiver implements the port.
var _ driven.CodeReceiver = (*CallbackReceiver)(nil)

// CallbackReceiver runs a one-shot HTTP server on the redirect URI's
// host and port, validates the returned state, and hands the
// authorization code back to the caller.
type CallbackReceiver struct{}

// NewCallbackReceiver creates a receiver.
func NewCallbackReceiver() *CallbackReceiver {
	return &CallbackReceiver{}
}

// callbackResult carries the outcome of a single redirect.
type callbackResult struct {
	code string
	err  error
}

// Receive listens on the redirect URI until the provider redirects the
// browser back, the timeout expires, or ctx is cancelled. The first
// request decides the outcome; the server is torn down afterwards.
func (r *CallbackReceiver) Receive(ctx context.Context, redirectURI, expectedState string, timeout time.Duration) (string, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", fmt.Errorf("parse redirect uri: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("redirect uri %q has no host: %w", redirectURI, domain.ErrInvalidInput)
	}
	callbackPath := u.Path
	if callbackPath == "" {
		callbackPath = "/"
	}

	listener, err := net.Listen("tcp", u.Host)
	if err != nil {
		return "", fmt.Errorf("listen on %s: %w", u.Host, err)
	}

	results := make(chan callbackResult, 1)
	var once sync.Once
	deliver := func(res callbackResult) {
		once.Do(func() { results <- res })
	}

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, req *http.Request) {
		query := req.URL.Query()

		if errCode := query.Get("error"); errCode != "" {
			desc := query.Get("error_description")
			http.Error(w, "Authorization failed. You can close this tab.", http.StatusBadRequest)
			deliver(callbackResult{err: fmt.Errorf("authorization denied: %s %s", errCode, desc)})
			return
		}

		if state := query.Get("state"); state != expectedState {
			http.Error(w, "State mismatch. You can close this tab.", http.StatusBadRequest)
			deliver(callbackResult{err: domain.ErrStateMismatch})
			return
		}

		code := query.Get("code")
		if code == "" {
			http.Error(w, "Missing authorization code. You can close this tab.", http.StatusBadRequest)
			deliver(callbackResult{err: domain.ErrMissingAuthCode})
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, successHTML)
		deliver(callbackResult{code: code})
	})

	server := &http.Server{Handler: mux}
	go func() {
		if serveErr := server.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			deliver(callbackResult{err: fmt.Errorf("callback server: %w", serveErr)})
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Debug("callback server shutdown: %v", shutdownErr)
		}
	}()

	logger.Debug("waiting for authorization callback on %s%s", u.Host, callbackPath)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-results:
		return res.code, res.err
	case <-timer.C:
		return "", domain.ErrLoginTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
