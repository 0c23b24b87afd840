package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/blockwatch/internal/core/domain"
	"github.com/custodia-labs/blockwatch/internal/core/ports/driven"
	"github.com/custodia-labs/blockwatch/internal/core/ports/driving"
	"github.com/custodia-labs/blockwatch/internal/logger"
)

// DefaultLoginTimeout bounds how long the one-shot callback listener
// waits for the operator to complete the browser flow.
const DefaultLoginTimeout = 5 * time.Minute

// Ensure SessionManager implements the interfaces.
var (
	_ driving.SessionManager = (*SessionManager)(nil)
	_ driven.TokenProvider   = (*SessionManager)(nil)
)

// SessionConfig carries the OAuth client settings for the managed account.
type SessionConfig struct {
	// AuthorizeURL is the provider's browser-redirect authorization endpoint.
	AuthorizeURL string
	// ClientID identifies the OAuth app.
	ClientID string
	// RedirectURI is where the provider sends the operator's browser back.
	RedirectURI string
	// Scopes are the requested OAuth scopes.
	Scopes []string
	// LoginTimeout bounds the callback wait. Zero means DefaultLoginTimeout.
	LoginTimeout time.Duration
}

// SessionManager owns the process's single OAuth credential. All
// read-and-possibly-refresh access is serialized behind an internal
// mutex so two callers can never race concurrent refresh exchanges and
// invalidate each other's refresh token.
type SessionManager struct {
	cfg      SessionConfig
	store    driven.CredentialStore
	tokens   driven.TokenExchanger
	receiver driven.CodeReceiver

	// prompt receives the authorization URL the operator must visit.
	prompt io.Writer
	// now is swappable for tests.
	now func() time.Time

	mu      sync.Mutex
	current *domain.Credential
	loaded  bool
}

// NewSessionManager creates a session manager. The credential is loaded
// lazily from the store on first use.
func NewSessionManager(
	cfg SessionConfig,
	store driven.CredentialStore,
	tokens driven.TokenExchanger,
	receiver driven.CodeReceiver,
) *SessionManager {
	if cfg.LoginTimeout <= 0 {
		cfg.LoginTimeout = DefaultLoginTimeout
	}
	return &SessionManager{
		cfg:      cfg,
		store:    store,
		tokens:   tokens,
		receiver: receiver,
		prompt:   os.Stdout,
		now:      time.Now,
	}
}

// SetPrompt redirects the authorization-URL banner. Defaults to stdout.
func (m *SessionManager) SetPrompt(w io.Writer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompt = w
}

// EnsureValidSession returns a credential valid for at least the expiry
// buffer. No refresh token known runs the interactive login flow
// (blocking); an approaching expiry runs a refresh; otherwise the
// existing credential is returned unchanged with zero network calls.
func (m *SessionManager) EnsureValidSession(ctx context.Context) (*domain.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.loadLocked(ctx); err != nil {
		return nil, err
	}

	if m.current == nil || !m.current.HasRefreshToken() {
		return m.loginLocked(ctx)
	}

	if m.current.NeedsRefresh(m.now()) {
		if err := m.refreshLocked(ctx); err != nil {
			return nil, err
		}
	}

	return m.current.Clone(), nil
}

// Login always runs the interactive flow, replacing any existing
// credential on success.
func (m *SessionManager) Login(ctx context.Context) (*domain.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.loadLocked(ctx); err != nil {
		return nil, err
	}
	return m.loginLocked(ctx)
}

// CacheUserID stores the owner account id on the credential and persists it.
func (m *SessionManager) CacheUserID(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return domain.ErrNoSession
	}
	if id == "" {
		return domain.ErrInvalidInput
	}

	updated := m.current.Clone()
	updated.UserID = id
	if err := m.store.SaveCredential(ctx, updated); err != nil {
		return fmt.Errorf("persisting owner account id: %w", err)
	}
	m.current = updated
	return nil
}

// Token implements driven.TokenProvider for API clients.
func (m *SessionManager) Token(ctx context.Context) (string, error) {
	cred, err := m.EnsureValidSession(ctx)
	if err != nil {
		return "", err
	}
	return cred.AccessToken, nil
}

// loadLocked pulls the persisted credential into memory once.
// Caller must hold the mutex.
func (m *SessionManager) loadLocked(ctx context.Context) error {
	if m.loaded {
		return nil
	}

	cred, err := m.store.GetCredential(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		// First run, no credential yet.
	case err != nil:
		return fmt.Errorf("loading credential: %w", err)
	default:
		m.current = cred
		logger.Info("loaded existing credential from store (expires %s)", cred.ExpiresAt.Format(time.RFC3339))
	}
	m.loaded = true
	return nil
}

// loginLocked runs the PKCE authorization-code flow end to end.
// Caller must hold the mutex. Stored state is untouched on failure.
func (m *SessionManager) loginLocked(ctx context.Context) (*domain.Credential, error) {
	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("generating state: %w", err)
	}
	verifier, err := generateCodeVerifier()
	if err != nil {
		return nil, fmt.Errorf("generating code verifier: %w", err)
	}
	challenge := generateCodeChallenge(verifier)

	oc := oauth2.Config{
		ClientID:    m.cfg.ClientID,
		RedirectURL: m.cfg.RedirectURI,
		Scopes:      m.cfg.Scopes,
		Endpoint:    oauth2.Endpoint{AuthURL: m.cfg.AuthorizeURL},
	}
	authURL := oc.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)

	fmt.Fprintln(m.prompt, "=================================================")
	fmt.Fprintln(m.prompt, "Please visit the following URL to log in to X:")
	fmt.Fprintln(m.prompt, authURL)
	fmt.Fprintln(m.prompt, "=================================================")

	code, err := m.receiver.Receive(ctx, m.cfg.RedirectURI, state, m.cfg.LoginTimeout)
	if err != nil {
		return nil, fmt.Errorf("authorization callback: %w", err)
	}

	cred, err := m.tokens.Exchange(ctx, code, m.cfg.RedirectURI, verifier)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}

	if err := m.store.SaveCredential(ctx, cred); err != nil {
		return nil, fmt.Errorf("persisting credential: %w", err)
	}
	m.current = cred
	logger.Info("authenticated, token expires %s", cred.ExpiresAt.Format(time.RFC3339))
	return cred.Clone(), nil
}

// refreshLocked exchanges the refresh token for a new credential.
// Caller must hold the mutex. On a rejected refresh the in-memory and
// persisted credential are left as they were (stale); callers decide
// whether to abort — there is no automatic fallback to re-login.
func (m *SessionManager) refreshLocked(ctx context.Context) error {
	cred, err := m.tokens.Refresh(ctx, m.current.RefreshToken)
	if err != nil {
		logger.Warn("token refresh failed: %v", err)
		return fmt.Errorf("%w: %v", domain.ErrTokenRefreshFailed, err)
	}

	// The refresh response never carries the owner id, and some
	// providers omit a new refresh token; carry both forward.
	if cred.UserID == "" {
		cred.UserID = m.current.UserID
	}
	if cred.RefreshToken == "" {
		cred.RefreshToken = m.current.RefreshToken
	}

	if err := m.store.SaveCredential(ctx, cred); err != nil {
		return fmt.Errorf("persisting refreshed credential: %w", err)
	}
	m.current = cred
	logger.Info("refreshed token, now expires %s", cred.ExpiresAt.Format(time.RFC3339))
	return nil
}
