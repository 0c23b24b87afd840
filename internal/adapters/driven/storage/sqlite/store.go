package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/blockwatch/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/blockwatch/internal/core/domain"
	"github.com/custodia-labs/blockwatch/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.blockwatch/data/blockwatch.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".blockwatch", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "blockwatch.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// CredentialStore returns a CredentialStore interface backed by this store.
func (s *Store) CredentialStore() driven.CredentialStore {
	return &credentialStore{store: s}
}

// RateLimitStore returns a RateLimitStore interface backed by this store.
func (s *Store) RateLimitStore() driven.RateLimitStore {
	return &rateLimitStore{store: s, now: time.Now}
}

// BlocklistStore returns a BlocklistStore interface backed by this store.
func (s *Store) BlocklistStore() driven.BlocklistStore {
	return &blocklistStore{store: s}
}

// SyncRunStore returns a SyncRunStore interface backed by this store.
func (s *Store) SyncRunStore() driven.SyncRunStore {
	return &syncRunStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Credential Store ====================

// credentialStore implements driven.CredentialStore.
// The credential is a singleton row with id = 1.
type credentialStore struct {
	store *Store
}

var _ driven.CredentialStore = (*credentialStore)(nil)

// SaveCredential replaces the stored credential in a single statement,
// so a failed write leaves the previous record intact.
func (s *credentialStore) SaveCredential(ctx context.Context, cred *domain.Credential) error {
	if cred == nil || cred.AccessToken == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO credential (id, access_token, refresh_token, token_type, expires_in, expires_at, user_id, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			expires_in = excluded.expires_in,
			expires_at = excluded.expires_at,
			user_id = excluded.user_id,
			updated_at = excluded.updated_at
	`, cred.AccessToken, nullString(cred.RefreshToken), cred.TokenType,
		cred.ExpiresIn, cred.ExpiresAt.UTC(), nullString(cred.UserID), time.Now().UTC())

	if err != nil {
		return fmt.Errorf("saving credential: %w", err)
	}
	return nil
}

// GetCredential retrieves the stored credential.
func (s *credentialStore) GetCredential(ctx context.Context) (*domain.Credential, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT access_token, refresh_token, token_type, expires_in, expires_at, user_id
		FROM credential WHERE id = 1
	`)

	var cred domain.Credential
	var refreshToken, userID sql.NullString
	var expiresAt sql.NullTime
	if err := row.Scan(&cred.AccessToken, &refreshToken, &cred.TokenType,
		&cred.ExpiresIn, &expiresAt, &userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning credential: %w", err)
	}

	cred.RefreshToken = refreshToken.String
	cred.UserID = userID.String
	if expiresAt.Valid {
		cred.ExpiresAt = expiresAt.Time.UTC()
	}

	return &cred, nil
}

// DeleteCredential removes the stored credential.
func (s *credentialStore) DeleteCredential(ctx context.Context) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM credential WHERE id = 1")
	if err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	return nil
}

// ==================== Rate Limit Store ====================

// rateLimitStore implements driven.RateLimitStore.
// Windows past their expiry behave as absent and are dropped lazily.
type rateLimitStore struct {
	store *Store
	now   func() time.Time
}

var _ driven.RateLimitStore = (*rateLimitStore)(nil)

// SaveWindow stores or overwrites the window for an endpoint.
func (s *rateLimitStore) SaveWindow(ctx context.Context, window *domain.RateLimitWindow, expiresAt time.Time) error {
	if window == nil || window.Endpoint == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO rate_limits (endpoint, limit_count, remaining, reset_at, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(endpoint) DO UPDATE SET
			limit_count = excluded.limit_count,
			remaining = excluded.remaining,
			reset_at = excluded.reset_at,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`, window.Endpoint, window.Limit, window.Remaining,
		window.Reset.Unix(), expiresAt.Unix(), time.Now().UTC())

	if err != nil {
		return fmt.Errorf("saving rate-limit window: %w", err)
	}
	return nil
}

// GetWindow retrieves the window for an endpoint, treating expired
// records as absent.
func (s *rateLimitStore) GetWindow(ctx context.Context, endpoint string) (*domain.RateLimitWindow, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT endpoint, limit_count, remaining, reset_at, expires_at
		FROM rate_limits WHERE endpoint = ?
	`, endpoint)

	var window domain.RateLimitWindow
	var resetUnix, expiresUnix int64
	if err := row.Scan(&window.Endpoint, &window.Limit, &window.Remaining, &resetUnix, &expiresUnix); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning rate-limit window: %w", err)
	}

	if s.now().Unix() >= expiresUnix {
		// Self-clean: the window stopped mattering at its expiry.
		_, _ = s.store.db.ExecContext(ctx, "DELETE FROM rate_limits WHERE endpoint = ?", endpoint)
		return nil, domain.ErrNotFound
	}

	window.Reset = time.Unix(resetUnix, 0).UTC()
	return &window, nil
}

// ==================== Blocklist Store ====================

// blocklistStore implements driven.BlocklistStore.
type blocklistStore struct {
	store *Store
}

var _ driven.BlocklistStore = (*blocklistStore)(nil)

// ReplaceBlocked swaps the whole set inside one transaction, so readers
// never observe a half-replaced set.
func (s *blocklistStore) ReplaceBlocked(ctx context.Context, usernames []string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM blocked_users"); err != nil {
		return fmt.Errorf("clearing blocked set: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO blocked_users (username) VALUES (?)
		ON CONFLICT(username) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, username := range usernames {
		username = strings.ToLower(strings.TrimSpace(username))
		if username == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, username); err != nil {
			return fmt.Errorf("inserting blocked username: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// IsBlocked is a case-insensitive membership test.
func (s *blocklistStore) IsBlocked(ctx context.Context, username string) (bool, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return false, nil
	}

	var count int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM blocked_users WHERE username = ?", username).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking blocked username: %w", err)
	}
	return count > 0, nil
}

// CountBlocked returns the current set size.
func (s *blocklistStore) CountBlocked(ctx context.Context) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM blocked_users").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting blocked usernames: %w", err)
	}
	return count, nil
}

// ==================== Sync Run Store ====================

// syncRunStore implements driven.SyncRunStore.
type syncRunStore struct {
	store *Store
}

var _ driven.SyncRunStore = (*syncRunStore)(nil)

// SaveRun persists one run record.
func (s *syncRunStore) SaveRun(ctx context.Context, run *domain.SyncRun) error {
	if run == nil || run.ID == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sync_runs (id, started_at, ended_at, usernames_synced, partial, error)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt.UTC(), run.EndedAt.UTC(),
		run.UsernamesSynced, boolToInt(run.Partial), nullString(run.Error))

	if err != nil {
		return fmt.Errorf("saving sync run: %w", err)
	}
	return nil
}

// ListRuns returns up to limit runs, most recent first.
func (s *syncRunStore) ListRuns(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, started_at, ended_at, usernames_synced, partial, error
		FROM sync_runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sync runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.SyncRun //nolint:prealloc // size unknown from query
	for rows.Next() {
		var run domain.SyncRun
		var partial int
		var errMsg sql.NullString
		var startedAt, endedAt sql.NullTime
		if err := rows.Scan(&run.ID, &startedAt, &endedAt,
			&run.UsernamesSynced, &partial, &errMsg); err != nil {
			return nil, fmt.Errorf("scanning sync run: %w", err)
		}

		run.Partial = partial != 0
		run.Error = errMsg.String
		if startedAt.Valid {
			run.StartedAt = startedAt.Time.UTC()
		}
		if endedAt.Valid {
			run.EndedAt = endedAt.Time.UTC()
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sync runs: %w", err)
	}

	return runs, nil
}

// ==================== Helper Functions ====================

// nullString maps "" to NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// boolToInt maps a bool to its SQLite representation.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
