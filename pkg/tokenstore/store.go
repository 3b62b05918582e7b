// Package tokenstore persists Session credentials in SQLite so refreshed
// tokens survive restarts. It plugs into the helix client through the
// token-refreshed notification: see Hook.
package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aussiebroadwan/twitchkit/pkg/helix"
)

// ErrNotFound is returned by Load when no record exists for the account.
var ErrNotFound = errors.New("tokenstore: not found")

// Store is a SQLite-backed token repository. Safe for concurrent use; SQLite
// serializes writers internally.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dsn. Call ApplyMigrations
// before first use.
func New(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Serialized writes keep "database is locked" errors away under
	// concurrent refresh hooks.
	if _, err := db.ExecContext(context.Background(), `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Save upserts the token state for accountID.
func (s *Store) Save(ctx context.Context, accountID string, token helix.TokenState) error {
	if strings.TrimSpace(accountID) == "" {
		return errors.New("tokenstore: account id must not be blank")
	}

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tokens (account_id, access_token, refresh_token, token_type, scopes, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_id) DO UPDATE SET
			access_token  = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type    = excluded.token_type,
			scopes        = excluded.scopes,
			expires_at    = excluded.expires_at,
			updated_at    = excluded.updated_at`,
		accountID,
		token.AccessToken,
		token.RefreshToken,
		token.TokenType,
		joinScopes(token.Scopes),
		token.ExpiresAt.UTC(),
		now,
		now,
	)
	return err
}

// Load returns the persisted token state for accountID.
func (s *Store) Load(ctx context.Context, accountID string) (helix.TokenState, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT access_token, refresh_token, token_type, scopes, expires_at
		FROM tokens WHERE account_id = ?`, accountID)

	var token helix.TokenState
	var scopes string
	err := row.Scan(&token.AccessToken, &token.RefreshToken, &token.TokenType, &scopes, &token.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return helix.TokenState{}, ErrNotFound
	}
	if err != nil {
		return helix.TokenState{}, err
	}

	token.Scopes = splitScopes(scopes)
	return token, nil
}

// Delete removes the persisted token state for accountID. Deleting a missing
// record is not an error.
func (s *Store) Delete(ctx context.Context, accountID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tokens WHERE account_id = ?`, accountID)
	return err
}

// Hook returns a TokenRefreshedFunc that persists every refreshed token under
// the Session's account id. Sessions without an account id are skipped. The
// hook runs under the refresh lock, so failures are logged rather than
// propagated back into the dispatch path.
func (s *Store) Hook(log *slog.Logger) helix.TokenRefreshedFunc {
	if log == nil {
		log = slog.Default()
	}
	return func(ctx context.Context, sess *helix.Session, token helix.TokenState) {
		accountID := sess.AccountID()
		if accountID == "" {
			return
		}
		if err := s.Save(ctx, accountID, token); err != nil {
			log.Warn("failed to persist refreshed token", "account_id", accountID, "error", err)
		}
	}
}

func joinScopes(scopes []helix.Scope) string {
	parts := make([]string, len(scopes))
	for i, sc := range scopes {
		parts[i] = string(sc)
	}
	return strings.Join(parts, " ")
}

func splitScopes(s string) []helix.Scope {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	scopes := make([]helix.Scope, len(fields))
	for i, f := range fields {
		scopes[i] = helix.Scope(f)
	}
	return scopes
}
