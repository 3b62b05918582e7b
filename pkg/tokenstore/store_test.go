package tokenstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/twitchkit/pkg/helix"
)

// newTestStore opens a migrated store on a temp-file database. A file DSN is
// required here: with ":memory:" each pooled connection gets its own empty
// database.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "tokens.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.ApplyMigrations())
	return store
}

func TestStoreSaveLoadDelete(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	expires := time.Now().Add(4 * time.Hour).UTC().Truncate(time.Second)
	token := helix.TokenState{
		AccessToken:  "abc",
		RefreshToken: "r1",
		TokenType:    "bearer",
		Scopes:       []helix.Scope{helix.ScopeUserReadChat, helix.ScopeClipsEdit},
		ExpiresAt:    expires,
	}

	require.NoError(t, store.Save(ctx, "12345", token))

	loaded, err := store.Load(ctx, "12345")
	require.NoError(t, err)
	assert.Equal(t, "abc", loaded.AccessToken)
	assert.Equal(t, "r1", loaded.RefreshToken)
	assert.Equal(t, "bearer", loaded.TokenType)
	assert.Equal(t, token.Scopes, loaded.Scopes)
	assert.True(t, expires.Equal(loaded.ExpiresAt.UTC()))

	// Upsert replaces in place.
	token.AccessToken = "def"
	token.RefreshToken = "r2"
	require.NoError(t, store.Save(ctx, "12345", token))

	loaded, err = store.Load(ctx, "12345")
	require.NoError(t, err)
	assert.Equal(t, "def", loaded.AccessToken)
	assert.Equal(t, "r2", loaded.RefreshToken)

	require.NoError(t, store.Delete(ctx, "12345"))
	_, err = store.Load(ctx, "12345")
	require.ErrorIs(t, err, ErrNotFound)

	// Deleting again is a no-op.
	require.NoError(t, store.Delete(ctx, "12345"))
}

func TestStoreSaveRejectsBlankAccountID(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	require.Error(t, store.Save(context.Background(), "  ", helix.TokenState{AccessToken: "abc"}))
}

func TestStoreLoadMissing(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	_, err := store.Load(context.Background(), "nobody")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreHook(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	hook := store.Hook(nil)
	ctx := context.Background()

	t.Run("persists under the account id", func(t *testing.T) {
		sess := helix.NewSession(&helix.TokenState{AccessToken: "old"})
		sess.SetAccountID("12345")

		hook(ctx, sess, helix.TokenState{
			AccessToken:  "fresh",
			RefreshToken: "r2",
			TokenType:    "bearer",
			ExpiresAt:    time.Now().Add(time.Hour),
		})

		loaded, err := store.Load(ctx, "12345")
		require.NoError(t, err)
		assert.Equal(t, "fresh", loaded.AccessToken)
	})

	t.Run("skips sessions without an account id", func(t *testing.T) {
		sess := helix.NewSession(&helix.TokenState{AccessToken: "old"})
		hook(ctx, sess, helix.TokenState{AccessToken: "fresh"})

		_, err := store.Load(ctx, "")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStorePing(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	require.NoError(t, store.Ping(context.Background()))
}

func TestScopeRoundTrip(t *testing.T) {
	t.Parallel()

	assert.Nil(t, splitScopes(""))
	assert.Equal(t, "user:read:chat clips:edit",
		joinScopes([]helix.Scope{helix.ScopeUserReadChat, helix.ScopeClipsEdit}))
	assert.Equal(t, []helix.Scope{helix.ScopeUserReadChat},
		splitScopes("  user:read:chat "))
}
