package helix

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenState(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	state := newTokenState(&tokenResponse{
		AccessToken:  "abc",
		RefreshToken: "r1",
		ExpiresIn:    14400,
		Scope:        []string{"user:read:chat", "clips:edit"},
		TokenType:    "bearer",
	}, now)

	assert.Equal(t, "abc", state.AccessToken)
	assert.Equal(t, "r1", state.RefreshToken)
	assert.Equal(t, "bearer", state.TokenType)
	assert.Equal(t, []Scope{ScopeUserReadChat, ScopeClipsEdit}, state.Scopes)
	assert.Equal(t, now.Add(4*time.Hour), state.ExpiresAt)
}

func TestTokenStateValid(t *testing.T) {
	t.Parallel()

	var nilState *TokenState
	require.False(t, nilState.Valid())
	require.False(t, (&TokenState{}).Valid())
	require.False(t, (&TokenState{AccessToken: "  "}).Valid())
	require.True(t, (&TokenState{AccessToken: "abc"}).Valid())
}

func TestTokenStateExpired(t *testing.T) {
	t.Parallel()

	now := time.Now()

	t.Run("zero expiry never expires", func(t *testing.T) {
		assert.False(t, (&TokenState{AccessToken: "abc"}).Expired(now))
	})

	t.Run("before expiry", func(t *testing.T) {
		ts := &TokenState{AccessToken: "abc", ExpiresAt: now.Add(time.Hour)}
		assert.False(t, ts.Expired(now))
	})

	t.Run("at and past expiry", func(t *testing.T) {
		ts := &TokenState{AccessToken: "abc", ExpiresAt: now}
		assert.True(t, ts.Expired(now))
		assert.True(t, ts.Expired(now.Add(time.Minute)))
	})
}
