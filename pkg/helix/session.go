package helix

import (
	"context"
	"sync"
)

// Session is the authorization and rate-limit context bound to one credential
// (a bot account, a broadcaster, or an app-only identity). It is created once
// per authenticated identity and passed into every API call.
//
// A Session owns exactly one replaceable TokenState, one RateLimiter, and the
// refresh lock that serializes token refreshes. All methods are safe for
// concurrent use; multiple requests may be in flight against one Session.
type Session struct {
	mu        sync.RWMutex
	token     *TokenState
	accountID string
	closed    bool

	limiter *RateLimiter

	// refreshSem is the refresh lock: a one-slot semaphore so that waiting
	// for it suspends with the caller's context instead of blocking
	// unconditionally. Only the dispatcher and the refresh protocol take it.
	refreshSem chan struct{}
}

// NewSession creates a Session owning the given token state and a fresh
// per-Session rate limiter with the default Helix bucket.
func NewSession(token *TokenState) *Session {
	return &Session{
		token:      token,
		limiter:    NewRateLimiter(defaultRateLimitCapacity, defaultRateLimitWindow),
		refreshSem: make(chan struct{}, 1),
	}
}

// AccountID returns the identity key used by persistence hooks (typically the
// Twitch user ID, or any stable identifier the caller chose).
func (s *Session) AccountID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accountID
}

// SetAccountID sets the identity key used by persistence hooks.
func (s *Session) SetAccountID(id string) {
	s.mu.Lock()
	s.accountID = id
	s.mu.Unlock()
}

// TokenState returns a copy of the current token state.
func (s *Session) TokenState() TokenState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return TokenState{}
	}
	return *s.token
}

// AccessToken returns the current access token without validity checks.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return ""
	}
	return s.token.AccessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return ""
	}
	return s.token.RefreshToken
}

// SetTokenState replaces the Session's token state wholesale. The refresh
// protocol calls this under the refresh lock; callers restoring persisted
// tokens may call it directly before issuing requests.
func (s *Session) SetTokenState(token *TokenState) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Limiter returns the Session's rate limiter.
func (s *Session) Limiter() *RateLimiter {
	return s.limiter
}

// RequireToken validates that the Session holds a usable access token with
// at least one of the required scopes. It is a pure precondition check and
// performs no network I/O: a missing token fails with ErrMissingToken, a
// missing scope with a ScopeError carrying the requirement.
//
// allowNilScopes treats an unknown scope set as satisfied, deferring scope
// enforcement to the server (app-only and pre-auth contexts).
func (s *Session) RequireToken(allowNilScopes bool, scopes ...Scope) error {
	s.mu.RLock()
	token := s.token
	closed := s.closed
	s.mu.RUnlock()

	if closed {
		return ErrSessionClosed
	}
	if !token.Valid() {
		return ErrMissingToken
	}
	if !token.HasScope(allowNilScopes, scopes...) {
		return &ScopeError{Missing: scopes}
	}
	return nil
}

// acquireRefreshLock takes the refresh lock, honoring ctx while waiting.
func (s *Session) acquireRefreshLock(ctx context.Context) error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return ErrSessionClosed
	}

	select {
	case s.refreshSem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// releaseRefreshLock releases the refresh lock.
func (s *Session) releaseRefreshLock() {
	<-s.refreshSem
}

// Close releases the Session's refresh-lock resource and marks it unusable.
// It does not revoke the token; revocation is an explicit Client.RevokeSession
// call. Close is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
