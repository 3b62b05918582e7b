package helix

import (
	"strings"
	"time"
)

// TokenState holds the credentials granted to one Session: the access/refresh
// token pair, the granted scope set, and the computed expiry. A TokenState is
// immutable once built; refreshes replace the Session's TokenState wholesale
// under the refresh lock rather than mutating fields in place.
type TokenState struct {
	// AccessToken is the bearer token attached to every authorized request
	AccessToken string

	// RefreshToken is the opaque token exchanged for a new pair on refresh.
	// Empty for app access tokens (client credentials grant).
	RefreshToken string

	// TokenType is "bearer" per OAuth2
	TokenType string

	// Scopes is the granted scope set. A nil set means scopes are unknown or
	// not applicable (app tokens); see HasScope.
	Scopes []Scope

	// ExpiresAt is the issue time plus the server-reported lifetime
	ExpiresAt time.Time
}

// tokenResponse is the wire shape of the Twitch token endpoint response.
// Note the scope field is a JSON array here, unlike the space-delimited form
// used in authorize URLs.
type tokenResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	ExpiresIn    int      `json:"expires_in"`
	Scope        []string `json:"scope,omitempty"`
	TokenType    string   `json:"token_type"`
}

// newTokenState builds a TokenState from a token endpoint response.
func newTokenState(resp *tokenResponse, now time.Time) *TokenState {
	return &TokenState{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    resp.TokenType,
		Scopes:       ParseScopes(resp.Scope),
		ExpiresAt:    now.Add(time.Duration(resp.ExpiresIn) * time.Second),
	}
}

// Valid reports whether the state carries a usable access token.
func (t *TokenState) Valid() bool {
	return t != nil && strings.TrimSpace(t.AccessToken) != ""
}

// Expired reports whether the access token lifetime has elapsed at now.
// Expiry is advisory: the dispatcher treats the server's 401 as ground truth
// and refreshes reactively, but callers (and the token store) can use this to
// refresh proactively.
func (t *TokenState) Expired(now time.Time) bool {
	if t == nil || t.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(t.ExpiresAt)
}

// HasScope reports whether the granted scope set satisfies at least one of
// the required scopes, directly or via the implication table.
//
// A nil scope set means scope enforcement is deferred to the server (app
// tokens, sessions rebuilt from a bare access token): the check passes only
// when allowNilScopes is set. An empty requirement is always satisfied.
func (t *TokenState) HasScope(allowNilScopes bool, required ...Scope) bool {
	if len(required) == 0 {
		return true
	}
	if t == nil || t.Scopes == nil {
		return allowNilScopes
	}
	for _, granted := range t.Scopes {
		for _, req := range required {
			if granted.Satisfies(req) {
				return true
			}
		}
	}
	return false
}
