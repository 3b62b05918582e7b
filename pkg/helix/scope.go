package helix

import "strings"

// Scope is a named OAuth permission grant, e.g. "channel:read:ads".
type Scope string

// Scopes used by the endpoints in this package. The full catalogue lives in
// the Twitch authentication docs; add constants as endpoints need them.
const (
	ScopeChannelReadAds           Scope = "channel:read:ads"
	ScopeChannelManageAds         Scope = "channel:manage:ads"
	ScopeChannelReadPolls         Scope = "channel:read:polls"
	ScopeChannelManagePolls       Scope = "channel:manage:polls"
	ScopeChannelReadPredictions   Scope = "channel:read:predictions"
	ScopeChannelManagePredictions Scope = "channel:manage:predictions"
	ScopeChannelReadRedemptions   Scope = "channel:read:redemptions"
	ScopeChannelManageRedemptions Scope = "channel:manage:redemptions"
	ScopeChannelReadVIPs          Scope = "channel:read:vips"
	ScopeChannelManageVIPs        Scope = "channel:manage:vips"
	ScopeChannelReadGuestStar     Scope = "channel:read:guest_star"
	ScopeChannelManageGuestStar   Scope = "channel:manage:guest_star"
	ScopeUserReadBlockedUsers     Scope = "user:read:blocked_users"
	ScopeUserManageBlockedUsers   Scope = "user:manage:blocked_users"
	ScopeUserReadEmail            Scope = "user:read:email"
	ScopeUserReadChat             Scope = "user:read:chat"
	ScopeUserWriteChat            Scope = "user:write:chat"
	ScopeClipsEdit                Scope = "clips:edit"
	ScopeModeratorReadFollowers   Scope = "moderator:read:followers"
	ScopeChannelBot               Scope = "channel:bot"
	ScopeUserBot                  Scope = "user:bot"
	ScopeOpenID                   Scope = "openid"
)

// scopeImplications is the fixed implication table: a granted key scope also
// satisfies a requirement for any of its value scopes. Twitch documents each
// manage scope as including its read counterpart.
var scopeImplications = map[Scope][]Scope{
	ScopeChannelManageAds:         {ScopeChannelReadAds},
	ScopeChannelManagePolls:       {ScopeChannelReadPolls},
	ScopeChannelManagePredictions: {ScopeChannelReadPredictions},
	ScopeChannelManageRedemptions: {ScopeChannelReadRedemptions},
	ScopeChannelManageVIPs:        {ScopeChannelReadVIPs},
	ScopeChannelManageGuestStar:   {ScopeChannelReadGuestStar},
	ScopeUserManageBlockedUsers:   {ScopeUserReadBlockedUsers},
}

// Satisfies reports whether the granted scope s covers a requirement for
// required, either directly or through the implication table.
func (s Scope) Satisfies(required Scope) bool {
	if s == required {
		return true
	}
	for _, implied := range scopeImplications[s] {
		if implied == required {
			return true
		}
	}
	return false
}

// ParseScopes converts a slice of raw scope strings (as returned by the token
// endpoint) into Scopes, dropping blanks.
func ParseScopes(raw []string) []Scope {
	if len(raw) == 0 {
		return nil
	}
	scopes := make([]Scope, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		scopes = append(scopes, Scope(s))
	}
	if len(scopes) == 0 {
		return nil
	}
	return scopes
}

// joinScopes renders scopes as the space-delimited form used in authorize
// URLs and token requests.
func joinScopes(scopes []Scope) string {
	parts := make([]string, len(scopes))
	for i, s := range scopes {
		parts[i] = string(s)
	}
	return strings.Join(parts, " ")
}
