package helix

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultAPIBaseURL  = "https://api.twitch.tv/helix"
	defaultAuthBaseURL = "https://id.twitch.tv/oauth2"

	defaultHTTPTimeout   = 30 * time.Second
	defaultRateLimitWait = 10 * time.Second
)

// TokenRefreshedFunc is the notification raised after the refresh protocol
// replaces a Session's TokenState, so dependent subsystems (persistence,
// caches) can react. It runs synchronously under the Session's refresh lock;
// keep it short.
type TokenRefreshedFunc func(ctx context.Context, sess *Session, token TokenState)

// Client is a Twitch Helix API client. It carries the process-wide
// configuration (client identification, endpoints, transport) that the
// dispatcher injects into every request; per-credential state lives in
// Sessions.
type Client struct {
	// ClientID identifies the application; sent as the Client-Id header on
	// every API request.
	ClientID string

	// ClientSecret is used by the token grants (code exchange, refresh,
	// client credentials). Never sent to the Helix API itself.
	ClientSecret string

	// BaseURL is the Helix API base. Default: https://api.twitch.tv/helix
	BaseURL string

	// AuthBaseURL is the OAuth/OIDC base. Default: https://id.twitch.tv/oauth2
	AuthBaseURL string

	// HTTPClient performs all transport. Replaceable for testing.
	HTTPClient *http.Client

	// Logger receives dispatch diagnostics. A context logger installed via
	// slogx.WithContext takes precedence for a given call.
	Logger *slog.Logger

	// CheckScopes toggles client-side scope validation before requests are
	// sent. Disable to exercise server-side enforcement in tests.
	// Default: true.
	CheckScopes bool

	// RateLimitWait bounds how long a dispatch waits for rate-limit capacity
	// before failing with a RateLimitError. Default: 10s.
	RateLimitWait time.Duration

	// OnTokenRefreshed, when set, is invoked after every successful refresh.
	OnTokenRefreshed TokenRefreshedFunc

	// authLimiter paces calls against the token endpoint. The endpoint
	// returns no rate-limit headers, so this is a fixed local ceiling rather
	// than a resyncable bucket.
	authLimiter *rate.Limiter

	oidc oidcState
}

// NewClient creates a Client with production Twitch endpoints and scope
// checking enabled.
func NewClient(clientID, clientSecret string) *Client {
	return &Client{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		BaseURL:      defaultAPIBaseURL,
		AuthBaseURL:  defaultAuthBaseURL,
		HTTPClient: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
		CheckScopes: true,
		authLimiter: rate.NewLimiter(rate.Every(time.Second), 3),
	}
}

// SessionFromTokens rebuilds a Session from previously persisted credentials.
// Pass nil scopes when the granted set is unknown; scope checks then defer to
// the server (see TokenState.HasScope).
func (c *Client) SessionFromTokens(accountID, accessToken, refreshToken string, scopes []Scope, expiresAt time.Time) *Session {
	sess := NewSession(&TokenState{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		Scopes:       scopes,
		ExpiresAt:    expiresAt,
	})
	sess.SetAccountID(accountID)
	return sess
}

func (c *Client) apiBaseURL() string {
	if c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	return defaultAPIBaseURL
}

func (c *Client) authBaseURL() string {
	if c.AuthBaseURL != "" {
		return strings.TrimSuffix(c.AuthBaseURL, "/")
	}
	return defaultAuthBaseURL
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) rateLimitWait() time.Duration {
	if c.RateLimitWait > 0 {
		return c.RateLimitWait
	}
	return defaultRateLimitWait
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// requireScopes is the endpoint-side precondition: token presence always,
// scope membership only when CheckScopes is enabled.
func (c *Client) requireScopes(sess *Session, allowNilScopes bool, scopes ...Scope) error {
	if sess == nil {
		return &ArgumentError{Param: "session", Reason: "must not be nil"}
	}
	if !c.CheckScopes {
		return sess.RequireToken(true)
	}
	return sess.RequireToken(allowNilScopes, scopes...)
}

func (c *Client) notifyTokenRefreshed(ctx context.Context, sess *Session, token TokenState) {
	if c.OnTokenRefreshed == nil {
		return
	}
	c.OnTokenRefreshed(ctx, sess, token)
}
