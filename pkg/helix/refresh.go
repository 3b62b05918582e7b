package helix

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// The token refresh protocol: the network round-trips against the
// authorization server that mint, renew, and revoke credentials. These calls
// deliberately bypass the Helix dispatcher - they target a different base,
// speak application/x-www-form-urlencoded, carry no bearer auth, and must
// never trigger a refresh-of-refresh.

// AuthorizeURL builds the user authorization URL for the authorization code
// flow. When state is empty a fresh ULID nonce is generated; the returned
// state must be compared against the callback. Include ScopeOpenID in scopes
// to receive an id_token on exchange (see ValidateIDToken).
func (c *Client) AuthorizeURL(redirectURI string, scopes []Scope, state string) (authorizeURL, usedState string, err error) {
	if strings.TrimSpace(redirectURI) == "" {
		return "", "", &ArgumentError{Param: "redirectURI", Reason: "must not be blank"}
	}
	if state == "" {
		state = ulid.Make().String()
	}

	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", c.ClientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	if len(scopes) > 0 {
		q.Set("scope", joinScopes(scopes))
	}

	return c.authBaseURL() + "/authorize?" + q.Encode(), state, nil
}

// ExchangeCode performs the initial authorization code exchange and returns a
// Session owning the minted token state.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (*Session, error) {
	if strings.TrimSpace(code) == "" {
		return nil, &ArgumentError{Param: "code", Reason: "must not be blank"}
	}
	if strings.TrimSpace(redirectURI) == "" {
		return nil, &ArgumentError{Param: "redirectURI", Reason: "must not be blank"}
	}

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {redirectURI},
		"client_id":     {c.ClientID},
		"client_secret": {c.ClientSecret},
	}

	resp, err := c.requestToken(ctx, form)
	if err != nil {
		return nil, err
	}
	return NewSession(newTokenState(resp, time.Now())), nil
}

// AppAccessToken performs the client credentials grant and returns an
// app-only Session. App tokens carry no refresh token and no user scope set;
// scope checks on the returned Session defer to the server.
func (c *Client) AppAccessToken(ctx context.Context, scopes []Scope) (*Session, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.ClientID},
		"client_secret": {c.ClientSecret},
	}
	if len(scopes) > 0 {
		form.Set("scope", joinScopes(scopes))
	}

	resp, err := c.requestToken(ctx, form)
	if err != nil {
		return nil, err
	}
	return NewSession(newTokenState(resp, time.Now())), nil
}

// RefreshSession explicitly exchanges the Session's refresh token for a new
// access/refresh pair, replaces the token state, and raises the
// token-refreshed notification. The dispatcher performs the same exchange
// reactively on 401; use this for proactive renewal (e.g. before expiry).
func (c *Client) RefreshSession(ctx context.Context, sess *Session) error {
	if sess == nil {
		return &ArgumentError{Param: "session", Reason: "must not be nil"}
	}

	if err := sess.acquireRefreshLock(ctx); err != nil {
		return err
	}
	defer sess.releaseRefreshLock()

	token, err := c.refreshGrant(ctx, sess.RefreshToken())
	if err != nil {
		return err
	}

	sess.SetTokenState(token)
	c.notifyTokenRefreshed(ctx, sess, *token)
	return nil
}

// refreshGrant runs the refresh_token grant. Caller holds the refresh lock.
// A blank refresh token fails with ErrMissingRefreshToken before any I/O.
func (c *Client) refreshGrant(ctx context.Context, refreshToken string) (*TokenState, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrMissingRefreshToken
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {c.ClientID},
		"client_secret": {c.ClientSecret},
	}

	resp, err := c.requestToken(ctx, form)
	if err != nil {
		return nil, err
	}
	return newTokenState(resp, time.Now()), nil
}

// RevokeSession invalidates the Session's access token server-side. The
// Session itself is left intact; callers typically Close it afterwards.
func (c *Client) RevokeSession(ctx context.Context, sess *Session) error {
	if sess == nil {
		return &ArgumentError{Param: "session", Reason: "must not be nil"}
	}
	token := sess.AccessToken()
	if strings.TrimSpace(token) == "" {
		return ErrMissingToken
	}

	form := url.Values{
		"client_id": {c.ClientID},
		"token":     {token},
	}

	if err := c.authLimiterWait(ctx); err != nil {
		return err
	}

	resp, body, err := c.postForm(ctx, c.authBaseURL()+"/revoke", form)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return parseAPIError(resp.StatusCode, body)
	}
	return nil
}

// requestToken posts a grant exchange to the token endpoint and decodes the
// response. Server-side rejections come back as decoded APIErrors.
func (c *Client) requestToken(ctx context.Context, form url.Values) (*tokenResponse, error) {
	if err := c.authLimiterWait(ctx); err != nil {
		return nil, err
	}

	resp, body, err := c.postForm(ctx, c.authBaseURL()+"/token", form)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(resp.StatusCode, body)
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("helix: failed to decode token response: %w", err)
	}
	return &tokenResp, nil
}

func (c *Client) authLimiterWait(ctx context.Context) error {
	if c.authLimiter == nil {
		return nil
	}
	return c.authLimiter.Wait(ctx)
}

// postForm sends one form-urlencoded POST against the authorization server.
func (c *Client) postForm(ctx context.Context, urlStr string, form url.Values) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, urlStr, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, nil, fmt.Errorf("helix: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, nil, &TransportError{Op: http.MethodPost, URL: urlStr, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &TransportError{Op: http.MethodPost, URL: urlStr, Err: err}
	}
	return resp, body, nil
}
