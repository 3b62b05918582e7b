package helix

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

// OpenIDConfiguration is the subset of the provider discovery document the
// client needs for id_token verification.
type OpenIDConfiguration struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	JWKSURI               string `json:"jwks_uri"`
}

// IDTokenClaims are the verified claims of a Twitch id_token.
type IDTokenClaims struct {
	jwt.RegisteredClaims

	Email             string `json:"email,omitempty"`
	EmailVerified     bool   `json:"email_verified,omitempty"`
	Picture           string `json:"picture,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
}

// jsonWebKey is one entry of the provider's JWKS document (RSA members only;
// Twitch signs id_tokens with RS256).
type jsonWebKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// oidcState memoizes the one-shot discovery fetch. Both the configuration
// and the failure are remembered for the process lifetime.
type oidcState struct {
	once sync.Once
	cfg  *OpenIDConfiguration
	keys map[string]*rsa.PublicKey
	err  error
}

// EnsureOIDC fetches the OpenID configuration and signing keys exactly once
// per Client and memoizes the result. Call it eagerly at startup to surface
// discovery failures early; ValidateIDToken calls it lazily otherwise.
func (c *Client) EnsureOIDC(ctx context.Context) error {
	c.oidc.once.Do(func() {
		c.oidc.cfg, c.oidc.keys, c.oidc.err = c.fetchOIDC(ctx)
	})
	return c.oidc.err
}

// OIDCConfiguration returns the discovered configuration, fetching it on
// first use.
func (c *Client) OIDCConfiguration(ctx context.Context) (*OpenIDConfiguration, error) {
	if err := c.EnsureOIDC(ctx); err != nil {
		return nil, err
	}
	return c.oidc.cfg, nil
}

// ValidateIDToken verifies the signature, issuer, audience, and expiry of an
// id_token obtained from a code exchange that requested the openid scope.
func (c *Client) ValidateIDToken(ctx context.Context, raw string) (*IDTokenClaims, error) {
	if raw == "" {
		return nil, &ArgumentError{Param: "idToken", Reason: "must not be blank"}
	}
	if err := c.EnsureOIDC(ctx); err != nil {
		return nil, err
	}

	claims := &IDTokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		key, ok := c.oidc.keys[kid]
		if !ok {
			return nil, fmt.Errorf("unknown signing key %q", kid)
		}
		return key, nil
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(c.oidc.cfg.Issuer),
		jwt.WithAudience(c.ClientID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("helix: id_token validation failed: %w", err)
	}
	return claims, nil
}

// fetchOIDC performs the discovery and JWKS round-trips.
func (c *Client) fetchOIDC(ctx context.Context) (*OpenIDConfiguration, map[string]*rsa.PublicKey, error) {
	var cfg OpenIDConfiguration
	if err := c.getJSON(ctx, c.authBaseURL()+"/.well-known/openid-configuration", &cfg); err != nil {
		return nil, nil, err
	}
	if cfg.JWKSURI == "" {
		return nil, nil, fmt.Errorf("helix: discovery document has no jwks_uri")
	}

	var doc struct {
		Keys []jsonWebKey `json:"keys"`
	}
	if err := c.getJSON(ctx, cfg.JWKSURI, &doc); err != nil {
		return nil, nil, err
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pub, err := k.rsaPublicKey()
		if err != nil {
			return nil, nil, fmt.Errorf("helix: invalid JWK %q: %w", k.Kid, err)
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return nil, nil, fmt.Errorf("helix: JWKS contains no RSA keys")
	}

	return &cfg, keys, nil
}

func (c *Client) getJSON(ctx context.Context, urlStr string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return fmt.Errorf("helix: failed to create request: %w", err)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return &TransportError{Op: http.MethodGet, URL: urlStr, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: http.MethodGet, URL: urlStr, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return parseAPIError(resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("helix: failed to decode %s: %w", urlStr, err)
	}
	return nil
}

// rsaPublicKey rebuilds the public key from the JWK's base64url modulus and
// exponent.
func (k jsonWebKey) rsaPublicKey() (*rsa.PublicKey, error) {
	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("bad modulus: %w", err)
	}
	e, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("bad exponent: %w", err)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(n),
		E: int(new(big.Int).SetBytes(e).Int64()),
	}, nil
}
