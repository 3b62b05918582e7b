package helix

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// oidcFixture stands in for the identity provider: a discovery document, a
// JWKS with one RSA key, and the private half for minting test id_tokens.
type oidcFixture struct {
	server *httptest.Server
	key    *rsa.PrivateKey
	kid    string
	hits   atomic.Int32
}

func newOIDCFixture(t *testing.T) *oidcFixture {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	f := &oidcFixture{key: key, kid: "test-key-1"}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		_ = json.NewEncoder(w).Encode(OpenIDConfiguration{
			Issuer:  f.server.URL,
			JWKSURI: f.server.URL + "/keys",
		})
	})
	mux.HandleFunc("/keys", func(w http.ResponseWriter, r *http.Request) {
		pub := key.Public().(*rsa.PublicKey)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []jsonWebKey{{
				Kty: "RSA",
				Kid: f.kid,
				Alg: "RS256",
				Use: "sig",
				N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			}},
		})
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *oidcFixture) mintIDToken(t *testing.T, claims IDTokenClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = f.kid
	signed, err := tok.SignedString(f.key)
	require.NoError(t, err)
	return signed
}

func TestValidateIDToken(t *testing.T) {
	t.Parallel()

	fixture := newOIDCFixture(t)
	client := NewClient("client-id", "secret")
	client.AuthBaseURL = fixture.server.URL

	base := IDTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    fixture.server.URL,
			Audience:  jwt.ClaimStrings{"client-id"},
			Subject:   "12345",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		PreferredUsername: "example",
		Email:             "user@example.com",
		EmailVerified:     true,
	}

	t.Run("valid token", func(t *testing.T) {
		claims, err := client.ValidateIDToken(context.Background(), fixture.mintIDToken(t, base))
		require.NoError(t, err)
		assert.Equal(t, "12345", claims.Subject)
		assert.Equal(t, "example", claims.PreferredUsername)
		assert.True(t, claims.EmailVerified)
	})

	t.Run("wrong audience", func(t *testing.T) {
		bad := base
		bad.Audience = jwt.ClaimStrings{"someone-else"}
		_, err := client.ValidateIDToken(context.Background(), fixture.mintIDToken(t, bad))
		require.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		bad := base
		bad.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
		_, err := client.ValidateIDToken(context.Background(), fixture.mintIDToken(t, bad))
		require.Error(t, err)
	})

	t.Run("unknown signing key", func(t *testing.T) {
		other, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		tok := jwt.NewWithClaims(jwt.SigningMethodRS256, base)
		tok.Header["kid"] = "stranger"
		signed, err := tok.SignedString(other)
		require.NoError(t, err)

		_, err = client.ValidateIDToken(context.Background(), signed)
		require.Error(t, err)
	})

	t.Run("blank token", func(t *testing.T) {
		_, err := client.ValidateIDToken(context.Background(), "")

		var argErr *ArgumentError
		require.ErrorAs(t, err, &argErr)
	})

	// All of the above shared one discovery fetch.
	assert.Equal(t, int32(1), fixture.hits.Load())
}

func TestEnsureOIDCMemoizesFailure(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient("client-id", "secret")
	client.AuthBaseURL = server.URL

	require.Error(t, client.EnsureOIDC(context.Background()))
	require.Error(t, client.EnsureOIDC(context.Background()))
	assert.Equal(t, int32(1), hits.Load(), "discovery runs once per client")
}
