package handlers

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newscoin/newscoin/pkg/api"
)

type fakeVerifier struct {
	identity *GoogleIdentity
	err      error
}

func (f *fakeVerifier) Verify(context.Context, string) (*GoogleIdentity, error) {
	return f.identity, f.err
}

func googleLogin(t *testing.T, env *testEnv, verifier IDTokenVerifier) (int, api.LoginData) {
	t.Helper()

	handler := NewAuthHandler(setupTestLogger(), env.store, env.store, env.issuer, AuthConfig{Google: verifier})
	w := serve(handler.Google, newRequest(t, http.MethodPost, "/auth/google", api.GoogleLoginRequest{IDToken: "id-token"}))
	if w.Code != http.StatusOK {
		return w.Code, api.LoginData{}
	}
	return w.Code, decodeEnvelope[api.LoginData](t, w).Data
}

func TestAuthHandler_Google_NotConfigured(t *testing.T) {
	env := newTestEnv(t)

	w := serve(env.auth.Google, newRequest(t, http.MethodPost, "/auth/google", api.GoogleLoginRequest{IDToken: "x"}))
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestAuthHandler_Google_InvalidToken(t *testing.T) {
	env := newTestEnv(t)

	code, _ := googleLogin(t, env, &fakeVerifier{err: errors.New("bad signature")})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAuthHandler_Google_CreatesUser(t *testing.T) {
	env := newTestEnv(t)
	verifier := &fakeVerifier{identity: &GoogleIdentity{
		Subject: "g-1", Email: "new@example.com", Name: "New User", EmailVerified: true,
	}}

	code, data := googleLogin(t, env, verifier)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, data.Validate())
	assert.Equal(t, "new@example.com", data.User.Email)

	user := env.getUser(t, "new@example.com")
	assert.Equal(t, "g-1", user.GoogleSubject)
	assert.True(t, user.IsVerified)
	assert.Empty(t, user.PasswordHash)

	// повторный вход находит того же пользователя по subject
	code, again := googleLogin(t, env, verifier)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, data.User.ID, again.User.ID)
}

func TestAuthHandler_Google_LinksExistingEmail(t *testing.T) {
	env := newTestEnv(t)
	serve(env.auth.Register, newRequest(t, http.MethodPost, "/auth/register", api.RegisterRequest{
		FullName: "Ann", Email: "ann@example.com", Password: testPassword,
	}))
	existing := env.getUser(t, "ann@example.com")
	require.False(t, existing.IsVerified)

	code, data := googleLogin(t, env, &fakeVerifier{identity: &GoogleIdentity{
		Subject: "g-ann", Email: "ann@example.com", EmailVerified: true,
	}})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, existing.ID, data.User.ID)

	user := env.getUser(t, "ann@example.com")
	assert.Equal(t, "g-ann", user.GoogleSubject)
	assert.True(t, user.IsVerified)
	assert.Equal(t, existing.PasswordHash, user.PasswordHash)
}

func TestAuthHandler_Google_EmailLinkedToAnotherAccount(t *testing.T) {
	env := newTestEnv(t)
	_, _ = googleLogin(t, env, &fakeVerifier{identity: &GoogleIdentity{Subject: "g-1", Email: "ann@example.com"}})

	code, _ := googleLogin(t, env, &fakeVerifier{identity: &GoogleIdentity{Subject: "g-2", Email: "ann@example.com"}})
	assert.Equal(t, http.StatusConflict, code)
}

func TestOIDCVerifier_Verify(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	const (
		issuer   = "https://accounts.example.com"
		clientID = "newscoin-client"
	)
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	keys := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{key.Public()}}
	verifier := newStaticVerifier(issuer, clientID, keys, func() time.Time { return now })

	sign := func(aud string, exp time.Time, signer *rsa.PrivateKey) string {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
			"iss":            issuer,
			"aud":            aud,
			"sub":            "google-sub",
			"email":          "Ann@Example.com",
			"email_verified": true,
			"name":           "Ann",
			"iat":            now.Unix(),
			"exp":            exp.Unix(),
		}).SignedString(signer)
		require.NoError(t, err)
		return raw
	}

	identity, err := verifier.Verify(context.Background(), sign(clientID, now.Add(time.Hour), key))
	require.NoError(t, err)
	assert.Equal(t, &GoogleIdentity{
		Subject: "google-sub", Email: "ann@example.com", Name: "Ann", EmailVerified: true,
	}, identity)

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"wrong audience": sign("someone-else", now.Add(time.Hour), key),
		"expired":        sign(clientID, now.Add(-time.Minute), key),
		"foreign key":    sign(clientID, now.Add(time.Hour), other),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := verifier.Verify(context.Background(), raw)
			assert.Error(t, err)
		})
	}
}
