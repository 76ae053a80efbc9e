package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-0123456789"

func TestIssuer_AccessToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	issuer := NewIssuer(testSecret, 15*time.Minute, time.Hour, WithClock(func() time.Time { return now }))

	signed, err := issuer.AccessToken("user-1", "ann@example.com")
	require.NoError(t, err)

	claims, err := issuer.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "ann@example.com", claims.Email)
	assert.True(t, claims.ExpiresAt.Equal(now.Add(15*time.Minute)))
}

func TestIssuer_Validate(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := now
	issuer := NewIssuer(testSecret, 15*time.Minute, time.Hour, WithClock(func() time.Time { return clock }))

	valid, err := issuer.AccessToken("user-1", "ann@example.com")
	require.NoError(t, err)

	forged, err := NewIssuer("another-secret-0123456", time.Minute, time.Hour).AccessToken("user-1", "x@example.com")
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", Issuer: "newscoin-devserver"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		advance time.Duration
		wantErr bool
	}{
		{name: "valid", token: valid},
		{name: "almost expired", token: valid, advance: 14 * time.Minute},
		{name: "expired", token: valid, advance: 16 * time.Minute, wantErr: true},
		{name: "wrong secret", token: forged, wantErr: true},
		{name: "none algorithm", token: none, wantErr: true},
		{name: "garbage", token: "not.a.jwt", wantErr: true},
		{name: "empty", token: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock = now.Add(tt.advance)

			_, err := issuer.Validate(tt.token)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidToken)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIssuer_RefreshToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	issuer := NewIssuer(testSecret, time.Minute, 24*time.Hour, WithClock(func() time.Time { return now }))

	first, expiresAt, err := issuer.RefreshToken()
	require.NoError(t, err)
	assert.Equal(t, now.Add(24*time.Hour), expiresAt)
	assert.Len(t, first, 43)

	second, _, err := issuer.RefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
