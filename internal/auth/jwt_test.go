package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	v := NewVerifier("test-secret", "horeca")
	userID := uuid.New()

	token, err := v.Issue(userID, time.Hour)
	require.NoError(t, err)

	got, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestVerifyRejects(t *testing.T) {
	v := NewVerifier("test-secret", "")
	userID := uuid.New()

	expired, err := v.Issue(userID, -time.Minute)
	require.NoError(t, err)

	foreign, err := NewVerifier("other-secret", "").Issue(userID, time.Hour)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: userID.String()}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "service-account",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	wrongIssuer, err := NewVerifier("test-secret", "elsewhere").Issue(userID, time.Hour)
	require.NoError(t, err)

	cases := map[string]string{
		"expired":      expired,
		"wrong secret": foreign,
		"no expiry":    noExpiry,
		"bad subject":  badSubject,
		"garbage":      "not.a.jwt",
		"empty":        "",
		"wrong issuer": wrongIssuer,
	}
	strict := NewVerifier("test-secret", "horeca")
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			verifier := v
			if name == "wrong issuer" {
				verifier = strict
			}
			_, err := verifier.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
