package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"leadcatcher/models"
)

func TestResetTokenRoundTrip(t *testing.T) {
	issuer := NewResetTokenIssuer("secret", time.Hour)
	user := &models.User{ID: 7, PasswordHash: "$2a$04$somehash"}

	token, err := issuer.Issue(user)
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, PasswordFingerprint(user.PasswordHash), claims.Fingerprint)
	assert.Equal(t, "password_reset", claims.Subject)
}

func TestResetTokenExpires(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewResetTokenIssuer("secret", time.Hour)
	issuer.now = func() time.Time { return now }

	token, err := issuer.Issue(&models.User{ID: 1, PasswordHash: "h"})
	require.NoError(t, err)

	now = now.Add(59 * time.Minute)
	_, err = issuer.Parse(token)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestResetTokenRejectsForeignTokens(t *testing.T) {
	issuer := NewResetTokenIssuer("secret", time.Hour)

	other, err := NewResetTokenIssuer("other-secret", time.Hour).Issue(&models.User{ID: 1})
	require.NoError(t, err)
	_, err = issuer.Parse(other)
	assert.ErrorIs(t, err, ErrInvalidResetToken)

	// right key, wrong purpose
	session := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "session",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := session.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = issuer.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidResetToken)

	_, err = issuer.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestPasswordFingerprint(t *testing.T) {
	fp := PasswordFingerprint("hash-a")
	assert.Len(t, fp, 16)
	assert.Equal(t, fp, PasswordFingerprint("hash-a"))
	assert.NotEqual(t, fp, PasswordFingerprint("hash-b"))
}
