package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"leadcatcher/models"
)

const resetSubject = "password_reset"

var ErrInvalidResetToken = errors.New("invalid or expired reset token")

// ResetClaims binds a reset token to the password hash it was issued against,
// so the token stops working once the password changes.
type ResetClaims struct {
	UserID      uint   `json:"user_id"`
	Fingerprint string `json:"fp"`
	jwt.RegisteredClaims
}

type ResetTokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewResetTokenIssuer(secret string, ttl time.Duration) *ResetTokenIssuer {
	return &ResetTokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (i *ResetTokenIssuer) Issue(user *models.User) (string, error) {
	now := i.now()
	claims := &ResetClaims{
		UserID:      user.ID,
		Fingerprint: PasswordFingerprint(user.PasswordHash),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   resetSubject,
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Parse verifies signature, subject and expiry. Callers still compare the
// fingerprint against the user's current hash.
func (i *ResetTokenIssuer) Parse(tokenString string) (*ResetClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ResetClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	},
		jwt.WithSubject(resetSubject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, ErrInvalidResetToken
	}

	if claims, ok := token.Claims.(*ResetClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidResetToken
}

// PasswordFingerprint is a short digest of a bcrypt hash, safe to embed in a token.
func PasswordFingerprint(hash string) string {
	sum := sha256.Sum256([]byte(hash))
	return hex.EncodeToString(sum[:8])
}
