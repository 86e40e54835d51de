// Package auth issues and validates session tokens and resolves the
// request user.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/docuforge/docuvault/pkg/errs"
)

// SessionClaims are the claims carried by a session token.
type SessionClaims struct {
	jwt.RegisteredClaims

	// Email is the authenticated user's email address.
	Email string `json:"email"`
}

// Sessions issues and validates signed session tokens.
type Sessions struct {
	secret []byte
	ttl    time.Duration
}

// NewSessions creates a session manager. The secret must not be empty.
func NewSessions(secret string, ttl time.Duration) (*Sessions, error) {
	if secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Sessions{secret: []byte(secret), ttl: ttl}, nil
}

// Issue creates a signed session token for the given user email.
func (s *Sessions) Issue(email string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Email: email,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("error signing session token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a session token, returning the user
// email it was issued for.
func (s *Sessions) Validate(tokenString string) (string, error) {
	var claims SessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.secret, nil
		},
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: session expired", errs.ErrUnauthenticated)
		}
		return "", fmt.Errorf("%w: invalid session token", errs.ErrUnauthenticated)
	}
	if !token.Valid || claims.Email == "" {
		return "", fmt.Errorf("%w: invalid session token", errs.ErrUnauthenticated)
	}
	return claims.Email, nil
}
