// Package auth verifies the bearer tokens the delivery layer receives.
// The engine itself never sees tokens, only the resolved identity.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"confcentral/internal/domain"
)

// Identity is the authenticated caller extracted from a token.
type Identity struct {
	Email string
	Name  string
}

type jwtClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

// JWT signs and verifies HS256 tokens carrying the caller's email and
// display name.
type JWT struct {
	secret []byte
	expiry time.Duration
}

func NewJWT(secret string, expiry time.Duration) *JWT {
	return &JWT{secret: []byte(secret), expiry: expiry}
}

// Issue signs a token for the given identity.
func (j *JWT) Issue(email, name string) (string, error) {
	now := time.Now()
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.expiry)),
		},
		Email: email,
		Name:  name,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token. Any failure, including a missing
// email claim, surfaces as ErrUnauthenticated.
func (j *JWT) Verify(tokenString string) (Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwtClaims{}, func(t *jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: invalid token", domain.ErrUnauthenticated)
	}
	claims, ok := parsed.Claims.(*jwtClaims)
	if !ok || claims.Email == "" {
		return Identity{}, fmt.Errorf("%w: token carries no identity", domain.ErrUnauthenticated)
	}
	return Identity{Email: claims.Email, Name: claims.Name}, nil
}
