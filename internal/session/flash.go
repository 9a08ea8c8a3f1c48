// Package session carries one-shot notifications across a redirect in a
// signed cookie value.
package session

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Flash kinds.
const (
	KindSuccess = "success"
	KindError   = "error"
)

// Flash is a notification shown once on the next rendered page.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Claims represents the JWT claims of a flash token.
type Claims struct {
	Flashes []Flash `json:"flashes"`
	jwt.RegisteredClaims
}

// FlashExpiry is how long a flash survives before it is dropped unseen.
const FlashExpiry = time.Minute

// NewSecret returns a random signing key.
func NewSecret() ([]byte, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generating flash secret: %w", err)
	}
	return buf, nil
}

// Sign creates a token carrying flashes.
func Sign(secret []byte, flashes []Flash) (string, error) {
	now := time.Now()
	claims := Claims{
		Flashes: flashes,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(FlashExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("signing flash: %w", err)
	}
	return signed, nil
}

// Parse validates a token and returns its flashes.
func Parse(secret []byte, tokenStr string) ([]Flash, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing flash: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid flash")
	}
	return claims.Flashes, nil
}
