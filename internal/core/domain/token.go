package domain

import (
	"strings"
	"time"
)

// TokenHash is the opaque digest under which a revoked bearer token is stored.
// It is never reversible to the raw token.
type TokenHash string

// String returns the hex form of the digest.
func (h TokenHash) String() string {
	return string(h)
}

// BearerToken returns the raw bearer string unchanged, or ErrMalformedToken when it is blank.
func BearerToken(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ErrMalformedToken
	}
	return raw, nil
}

// TokenClaims carries the identity asserted by a verified access token.
type TokenClaims struct {
	UserID    string
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
