package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Scope is what a token holder may do.
type Scope string

const (
	// ScopeRead allows read-only ops routes.
	ScopeRead Scope = "read"

	// ScopeAdmin allows state-changing ops routes.
	ScopeAdmin Scope = "admin"
)

// defaultTTL applies when GenerateToken gets a non-positive TTL.
const defaultTTL = 15 * time.Minute

// Claims extends JWT standard claims with the token scope.
type Claims struct {
	jwt.RegisteredClaims
	Scope Scope `json:"scope"`
}

// Allows reports whether the claims grant want. Admin implies read.
func (c *Claims) Allows(want Scope) bool {
	return c.Scope == want || c.Scope == ScopeAdmin
}

// GenerateToken creates a signed token for subject.
func GenerateToken(subject string, scope Scope, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrNoSecret
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Scope: scope,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a token's signature, expiry and required fields.
func ParseToken(tokenString, secret string) (*Claims, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	switch claims.Scope {
	case ScopeRead, ScopeAdmin:
	default:
		return nil, fmt.Errorf("%w: unknown scope %q", ErrTokenInvalid, claims.Scope)
	}

	return claims, nil
}
