// Package auth verifies bearer tokens issued by the identity service and
// resolves the caller's store scope. Login, sessions and user management
// live outside this service.
package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/arcadia-retail/arcadia-retail/internal/shared"
)

// Verifier resolves a bearer token into a principal.
type Verifier interface {
	Verify(token string) (shared.Principal, error)
}

// Claims is the JWT payload the identity service issues.
type Claims struct {
	UserID  int64  `json:"uid"`
	Role    string `json:"role"`
	StoreID int64  `json:"store_id"`
	jwt.RegisteredClaims
}

// JWTVerifier validates HMAC-signed tokens.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier constructs a verifier for the shared signing secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify parses and validates the token.
func (v *JWTVerifier) Verify(token string) (shared.Principal, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return shared.Principal{}, fmt.Errorf("auth: parse token: %w", err)
	}
	if !parsed.Valid {
		return shared.Principal{}, fmt.Errorf("auth: invalid token")
	}
	return shared.Principal{
		UserID:  claims.UserID,
		Role:    claims.Role,
		StoreID: claims.StoreID,
	}, nil
}
