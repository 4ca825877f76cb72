// Package credentialtest mints unsigned-for-production JWTs for tests.
package credentialtest

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var signingKey = []byte("credentialtest-signing-key")

// Mint returns an HS256 token carrying sub, iss and exp claims. Empty sub or
// iss and a zero exp are omitted from the claim set.
func Mint(t testing.TB, sub string, iss string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"iat": time.Now().Unix()}
	if sub != "" {
		claims["sub"] = sub
	}
	if iss != "" {
		claims["iss"] = iss
	}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// For is Mint for a subject whose token expires after ttl.
func For(t testing.TB, sub string, ttl time.Duration) string {
	t.Helper()
	return Mint(t, sub, "", time.Now().Add(ttl))
}
