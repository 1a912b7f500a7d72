package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func TestTokenExpiry(t *testing.T) {
	expiry := time.Now().Add(2 * time.Hour).Truncate(time.Second)

	got, ok := TokenExpiry(signedToken(t, jwt.MapClaims{
		"sub": "42",
		"exp": expiry.Unix(),
	}))
	if !ok {
		t.Fatal("expected expiry to be extracted")
	}
	if !got.Equal(expiry) {
		t.Errorf("expiry = %v, want %v", got, expiry)
	}
}

func TestTokenExpiry_NoExpClaim(t *testing.T) {
	if _, ok := TokenExpiry(signedToken(t, jwt.MapClaims{"sub": "42"})); ok {
		t.Error("token without exp should report no expiry")
	}
}

func TestTokenExpiry_OpaqueToken(t *testing.T) {
	if _, ok := TokenExpiry("not-a-jwt-at-all"); ok {
		t.Error("opaque token should report no expiry")
	}
	if _, ok := TokenExpiry(""); ok {
		t.Error("empty token should report no expiry")
	}
}
