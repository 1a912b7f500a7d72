package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry extracts the expiry claim from a bearer token, when the
// opaque token happens to be a JWT. The signature is NOT verified: the
// result is a display hint ("session expires in 2h") and must never be
// used for authorisation. The identity service remains the sole judge
// of token validity.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
