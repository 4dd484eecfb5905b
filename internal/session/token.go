package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wisespend/authcore/internal/common"
)

// Claims carries the registered claims plus the session's username.
type Claims struct {
	jwt.RegisteredClaims
	Username string
}

// signToken issues an HS256-signed token for the session. The expiry is
// passed in explicitly so the manager's clock stays authoritative.
func signToken(username string, secretKey []byte, issuedAt, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Username: username,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// parseToken verifies the signature and returns the embedded username.
// Expiry is checked against the supplied clock, not the wall clock, so the
// manager's lazy expiry rules hold under simulated time.
func parseToken(tokenString string, secretKey []byte, now time.Time) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil {
		return "", err
	}

	if !token.Valid {
		return "", common.ErrSessionInvalid
	}

	return claims.Username, nil
}
