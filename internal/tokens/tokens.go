package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails verification: bad
// signature, wrong signing method, issuer/audience mismatch or expiry.
var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Codec issues and verifies HS256 bearer tokens. The secret, issuer and
// audience are process-wide configuration; rotating the secret invalidates
// every outstanding token.
type Codec struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration
}

func (c *Codec) Issue(username, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    c.Issuer,
			Audience:  jwt.ClaimStrings{c.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.TTL)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.Secret)
}

// Parse never returns a partially trusted result: either every check passes
// and the claims come back, or the caller gets ErrInvalidToken.
func (c *Codec) Parse(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if c.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.Issuer))
	}
	if c.Audience != "" {
		opts = append(opts, jwt.WithAudience(c.Audience))
	}

	claims := &Claims{}
	t, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.Secret, nil
	}, opts...)
	if err != nil || !t.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
