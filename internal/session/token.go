package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken is returned by DecodeToken for anything that is not a
// readable JWT. Callers treat it as unauthenticated.
var ErrMalformedToken = errors.New("malformed session token")

// Claims are the parts of the access token payload the client reads.
// The signature is not verified here; only the server can do that.
type Claims struct {
	UserID    string
	Name      string
	ExpiresAt *time.Time
}

type tokenClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Expired reports whether the token carries an expiry at or before now.
func (c *Claims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

// DecodeToken reads the payload of a JWT without verifying it.
func DecodeToken(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrMalformedToken
	}

	parser := jwt.NewParser()
	var tc tokenClaims
	if _, _, err := parser.ParseUnverified(token, &tc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	c := &Claims{
		UserID: tc.Subject,
		Name:   tc.Name,
	}
	if tc.ExpiresAt != nil {
		exp := tc.ExpiresAt.Time
		c.ExpiresAt = &exp
	}
	return c, nil
}
