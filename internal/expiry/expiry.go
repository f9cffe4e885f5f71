// Package expiry derives session-key TTLs from the upstream session token's
// embedded expiration claim.
package expiry

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformedToken means the token's claim segment could not be decoded.
	ErrMalformedToken = errors.New("malformed session token")
	// ErrNoExpClaim means the claims decoded but carry no exp field.
	ErrNoExpClaim = errors.New("session token has no exp claim")
)

// The token is only decoded, never verified: the service does not hold the
// upstream's signing key and only needs the exp claim.
var parser = jwt.NewParser()

// SessionTTL returns the remaining lifetime of the token's exp claim.
// An empty token returns (0, false, nil): the caller persists without expiry.
// A negative or zero TTL is passed through unchanged; rejecting it is the
// store's job, and the engine treats that rejection as a write failure.
func SessionTTL(token string) (time.Duration, bool, error) {
	if token == "" {
		return 0, false, nil
	}

	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0, false, ErrNoExpClaim
	}

	return time.Until(exp.Time).Truncate(time.Second), true, nil
}
