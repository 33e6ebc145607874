package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the signed envelope: an arbitrary payload plus an expiry in
// epoch seconds.
type Claims[T any] struct {
	Payload T     `json:"payload"`
	Exp     int64 `json:"exp"`
}

var _ jwt.Claims = (*Claims[struct{}])(nil)

// GetExpirationTime implements jwt.Claims. A zero Exp is treated as absent.
func (c Claims[T]) GetExpirationTime() (*jwt.NumericDate, error) {
	if c.Exp == 0 {
		return nil, nil
	}
	return jwt.NewNumericDate(time.Unix(c.Exp, 0)), nil
}

// GetIssuedAt implements jwt.Claims
func (c Claims[T]) GetIssuedAt() (*jwt.NumericDate, error) {
	return nil, nil
}

// GetNotBefore implements jwt.Claims
func (c Claims[T]) GetNotBefore() (*jwt.NumericDate, error) {
	return nil, nil
}

// GetIssuer implements jwt.Claims
func (c Claims[T]) GetIssuer() (string, error) {
	return "", nil
}

// GetSubject implements jwt.Claims
func (c Claims[T]) GetSubject() (string, error) {
	return "", nil
}

// GetAudience implements jwt.Claims
func (c Claims[T]) GetAudience() (jwt.ClaimStrings, error) {
	return nil, nil
}
