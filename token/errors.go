package token

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeDurationOverflow    = "TOKEN_DURATION_OVERFLOW"
	TextCodeSignError           = "TOKEN_SIGN_ERROR"
	TextCodeSecretNotConfigured = "TOKEN_SECRET_NOT_CONFIGURED"
)

// ErrDurationOverflow is returned when now + duration cannot be represented
var ErrDurationOverflow = goerrors.New("token duration overflows expiration time", goerrors.CategoryBadInput).
	WithTextCode(TextCodeDurationOverflow).
	WithCode(goerrors.CodeBadRequest)

// ErrSign is returned when the HMAC signature could not be produced
var ErrSign = goerrors.New("unable to sign token", goerrors.CategoryInternal).
	WithTextCode(TextCodeSignError).
	WithCode(goerrors.CodeInternal)

// ErrExpired is returned when a token exp claim is in the past
var ErrExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(goerrors.TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrVerification covers every other verification failure: bad signature,
// malformed structure, unexpected algorithm.
var ErrVerification = goerrors.New("token verification failed", goerrors.CategoryAuth).
	WithTextCode(goerrors.TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrSecretNotConfigured is returned when the keyring has no secret for a key name
var ErrSecretNotConfigured = goerrors.New("token secret not configured", goerrors.CategoryInternal).
	WithTextCode(TextCodeSecretNotConfigured).
	WithCode(goerrors.CodeInternal)

// IsExpired reports whether err is an expiration failure
func IsExpired(err error) bool {
	return hasTextCode(err, goerrors.TextCodeTokenExpired)
}

// IsVerification reports whether err is a non-expiry verification failure
func IsVerification(err error) bool {
	return hasTextCode(err, goerrors.TextCodeTokenMalformed)
}

// IsSignError reports whether signing failed
func IsSignError(err error) bool {
	return hasTextCode(err, TextCodeSignError)
}

// IsSecretNotConfigured reports whether the keyring was missing a secret
func IsSecretNotConfigured(err error) bool {
	return hasTextCode(err, TextCodeSecretNotConfigured)
}

func hasTextCode(err error, code string) bool {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}
