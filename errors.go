package iam

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-iam/token"
)

const (
	TextCodeConflict          = "CONFLICT"
	TextCodeNotFound          = "NOT_FOUND"
	TextCodeInternal          = "INTERNAL_ERROR"
	TextCodeLoginModeDisabled = "LOGIN_MODE_DISABLED"
)

// ErrConflict is returned when registering an email that is already taken
var ErrConflict = goerrors.New("user already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeConflict).
	WithCode(goerrors.CodeConflict)

// ErrNotFound covers lookup and credential misses. It never says which one.
var ErrNotFound = goerrors.New("not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrInternal hides persistence and transport failures from callers
var ErrInternal = goerrors.New("internal error", goerrors.CategoryInternal).
	WithTextCode(TextCodeInternal).
	WithCode(goerrors.CodeInternal)

// ErrLoginModeDisabled is returned when calling the login variant this
// deployment is not configured for
var ErrLoginModeDisabled = goerrors.New("login mode disabled", goerrors.CategoryOperation).
	WithTextCode(TextCodeLoginModeDisabled).
	WithCode(goerrors.CodeForbidden)

// ErrEmptyPassword is returned when hashing an empty password
var ErrEmptyPassword = goerrors.New("password must not be empty", goerrors.CategoryBadInput).
	WithTextCode(goerrors.TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrMismatchedHashAndPassword password and hash do not match
var ErrMismatchedHashAndPassword = errors.New("password and hash do not match")

// IsConflict reports whether err is a registration conflict
func IsConflict(err error) bool {
	return hasTextCode(err, TextCodeConflict)
}

// IsNotFound reports whether err is a lookup or credential miss
func IsNotFound(err error) bool {
	return hasTextCode(err, TextCodeNotFound)
}

// IsInternal reports whether err is a masked internal failure
func IsInternal(err error) bool {
	return hasTextCode(err, TextCodeInternal)
}

func hasTextCode(err error, code string) bool {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}

// internal logs err with context and returns the coarse ErrInternal
func (s *Service) internal(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		s.logger.Error("%s: operation timed out: %v", op, err)
	} else {
		s.logger.Error("%s: %v", op, err)
	}
	return ErrInternal
}

// tokenError passes the two coarse verification kinds through and masks
// everything else
func (s *Service) tokenError(op string, err error) error {
	if token.IsExpired(err) || token.IsVerification(err) {
		return err
	}
	return s.internal(op, err)
}
