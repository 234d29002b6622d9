package errors

import (
	"errors"
	"fmt"
)

// Common error types for the store API. Handlers map these onto HTTP status
// codes; services wrap them with call-site context.
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailNotVerified   = errors.New("email not verified")

	// Token errors
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrTokenRevoked        = errors.New("token revoked")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// Request errors
	ErrBadRequest      = errors.New("bad request")
	ErrWeakPassword    = errors.New("password does not meet requirements")
	ErrPasswordReused  = errors.New("new password must differ from the current one")
	ErrAlreadyRevoked  = errors.New("token already revoked")
	ErrAlreadyVerified = errors.New("email already verified")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
