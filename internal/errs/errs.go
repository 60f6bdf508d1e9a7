// Package errs holds the sentinel errors shared by services, middleware and
// controllers. Callers match them with errors.Is; wrapping layers add context
// with fmt.Errorf("%s: %w", op, err).
package errs

import "errors"

var (
	// request shape
	ErrValidation = errors.New("validation error")

	// credential store
	ErrDuplicateCredential = errors.New("username or email already exists")
	ErrAuthentication      = errors.New("invalid credentials")
	ErrTooManyAttempts     = errors.New("too many failed login attempts")

	// access gate
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("insufficient permissions")

	// token service
	ErrInvalidToken  = errors.New("invalid token")
	ErrInactiveUser  = errors.New("user not found or inactive")
	ErrConfiguration = errors.New("configuration error")

	// resources
	ErrNotFound    = errors.New("not found")
	ErrTransaction = errors.New("transaction failed")
)
