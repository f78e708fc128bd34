package domain

import "errors"

// Authentication and authorization.
var (
	ErrMalformedToken     = errors.New("malformed token")
	ErrExpiredToken       = errors.New("token expired")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Records and input.
var (
	ErrNotFound            = errors.New("not found")
	ErrAlreadyExists       = errors.New("already exists")
	ErrInvalidInput        = errors.New("invalid input")
	ErrTransactionConflict = errors.New("transaction conflict")
)

// Object storage.
var (
	ErrObjectNotFound   = errors.New("object not found")
	ErrForeignObject    = errors.New("object outside storage root")
	ErrTransientStorage = errors.New("transient storage failure")
	ErrPermanentStorage = errors.New("permanent storage failure")
)

// IsAuthFailure reports whether err should be rendered as the uniform denial.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrMalformedToken) ||
		errors.Is(err, ErrExpiredToken)
}
