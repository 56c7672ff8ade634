// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates malformed input to a mutation (wrap with a message).
	ErrValidation = errors.New("validation")

	// ErrUnauthorized indicates failed authentication. Every token failure is
	// collapsed into this one error so callers cannot tell forgery from expiry.
	ErrUnauthorized = errors.New("invalid credentials")

	// ErrForbidden indicates a permission check failure for an authenticated user.
	ErrForbidden = errors.New("forbidden")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., username taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrWriteOnly indicates an attempt to read a field that can only be written.
	ErrWriteOnly = errors.New("write-only field")
)
