// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across client stores, services and repositories.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates failed authentication/authorization.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSessionExpired indicates the server rejected the stored token (401).
	ErrSessionExpired = errors.New("session expired")

	// ErrRateLimited indicates temporary login lockout or a 429 from the server.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrConflict indicates a disallowed state transition (e.g., mutating a
	// terminal adoption application).
	ErrConflict = errors.New("conflict")

	// ErrValidation indicates input validation failed before any network call.
	ErrValidation = errors.New("validation failed")
)
