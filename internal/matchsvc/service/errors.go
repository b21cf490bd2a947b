package service

import "errors"

// Error taxonomy surfaced by every mutation. None of these are retried
// automatically; only ErrTransient is safe to retry with backoff at the
// call boundary.
var (
	// No valid caller identity.
	ErrUnauthenticated = errors.New("authentication required")

	// Caller is not the recognized authority for this entity, e.g. not the
	// game creator or not the comment author.
	ErrUnauthorized = errors.New("operation not allowed for the current user")

	// Entity id does not resolve within the caller's organization.
	ErrNotFound = errors.New("requested resource not found")

	// Duplicate create, e.g. a second formation for the same game.
	ErrAlreadyExists = errors.New("resource already exists")

	// Malformed input, e.g. an unsupported formation type.
	ErrValidationFailed = errors.New("validation failed")

	// Store or bus temporarily unavailable; retryable.
	ErrTransient = errors.New("temporarily unavailable")
)
