package shortener

import "errors"

var (
	// ErrNotFound is returned by a Repository when no record matches the lookup.
	ErrNotFound = errors.New("url not found")

	// ErrInvalidCodeFormat marks a short code that is empty, too long, or uses characters outside
	// the alphabet.
	ErrInvalidCodeFormat = errors.New("invalid short code format")

	// ErrCodeNotFound marks a well-formed short code with no backing record.
	ErrCodeNotFound = errors.New("short code not found")

	// ErrStoreUnavailable wraps any store failure other than a miss or a uniqueness conflict.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrAssignmentExhausted is returned when every candidate code collided.
	ErrAssignmentExhausted = errors.New("short code assignment exhausted")

	// ErrMalformedInput is returned when the assigner receives a URL or hash that did not come
	// out of normalization.
	ErrMalformedInput = errors.New("malformed url or hash")
)
