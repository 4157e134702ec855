package security

import "errors"

var (
	// ErrNotFound is returned for admin operations on a record that does not exist.
	ErrNotFound = errors.New("attempt record not found")

	// ErrStoreUnavailable is returned when the persistence layer cannot be reached.
	// Check fails closed on it: a store outage never turns into "not blocked".
	ErrStoreUnavailable = errors.New("attempt store unavailable")
)
