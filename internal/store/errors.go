package store

import "errors"

// Sentinel errors returned by the stores. Callers branch on these with
// errors.Is; anything else coming out of a store is a persistence failure.
var (
	// ErrValidation marks caller-supplied input that fails a required-field
	// or parse check. Never retried.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a keyed lookup that matched no record, as opposed
	// to a storage fault.
	ErrNotFound = errors.New("not found")
)
