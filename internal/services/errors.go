package services

import "errors"

// Sentinel errors for journal operations. Handlers map these onto HTTP
// status codes; callers test with errors.Is.
var (
	// ErrNotFound means the referenced entry does not exist
	ErrNotFound = errors.New("entry not found")

	// ErrValidation means the request was malformed or the requested
	// transition is not allowed from the entry's current state. Nothing
	// was mutated or persisted.
	ErrValidation = errors.New("validation failed")

	// ErrPersistence means the write-through save failed and the
	// in-memory change was rolled back
	ErrPersistence = errors.New("persistence failed")
)
