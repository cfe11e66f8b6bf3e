package progress

import "errors"

var (
	// ErrInvalidReference means a lesson or exercise id is not in the catalog.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrInvalidAction means a progress action could not be decoded.
	ErrInvalidAction = errors.New("invalid action")

	// ErrStorageUnavailable means the record was updated in memory but not persisted.
	// Callers should surface it as a warning, not a failure.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
