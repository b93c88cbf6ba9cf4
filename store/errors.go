package store

import (
	"errors"

	"github.com/jacentio/suds/internal/keys"
)

var (
	// ErrInvalidInput is returned when a business identifier is empty after
	// normalization or a required field is missing. No backend call is made.
	ErrInvalidInput = keys.ErrInvalidInput

	// ErrNotFound is returned when an exact-key lookup finds nothing.
	ErrNotFound = errors.New("suds: record not found")

	// ErrAmbiguous is returned when a lookup expected to match one record matched several.
	ErrAmbiguous = errors.New("suds: more than one record matched")

	// ErrBackendUnavailable wraps transport and backend failures (timeouts,
	// throttling, cancellation). The backend error stays in the chain.
	ErrBackendUnavailable = errors.New("suds: backend unavailable")

	// ErrConditionFailed is returned by a Backend when a conditional put is rejected.
	ErrConditionFailed = errors.New("suds: condition check failed")

	// ErrConcurrentModification is returned when a strict groomer save lost a race.
	ErrConcurrentModification = errors.New("suds: record was modified concurrently")
)
