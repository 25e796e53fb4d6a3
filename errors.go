package main

import (
	"errors"
	"fmt"
)

// Error taxonomy for the matching engine. Handlers translate these into
// HTTP status codes; everything else bubbles up wrapped.
var (
	// ErrInvalidSwipe covers self-swipes, unknown actions and re-swipes on
	// an already-matched pair. Rejected synchronously, nothing persisted.
	ErrInvalidSwipe = errors.New("invalid swipe")

	// ErrProfileNotFound means the requested profile does not exist.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrMatchNotFound means no match exists for the given id or pair.
	ErrMatchNotFound = errors.New("match not found")

	// ErrInvalidTransition is returned when a match status change is asked
	// for from a state that does not allow it.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrStoreUnavailable wraps store I/O failures. Retryable; the engine
	// performs no retries itself, callers own the backoff policy.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// storeErr tags an underlying store failure as retryable.
func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
