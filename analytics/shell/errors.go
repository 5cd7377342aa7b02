package shell

import (
	"context"
	"errors"
	"fmt"
)

// The failure taxonomy every analytics operation maps onto. Callers match
// with errors.Is; the concrete wrapped error carries the diagnostic context.
var (
	// ErrNotFound indicates a referenced book, user, or result set is absent.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument indicates malformed or missing required input,
	// detected before any store read.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidState indicates a degenerate data condition the engine
	// refuses to compute over.
	ErrInvalidState = errors.New("invalid state")

	// ErrInternal indicates a store read failure or another unexpected
	// condition terminal for the current call.
	ErrInternal = errors.New("internal error")

	// ErrCancelled indicates caller-initiated cancellation or an expired
	// deadline.
	ErrCancelled = errors.New("operation cancelled")
)

// NotFoundError builds a NotFound failure naming the missing entity.
func NotFoundError(entity string, id string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, entity, id)
}

// InvalidArgumentError builds an InvalidArgument failure with a reason.
func InvalidArgumentError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, reason)
}

// InvalidStateError builds an InvalidState failure with a reason.
func InvalidStateError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, reason)
}

// ClassifyStoreError wraps a store read failure into the taxonomy, keeping
// the operation name for diagnosis. Cancellation and deadline expiry map to
// Cancelled, everything else to Internal. Store errors are never retried
// here; every one is terminal for the current call.
func ClassifyStoreError(operation string, err error) error {
	if IsCancellationError(err) || IsTimeoutError(err) {
		return errors.Join(ErrCancelled, fmt.Errorf("%s aborted: %w", operation, err))
	}

	return errors.Join(ErrInternal, fmt.Errorf("%s failed: %w", operation, err))
}

// IsCancellationError checks if the error indicates caller cancellation.
func IsCancellationError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, ErrCancelled)
}

// IsTimeoutError checks if the error indicates an expired deadline.
func IsTimeoutError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
