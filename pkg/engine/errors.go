package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/arkiv-labs/dossier/backend/pkg/store"
)

var (
	// ErrNotFound marks a referenced person id that does not exist.
	ErrNotFound = errors.New("person not found")
	// ErrInvalidArgument marks a caller error: self-referencing merge,
	// negative depth, threshold outside [0, 1].
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrMergeConflict marks a merge that lost a race against a concurrent
	// mutation. The store is unchanged; the caller may retry.
	ErrMergeConflict = errors.New("merge conflict")
	// ErrStoreUnavailable marks an underlying store failure. It is always
	// surfaced; the engine never fabricates an empty result to mask it.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// NotFoundError carries the offending id so a caller can re-present a
// corrected choice.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("person %d not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// InvalidArgumentError carries the reason a request was rejected before any
// store access happened.
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return "invalid argument: " + e.Reason
}

func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// MergeError reports which step of a merge failed. The store is left in its
// pre-merge state whenever a MergeError is returned.
type MergeError struct {
	Step string
	Err  error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("merge failed during %s: %v", e.Step, e.Err)
}

func (e *MergeError) Unwrap() error {
	return e.Err
}

// storeErr translates a store failure into the engine taxonomy. Context
// cancellation passes through untouched so callers can distinguish their own
// timeout from a backend outage.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, store.ErrConflict):
		return fmt.Errorf("%w: %v", ErrMergeConflict, err)
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}
