package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Application exit codes define the standard exit statuses for the application.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess       = 0   // Indicates successful execution.
	ExitErrorGeneric  = 1   // Indicates a generic error.
	ExitErrorTimeout  = 2   // Indicates the operation timed out.
	ExitErrorConfig   = 4   // Indicates a configuration error.
	ExitErrorInvalid  = 5   // Indicates a worker failed and the destination was invalidated.
	ExitErrorCanceled = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// AllocationOverflowError is returned when a requested range would not fit in
// the destination. It signals a pre-sizing bug and aborts the whole batch.
type AllocationOverflowError struct {
	// SourceID is the unit that requested the range.
	SourceID int
	// Offset is the start of the range that was requested or claimed.
	Offset int64
	// Size is the length of the requested range.
	Size int64
	// Capacity is the total size of the destination.
	Capacity int64
}

// Error returns a formatted message describing the overflow.
func (e AllocationOverflowError) Error() string {
	return fmt.Sprintf("allocation overflow: source %d range [%d, %d) exceeds capacity %d",
		e.SourceID, e.Offset, e.Offset+e.Size, e.Capacity)
}

// RangeViolationError is returned when a positioned write would fall outside
// the range allocated to its worker.
type RangeViolationError struct {
	SourceID   int
	RangeStart int64
	RangeEnd   int64
	Offset     int64
	Length     int64
}

// Error returns a formatted message describing the violation.
func (e RangeViolationError) Error() string {
	return fmt.Sprintf("range violation: source %d wrote [%d, %d) outside its range [%d, %d)",
		e.SourceID, e.Offset, e.Offset+e.Length, e.RangeStart, e.RangeEnd)
}

// SourceUnavailableError is returned when a source unit cannot be opened or
// read. The destination cannot be complete without it, so it fails the batch.
type SourceUnavailableError struct {
	SourceID int
	Path     string
	Cause    error
}

// Error returns a formatted message including the underlying cause.
func (e SourceUnavailableError) Error() string {
	return fmt.Sprintf("source %d (%s) unavailable: %v", e.SourceID, e.Path, e.Cause)
}

// Unwrap returns the underlying cause.
func (e SourceUnavailableError) Unwrap() error { return e.Cause }

// ShortTransferError reports a read or write that stopped making progress.
// Ordinary short transfers are retried by the caller; this error only surfaces
// when a retry moved zero bytes.
type ShortTransferError struct {
	// Op is "read" or "write".
	Op   string
	Want int
	Got  int
	// Cause is io.ErrNoProgress or io.ErrShortWrite.
	Cause error
}

func (e ShortTransferError) Error() string {
	return fmt.Sprintf("short %s: transferred %d of %d bytes: %v", e.Op, e.Got, e.Want, e.Cause)
}

func (e ShortTransferError) Unwrap() error { return e.Cause }

// WorkerError attributes a failure to the worker that hit it and the state it
// was in at the time.
type WorkerError struct {
	SourceID int
	// State is the name of the worker state in which the failure occurred.
	State string
	Cause error
}

// Error returns a formatted message describing the failed worker.
func (e WorkerError) Error() string {
	return fmt.Sprintf("worker %d failed while %s: %v", e.SourceID, e.State, e.Cause)
}

// Unwrap returns the underlying cause.
func (e WorkerError) Unwrap() error { return e.Cause }

// BatchError aggregates every worker failure of a run. A batch with any
// failure is invalid as a whole.
type BatchError struct {
	Failed []WorkerError
}

// Error summarizes the failures, leading with the first one.
func (e BatchError) Error() string {
	switch len(e.Failed) {
	case 0:
		return "batch failed"
	case 1:
		return fmt.Sprintf("batch failed: %v", e.Failed[0])
	}
	return fmt.Sprintf("batch failed: %v (and %d more)", e.Failed[0], len(e.Failed)-1)
}

// Unwrap exposes every worker failure to errors.Is and errors.As.
func (e BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failed))
	for i := range e.Failed {
		errs[i] = e.Failed[i]
	}
	return errs
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// This allows the wrapped error to be unwrapped with errors.Unwrap() and
// checked with errors.Is() and errors.As().
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context message.
//   - args: Arguments for the format string.
//
// Returns:
//   - error: The wrapped error, or nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// IsFatal reports whether err indicates an allocator or writer bug rather than
// a problem with one source. Fatal errors abort the batch immediately.
func IsFatal(err error) bool {
	var overflow AllocationOverflowError
	var violation RangeViolationError
	return errors.As(err, &overflow) || errors.As(err, &violation)
}

// ExitCodeFor maps an error returned by a run to the process exit code.
// For a BatchError only the first failure decides: workers stopped because a
// sibling failed carry context.Canceled and must not mask the real cause.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var cfgErr ConfigError
	if errors.As(err, &cfgErr) {
		return ExitErrorConfig
	}
	var batchErr BatchError
	if errors.As(err, &batchErr) {
		if len(batchErr.Failed) == 0 {
			return ExitErrorInvalid
		}
		switch first := batchErr.Failed[0].Cause; {
		case errors.Is(first, context.DeadlineExceeded):
			return ExitErrorTimeout
		case errors.Is(first, context.Canceled):
			return ExitErrorCanceled
		}
		return ExitErrorInvalid
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		return ExitErrorCanceled
	}
	return ExitErrorGeneric
}
