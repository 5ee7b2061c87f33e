// Package apperrors defines structured application error types for the merge
// pipeline, allowing a clear distinction between error classes (configuration,
// allocation, range, source, transfer) and carrying the underlying cause.
//
// Error Wrapping Guidelines:
// This package follows Go's error wrapping conventions using fmt.Errorf with %w.
// Every error type that carries a cause implements Unwrap() to support
// errors.Is() and errors.As(). BatchError unwraps to all worker failures.
package apperrors
