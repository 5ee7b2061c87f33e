// Package logging provides a unified logging interface for the merge pipeline.
// It abstracts the underlying logging implementation (zerolog by default),
// allowing workers and the orchestrator to log consistently while tests
// substitute buffer-backed or no-op loggers.
package logging
