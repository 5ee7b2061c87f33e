package orchestration

import (
	"io"
	"sync"
)

// ProgressUpdate reports how much of one worker's unit has been written.
type ProgressUpdate struct {
	// WorkerIndex is the position of the unit in the slice given to Run.
	WorkerIndex int
	// Value is the written fraction of the unit, from 0.0 to 1.0.
	Value float64
}

// ProgressReporter displays worker progress. It keeps the orchestrator free of
// terminal concerns; the CLI supplies a spinner, quiet mode and tests supply
// NullProgressReporter.
type ProgressReporter interface {
	// DisplayProgress consumes updates until progressChan is closed, then
	// calls wg.Done.
	//
	// Parameters:
	//   - wg: Signalled when display is complete.
	//   - progressChan: Updates sent by the workers.
	//   - numWorkers: The number of workers being tracked.
	//   - out: The writer for progress output.
	DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, numWorkers int, out io.Writer)
}

// ProgressReporterFunc adapts a function to ProgressReporter.
type ProgressReporterFunc func(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, numWorkers int, out io.Writer)

// DisplayProgress calls f.
func (f ProgressReporterFunc) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, numWorkers int, out io.Writer) {
	f(wg, progressChan, numWorkers, out)
}

// NullProgressReporter drains the channel without displaying anything.
type NullProgressReporter struct{}

// DisplayProgress drains the channel without output.
func (NullProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, _ int, _ io.Writer) {
	defer wg.Done()
	DrainChannel(progressChan)
}

// SummaryPresenter renders the outcome of a batch for the user.
type SummaryPresenter interface {
	// PresentSummary writes one line per worker, the layout of the
	// destination and the final status.
	PresentSummary(result BatchResult, out io.Writer)
}
