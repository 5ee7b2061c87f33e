package orchestration

import (
	"fmt"
	"time"

	"github.com/agbru/fanwrite/internal/alloc"
	"github.com/agbru/fanwrite/internal/store"
)

// State is a worker's position in its lifecycle:
//
//	Idle → Allocated → {Reading → Writing}* → Flushing → Done
//
// with Failed reachable from every non-terminal state.
type State int

const (
	Idle State = iota
	Allocated
	Reading
	Writing
	Flushing
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Allocated:
		return "allocated"
	case Reading:
		return "reading"
	case Writing:
		return "writing"
	case Flushing:
		return "flushing"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether s is Done or Failed.
func (s State) Terminal() bool { return s == Done || s == Failed }

// WorkerResult is the outcome of one worker.
type WorkerResult struct {
	SourceID int
	// Allocation is the range the worker was given; valid only if Allocated.
	Allocation alloc.Allocation
	Allocated  bool
	// Cursor is the worker's final write cursor. On success it equals
	// Allocation.End().
	Cursor   int64
	State    State
	Bytes    int64
	Chunks   int
	Duration time.Duration
	// Err is an apperrors.WorkerError when State is Failed.
	Err error
}

// BatchResult is the outcome of one merge run. The destination is usable only
// when Valid is true.
type BatchResult struct {
	// Path is where the destination was written.
	Path string
	// InvalidPath is where an invalid destination was moved, or "" if it was
	// removed or the batch succeeded.
	InvalidPath string
	Total       int64
	Policy      alloc.Policy
	Discipline  store.Discipline
	Backend     store.Backend
	Workers     []WorkerResult
	// HighWater is the largest cursor any worker reached.
	HighWater int64
	Duration  time.Duration
	Valid     bool
	Err       error
}

// Layout describes how source units are ordered in the destination for this
// run: index order under static allocation, arrival order under dynamic.
func (r BatchResult) Layout() string {
	return r.Policy.Layout()
}

// Allocations returns the ranges handed out during the run, in worker order.
// Workers that failed before allocating are skipped.
func (r BatchResult) Allocations() []alloc.Allocation {
	out := make([]alloc.Allocation, 0, len(r.Workers))
	for _, w := range r.Workers {
		if w.Allocated {
			out = append(out, w.Allocation)
		}
	}
	return out
}

// Counts returns the number of workers that reached Done and Failed.
func (r BatchResult) Counts() (done, failed int) {
	for _, w := range r.Workers {
		switch w.State {
		case Done:
			done++
		case Failed:
			failed++
		}
	}
	return done, failed
}
