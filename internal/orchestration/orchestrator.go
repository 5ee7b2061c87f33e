package orchestration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/agbru/fanwrite/internal/alloc"
	"github.com/agbru/fanwrite/internal/chunk"
	apperrors "github.com/agbru/fanwrite/internal/errors"
	"github.com/agbru/fanwrite/internal/logging"
	"github.com/agbru/fanwrite/internal/metrics"
	"github.com/agbru/fanwrite/internal/source"
	"github.com/agbru/fanwrite/internal/store"
)

const tracerName = "github.com/agbru/fanwrite/internal/orchestration"

// Options configures an Orchestrator. The zero value merges with static
// allocation, the disjoint discipline over plain file handles, one worker per
// unit and 1000-byte chunks.
type Options struct {
	Policy     alloc.Policy
	Discipline store.Discipline
	Backend    store.Backend
	// ChunkSize is the capacity of each worker's chunk buffer.
	ChunkSize int
	// Workers bounds how many workers run at once. 0 means one per unit.
	Workers   int
	OnFailure store.OnFailure

	Logger   logging.Logger
	Metrics  *metrics.Collector
	Progress ProgressReporter
	Tracer   trace.Tracer
}

// Orchestrator merges source units into one destination.
type Orchestrator struct {
	opts Options

	openSource func(u source.Unit) (io.ReadCloser, error)
	openStore  func(path string, d store.Discipline, b store.Backend) (store.Store, error)
	// beforeChunk runs in the worker before every chunk read. Tests use it to
	// inject scheduling delays.
	beforeChunk func(sourceID int)
}

// New returns an Orchestrator with defaults filled in for unset options.
func New(opts Options) *Orchestrator {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = chunk.DefaultCapacity
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.Progress == nil {
		opts.Progress = NullProgressReporter{}
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}
	return &Orchestrator{
		opts:       opts,
		openSource: source.Unit.Open,
		openStore:  store.Open,
	}
}

// newAllocator builds the allocator for units under the configured policy.
// Static allocation needs every unit to share one size and ids in [0, N).
func (o *Orchestrator) newAllocator(units []source.Unit, total int64) (alloc.Allocator, error) {
	switch o.opts.Policy {
	case alloc.StaticIndexed:
		var unitSize int64
		if len(units) > 0 {
			unitSize = units[0].Size
		}
		for _, u := range units {
			if u.Size != unitSize {
				return nil, apperrors.NewConfigError("static allocation needs equal unit sizes: unit %d has %d bytes, unit %d has %d",
					units[0].ID, unitSize, u.ID, u.Size)
			}
		}
		return alloc.NewStatic(unitSize, len(units)), nil
	case alloc.DynamicCounter:
		return alloc.NewDynamic(total), nil
	}
	return nil, apperrors.NewConfigError("unsupported allocation policy %v", o.opts.Policy)
}

// Run merges units into the destination at dest and returns the outcome.
//
// The destination is created and zero-filled before any worker starts. Every
// unit gets one worker; at most Options.Workers run at a time. The first
// failure cancels the remaining workers between chunks, and a batch with any
// failed worker is invalidated according to Options.OnFailure.
//
// Parameters:
//   - ctx: Cancels or bounds the whole batch.
//   - units: The source units to merge.
//   - dest: The destination path.
//   - out: Where the progress reporter writes.
//
// Returns:
//   - BatchResult: Per-worker outcomes and the batch verdict.
func (o *Orchestrator) Run(ctx context.Context, units []source.Unit, dest string, out io.Writer) BatchResult {
	start := time.Now()
	log := o.opts.Logger
	res := BatchResult{
		Path:       dest,
		Policy:     o.opts.Policy,
		Discipline: o.opts.Discipline,
		Backend:    o.opts.Backend,
		Workers:    make([]WorkerResult, len(units)),
	}
	for i, u := range units {
		res.Workers[i] = WorkerResult{SourceID: u.ID, State: Idle}
		res.Total += u.Size
	}

	ctx, span := o.opts.Tracer.Start(ctx, "fanwrite.batch", trace.WithAttributes(
		attribute.Int("fanwrite.units", len(units)),
		attribute.Int64("fanwrite.total_bytes", res.Total),
		attribute.String("fanwrite.policy", res.Policy.String()),
		attribute.String("fanwrite.discipline", res.Discipline.String()),
		attribute.String("fanwrite.backend", res.Backend.String()),
	))
	defer span.End()

	finish := func(err error) BatchResult {
		res.Err = err
		res.Valid = err == nil
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "batch invalid")
			res.InvalidPath = o.invalidate(dest)
			log.Error("batch failed", err, logging.String("path", dest))
		} else {
			log.Info("batch complete",
				logging.String("path", dest),
				logging.Int64("bytes", res.Total),
				logging.String("layout", res.Layout()))
		}
		o.opts.Metrics.SetBatchValid(res.Valid)
		res.Duration = time.Since(start)
		return res
	}

	allocator, err := o.newAllocator(units, res.Total)
	if err != nil {
		// Nothing was created yet, so there is nothing to invalidate.
		res.Err = err
		res.Duration = time.Since(start)
		o.opts.Metrics.SetBatchValid(false)
		return res
	}
	if err := store.Create(dest, res.Total); err != nil {
		return finish(err)
	}
	st, err := o.openStore(dest, o.opts.Discipline, o.opts.Backend)
	if err != nil {
		return finish(err)
	}
	log.Debug("destination ready",
		logging.String("path", dest),
		logging.Int64("size", res.Total),
		logging.String("discipline", st.Discipline().String()))

	progressChan := make(chan ProgressUpdate, len(units)*ProgressBufferMultiplier)
	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go o.opts.Progress.DisplayProgress(&displayWg, progressChan, len(units), out)

	var hw alloc.HighWater
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.limit(len(units)))
	for i, u := range units {
		g.Go(func() error {
			res.Workers[i] = o.runWorker(gctx, i, u, allocator, st, &hw, progressChan)
			return res.Workers[i].Err
		})
	}
	waitErr := g.Wait()
	close(progressChan)
	displayWg.Wait()
	res.HighWater = hw.Load()

	if waitErr != nil {
		st.Close()
		return finish(o.batchError(waitErr, res.Workers))
	}
	if err := st.Sync(); err != nil {
		st.Close()
		return finish(apperrors.WrapError(err, "flush destination"))
	}
	if err := st.Close(); err != nil {
		return finish(apperrors.WrapError(err, "close destination"))
	}
	if err := alloc.VerifyPartition(res.Allocations(), res.Total); err != nil {
		return finish(err)
	}
	if res.HighWater != res.Total {
		return finish(fmt.Errorf("high-water mark %d does not match destination size %d", res.HighWater, res.Total))
	}
	return finish(nil)
}

func (o *Orchestrator) limit(units int) int {
	if o.opts.Workers <= 0 || o.opts.Workers > units {
		return max(units, 1)
	}
	return o.opts.Workers
}

// batchError orders the failures with the one that cancelled the group first.
func (o *Orchestrator) batchError(primary error, workers []WorkerResult) error {
	var be apperrors.BatchError
	var first apperrors.WorkerError
	if errors.As(primary, &first) {
		be.Failed = append(be.Failed, first)
	}
	for _, w := range workers {
		var we apperrors.WorkerError
		if w.State != Failed || !errors.As(w.Err, &we) {
			continue
		}
		if len(be.Failed) > 0 && we.SourceID == be.Failed[0].SourceID {
			continue
		}
		be.Failed = append(be.Failed, we)
	}
	return be
}

func (o *Orchestrator) invalidate(dest string) string {
	target, err := store.Invalidate(dest, o.opts.OnFailure)
	if err != nil {
		o.opts.Logger.Error("could not invalidate destination", err, logging.String("path", dest))
		return ""
	}
	o.opts.Logger.Warn("destination invalidated",
		logging.String("path", dest),
		logging.String("mode", o.opts.OnFailure.String()))
	return target
}

// worker carries one unit from Idle to a terminal state.
type worker struct {
	o     *Orchestrator
	index int
	unit  source.Unit
	start time.Time
	span  trace.Span
	res   WorkerResult
}

func (w *worker) enter(s State) {
	w.res.State = s
	w.o.opts.Logger.Debug("worker state",
		logging.Int("source", w.unit.ID),
		logging.String("state", s.String()),
		logging.Int64("cursor", w.res.Cursor))
}

func (w *worker) fail(err error) WorkerResult {
	we := apperrors.WorkerError{SourceID: w.unit.ID, State: w.res.State.String(), Cause: err}
	w.res.State = Failed
	w.res.Err = we
	w.res.Duration = time.Since(w.start)
	w.span.RecordError(err)
	w.span.SetStatus(codes.Error, we.State)
	w.o.opts.Logger.Error("worker failed", err,
		logging.Int("source", w.unit.ID),
		logging.String("state", we.State),
		logging.Int64("cursor", w.res.Cursor))
	w.o.opts.Metrics.ObserveWorker(Failed.String(), w.res.Duration)
	return w.res
}

func (o *Orchestrator) runWorker(ctx context.Context, index int, u source.Unit, allocator alloc.Allocator,
	st store.Store, hw *alloc.HighWater, progress chan<- ProgressUpdate) WorkerResult {
	ctx, span := o.opts.Tracer.Start(ctx, "fanwrite.worker", trace.WithAttributes(
		attribute.Int("fanwrite.source_id", u.ID),
		attribute.Int64("fanwrite.size", u.Size),
	))
	defer span.End()

	w := &worker{o: o, index: index, unit: u, start: time.Now(), span: span,
		res: WorkerResult{SourceID: u.ID, State: Idle}}

	if err := ctx.Err(); err != nil {
		return w.fail(err)
	}
	a, err := allocator.Allocate(u.ID, u.Size)
	if err != nil {
		return w.fail(err)
	}
	w.res.Allocation, w.res.Allocated, w.res.Cursor = a, true, a.Offset
	span.SetAttributes(attribute.Int64("fanwrite.offset", a.Offset))
	w.enter(Allocated)

	r, err := o.openSource(u)
	if err != nil {
		return w.fail(err)
	}
	defer r.Close()

	rw, err := st.Open(a)
	if err != nil {
		return w.fail(err)
	}
	closed := false
	defer func() {
		if !closed {
			rw.Close()
		}
	}()

	cr := chunk.NewReader(r, o.opts.ChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return w.fail(err)
		}
		if o.beforeChunk != nil {
			o.beforeChunk(u.ID)
		}
		w.enter(Reading)
		p, err := cr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return w.fail(apperrors.SourceUnavailableError{SourceID: u.ID, Path: u.Path, Cause: err})
		}

		w.enter(Writing)
		w.res.Cursor, err = rw.Write(w.res.Cursor, p)
		w.res.Bytes = w.res.Cursor - a.Offset
		if err != nil {
			return w.fail(err)
		}
		w.res.Chunks++
		hw.Observe(w.res.Cursor)
		o.opts.Metrics.ObserveChunk(len(p))
		o.opts.Logger.Debug("chunk written",
			logging.Int("source", u.ID),
			logging.Int64("position", w.res.Cursor))

		select {
		case progress <- ProgressUpdate{WorkerIndex: index, Value: float64(w.res.Bytes) / float64(max(u.Size, 1))}:
		case <-ctx.Done():
		}
	}
	if w.res.Bytes != u.Size {
		return w.fail(apperrors.SourceUnavailableError{SourceID: u.ID, Path: u.Path, Cause: apperrors.ShortTransferError{
			Op: "read", Want: int(u.Size), Got: int(w.res.Bytes), Cause: io.ErrUnexpectedEOF,
		}})
	}

	w.enter(Flushing)
	if err := rw.Flush(); err != nil {
		return w.fail(err)
	}
	closed = true
	if err := rw.Close(); err != nil {
		return w.fail(err)
	}

	w.enter(Done)
	w.res.Duration = time.Since(w.start)
	o.opts.Metrics.ObserveWorker(Done.String(), w.res.Duration)
	o.opts.Logger.Info("worker done",
		logging.Int("source", u.ID),
		logging.Int64("offset", a.Offset),
		logging.Int64("cursor", w.res.Cursor),
		logging.Int64("bytes", w.res.Bytes),
		logging.Duration("duration", w.res.Duration))
	return w.res
}
