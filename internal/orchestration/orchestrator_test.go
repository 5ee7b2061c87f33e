package orchestration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"testing/iotest"
	"time"

	"github.com/golang/mock/gomock"

	"github.com/agbru/fanwrite/internal/alloc"
	apperrors "github.com/agbru/fanwrite/internal/errors"
	"github.com/agbru/fanwrite/internal/source"
	"github.com/agbru/fanwrite/internal/store"
	"github.com/agbru/fanwrite/internal/store/mocks"
)

// generate writes n units of wordSize×words bytes into a temp dir.
func generate(t *testing.T, n, words int) (source.Generator, []source.Unit) {
	t.Helper()
	g := source.Generator{Dir: t.TempDir(), WordSize: 8, Words: words}
	units, err := g.GenerateAll(context.Background(), n)
	if err != nil {
		t.Fatalf("GenerateAll: %v", err)
	}
	return g, units
}

func destPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "merged.bin")
}

func requireValid(t *testing.T, res BatchResult, g source.Generator) {
	t.Helper()
	if !res.Valid {
		t.Fatalf("batch invalid: %v", res.Err)
	}
	if err := alloc.VerifyPartition(res.Allocations(), res.Total); err != nil {
		t.Fatalf("partition: %v", err)
	}
	if err := Verify(res, g.Expected); err != nil {
		t.Fatalf("round trip: %v", err)
	}
}

type storeConfig struct {
	name string
	d    store.Discipline
	b    store.Backend
}

var storeConfigs = []storeConfig{
	{"shared", store.SharedHandle, store.FileBackend},
	{"disjoint", store.DisjointHandle, store.FileBackend},
	{"mmap", store.DisjointHandle, store.MappedBackend},
}

func TestRunFourUnitsStatic(t *testing.T) {
	t.Parallel()
	for _, sc := range storeConfigs {
		t.Run(sc.name, func(t *testing.T) {
			t.Parallel()
			g, units := generate(t, 4, 1000)
			dest := destPath(t)

			res := New(Options{Discipline: sc.d, Backend: sc.b}).Run(context.Background(), units, dest, io.Discard)
			requireValid(t, res, g)

			if res.Total != 32000 || res.HighWater != 32000 {
				t.Errorf("Total = %d, HighWater = %d, want 32000", res.Total, res.HighWater)
			}
			for i, w := range res.Workers {
				wantOff := int64(i) * 8000
				if w.State != Done || w.Allocation.Offset != wantOff || w.Cursor != wantOff+8000 {
					t.Errorf("worker %d = %+v, want offset %d", i, w, wantOff)
				}
				if w.Bytes != 8000 || w.Chunks != 8 {
					t.Errorf("worker %d moved %d bytes in %d chunks, want 8000 in 8", i, w.Bytes, w.Chunks)
				}
			}
			if res.Layout() != "index-order" {
				t.Errorf("Layout() = %q", res.Layout())
			}

			got, err := os.ReadFile(dest)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 32000 {
				t.Fatalf("destination is %d bytes, want 32000", len(got))
			}
			for id := range 4 {
				want, _ := g.Expected(id)
				if !bytes.Equal(got[id*8000:(id+1)*8000], want) {
					t.Errorf("range of unit %d does not match its source", id)
				}
			}
		})
	}
}

func TestRunUnreadableUnitInvalidatesDestination(t *testing.T) {
	t.Parallel()
	for _, sc := range storeConfigs {
		t.Run(sc.name, func(t *testing.T) {
			t.Parallel()
			_, units := generate(t, 4, 1000)
			if err := os.Remove(units[2].Path); err != nil {
				t.Fatal(err)
			}
			dest := destPath(t)

			res := New(Options{Discipline: sc.d, Backend: sc.b}).Run(context.Background(), units, dest, io.Discard)
			if res.Valid {
				t.Fatal("batch with an unreadable unit reported valid")
			}
			var be apperrors.BatchError
			if !errors.As(res.Err, &be) || len(be.Failed) == 0 {
				t.Fatalf("Err = %v, want BatchError", res.Err)
			}
			if be.Failed[0].SourceID != 2 {
				t.Errorf("primary failure is source %d, want 2", be.Failed[0].SourceID)
			}
			var su apperrors.SourceUnavailableError
			if !errors.As(be.Failed[0], &su) {
				t.Errorf("primary failure %v is not SourceUnavailableError", be.Failed[0])
			}
			if res.Workers[2].State != Failed {
				t.Errorf("worker 2 state = %v, want failed", res.Workers[2].State)
			}
			if _, err := os.Stat(dest); !os.IsNotExist(err) {
				t.Errorf("invalid destination still present: %v", err)
			}
			if code := apperrors.ExitCodeFor(res.Err); code != apperrors.ExitErrorInvalid {
				t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorInvalid)
			}
		})
	}
}

func TestRunMarksInvalidDestination(t *testing.T) {
	t.Parallel()
	_, units := generate(t, 4, 100)
	dest := destPath(t)
	o := New(Options{OnFailure: store.MarkInvalid})
	o.openSource = func(u source.Unit) (io.ReadCloser, error) {
		r, err := u.Open()
		if err != nil || u.ID != 1 {
			return r, err
		}
		r.Close()
		return io.NopCloser(iotest.TimeoutReader(bytes.NewReader(make([]byte, 2000)))), nil
	}

	res := o.Run(context.Background(), units, dest, io.Discard)
	if res.Valid {
		t.Fatal("batch reported valid")
	}
	if res.InvalidPath != dest+store.InvalidSuffix {
		t.Errorf("InvalidPath = %q", res.InvalidPath)
	}
	if _, err := os.Stat(res.InvalidPath); err != nil {
		t.Errorf("marked destination missing: %v", err)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("destination still present under its usable name")
	}
}

// jitter returns a beforeChunk hook that sleeps up to maxMicros microseconds.
func jitter(seed uint64, maxMicros int) func(int) {
	var mu sync.Mutex
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return func(int) {
		mu.Lock()
		d := time.Duration(rng.IntN(maxMicros+1)) * time.Microsecond
		mu.Unlock()
		time.Sleep(d)
	}
}

func TestStaticRunsAreByteIdentical(t *testing.T) {
	t.Parallel()
	g, units := generate(t, 8, 500)

	var first []byte
	for run := range 5 {
		for _, sc := range storeConfigs {
			dest := destPath(t)
			o := New(Options{Discipline: sc.d, Backend: sc.b, ChunkSize: 333})
			o.beforeChunk = jitter(uint64(run), 200)
			res := o.Run(context.Background(), units, dest, io.Discard)
			requireValid(t, res, g)

			got, err := os.ReadFile(dest)
			if err != nil {
				t.Fatal(err)
			}
			if first == nil {
				first = got
				continue
			}
			if !bytes.Equal(first, got) {
				t.Fatalf("run %d (%s) produced a different destination", run, sc.name)
			}
		}
	}
}

func TestDynamicRunsArePartitions(t *testing.T) {
	t.Parallel()
	g, units := generate(t, 8, 500)

	for run := range 10 {
		dest := destPath(t)
		o := New(Options{Policy: alloc.DynamicCounter, ChunkSize: 256})
		o.beforeChunk = jitter(uint64(run), 200)
		res := o.Run(context.Background(), units, dest, io.Discard)
		requireValid(t, res, g)
		if res.Layout() != "arrival-order" {
			t.Errorf("Layout() = %q", res.Layout())
		}
	}
}

func TestRandomizedInterleavings(t *testing.T) {
	t.Parallel()
	const iterations = 100
	g, units := generate(t, 6, 250)

	policies := []alloc.Policy{alloc.StaticIndexed, alloc.DynamicCounter}
	for i := range iterations {
		sc := storeConfigs[i%len(storeConfigs)]
		policy := policies[(i/len(storeConfigs))%len(policies)]
		name := fmt.Sprintf("%d/%s/%s", i, policy, sc.name)

		o := New(Options{
			Policy:     policy,
			Discipline: sc.d,
			Backend:    sc.b,
			ChunkSize:  1 + i*37%900,
			Workers:    1 + i%len(units),
		})
		o.beforeChunk = jitter(uint64(i)+1, 50)
		res := o.Run(context.Background(), units, destPath(t), io.Discard)
		if !res.Valid {
			t.Fatalf("%s: batch invalid: %v", name, res.Err)
		}
		if err := alloc.VerifyPartition(res.Allocations(), res.Total); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if err := Verify(res, g.Expected); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}
}

func TestShortReadsAreAbsorbed(t *testing.T) {
	t.Parallel()
	g, units := generate(t, 4, 200)
	o := New(Options{ChunkSize: 100})
	o.openSource = func(u source.Unit) (io.ReadCloser, error) {
		r, err := u.Open()
		if err != nil {
			return nil, err
		}
		if u.ID%2 == 0 {
			return struct {
				io.Reader
				io.Closer
			}{iotest.OneByteReader(r), r}, nil
		}
		return struct {
			io.Reader
			io.Closer
		}{iotest.HalfReader(r), r}, nil
	}
	requireValid(t, o.Run(context.Background(), units, destPath(t), io.Discard), g)
}

func TestTruncatedSourceFailsBatch(t *testing.T) {
	t.Parallel()
	_, units := generate(t, 3, 200)
	o := New(Options{})
	o.openSource = func(u source.Unit) (io.ReadCloser, error) {
		r, err := u.Open()
		if err != nil || u.ID != 0 {
			return r, err
		}
		return struct {
			io.Reader
			io.Closer
		}{io.LimitReader(r, u.Size-5), r}, nil
	}

	res := o.Run(context.Background(), units, destPath(t), io.Discard)
	if res.Valid {
		t.Fatal("truncated source produced a valid batch")
	}
	var st apperrors.ShortTransferError
	if !errors.As(res.Err, &st) || !errors.Is(res.Err, io.ErrUnexpectedEOF) {
		t.Fatalf("Err = %v, want ShortTransferError(io.ErrUnexpectedEOF)", res.Err)
	}
	if st.Got != int(units[0].Size-5) {
		t.Errorf("ShortTransferError.Got = %d, want %d", st.Got, units[0].Size-5)
	}
}

func TestStaticRejectsMixedSizes(t *testing.T) {
	t.Parallel()
	_, units := generate(t, 2, 100)
	units[1].Size--
	dest := destPath(t)

	res := New(Options{}).Run(context.Background(), units, dest, io.Discard)
	var cfgErr apperrors.ConfigError
	if res.Valid || !errors.As(res.Err, &cfgErr) {
		t.Fatalf("Err = %v, want ConfigError", res.Err)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("destination created for a rejected batch")
	}
}

// countingCloser decrements the live-worker count when the source is closed.
type countingCloser struct {
	io.Reader
	closer io.Closer
	live   *atomic.Int32
}

func (c countingCloser) Close() error {
	c.live.Add(-1)
	return c.closer.Close()
}

func TestWorkerPoolIsBounded(t *testing.T) {
	t.Parallel()
	g, units := generate(t, 12, 100)
	var live, peak atomic.Int32
	o := New(Options{Workers: 3, ChunkSize: 64})
	o.openSource = func(u source.Unit) (io.ReadCloser, error) {
		r, err := u.Open()
		if err != nil {
			return nil, err
		}
		n := live.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		return countingCloser{Reader: r, closer: r, live: &live}, nil
	}
	o.beforeChunk = func(int) { time.Sleep(50 * time.Microsecond) }

	requireValid(t, o.Run(context.Background(), units, destPath(t), io.Discard), g)
	if peak.Load() > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", peak.Load())
	}
}

func TestCancellationFailsBatch(t *testing.T) {
	t.Parallel()
	_, units := generate(t, 4, 1000)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dest := destPath(t)
	o := New(Options{ChunkSize: 100})
	var once sync.Once
	o.beforeChunk = func(int) { once.Do(cancel) }

	res := o.Run(ctx, units, dest, io.Discard)
	if res.Valid {
		t.Fatal("canceled batch reported valid")
	}
	if !errors.Is(res.Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", res.Err)
	}
	if code := apperrors.ExitCodeFor(res.Err); code != apperrors.ExitErrorCanceled {
		t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorCanceled)
	}
	for _, w := range res.Workers {
		if w.State != Failed {
			t.Errorf("worker %d state = %v, want failed", w.SourceID, w.State)
		}
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("canceled destination left in place")
	}
}

func TestTimeoutFailsBatch(t *testing.T) {
	t.Parallel()
	_, units := generate(t, 4, 1000)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	o := New(Options{ChunkSize: 100})
	o.beforeChunk = func(int) { time.Sleep(5 * time.Millisecond) }

	res := o.Run(ctx, units, destPath(t), io.Discard)
	if res.Valid {
		t.Fatal("timed out batch reported valid")
	}
	if code := apperrors.ExitCodeFor(res.Err); code != apperrors.ExitErrorTimeout {
		t.Errorf("exit code = %d (err %v), want %d", code, res.Err, apperrors.ExitErrorTimeout)
	}
}

func TestRangeViolationFromWriterFailsBatch(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	_, units := generate(t, 4, 100)
	dest := destPath(t)

	st := mocks.NewMockStore(ctrl)
	st.EXPECT().Discipline().Return(store.DisjointHandle).AnyTimes()
	st.EXPECT().Close().Return(nil).Times(1)
	st.EXPECT().Open(gomock.Any()).DoAndReturn(func(a alloc.Allocation) (store.RangeWriter, error) {
		w := mocks.NewMockRangeWriter(ctrl)
		w.EXPECT().Close().Return(nil).AnyTimes()
		w.EXPECT().Flush().Return(nil).AnyTimes()
		if a.SourceID == 1 {
			w.EXPECT().Write(gomock.Any(), gomock.Any()).Return(a.Offset, apperrors.RangeViolationError{
				SourceID: 1, RangeStart: a.Offset, RangeEnd: a.End(), Offset: a.End(), Length: 1,
			})
			return w, nil
		}
		w.EXPECT().Write(gomock.Any(), gomock.Any()).DoAndReturn(func(off int64, p []byte) (int64, error) {
			return off + int64(len(p)), nil
		}).AnyTimes()
		return w, nil
	}).AnyTimes()

	o := New(Options{})
	o.openStore = func(string, store.Discipline, store.Backend) (store.Store, error) { return st, nil }

	res := o.Run(context.Background(), units, dest, io.Discard)
	if res.Valid {
		t.Fatal("batch with a range violation reported valid")
	}
	var be apperrors.BatchError
	if !errors.As(res.Err, &be) || be.Failed[0].SourceID != 1 {
		t.Fatalf("Err = %v, want BatchError led by source 1", res.Err)
	}
	if !apperrors.IsFatal(be.Failed[0]) {
		t.Errorf("primary failure %v should be fatal", be.Failed[0])
	}
	if be.Failed[0].State != Writing.String() {
		t.Errorf("failed in state %q, want %q", be.Failed[0].State, Writing)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("destination left in place")
	}
}

func TestSyncFailureInvalidatesBatch(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	_, units := generate(t, 2, 100)
	dest := destPath(t)

	st := mocks.NewMockStore(ctrl)
	st.EXPECT().Discipline().Return(store.SharedHandle).AnyTimes()
	st.EXPECT().Open(gomock.Any()).DoAndReturn(func(a alloc.Allocation) (store.RangeWriter, error) {
		w := mocks.NewMockRangeWriter(ctrl)
		w.EXPECT().Write(gomock.Any(), gomock.Any()).DoAndReturn(func(off int64, p []byte) (int64, error) {
			return off + int64(len(p)), nil
		}).AnyTimes()
		w.EXPECT().Flush().Return(nil)
		w.EXPECT().Close().Return(nil)
		return w, nil
	}).Times(2)
	st.EXPECT().Sync().Return(errors.New("disk gone"))
	st.EXPECT().Close().Return(nil)

	o := New(Options{Discipline: store.SharedHandle})
	o.openStore = func(string, store.Discipline, store.Backend) (store.Store, error) { return st, nil }

	res := o.Run(context.Background(), units, dest, io.Discard)
	if res.Valid {
		t.Fatal("batch whose flush failed reported valid")
	}
	for _, w := range res.Workers {
		if w.State != Done {
			t.Errorf("worker %d = %v, want done", w.SourceID, w.State)
		}
	}
}

func TestVerifyDetectsCorruption(t *testing.T) {
	t.Parallel()
	g, units := generate(t, 3, 100)
	dest := destPath(t)
	res := New(Options{}).Run(context.Background(), units, dest, io.Discard)
	requireValid(t, res, g)

	f, err := os.OpenFile(dest, os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteAt([]byte{0}, 805); err != nil {
		t.Fatal(err)
	}
	f.Close()

	err = Verify(res, g.Expected)
	if err == nil {
		t.Fatal("Verify accepted a corrupted destination")
	}
	if want := "source 1: destination differs at offset 805"; err.Error() != want {
		t.Errorf("Verify error = %q, want %q", err, want)
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()
	want := []string{"idle", "allocated", "reading", "writing", "flushing", "done", "failed"}
	for s := Idle; s <= Failed; s++ {
		if s.String() != want[s] {
			t.Errorf("State(%d).String() = %q, want %q", s, s, want[s])
		}
		if s.Terminal() != (s == Done || s == Failed) {
			t.Errorf("State %v Terminal() = %v", s, s.Terminal())
		}
	}
}
