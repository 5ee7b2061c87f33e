package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/agbru/fanwrite/internal/alloc"
	apperrors "github.com/agbru/fanwrite/internal/errors"
	"github.com/agbru/fanwrite/internal/metrics"
	"github.com/agbru/fanwrite/internal/orchestration"
	"github.com/agbru/fanwrite/internal/store"
	"github.com/agbru/fanwrite/internal/ui"
)

func sampleBatch(valid bool) orchestration.BatchResult {
	res := orchestration.BatchResult{
		Path:       "/tmp/merged.txt",
		Total:      24000,
		Policy:     alloc.StaticIndexed,
		Discipline: store.DisjointHandle,
		Backend:    store.FileBackend,
		HighWater:  24000,
		Duration:   12 * time.Millisecond,
		Valid:      valid,
	}
	for i := range 3 {
		a := alloc.Allocation{SourceID: i, Offset: int64(i) * 8000, Size: 8000}
		res.Workers = append(res.Workers, orchestration.WorkerResult{
			SourceID: i, Allocation: a, Allocated: true, Cursor: a.End(),
			State: orchestration.Done, Bytes: 8000, Chunks: 8, Duration: time.Millisecond,
		})
	}
	if !valid {
		cause := apperrors.SourceUnavailableError{SourceID: 1, Path: "File1.txt", Cause: errors.New("permission denied")}
		res.Workers[1].State = orchestration.Failed
		res.Workers[1].Cursor = 9000
		res.Workers[1].Bytes = 1000
		res.Workers[1].Err = apperrors.WorkerError{SourceID: 1, State: "reading", Cause: cause}
		res.Workers[2].State = orchestration.Failed
		res.Workers[2].Allocated = false
		res.Workers[2].Cursor = 0
		res.Workers[2].Err = apperrors.WorkerError{SourceID: 2, State: "idle", Cause: context.Canceled}
		res.Err = apperrors.BatchError{Failed: []apperrors.WorkerError{
			res.Workers[1].Err.(apperrors.WorkerError),
			res.Workers[2].Err.(apperrors.WorkerError),
		}}
		res.InvalidPath = "/tmp/merged.txt.invalid"
	}
	return res
}

func TestPresentSummaryValid(t *testing.T) {
	ui.SetCurrentTheme(ui.NoColorTheme)
	t.Cleanup(func() { ui.InitTheme(false) })

	var buf bytes.Buffer
	mem := metrics.MemorySnapshot{HeapAlloc: 2048, TotalAlloc: 4096, NumGC: 3, PauseTotalNs: 1_500_000}
	CLISummaryPresenter{Memory: &mem}.PresentSummary(sampleBatch(true), &buf)
	out := buf.String()

	for _, want := range []string{
		"--- Merge Summary ---",
		"Source", "Offset", "Cursor", "Status",
		"16,000", "24,000", "done",
		"Workers:     3 done, 0 failed, 3 total",
		"Layout:      index-order (static allocator, disjoint discipline, file backend)",
		"/tmp/merged.txt",
		"✅ Valid",
		"Memory Stats:", "GC cycles:       3", "1.50ms",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestPresentSummaryInvalid(t *testing.T) {
	ui.SetCurrentTheme(ui.NoColorTheme)
	t.Cleanup(func() { ui.InitTheme(false) })

	var buf bytes.Buffer
	CLISummaryPresenter{}.PresentSummary(sampleBatch(false), &buf)
	out := buf.String()

	for _, want := range []string{
		"failed while reading",
		"permission denied",
		"Workers:     1 done, 2 failed, 3 total",
		"❌ Invalid",
		"destination marked as /tmp/merged.txt.invalid",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Memory Stats:") {
		t.Error("memory stats printed without a snapshot")
	}
}

func TestWorkerTableUnallocatedOffset(t *testing.T) {
	ui.SetCurrentTheme(ui.NoColorTheme)
	t.Cleanup(func() { ui.InitTheme(false) })

	res := sampleBatch(false)
	lines := strings.Split(WorkerTable(res), "\n")
	var row string
	for _, l := range lines {
		if strings.Contains(l, "failed while idle") {
			row = l
		}
	}
	if row == "" {
		t.Fatalf("no row for the unallocated worker:\n%s", strings.Join(lines, "\n"))
	}
	if !strings.Contains(row, " - ") {
		t.Errorf("unallocated worker must show '-' as offset: %q", row)
	}
}

func TestFormatStatusRemoved(t *testing.T) {
	ui.SetCurrentTheme(ui.NoColorTheme)
	t.Cleanup(func() { ui.InitTheme(false) })

	res := sampleBatch(false)
	res.InvalidPath = ""
	if got := FormatStatus(res); !strings.Contains(got, "destination removed") {
		t.Errorf("FormatStatus = %q", got)
	}
}
