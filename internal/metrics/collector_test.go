package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorCounts(t *testing.T) {
	t.Parallel()
	c := NewCollector()

	c.ObserveChunk(1000)
	c.ObserveChunk(500)
	c.ObserveWorker("done", 3*time.Millisecond)
	c.ObserveWorker("done", time.Millisecond)
	c.ObserveWorker("failed", time.Millisecond)
	c.SetBatchValid(false)

	if got := testutil.ToFloat64(c.bytesWritten); got != 1500 {
		t.Errorf("bytes written = %v, want 1500", got)
	}
	if got := testutil.ToFloat64(c.chunksWritten); got != 2 {
		t.Errorf("chunks written = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.workers.WithLabelValues("done")); got != 2 {
		t.Errorf("done workers = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.workers.WithLabelValues("failed")); got != 1 {
		t.Errorf("failed workers = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.batchValid); got != 0 {
		t.Errorf("batch valid = %v, want 0", got)
	}
	if n := testutil.CollectAndCount(c.workerDuration); n != 1 {
		t.Errorf("duration histogram series = %d, want 1", n)
	}
}

func TestNilCollectorIsNoop(t *testing.T) {
	t.Parallel()
	var c *Collector
	c.ObserveChunk(1)
	c.ObserveWorker("done", time.Second)
	c.SetBatchValid(true)
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()
	c := NewCollector()
	c.ObserveChunk(8000)
	c.SetBatchValid(true)

	path := filepath.Join(t.TempDir(), "fanwrite.prom")
	if err := c.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"fanwrite_bytes_written_total 8000",
		"fanwrite_batch_valid 1",
		"# TYPE fanwrite_worker_duration_seconds histogram",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("textfile missing %q:\n%s", want, data)
		}
	}
}
