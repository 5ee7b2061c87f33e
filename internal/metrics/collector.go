package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector records the counters of a merge run on a private registry, so
// several runs in one process (tests, repeated batches) never collide on the
// default registry. A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	bytesWritten   prometheus.Counter
	chunksWritten  prometheus.Counter
	workers        *prometheus.CounterVec
	workerDuration prometheus.Histogram
	batchValid     prometheus.Gauge
}

// NewCollector creates a Collector with all metrics registered.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fanwrite_bytes_written_total",
			Help: "Bytes transferred into the destination.",
		}),
		chunksWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fanwrite_chunks_written_total",
			Help: "Positioned chunk writes completed.",
		}),
		workers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fanwrite_workers_total",
			Help: "Workers that reached a terminal state, by state.",
		}, []string{"state"}),
		workerDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fanwrite_worker_duration_seconds",
			Help:    "Time from allocation to terminal state per worker.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		batchValid: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fanwrite_batch_valid",
			Help: "1 if the last batch produced a usable destination, 0 otherwise.",
		}),
	}
	c.registry.MustRegister(c.bytesWritten, c.chunksWritten, c.workers, c.workerDuration, c.batchValid)
	return c
}

// ObserveChunk records one completed chunk write of n bytes.
func (c *Collector) ObserveChunk(n int) {
	if c == nil {
		return
	}
	c.chunksWritten.Inc()
	c.bytesWritten.Add(float64(n))
}

// ObserveWorker records a worker reaching a terminal state.
func (c *Collector) ObserveWorker(state string, d time.Duration) {
	if c == nil {
		return
	}
	c.workers.WithLabelValues(state).Inc()
	c.workerDuration.Observe(d.Seconds())
}

// SetBatchValid records the outcome of a batch.
func (c *Collector) SetBatchValid(valid bool) {
	if c == nil {
		return
	}
	if valid {
		c.batchValid.Set(1)
	} else {
		c.batchValid.Set(0)
	}
}

// Gatherer exposes the private registry.
func (c *Collector) Gatherer() prometheus.Gatherer {
	return c.registry
}

// WriteTextfile writes all metrics to path in the text exposition format read
// by the node_exporter textfile collector. The file is replaced atomically.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
