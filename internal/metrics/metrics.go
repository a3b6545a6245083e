// Package metrics records split and merge outcomes as Prometheus metrics
// and writes them in text format for the node_exporter textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bamsammich/splinter/internal/event"
	"github.com/bamsammich/splinter/internal/stats"
)

const namespace = "splinter"

// Recorder owns a private registry so exported files only carry splinter
// series.
type Recorder struct {
	registry *prometheus.Registry

	operations    *prometheus.CounterVec
	failures      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	bytesRead     prometheus.Counter
	bytesWritten  prometheus.Counter
	chunksCreated prometheus.Counter
	verifyFailed  prometheus.Counter
}

// NewRecorder creates a Recorder with all series registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Split, merge and verify operations by outcome.",
		}, []string{"kind", "outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Failed operations by reason.",
		}, []string{"kind", "reason"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Wall time of each operation.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"kind"}),
		bytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "read_bytes_total",
			Help:      "Bytes read from sources.",
		}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "written_bytes_total",
			Help:      "Payload bytes written to destinations.",
		}),
		chunksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_created_total",
			Help:      "Chunk files created by splits.",
		}),
		verifyFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verify_failures_total",
			Help:      "Files that failed checksum verification.",
		}),
	}
	r.registry.MustRegister(
		r.operations, r.failures, r.duration,
		r.bytesRead, r.bytesWritten, r.chunksCreated, r.verifyFailed,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Observe records one finished operation. outcome is the terminal state
// name and snap the operation's final counters.
func (r *Recorder) Observe(kind, outcome string, elapsed time.Duration, snap stats.Snapshot) {
	r.operations.WithLabelValues(kind, outcome).Inc()
	r.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
	r.bytesRead.Add(float64(snap.BytesRead))
	r.bytesWritten.Add(float64(snap.BytesWritten))
	r.chunksCreated.Add(float64(snap.ChunksCreated))
	r.verifyFailed.Add(float64(snap.VerifyFailed))
}

// Failure counts a failed operation by reason.
func (r *Recorder) Failure(kind string, reason event.Reason) {
	r.failures.WithLabelValues(kind, reason.String()).Inc()
}

// WriteFile atomically writes every series to path in text format.
func (r *Recorder) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
