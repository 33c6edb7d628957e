// Package metrics exposes Prometheus collectors for the JONX codec.
//
// # Basic Usage
//
//	timer := metrics.NewTimer(metrics.OpEncode)
//	data, err := codec.Encode(table)
//	timer.ObserveDuration()
//	metrics.RecordResult(metrics.OpEncode, err)
//
// Collectors are registered with the default registry on package init.
package metrics

import (
	"time"

	"github.com/ajitpratap0/jonx/pkg/jonxerrors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation labels.
const (
	OpEncode   = "encode"
	OpDecode   = "decode"
	OpOpen     = "open"
	OpColumn   = "column"
	OpValidate = "validate"
)

// Byte stage labels.
const (
	StagePacked     = "packed"
	StageCompressed = "compressed"
)

var (
	// Operations counts codec operations by outcome.
	// Labels: operation, status (success/failure)
	Operations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jonx_operations_total",
			Help: "Total number of codec operations",
		},
		[]string{"operation", "status"},
	)

	// OperationLatency tracks operation latency in seconds.
	OperationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "jonx_operation_duration_seconds",
			Help: "Codec operation latency in seconds",
			Buckets: []float64{
				1e-5, // 10μs - single small column
				1e-4,
				1e-3,
				1e-2,
				1e-1,
				1, // whole large container
				10,
			},
		},
		[]string{"operation"},
	)

	// ColumnBytes counts column payload bytes.
	// Labels: type (column type tag), stage (packed/compressed)
	ColumnBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jonx_column_bytes_total",
			Help: "Column payload bytes by type and stage",
		},
		[]string{"type", "stage"},
	)

	// Rows counts rows encoded or decoded.
	Rows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jonx_rows_total",
			Help: "Rows encoded or decoded",
		},
		[]string{"operation"},
	)

	// Errors counts failures by error kind.
	Errors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jonx_errors_total",
			Help: "Codec errors by kind",
		},
		[]string{"operation", "kind"},
	)
)

// RecordResult counts one operation outcome, and its error kind on failure.
func RecordResult(op string, err error) {
	if err == nil {
		Operations.WithLabelValues(op, "success").Inc()
		return
	}
	Operations.WithLabelValues(op, "failure").Inc()
	kind := string(jonxerrors.TypeOf(err))
	if kind == "" {
		kind = string(jonxerrors.TypeInternal)
	}
	Errors.WithLabelValues(op, kind).Inc()
}

// RecordColumn counts the packed and compressed size of one column.
func RecordColumn(tag string, packed, compressed int) {
	ColumnBytes.WithLabelValues(tag, StagePacked).Add(float64(packed))
	ColumnBytes.WithLabelValues(tag, StageCompressed).Add(float64(compressed))
}

// Timer measures one operation from creation.
type Timer struct {
	start time.Time
	op    string
}

// NewTimer starts timing op.
func NewTimer(op string) *Timer {
	return &Timer{start: time.Now(), op: op}
}

// Stop returns the elapsed duration. It can be called more than once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the elapsed time in OperationLatency and returns it.
func (t *Timer) ObserveDuration() time.Duration {
	d := t.Stop()
	OperationLatency.WithLabelValues(t.op).Observe(d.Seconds())
	return d
}
