package observability

import (
	"errors"
	"sync"

	"github.com/danmuck/tlvdiag/internal/diag"
	"github.com/prometheus/client_golang/prometheus"
)

// Decode outcomes used as the outcome label.
const (
	OutcomeOK        = "ok"
	OutcomeEmpty     = "empty"
	OutcomeMalformed = "malformed"
	OutcomeShape     = "shape"
	OutcomeInput     = "input"
)

var (
	registerOnce sync.Once

	captureDecodes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tlvdiag",
			Subsystem: "capture",
			Name:      "decodes_total",
			Help:      "Captures decoded, by resolved framing and outcome.",
		},
		[]string{"framing", "outcome"},
	)
	captureBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tlvdiag",
			Subsystem: "capture",
			Name:      "bytes",
			Help:      "Size of decoded captures in bytes.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
		},
	)
	records = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tlvdiag",
			Name:      "records_total",
			Help:      "Records classified, by category.",
		},
		[]string{"category"},
	)
	recordsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tlvdiag",
			Name:      "records_skipped_total",
			Help:      "Category elements skipped for having a non-container shape.",
		},
		[]string{"category"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(captureDecodes, captureBytes, records, recordsSkipped)
	})
}

// Outcome maps a diag.Parse error to its outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, diag.ErrEmptyResult):
		return OutcomeEmpty
	case errors.Is(err, diag.ErrUnexpectedShape):
		return OutcomeShape
	case errors.Is(err, diag.ErrMalformedStream):
		return OutcomeMalformed
	default:
		return OutcomeInput
	}
}

// RecordCapture records one diag.Parse call over size bytes.
func RecordCapture(size int, res diag.Result, err error) {
	RegisterMetrics()
	captureDecodes.WithLabelValues(res.Framing.String(), Outcome(err)).Inc()
	captureBytes.Observe(float64(size))
	for _, c := range res.Schema.Categories() {
		if n := len(res.Bucket(c)); n > 0 {
			records.WithLabelValues(c.String()).Add(float64(n))
		}
	}
	for _, skipped := range res.Skipped {
		recordsSkipped.WithLabelValues(skipped.Category.String()).Inc()
	}
}

// RecordInputError counts a capture that failed before decoding.
func RecordInputError() {
	RegisterMetrics()
	captureDecodes.WithLabelValues("none", OutcomeInput).Inc()
}

// WriteTextfile dumps the default registry in node-exporter textfile format.
func WriteTextfile(path string) error {
	RegisterMetrics()
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
