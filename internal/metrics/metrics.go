package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the extraction counters exposed on /metrics.
type Metrics struct {
	registry      *prometheus.Registry
	Captures      *prometheus.CounterVec
	Frames        prometheus.Counter
	SkippedFrames *prometheus.CounterVec
	Duration      prometheus.Histogram
}

// New creates a registry with the extraction collectors and the Go runtime collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	captures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flowspectra_captures_total",
		Help: "Captures processed, by outcome",
	}, []string{"status"})

	frames := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flowspectra_frames_total",
		Help: "Frames accepted into flows",
	})

	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flowspectra_frames_skipped_total",
		Help: "Frames dropped because they are not TCP over IP",
	}, []string{"reason"})

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "flowspectra_extraction_seconds",
		Help:    "Time spent turning one capture into a feature vector",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
	})

	reg.MustRegister(captures, frames, skipped, duration,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Metrics{
		registry:      reg,
		Captures:      captures,
		Frames:        frames,
		SkippedFrames: skipped,
		Duration:      duration,
	}
}

// Handler returns the HTTP handler for /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile dumps the current values to path in the text exposition
// format, for node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
