package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline counters of a running service.
type Metrics struct {
	// Sampling loop
	TicksSampled atomic.Uint64
	TicksSkipped atomic.Uint64
	NoSignal     atomic.Uint64

	// Triggers handed to the OCR worker
	TriggersFired   atomic.Uint64
	TriggersDropped atomic.Uint64

	// OCR passes
	Passes          atomic.Uint64
	PassErrors      atomic.Uint64
	RegionsDetected atomic.Uint64
	PassLatencyMs   atomic.Uint64 // Last pass latency in ms

	// Line filter
	LinesEmitted    atomic.Uint64
	LinesSuppressed atomic.Uint64
	SinkErrors      atomic.Uint64

	// Persistence
	PassesRecorded atomic.Uint64
	RecordErrors   atomic.Uint64

	registry *prometheus.Registry
}

// New creates a new Metrics instance with Prometheus collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.registerPrometheusMetrics()

	return m
}

func (m *Metrics) registerPrometheusMetrics() {
	gauges := []struct {
		name  string
		help  string
		value *atomic.Uint64
	}{
		{"textwatch_ticks_sampled_total", "Sampling ticks that compared a frame", &m.TicksSampled},
		{"textwatch_ticks_skipped_total", "Sampling ticks skipped while paused or busy", &m.TicksSkipped},
		{"textwatch_ticks_no_signal_total", "Sampling ticks without a usable frame difference", &m.NoSignal},
		{"textwatch_triggers_fired_total", "Stability triggers handed to the OCR worker", &m.TriggersFired},
		{"textwatch_triggers_dropped_total", "Stability triggers dropped because a pass was in flight", &m.TriggersDropped},
		{"textwatch_passes_total", "Completed OCR passes", &m.Passes},
		{"textwatch_pass_errors_total", "OCR passes aborted by an inference failure", &m.PassErrors},
		{"textwatch_regions_detected_total", "Text regions detected across all passes", &m.RegionsDetected},
		{"textwatch_pass_latency_ms", "Latency of the last OCR pass in milliseconds", &m.PassLatencyMs},
		{"textwatch_lines_emitted_total", "Lines accepted by the line filter", &m.LinesEmitted},
		{"textwatch_lines_suppressed_total", "Lines suppressed as empty or repeated", &m.LinesSuppressed},
		{"textwatch_sink_errors_total", "Failed deliveries to output consumers", &m.SinkErrors},
		{"textwatch_passes_recorded_total", "Passes written to the database", &m.PassesRecorded},
		{"textwatch_record_errors_total", "Passes that failed to be written to the database", &m.RecordErrors},
	}

	for _, g := range gauges {
		value := g.value
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: g.name,
				Help: g.help,
			},
			func() float64 { return float64(value.Load()) },
		))
	}
}

// UpdatePassLatency records the duration of the last pass.
func (m *Metrics) UpdatePassLatency(duration time.Duration) {
	m.PassLatencyMs.Store(uint64(duration.Milliseconds()))
}

// Handler returns an HTTP handler for the Prometheus metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
