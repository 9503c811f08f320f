package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rickgao/iex-recon/internal/model"
	"github.com/rickgao/iex-recon/internal/version"
)

const namespace = "iex_recon"

// Metrics holds every collector for one run.
type Metrics struct {
	messages   *prometheus.CounterVec
	invalid    *prometheus.CounterVec
	events     *prometheus.CounterVec
	skipped    *prometheus.CounterVec
	lines      prometheus.Counter
	lag        prometheus.Histogram
	writeFails *prometheus.CounterVec
	lastLine   prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Valid messages classified, by message kind.",
		}, []string{"kind"}),
		invalid: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_records_total",
			Help:      "Decoded records rejected by the engine, by reason.",
		}, []string{"reason"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Inferred events emitted, by kind.",
		}, []string{"kind"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_records_total",
			Help:      "Raw records not classified, by reason.",
		}, []string{"reason"}),
		lines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "input_records_total",
			Help:      "Raw records read from the source.",
		}),
		lag: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_lag_seconds",
			Help:      "Time from record receipt to classification.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		writeFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_errors_total",
			Help:      "Event writer failures, by writer.",
		}, []string{"writer"}),
		lastLine: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_processed_record",
			Help:      "Input position of the last record handled.",
		}),
	}

	buildInfo := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Build version information.",
	}, []string{"version", "commit"})
	buildInfo.WithLabelValues(version.Version, version.Commit).Set(1)

	reg.MustRegister(
		m.messages, m.invalid, m.events, m.skipped,
		m.lines, m.lag, m.writeFails, m.lastLine, buildInfo,
	)
	return m
}

// RecordMessage counts a classified message.
func (m *Metrics) RecordMessage(kind string) {
	m.messages.WithLabelValues(kind).Inc()
}

// RecordInvalid counts a record the engine rejected.
func (m *Metrics) RecordInvalid(reason string) {
	m.invalid.WithLabelValues(reason).Inc()
}

// RecordEvent counts an emitted event.
func (m *Metrics) RecordEvent(kind model.Kind) {
	m.events.WithLabelValues(kind.String()).Inc()
}

// RecordLine counts a raw record and notes its position.
func (m *Metrics) RecordLine(seq int64, receivedAt time.Time) {
	m.lines.Inc()
	m.lastLine.Set(float64(seq))
	if !receivedAt.IsZero() {
		m.lag.Observe(time.Since(receivedAt).Seconds())
	}
}

// RecordSkipped counts a raw record dropped before classification.
func (m *Metrics) RecordSkipped(reason string) {
	m.skipped.WithLabelValues(reason).Inc()
}

// RecordWriteError counts a writer failure.
func (m *Metrics) RecordWriteError(writer string) {
	m.writeFails.WithLabelValues(writer).Inc()
}
