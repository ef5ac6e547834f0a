package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	analyses    *prometheus.CounterVec
	eventsSent  *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	lastPrice   *prometheus.GaugeVec
	lastScore   *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		analyses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockscout_analyses_total",
				Help: "Total number of stock analyses by outcome",
			},
			[]string{"outcome"},
		),
		eventsSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockscout_events_sent_total",
				Help: "Total number of events routed to a backend",
			},
			[]string{"backend", "symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockscout_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockscout_last_price",
				Help: "Last observed trade price for a symbol",
			},
			[]string{"symbol"},
		),
		lastScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockscout_composite_score",
				Help: "Most recent composite score for a ticker",
			},
			[]string{"ticker"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockscout_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordAnalysis records an analysis attempt by outcome (scored, skipped, error).
func (r *Recorder) RecordAnalysis(outcome string) {
	r.analyses.WithLabelValues(outcome).Inc()
}

// RecordEventSent records an event routed to a backend.
func (r *Recorder) RecordEventSent(backend, symbol string) {
	r.eventsSent.WithLabelValues(backend, symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last trade price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordScore records the latest composite score for a ticker.
func (r *Recorder) RecordScore(ticker string, score float64) {
	r.lastScore.WithLabelValues(ticker).Set(score)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
