package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"FlareCast/internal/domain/models"
)

const namespace = "flarecast"

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	predictions   *prometheus.CounterVec
	anomalyGate   *prometheus.CounterVec
	feedFallbacks *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer to
// expose them on /metrics.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		predictions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Predictions served, by flare class and provenance",
		}, []string{"class", "provenance"}),
		anomalyGate: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anomaly_gate_total",
			Help:      "Stage-2 gate decisions",
		}, []string{"invoked"}),
		feedFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_fallbacks_total",
			Help:      "Responses served from canned feed data",
		}, []string{"feed"}),
		errorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Errors by kind",
		}, []string{"kind"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of operations in seconds",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 10},
		}, []string{"operation"}),
	}
}

func (r *Recorder) RecordPrediction(class models.FlareClass, prov models.Provenance) {
	r.predictions.WithLabelValues(string(class), string(prov)).Inc()
}

func (r *Recorder) RecordAnomalyGate(invoked bool) {
	label := "false"
	if invoked {
		label = "true"
	}
	r.anomalyGate.WithLabelValues(label).Inc()
}

func (r *Recorder) RecordFeedFallback(feed string) {
	r.feedFallbacks.WithLabelValues(feed).Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordLatency(op string, d time.Duration) {
	r.latency.WithLabelValues(op).Observe(d.Seconds())
}

// Noop discards everything. Used where metrics are not wired, mostly tests.
type Noop struct{}

func (Noop) RecordPrediction(models.FlareClass, models.Provenance) {}
func (Noop) RecordAnomalyGate(bool)                                {}
func (Noop) RecordFeedFallback(string)                             {}
func (Noop) RecordError(string)                                    {}
func (Noop) RecordLatency(string, time.Duration)                   {}
