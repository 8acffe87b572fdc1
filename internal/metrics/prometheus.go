package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus exports counters and histograms on a caller-supplied registry.
type Prometheus struct {
	sessions *prometheus.CounterVec
	firings  *prometheus.CounterVec
	passes   *prometheus.HistogramVec
	duration *prometheus.HistogramVec
}

// NewPrometheus creates the collectors and registers them with reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bestiary",
			Name:      "sessions_total",
			Help:      "Resolved inference sessions by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		firings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bestiary",
			Name:      "rule_firings_total",
			Help:      "Rule firings by rule identifier.",
		}, []string{"rule"}),
		passes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bestiary",
			Name:      "inference_passes",
			Help:      "Catalog passes executed per session.",
			Buckets:   prometheus.LinearBuckets(0, 1, 8),
		}, []string{"strategy"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bestiary",
			Name:      "inference_duration_seconds",
			Help:      "Wall time of the fixpoint loop.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"strategy"}),
	}
	for _, c := range []prometheus.Collector{p.sessions, p.firings, p.passes, p.duration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return p, nil
}

// ObserveFiring implements Recorder.
func (p *Prometheus) ObserveFiring(ruleID string) {
	p.firings.WithLabelValues(ruleID).Inc()
}

// ObserveSession implements Recorder.
func (p *Prometheus) ObserveSession(strategy, outcome string, passes, _ int, duration time.Duration) {
	p.sessions.WithLabelValues(strategy, outcome).Inc()
	p.passes.WithLabelValues(strategy).Observe(float64(passes))
	p.duration.WithLabelValues(strategy).Observe(duration.Seconds())
}
