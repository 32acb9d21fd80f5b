package metrics

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sliding_rate_limiter/limiter"
)

// Recorder holds the Prometheus metrics for a limiter. It implements limiter.Observer.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	DecisionsTotal      *prometheus.CounterVec
	ClockAnomaliesTotal prometheus.Counter
	EvictionsTotal      prometheus.Counter

	registry *prometheus.Registry
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		DecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sliding_limiter_decisions_total",
			Help: "Total number of rate-limit decisions by outcome",
		}, []string{"decision"}),
		ClockAnomaliesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sliding_limiter_clock_anomalies_total",
			Help: "Total number of requests rejected because the clock went backwards",
		}),
		EvictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sliding_limiter_key_evictions_total",
			Help: "Total number of keys dropped from the limiter",
		}),
	}

	r.registry = prometheus.NewRegistry()
	r.registry.MustRegister(
		r.DecisionsTotal,
		r.ClockAnomaliesTotal,
		r.EvictionsTotal,
	)
	return r
}

// ObserveDecision counts an ALLOWED or DENIED outcome.
func (r *Recorder) ObserveDecision(d limiter.Decision) {
	if r == nil {
		return
	}
	r.DecisionsTotal.WithLabelValues(d.String()).Inc()
}

func (r *Recorder) ObserveClockAnomaly() {
	if r == nil {
		return
	}
	r.ClockAnomaliesTotal.Inc()
}

// ObserveEviction counts a dropped key. The key itself is not a label.
func (r *Recorder) ObserveEviction(string) {
	if r == nil {
		return
	}
	r.EvictionsTotal.Inc()
}

// TrackKeys exposes fn as the tracked-keys gauge. It is separate from NewRecorder because
// the limiter that reports its size is built with the Recorder as its observer.
func (r *Recorder) TrackKeys(fn func() int) error {
	if r == nil {
		return nil
	}
	g := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "sliding_limiter_tracked_keys",
		Help: "Number of keys currently held by the limiter",
	}, func() float64 {
		return float64(fn())
	})
	if err := r.registry.Register(g); err != nil {
		log.Printf("metrics: failed to register tracked keys gauge: %v", err)
		return err
	}
	return nil
}

// Registry returns the registry the metrics are registered with.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
