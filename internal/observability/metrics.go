// Package observability exposes Prometheus metrics for the polling
// loop.
package observability

import (
	"net/http"
	"time"

	"codeberg.org/mutker/homemon/internal/sensor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type PollMetrics struct {
	rounds         prometheus.Counter
	successes      prometheus.Counter
	failures       prometheus.Counter
	sensorFailures *prometheus.CounterVec
	roundDuration  prometheus.Histogram
}

func NewPollMetrics() *PollMetrics {
	rounds := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "homemon_poll_rounds_total",
		Help: "Total completed polling rounds.",
	})
	successes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "homemon_sensor_reads_total",
		Help: "Total successful sensor reads.",
	})
	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "homemon_sensor_failures_total",
		Help: "Total sensor polls that exhausted all attempts.",
	})
	sensorFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "homemon_sensor_failures_by_address_total",
		Help: "Exhausted sensor polls per hardware address.",
	}, []string{"address"})
	roundDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "homemon_poll_round_duration_seconds",
		Help:    "Wall-clock duration of a full polling round.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	prometheus.MustRegister(rounds, successes, failures, sensorFailures, roundDuration)

	return &PollMetrics{
		rounds:         rounds,
		successes:      successes,
		failures:       failures,
		sensorFailures: sensorFailures,
		roundDuration:  roundDuration,
	}
}

// ObserveRound records the outcome mix and duration of one round.
func (m *PollMetrics) ObserveRound(outcomes []sensor.Outcome, elapsed time.Duration) {
	m.rounds.Inc()
	m.roundDuration.Observe(elapsed.Seconds())

	for _, o := range outcomes {
		if o.OK() {
			m.successes.Inc()
		} else {
			m.failures.Inc()
			m.sensorFailures.WithLabelValues(o.Descriptor.Address).Inc()
		}
	}
}

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
