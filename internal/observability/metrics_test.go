package observability

import (
	"testing"
	"time"

	"codeberg.org/mutker/homemon/internal/sensor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRound(t *testing.T) {
	origReg := prometheus.DefaultRegisterer
	origGatherer := prometheus.DefaultGatherer
	t.Cleanup(func() {
		prometheus.DefaultRegisterer = origReg
		prometheus.DefaultGatherer = origGatherer
	})

	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	m := NewPollMetrics()

	temp := 21.5
	outcomes := []sensor.Outcome{
		sensor.Succeeded(sensor.Descriptor{Address: "aa"}, sensor.Measurement{TemperatureC: temp}),
		sensor.Failed(sensor.Descriptor{Address: "bb"}, "connect failed"),
		sensor.Succeeded(sensor.Descriptor{Address: "cc"}, sensor.Measurement{TemperatureC: temp}),
	}
	m.ObserveRound(outcomes, 12*time.Second)
	m.ObserveRound(outcomes[:1], time.Second)

	if got := testutil.ToFloat64(m.rounds); got != 2 {
		t.Fatalf("expected 2 rounds, got %f", got)
	}
	if got := testutil.ToFloat64(m.successes); got != 3 {
		t.Fatalf("expected 3 successes, got %f", got)
	}
	if got := testutil.ToFloat64(m.failures); got != 1 {
		t.Fatalf("expected 1 failure, got %f", got)
	}
	if got := testutil.ToFloat64(m.sensorFailures.WithLabelValues("bb")); got != 1 {
		t.Fatalf("expected 1 failure for bb, got %f", got)
	}
	if samples := testutil.CollectAndCount(m.roundDuration); samples != 1 {
		t.Fatalf("expected duration histogram to be collected, got %d", samples)
	}
}
