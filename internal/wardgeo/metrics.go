package wardgeo

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/VietTranDai/SMART-GARDEN-SERVER/pkg/nominatim"
)

// Metrics exposes batch progress to Prometheus. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	outcomes   *prometheus.CounterVec
	duration   prometheus.Histogram
	cooldowns  prometheus.Counter
	sinkErrors prometheus.Counter
	pending    prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smartgarden_ward_geocode_outcomes_total",
			Help: "Ward lookups by outcome",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "smartgarden_ward_geocode_duration_ms",
			Help:    "Ward lookup duration in milliseconds, retries included",
			Buckets: []float64{50, 100, 200, 500, 1000, 2000, 5000, 10000, 30000},
		}),
		cooldowns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smartgarden_ward_geocode_cooldowns_total",
			Help: "Cooldowns served after consecutive 403 responses",
		}),
		sinkErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smartgarden_ward_geocode_store_errors_total",
			Help: "Failed ward updates",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "smartgarden_ward_geocode_pending",
			Help: "Wards left to process in the current run",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.outcomes, m.duration, m.cooldowns, m.sinkErrors, m.pending)
	}
	return m
}

func (m *Metrics) observe(status nominatim.Status, d time.Duration) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(status.String()).Inc()
	m.duration.Observe(float64(d.Milliseconds()))
}

func (m *Metrics) cooldown() {
	if m == nil {
		return
	}
	m.cooldowns.Inc()
}

func (m *Metrics) sinkError() {
	if m == nil {
		return
	}
	m.sinkErrors.Inc()
}

func (m *Metrics) setPending(n int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(n))
}
