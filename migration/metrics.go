package migration

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts and times applied units.
type Metrics struct {
	Units    *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg when reg is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Units: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sqly",
			Name:      "migrations_total",
			Help:      "Migration units processed, by direction and outcome.",
		}, []string{"direction", "status"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sqly",
			Name:      "migration_duration_seconds",
			Help:      "Time spent applying one migration unit.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"direction"}),
	}
	if reg != nil {
		reg.MustRegister(m.Units, m.Duration)
	}
	return m
}

func (m *Metrics) observe(d Direction, s Status, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Units.WithLabelValues(string(d), string(s)).Inc()
	if s != Skipped {
		m.Duration.WithLabelValues(string(d)).Observe(elapsed.Seconds())
	}
}
