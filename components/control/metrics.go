package control

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Ticks       prometheus.Counter
	Updates     prometheus.Counter
	Restarts    prometheus.Counter
	SendErrors  prometheus.Counter
	Unreachable *prometheus.CounterVec
	Progression prometheus.Gauge
	StanceIndex prometheus.Gauge
}

// NewMetrics registers the loop's metrics with reg. A nil reg makes metrics
// which are never exported.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		Ticks: f.NewCounter(prometheus.CounterOpts{
			Namespace: "qd",
			Name:      "loop_ticks_total",
			Help:      "Ticks received while running.",
		}),
		Updates: f.NewCounter(prometheus.CounterOpts{
			Namespace: "qd",
			Name:      "loop_updates_total",
			Help:      "Poses computed, including scrubs.",
		}),
		Restarts: f.NewCounter(prometheus.CounterOpts{
			Namespace: "qd",
			Name:      "loop_restarts_total",
			Help:      "Times the walk started over from the beginning of the path.",
		}),
		SendErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: "qd",
			Name:      "loop_send_errors_total",
			Help:      "Poses which couldn't be sent to the robot.",
		}),
		Unreachable: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qd",
			Name:      "leg_unreachable_total",
			Help:      "Updates where a leg couldn't reach its target.",
		}, []string{"leg"}),
		Progression: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "qd",
			Name:      "loop_progression",
			Help:      "Fraction of the path walked.",
		}),
		StanceIndex: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "qd",
			Name:      "loop_stance_index",
			Help:      "Index of the stance most recently passed.",
		}),
	}
}
