package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics carries the domain counters exported at /metrics.
type Metrics struct {
	PoursTotal      *prometheus.CounterVec
	PourVolumeML    *prometheus.CounterVec
	SessionsStarted *prometheus.CounterVec
	EventsRecorded  *prometheus.CounterVec
	KegsEnded       *prometheus.CounterVec
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PoursTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kegmon",
			Name:      "pours_total",
			Help:      "Number of pours recorded.",
		}, []string{"site"}),
		PourVolumeML: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kegmon",
			Name:      "pour_volume_ml_total",
			Help:      "Total poured volume in milliliters.",
		}, []string{"site"}),
		SessionsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kegmon",
			Name:      "sessions_started_total",
			Help:      "Number of drinking sessions created.",
		}, []string{"site"}),
		EventsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kegmon",
			Name:      "events_recorded_total",
			Help:      "System events recorded, by kind.",
		}, []string{"kind"}),
		KegsEnded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kegmon",
			Name:      "kegs_ended_total",
			Help:      "Kegs taken offline.",
		}, []string{"site"}),
	}
}
