package monitoring

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var (
	ContractTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleaning_contract_transitions_total",
			Help: "Contract status transitions applied, by target status",
		},
		[]string{"to"},
	)
	CollaboratorCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleaning_collaborator_calls_total",
			Help: "Calls to external collaborators by outcome",
		},
		[]string{"collaborator", "operation", "outcome"},
	)
	SweepTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleaning_sweep_transitions_total",
			Help: "Transitions applied by the automation sweep",
		},
		[]string{"kind"},
	)
	SweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cleaning_sweep_duration_seconds",
			Help:    "Duration of automation sweep runs",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)
	QuotesCalculated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleaning_quotes_calculated_total",
			Help: "Quotes computed by pricing model and pending flag",
		},
		[]string{"model", "pending"},
	)
)

var registerOnce sync.Once

// Register adds the collectors to the default registry. Safe to call more
// than once.
func Register(log zerolog.Logger) {
	registerOnce.Do(func() {
		for _, c := range []prometheus.Collector{
			ContractTransitions,
			CollaboratorCalls,
			SweepTransitions,
			SweepDuration,
			QuotesCalculated,
		} {
			if err := prometheus.Register(c); err != nil {
				log.Error().Err(err).Msg("failed to register metric")
			}
		}
	})
}
