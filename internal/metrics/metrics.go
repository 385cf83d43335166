package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	dialogTurns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wellmeet",
			Name:      "dialog_turns_total",
			Help:      "Dialog turns by speaker and state.",
		},
		[]string{"speaker", "state"},
	)

	matchOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wellmeet",
			Name:      "match_outcomes_total",
			Help:      "Recommendation matcher results by input kind and outcome.",
		},
		[]string{"input", "outcome"},
	)

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wellmeet",
			Name:      "booking_actions_total",
			Help:      "Booking submissions and lifecycle actions by result.",
		},
		[]string{"action", "result"},
	)

	upstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wellmeet",
			Name:      "upstream_requests_total",
			Help:      "Upstream HTTP requests by endpoint and result.",
		},
		[]string{"endpoint", "result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(dialogTurns, matchOutcomes, bookingTransitions, upstreamRequests)
	})
}

func IncTurn(speaker, state string) {
	dialogTurns.WithLabelValues(speaker, state).Inc()
}

func IncMatch(input, outcome string) {
	matchOutcomes.WithLabelValues(input, outcome).Inc()
}

func IncBooking(action, result string) {
	bookingTransitions.WithLabelValues(action, result).Inc()
}

func IncUpstream(endpoint, result string) {
	upstreamRequests.WithLabelValues(endpoint, result).Inc()
}
