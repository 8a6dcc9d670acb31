package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DispatchTotal counts dispatch attempts by route and outcome
	DispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toybroker_dispatch_total",
		Help: "The total number of command dispatch attempts by route and outcome",
	}, []string{"route", "outcome"})

	// DispatchDuration observes the latency of a single dispatch attempt
	DispatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "toybroker_dispatch_duration_seconds",
		Help:    "The duration of a command dispatch attempt in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	// FallbackTotal counts direct attempts that fell back to the relay
	FallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "toybroker_fallback_total",
		Help: "The total number of direct dispatches that fell back to the relay",
	})

	// CallbacksTotal counts received vendor callbacks by status
	CallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toybroker_callbacks_total",
		Help: "The total number of vendor callbacks by status",
	}, []string{"status"})

	// TokenRequestsTotal counts authorization requests against the vendor
	TokenRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toybroker_token_requests_total",
		Help: "The total number of vendor token requests by outcome",
	}, []string{"outcome"})
)

// Outcome label values
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Outcome maps an error to an outcome label.
func Outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
