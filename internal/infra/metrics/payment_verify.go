package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		PaymentVerifyRequests,
		PaymentVerifyDuration,
		checkoutsCreated,
		breakerState,
	)
}

var (
	// Count of verify calls grouped by result and bounded reason.
	// result: ok|replay|fail
	// reason (fail only): bad_json|not_paid|unknown_plan|mismatch|auth|provider|not_found|internal
	PaymentVerifyRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolix_payment_verify_requests_total",
			Help: "Count of payment verification calls by result and reason.",
		},
		[]string{"result", "reason"},
	)

	// Latency of verify handler grouped by result.
	PaymentVerifyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "toolix_payment_verify_duration_seconds",
			Help:    "Duration of payment verification in seconds, provider round trip included.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"result"},
	)

	checkoutsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolix_checkouts_created_total",
			Help: "Checkout sessions opened, by plan and outcome.",
		},
		[]string{"plan", "result"},
	)

	// 0 closed, 1 half-open, 2 open
	breakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "toolix_payment_breaker_state",
			Help: "Circuit breaker state for the payment provider.",
		},
		[]string{"provider"},
	)
)

func IncCheckout(plan, result string) {
	checkoutsCreated.WithLabelValues(norm(plan), norm(result)).Inc()
}

func SetBreakerState(provider string, state int) {
	breakerState.WithLabelValues(norm(provider)).Set(float64(state))
}
