package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(codesIssued, codeValidations)
}

var (
	codesIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolix_activation_codes_issued_total",
			Help: "Activation codes handed out, by origin and whether the code was a replay.",
		},
		[]string{"origin", "replay"},
	)

	codeValidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolix_activation_code_validations_total",
			Help: "Activation code validations by result.",
		},
		[]string{"result"}, // 'valid', 'invalid', 'malformed', 'error'
	)
)

func IncCodeIssued(origin string, replay bool) {
	r := "false"
	if replay {
		r = "true"
	}
	codesIssued.WithLabelValues(norm(origin), r).Inc()
}

func IncCodeValidation(result string) {
	codeValidations.WithLabelValues(norm(result)).Inc()
}
