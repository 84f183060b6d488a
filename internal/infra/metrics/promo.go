package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(promoTokensIssued, promoRedemptions, promoTokensSwept, rateLimited)
}

var (
	promoTokensIssued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "toolix_promo_tokens_issued_total",
			Help: "Promo tokens created.",
		},
	)

	promoRedemptions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolix_promo_redemptions_total",
			Help: "Promo token redemptions by mode and result.",
		},
		[]string{"mode", "result"}, // mode: 'account', 'code'; result: 'ok', 'invalid', 'error'
	)

	promoTokensSwept = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "toolix_promo_tokens_swept_total",
			Help: "Expired promo tokens removed by the sweeper.",
		},
	)

	rateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolix_rate_limited_total",
			Help: "Requests rejected by the rate limiter, by scope.",
		},
		[]string{"scope"},
	)
)

func IncPromoToken() { promoTokensIssued.Inc() }

func IncPromoRedemption(mode, result string) {
	promoRedemptions.WithLabelValues(norm(mode), norm(result)).Inc()
}

func AddPromoSwept(n int) { promoTokensSwept.Add(float64(n)) }

func IncRateLimited(scope string) { rateLimited.WithLabelValues(norm(scope)).Inc() }
