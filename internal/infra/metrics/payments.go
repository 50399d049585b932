package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		paymentsRevenueTotal,
		finalizeLosersTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payment status transitions by status and kind.",
		},
		[]string{"status", "kind"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_total",
			Help: "Total monetary value of completed payments in minor units, labeled by currency.",
		},
		[]string{"currency"},
	)

	finalizeLosersTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_finalize_losers_total",
			Help: "Finalize attempts that lost the conditional transition and returned the recorded result.",
		},
	)
)

func IncPayment(status, kind string) {
	paymentsTotal.WithLabelValues(norm(status), norm(kind)).Inc()
}

func AddPaymentRevenue(currency string, amountMinor int64) {
	paymentsRevenueTotal.WithLabelValues(norm(currency)).Add(float64(amountMinor))
}

func IncFinalizeLoser() {
	finalizeLosersTotal.Inc()
}
