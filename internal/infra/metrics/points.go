package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		pointsGrantedTotal,
		pointsSpentTotal,
		insufficientBalanceTotal,
	)
}

var (
	pointsGrantedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "points_granted_total",
			Help: "Points credited to accounts by ledger entry kind.",
		},
		[]string{"kind"},
	)

	pointsSpentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "points_spent_total",
			Help: "Points debited from accounts by ledger entry kind.",
		},
		[]string{"kind"},
	)

	insufficientBalanceTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "points_insufficient_balance_total",
			Help: "Spend attempts rejected because the balance was short.",
		},
	)
)

func AddPointsGranted(kind string, amount int64) {
	pointsGrantedTotal.WithLabelValues(norm(kind)).Add(float64(amount))
}

func AddPointsSpent(kind string, amount int64) {
	pointsSpentTotal.WithLabelValues(norm(kind)).Add(float64(amount))
}

func IncInsufficientBalance() {
	insufficientBalanceTotal.Inc()
}
