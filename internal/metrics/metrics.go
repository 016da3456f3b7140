package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	PaymentsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_started_total",
			Help: "Number of payment attempts that reached transaction creation",
		},
	)

	PaymentsConfirmed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_confirmed_total",
			Help: "Number of payments that reached a confirmed terminal status",
		},
	)

	PaymentsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_failed_total",
			Help: "Number of payments that reached a failed terminal status",
		},
	)

	PaymentsTimedOut = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_timed_out_total",
			Help: "Number of payments that exhausted the polling budget",
		},
	)

	PurchasesAlreadyOwned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "purchases_already_owned_total",
			Help: "Number of commits that hit an existing purchase record",
		},
	)

	PollDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "payment_poll_duration_seconds",
			Help:    "Wall-clock time spent polling a transaction to a terminal outcome",
			Buckets: []float64{5, 10, 20, 40, 60, 90, 120},
		},
	)
)

func Register() {
	prometheus.MustRegister(
		PaymentsStarted,
		PaymentsConfirmed,
		PaymentsFailed,
		PaymentsTimedOut,
		PurchasesAlreadyOwned,
		PollDuration,
	)
}
