package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shareit"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"route", "code"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Bookings created.",
		},
	)

	bookingDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_decisions_total",
			Help:      "Owner approval decisions by resulting status.",
		},
		[]string{"status"},
	)

	bookingRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_operation_errors_total",
			Help:      "Failed booking operations by operation and error kind.",
		},
		[]string{"operation", "kind"},
	)

	bookingListings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_listings_total",
			Help:      "Booking listing queries by viewpoint and state.",
		},
		[]string{"viewpoint", "state"},
	)

	storeRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_retries_total",
			Help:      "Read-modify-write sequences retried after a transient storage failure.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			bookingsCreated,
			bookingDecisions,
			bookingRejections,
			bookingListings,
			storeRetries,
		)
	})
}

func IncHTTP(route, code string) {
	httpRequests.WithLabelValues(route, code).Inc()
}

func IncBookingCreated() {
	bookingsCreated.Inc()
}

func IncDecision(status string) {
	bookingDecisions.WithLabelValues(status).Inc()
}

func IncOperationError(operation, kind string) {
	bookingRejections.WithLabelValues(operation, kind).Inc()
}

func IncListing(viewpoint, state string) {
	bookingListings.WithLabelValues(viewpoint, state).Inc()
}

func IncStoreRetry() {
	storeRetries.Inc()
}
