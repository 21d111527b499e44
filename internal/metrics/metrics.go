package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookingsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Bookings created per entitlement type",
		},
		[]string{"entitlement"},
	)

	bookingsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_rejected_total",
			Help: "Booking attempts rejected per reason",
		},
		[]string{"reason"},
	)

	paymentCallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_callbacks_total",
			Help: "Gateway callbacks handled per kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	cancellations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_cancellations_total",
			Help: "Cancellations per remedy and whether they were forced",
		},
		[]string{"remedy", "forced"},
	)

	gatewayAnomalies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_anomalies_total",
			Help: "External payment side effects left unresolved",
		},
		[]string{"operation"},
	)

	ledgerAnomalies = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_restore_clamped_total",
			Help: "Pass restorations clamped at entries_total",
		},
	)

	pendingSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pending_bookings_swept_total",
			Help: "Pending paid bookings released by the reconciliation sweep",
		},
	)

	cascadeFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cascade_booking_failures_total",
			Help: "Bookings that failed to compensate during a forced session cancellation",
		},
	)

	notificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Notification events that could not be published",
		},
		[]string{"event"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessions_cache_lookups_total",
			Help: "Session catalogue cache lookups by result",
		},
		[]string{"result"},
	)

	httpRequests = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func BookingCreated(entitlement string) {
	bookingsCreated.WithLabelValues(entitlement).Inc()
}

func BookingRejected(reason string) {
	bookingsRejected.WithLabelValues(reason).Inc()
}

func PaymentCallback(kind, outcome string) {
	paymentCallbacks.WithLabelValues(kind, outcome).Inc()
}

func Cancellation(remedy string, forced bool) {
	f := "false"
	if forced {
		f = "true"
	}
	cancellations.WithLabelValues(remedy, f).Inc()
}

func GatewayAnomaly(operation string) {
	gatewayAnomalies.WithLabelValues(operation).Inc()
}

func LedgerClamp() {
	ledgerAnomalies.Inc()
}

func PendingSwept(n int) {
	pendingSwept.Add(float64(n))
}

func CascadeFailure() {
	cascadeFailures.Inc()
}

func NotificationFailed(event string) {
	notificationFailures.WithLabelValues(event).Inc()
}

func CacheLookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}

func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
