package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by actor role and result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medrec_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"role", "result"},
	)

	// AppointmentsBooked counts appointment bookings.
	AppointmentsBooked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medrec_appointments_booked_total",
			Help: "Total number of appointments booked",
		},
	)

	// AppointmentsResolved counts clinical resolutions recorded by doctors.
	AppointmentsResolved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medrec_appointments_resolved_total",
			Help: "Total number of appointments resolved",
		},
	)

	// PaymentOrders counts gateway order creations by outcome (created|failed).
	PaymentOrders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medrec_payment_orders_total",
			Help: "Total number of payment gateway orders",
		},
		[]string{"result"},
	)

	// PaymentReconciliations counts settlement callbacks by outcome (paid|failed|rejected).
	PaymentReconciliations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medrec_payment_reconciliations_total",
			Help: "Total number of payment reconciliation attempts",
		},
		[]string{"result"},
	)

	// VerificationEmails counts verification emails by kind (initial|resend) and result.
	VerificationEmails = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medrec_verification_emails_total",
			Help: "Total number of verification emails dispatched",
		},
		[]string{"kind", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medrec_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
