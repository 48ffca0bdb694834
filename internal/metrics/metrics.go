// Package metrics provides Prometheus metrics for the Kawan UMKM API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kawanumkm"

var (
	// HTTPRequestTotal counts requests by method, route pattern, and status.
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method, route, and status.",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDurationSeconds is request latency by method and route pattern.
	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10),
		},
		[]string{"method", "route"},
	)

	// TokenRejectionsTotal counts rejected session tokens by reason
	// (missing, invalid, expired, forbidden).
	TokenRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_token_rejections_total",
			Help:      "Total number of requests rejected by the authorization gate.",
		},
		[]string{"reason"},
	)

	// LoginAttemptsTotal counts login attempts by result (success, invalid_credentials, error).
	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_login_attempts_total",
			Help:      "Total number of login attempts by result.",
		},
		[]string{"result"},
	)

	// PasswordResetEventsTotal counts password reset lifecycle events
	// (requested, issued, email_failed, redeemed, rejected_not_found, rejected_expired, rejected_used).
	PasswordResetEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "password_reset_events_total",
			Help:      "Total number of password reset events by outcome.",
		},
		[]string{"event"},
	)
)
