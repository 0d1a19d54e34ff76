package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Access code verification metrics
	verifyAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_verify_attempts_total",
			Help: "Total number of access code verifications",
		},
		[]string{"status"}, // success/not_authorized/missing_email/directory_unavailable/rate_limited
	)

	verifyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auth_verify_duration_seconds",
			Help:    "Access code verification duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	tokenValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_token_validations_total",
			Help: "Total number of token validations",
		},
		[]string{"status"}, // success/malformed/signature_mismatch/expired
	)

	rateLimitHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
	)
)

// ObserveHTTPRequest records one served HTTP request
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordVerifyAttempt records an access code verification
func RecordVerifyAttempt(status string, duration time.Duration) {
	verifyAttemptsTotal.WithLabelValues(status).Inc()
	verifyDuration.Observe(duration.Seconds())
}

// RecordTokenValidation records a token validation outcome
func RecordTokenValidation(status string) {
	tokenValidationsTotal.WithLabelValues(status).Inc()
}

// RecordRateLimitHit records a rate limit hit
func RecordRateLimitHit() {
	rateLimitHitsTotal.Inc()
}
