// Package metrics holds the Prometheus collectors shared by the HTTP layer and modules.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// VerificationCodesIssued counts issue attempts by purpose and outcome
	// (sent, rate_limited, in_progress, email_failed, error).
	VerificationCodesIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "realestate",
		Name:      "verification_codes_issued_total",
		Help:      "Verification code issue attempts by purpose and status.",
	}, []string{"purpose", "status"})

	// VerificationAttempts counts verify calls by purpose and result.
	VerificationAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "realestate",
		Name:      "verification_attempts_total",
		Help:      "Verification code checks by purpose and result.",
	}, []string{"purpose", "result"})

	// PasswordChanges counts successful password changes by flow (reset, change).
	PasswordChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "realestate",
		Name:      "password_changes_total",
		Help:      "Successful password changes by flow.",
	}, []string{"flow"})

	// HTTPRequests counts served requests by method and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "realestate",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method and status.",
	}, []string{"method", "status"})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
