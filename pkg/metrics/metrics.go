package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "authsvc", Name: "login_attempts_total", Help: "Number of login attempts by outcome."},
		[]string{"outcome"},
	)
	TokensIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "authsvc", Name: "tokens_issued_total", Help: "Number of tokens issued by type."},
		[]string{"type"},
	)
	GateRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "authsvc", Name: "gate_rejections_total", Help: "Number of requests rejected by the authentication gate, by response code."},
		[]string{"code"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "authsvc", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "authsvc", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(LoginAttempts)
	reg.MustRegister(TokensIssued)
	reg.MustRegister(GateRejections)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
