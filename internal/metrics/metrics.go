// Package metrics exposes Prometheus counters for the credential lifecycle.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "auth"

// Issuance flows.
const (
	FlowLogin   = "login"
	FlowRefresh = "refresh"
)

// Logout outcomes.
const (
	LogoutRevoked   = "revoked"
	LogoutAnonymous = "anonymous"
	LogoutError     = "error"
)

type Metrics struct {
	registry        *prometheus.Registry
	tokensIssued    *prometheus.CounterVec
	refreshFailures *prometheus.CounterVec
	logouts         *prometheus.CounterVec
	gateRejections  *prometheus.CounterVec
}

// New registers the service counters, plus the Go runtime and process
// collectors, on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		tokensIssued: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Token pairs issued, by flow.",
		}, []string{"flow"}),
		refreshFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_failures_total",
			Help:      "Rejected refresh attempts, by status name.",
		}, []string{"code"}),
		logouts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logouts_total",
			Help:      "Logout calls, by outcome.",
		}, []string{"result"}),
		gateRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_rejections_total",
			Help:      "Presented access tokens that failed verification, by status name.",
		}, []string{"code"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) TokensIssued(flow string) {
	if m == nil {
		return
	}
	m.tokensIssued.WithLabelValues(flow).Inc()
}

func (m *Metrics) RefreshFailed(code string) {
	if m == nil {
		return
	}
	m.refreshFailures.WithLabelValues(code).Inc()
}

func (m *Metrics) LoggedOut(result string) {
	if m == nil {
		return
	}
	m.logouts.WithLabelValues(result).Inc()
}

func (m *Metrics) GateRejected(code string) {
	if m == nil {
		return
	}
	m.gateRejections.WithLabelValues(code).Inc()
}
