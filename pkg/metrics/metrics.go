package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultApproved = "approved"
	ResultRejected = "rejected"
	ResultError    = "error"

	ResultSent    = "sent"
	ResultFailed  = "failed"
	ResultBlocked = "blocked"
)

type Metrics struct {
	registry *prometheus.Registry

	InvoiceSubmissions *prometheus.CounterVec
	AlertNotifications *prometheus.CounterVec
	BreakerState       *prometheus.GaugeVec
	ApprovedAmount     prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		InvoiceSubmissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "invoice_submissions_total",
			Help: "Invoice submissions by outcome.",
		}, []string{"result"}),
		AlertNotifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "alert_notifications_total",
			Help: "Alert notifications by outcome.",
		}, []string{"result"}),
		BreakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state: 0 closed, 1 half-open, 2 open.",
		}, []string{"name"}),
		ApprovedAmount: factory.NewGauge(prometheus.GaugeOpts{
			Name: "invoice_approved_amount",
			Help: "Sum of all approved invoice amounts.",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
