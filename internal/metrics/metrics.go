// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "brioso"

// Metrics is safe to use through a nil pointer; every Record method is then
// a no-op.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	AuthAttemptsTotal *prometheus.CounterVec
	CartAddsTotal     *prometheus.CounterVec
	CheckoutsTotal    *prometheus.CounterVec
	ItemsSoldTotal    prometheus.Counter
	RevenueTotal      prometheus.Counter

	SaleNotificationsTotal *prometheus.CounterVec
}

// New builds the collectors on a private registry together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "path"}),
		HTTPRequestsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		}),
		AuthAttemptsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Login and registration attempts by outcome",
		}, []string{"kind", "result"}),
		CartAddsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_adds_total",
			Help:      "Add-to-cart calls by outcome",
		}, []string{"result"}),
		CheckoutsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Checkouts by outcome",
		}, []string{"result"}),
		ItemsSoldTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_sold_total",
			Help:      "Units sold across all checkouts",
		}),
		RevenueTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revenue_total",
			Help:      "Sum of transaction totals",
		}),
		SaleNotificationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sale_notifications_total",
			Help:      "Sale events handled by the worker by outcome",
		}, []string{"result"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) RecordHTTP(method, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (m *Metrics) RecordAuth(kind string, ok bool) {
	if m == nil {
		return
	}
	m.AuthAttemptsTotal.WithLabelValues(kind, result(ok)).Inc()
}

func (m *Metrics) RecordCartAdd(ok bool) {
	if m == nil {
		return
	}
	m.CartAddsTotal.WithLabelValues(result(ok)).Inc()
}

// RecordCheckout counts a checkout; items and revenue only move on success.
func (m *Metrics) RecordCheckout(ok bool, items int, revenue float64) {
	if m == nil {
		return
	}
	m.CheckoutsTotal.WithLabelValues(result(ok)).Inc()
	if ok {
		m.ItemsSoldTotal.Add(float64(items))
		m.RevenueTotal.Add(revenue)
	}
}

// RecordSaleNotification takes "notified", "duplicate" or "failed".
func (m *Metrics) RecordSaleNotification(outcome string) {
	if m == nil {
		return
	}
	m.SaleNotificationsTotal.WithLabelValues(outcome).Inc()
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
