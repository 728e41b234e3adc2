package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tablesales"

// Metrics groups the collectors of the service. A nil *Metrics is valid and
// records nothing, which keeps tests and METRICS_ENABLED=false simple.
type Metrics struct {
	Requests         *prometheus.CounterVec
	LatencyMS        *prometheus.HistogramVec
	PricingFallbacks *prometheus.CounterVec
	SalesOpened      prometheus.Counter
	SalesFinalized   *prometheus.CounterVec
	FinalizeSeconds  *prometheus.HistogramVec
	TableTransitions *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"method"}),
		PricingFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_fallback_total",
			Help:      "Cart lines priced at zero because catalog pricing data was incomplete.",
		}, []string{"reason"}),
		SalesOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_opened_total",
			Help:      "Table sales opened.",
		}),
		SalesFinalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_finalized_total",
			Help:      "Finalize attempts by payment method and outcome.",
		}, []string{"payment_method", "outcome"}),
		FinalizeSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "finalize_duration_seconds",
			Help:      "Time spent persisting a finalized sale.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		TableTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "table_transitions_total",
			Help:      "Table status changes.",
		}, []string{"from", "to"}),
	}
	reg.MustRegister(m.Requests, m.LatencyMS, m.PricingFallbacks, m.SalesOpened,
		m.SalesFinalized, m.FinalizeSeconds, m.TableTransitions)
	return m
}

func (m *Metrics) ObserveRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.LatencyMS.WithLabelValues(method).Observe(float64(d.Milliseconds()))
}

func (m *Metrics) PricingFallback(reason string) {
	if m == nil {
		return
	}
	m.PricingFallbacks.WithLabelValues(reason).Inc()
}

func (m *Metrics) SaleOpened() {
	if m == nil {
		return
	}
	m.SalesOpened.Inc()
}

// SaleFinalized records one finalize attempt. outcome is "ok" or an error class.
func (m *Metrics) SaleFinalized(paymentMethod, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.SalesFinalized.WithLabelValues(paymentMethod, outcome).Inc()
	m.FinalizeSeconds.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) TableTransition(from, to string) {
	if m == nil {
		return
	}
	m.TableTransitions.WithLabelValues(from, to).Inc()
}

// HandlerFor serves the collectors of a dedicated registry.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
