package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the reporting service.
type Metrics struct {
	// Report pipeline
	ReportRequests *prometheus.CounterVec
	ReportDuration *prometheus.HistogramVec
	ReportOrders   prometheus.Histogram
	StorageErrors  *prometheus.CounterVec

	// HTTP boundary
	HTTPRequests   *prometheus.CounterVec
	AuthRejections *prometheus.CounterVec
	RateLimitHits  *prometheus.CounterVec

	// Nonce lifecycle
	NoncesIssued  prometheus.Counter
	NonceFailures prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ReportRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "report_requests_total",
				Help:      "Total report requests by breakdown and outcome",
			},
			[]string{"breakdown", "outcome"},
		),
		ReportDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "report_duration_seconds",
				Help:      "Report build latency in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"breakdown"},
		),
		ReportOrders: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "report_orders",
				Help:      "Order rows aggregated per report",
				Buckets:   []float64{0, 10, 100, 1000, 10000, 100000},
			},
		),
		StorageErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_errors_total",
				Help:      "Order storage query failures",
			},
			[]string{"query"},
		),
		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by path and status",
			},
			[]string{"path", "status"},
		),
		AuthRejections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_rejections_total",
				Help:      "Requests rejected before any data access",
			},
			[]string{"reason"},
		),
		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_hits_total",
				Help:      "Requests rejected by the rate limiter",
			},
			[]string{"path"},
		),
		NoncesIssued: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nonces_issued_total",
				Help:      "Anti-forgery tokens issued",
			},
		),
		NonceFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nonce_failures_total",
				Help:      "Anti-forgery token verification failures",
			},
		),
	}
}

// RecordReport tracks one report build.
func (m *Metrics) RecordReport(breakdown string, outcome string, orders int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ReportRequests.WithLabelValues(breakdown, outcome).Inc()
	m.ReportDuration.WithLabelValues(breakdown).Observe(elapsed.Seconds())
	m.ReportOrders.Observe(float64(orders))
}

// RecordStorageError tracks a failed storage query.
func (m *Metrics) RecordStorageError(query string) {
	if m == nil {
		return
	}
	m.StorageErrors.WithLabelValues(query).Inc()
}

// RecordAuthRejection tracks a request stopped by auth checks.
func (m *Metrics) RecordAuthRejection(reason string) {
	if m == nil {
		return
	}
	m.AuthRejections.WithLabelValues(reason).Inc()
}

// RecordNonceIssued tracks one anti-forgery token handed out.
func (m *Metrics) RecordNonceIssued() {
	if m == nil {
		return
	}
	m.NoncesIssued.Inc()
}

// RecordNonceFailure tracks a failed anti-forgery check.
func (m *Metrics) RecordNonceFailure() {
	if m == nil {
		return
	}
	m.NonceFailures.Inc()
}

// RecordRateLimitHit tracks a rate-limited request.
func (m *Metrics) RecordRateLimitHit(path string) {
	if m == nil {
		return
	}
	m.RateLimitHits.WithLabelValues(path).Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
