package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "funnelhook_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "funnelhook_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Webhook metrics
	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "funnelhook_webhook_events_total",
			Help: "Total number of webhook events handled by the dispatcher",
		},
		[]string{"category", "type", "outcome"}, // outcome: processed, ignored, failed
	)

	SignatureVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "funnelhook_signature_verifications_total",
			Help: "Total number of webhook signature checks",
		},
		[]string{"result"}, // valid, invalid, missing, skipped
	)

	PaymentAmount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "funnelhook_payment_amount",
			Help:    "Payment amounts reported by payment webhooks, in currency units",
			Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000, 10000, 50000},
		},
		[]string{"currency", "type"},
	)

	// Security metrics
	RateLimitHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "funnelhook_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
		[]string{"endpoint"},
	)
)

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, endpoint, statusCode string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordSignatureVerification records the outcome of a signature check
func RecordSignatureVerification(result string) {
	SignatureVerificationsTotal.WithLabelValues(result).Inc()
}

// RecordRateLimitHit records rate limit hit
func RecordRateLimitHit(endpoint string) {
	RateLimitHitsTotal.WithLabelValues(endpoint).Inc()
}

// EventRecorder exports dispatcher outcomes to Prometheus
type EventRecorder struct{}

// NewEventRecorder creates a Prometheus backed event recorder
func NewEventRecorder() *EventRecorder {
	return &EventRecorder{}
}

// RecordEvent counts a handled webhook event
func (EventRecorder) RecordEvent(category, eventType, outcome string) {
	WebhookEventsTotal.WithLabelValues(category, eventType, outcome).Inc()
}

// RecordPaymentAmount observes the amount of a payment event
func (EventRecorder) RecordPaymentAmount(currency, eventType string, amount float64) {
	if amount < 0 {
		return
	}
	PaymentAmount.WithLabelValues(CurrencyLabel(currency), eventType).Observe(amount)
}

// CurrencyLabel upper-cases a three letter currency code and maps anything else to "other"
func CurrencyLabel(currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if len(code) != 3 {
		return "other"
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "other"
		}
	}
	return code
}
