package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request latency (seconds)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	FeedbackTokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedback_tokens_issued_total",
			Help: "Total number of feedback tokens issued",
		},
	)

	// result: consumed, not_found, already_used, expired, invalid_input, error
	FeedbackTokenConsumes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_token_consume_total",
			Help: "Feedback submission attempts by outcome",
		},
		[]string{"result"},
	)

	// kind: deposit, final; result: created, captured, failed
	PaymentEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_events_total",
			Help: "Payment orders and captures by outcome",
		},
		[]string{"kind", "result"},
	)

	UnreadCountLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_unread_lookups_total",
			Help: "Unread-count lookups by cache outcome",
		},
		[]string{"cache"}, // cache: hit, miss, disabled
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Domain events handed to the broker",
		},
		[]string{"routing_key", "status"},
	)
)

// RecordHTTPRequestDuration records one served request
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func IncrementTokenIssued() {
	FeedbackTokensIssued.Inc()
}

func IncrementTokenConsume(result string) {
	FeedbackTokenConsumes.WithLabelValues(result).Inc()
}

func IncrementPayment(kind, result string) {
	PaymentEvents.WithLabelValues(kind, result).Inc()
}

func IncrementUnreadLookup(cache string) {
	UnreadCountLookups.WithLabelValues(cache).Inc()
}

func IncrementEventPublished(routingKey, status string) {
	EventsPublished.WithLabelValues(routingKey, status).Inc()
}
