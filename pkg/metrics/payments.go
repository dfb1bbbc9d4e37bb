package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records reconciliation outcomes and gateway latency.
type PaymentMetrics struct {
	reconciliations *prometheus.CounterVec
	gatewayLatency  *prometheus.HistogramVec
	webhookEvents   *prometheus.CounterVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	reconciliations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_reconciliations_total",
		Help: "Payment status reconciliations by observed status and outcome.",
	}, []string{"status", "outcome"})
	gatewayLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stripe_call_duration_seconds",
		Help:    "Duration of Stripe API calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"call"})
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stripe_webhook_events_total",
		Help: "Stripe webhook events by type and disposition.",
	}, []string{"event_type", "disposition"})
	reg.MustRegister(reconciliations, gatewayLatency, webhookEvents)
	return &PaymentMetrics{
		reconciliations: reconciliations,
		gatewayLatency:  gatewayLatency,
		webhookEvents:   webhookEvents,
	}
}

// IncReconciliation counts one reconciliation attempt by status and outcome.
func (p *PaymentMetrics) IncReconciliation(status, outcome string) {
	if p == nil || p.reconciliations == nil {
		return
	}
	p.reconciliations.WithLabelValues(normalizeLabel(status), normalizeLabel(outcome)).Inc()
}

// ObserveGatewayCall records the duration of a Stripe API call.
func (p *PaymentMetrics) ObserveGatewayCall(call string, duration time.Duration) {
	if p == nil || p.gatewayLatency == nil {
		return
	}
	p.gatewayLatency.WithLabelValues(normalizeLabel(call)).Observe(duration.Seconds())
}

// IncWebhookEvent counts one webhook event by type and disposition.
func (p *PaymentMetrics) IncWebhookEvent(eventType, disposition string) {
	if p == nil || p.webhookEvents == nil {
		return
	}
	p.webhookEvents.WithLabelValues(normalizeLabel(eventType), normalizeLabel(disposition)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
