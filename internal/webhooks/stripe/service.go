package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v84"

	"github.com/ahtisham774/spectech-backend/internal/payments"
	pkgerrors "github.com/ahtisham774/spectech-backend/pkg/errors"
	"github.com/ahtisham774/spectech-backend/pkg/logger"
	"github.com/ahtisham774/spectech-backend/pkg/metrics"
)

type observationApplier interface {
	ApplyObservation(ctx context.Context, obs payments.Observation) error
}

type ServiceParams struct {
	Payments observationApplier
	Logger   *logger.Logger
	Metrics  *metrics.PaymentMetrics
}

// Service routes verified Stripe events into the reconciliation engine.
// Unknown event types are acknowledged and dropped so new gateway features
// never break deliveries.
type Service struct {
	payments observationApplier
	logg     *logger.Logger
	metrics  *metrics.PaymentMetrics
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments service required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		payments: params.Payments,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded,
		stripe.EventTypePaymentIntentPaymentFailed,
		stripe.EventTypePaymentIntentCanceled,
		stripe.EventTypePaymentIntentProcessing,
		stripe.EventTypePaymentIntentRequiresAction:
		return s.handlePaymentIntent(ctx, event)
	default:
		s.incEvent(event.Type, "ignored")
		return nil
	}
}

func (s *Service) handlePaymentIntent(ctx context.Context, event *stripe.Event) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		s.incEvent(event.Type, "decode_error")
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment intent event")
	}
	if intent.ID == "" {
		s.incEvent(event.Type, "decode_error")
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id missing")
	}

	status, known := payments.MapEventStatus(event.Type, intent.Status)
	if !known {
		// Statuses this platform does not track are acknowledged untouched.
		s.incEvent(event.Type, "unmapped_status")
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"event_type":    string(event.Type),
			"intent_id":     intent.ID,
			"intent_status": string(intent.Status),
		}), "webhook carries unmapped payment intent status")
		return nil
	}

	if err := s.payments.ApplyObservation(ctx, payments.ObservationFromIntent(&intent, status)); err != nil {
		s.incEvent(event.Type, "error")
		return err
	}
	s.incEvent(event.Type, "applied")
	return nil
}

func (s *Service) incEvent(eventType stripe.EventType, disposition string) {
	if s.metrics != nil {
		s.metrics.IncWebhookEvent(string(eventType), disposition)
	}
}
