package payments

import (
	"github.com/stripe/stripe-go/v84"

	"github.com/ahtisham774/spectech-backend/pkg/enums"
)

// statusByIntentStatus is the closed mapping from Stripe payment intent
// statuses to internal payment statuses. Statuses outside this table are
// ignored by reconciliation rather than guessed at.
var statusByIntentStatus = map[stripe.PaymentIntentStatus]enums.PaymentStatus{
	stripe.PaymentIntentStatusProcessing:            enums.PaymentStatusProcessing,
	stripe.PaymentIntentStatusRequiresPaymentMethod: enums.PaymentStatusRequiresPaymentMethod,
	stripe.PaymentIntentStatusRequiresConfirmation:  enums.PaymentStatusRequiresConfirmation,
	stripe.PaymentIntentStatusRequiresAction:        enums.PaymentStatusRequiresAction,
	stripe.PaymentIntentStatusSucceeded:             enums.PaymentStatusSucceeded,
	stripe.PaymentIntentStatusCanceled:              enums.PaymentStatusCanceled,
}

// MapIntentStatus translates a Stripe intent status into the internal enum.
// The second return reports whether the status participates in reconciliation.
func MapIntentStatus(status stripe.PaymentIntentStatus) (enums.PaymentStatus, bool) {
	mapped, ok := statusByIntentStatus[status]
	return mapped, ok
}

// MapEventStatus translates a webhook-observed status string. Payment-failed
// events carry no terminal intent status, so the event type drives the
// mapping instead.
func MapEventStatus(eventType stripe.EventType, intentStatus stripe.PaymentIntentStatus) (enums.PaymentStatus, bool) {
	switch eventType {
	case stripe.EventTypePaymentIntentSucceeded:
		return enums.PaymentStatusSucceeded, true
	case stripe.EventTypePaymentIntentPaymentFailed:
		return enums.PaymentStatusFailed, true
	case stripe.EventTypePaymentIntentCanceled:
		return enums.PaymentStatusCanceled, true
	case stripe.EventTypePaymentIntentProcessing:
		return enums.PaymentStatusProcessing, true
	case stripe.EventTypePaymentIntentRequiresAction:
		return enums.PaymentStatusRequiresAction, true
	default:
		return MapIntentStatus(intentStatus)
	}
}
