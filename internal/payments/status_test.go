package payments

import (
	"testing"

	"github.com/stripe/stripe-go/v84"

	"github.com/ahtisham774/spectech-backend/pkg/enums"
)

func TestMapIntentStatusCoversKnownStatuses(t *testing.T) {
	cases := []struct {
		in   stripe.PaymentIntentStatus
		want enums.PaymentStatus
	}{
		{stripe.PaymentIntentStatusProcessing, enums.PaymentStatusProcessing},
		{stripe.PaymentIntentStatusRequiresPaymentMethod, enums.PaymentStatusRequiresPaymentMethod},
		{stripe.PaymentIntentStatusRequiresConfirmation, enums.PaymentStatusRequiresConfirmation},
		{stripe.PaymentIntentStatusRequiresAction, enums.PaymentStatusRequiresAction},
		{stripe.PaymentIntentStatusSucceeded, enums.PaymentStatusSucceeded},
		{stripe.PaymentIntentStatusCanceled, enums.PaymentStatusCanceled},
	}
	for _, tc := range cases {
		got, ok := MapIntentStatus(tc.in)
		if !ok {
			t.Fatalf("status %s should be known", tc.in)
		}
		if got != tc.want {
			t.Fatalf("status %s mapped to %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestMapIntentStatusIgnoresUnknown(t *testing.T) {
	if _, ok := MapIntentStatus(stripe.PaymentIntentStatus("requires_capture")); ok {
		t.Fatal("unmapped status must be reported unknown")
	}
	if _, ok := MapIntentStatus(stripe.PaymentIntentStatus("some_future_status")); ok {
		t.Fatal("future status must be reported unknown")
	}
}

func TestMapEventStatusPrefersEventType(t *testing.T) {
	got, ok := MapEventStatus(stripe.EventTypePaymentIntentPaymentFailed, stripe.PaymentIntentStatusRequiresPaymentMethod)
	if !ok || got != enums.PaymentStatusFailed {
		t.Fatalf("payment_failed event must map to failed, got %s (%v)", got, ok)
	}

	got, ok = MapEventStatus(stripe.EventTypePaymentIntentSucceeded, "")
	if !ok || got != enums.PaymentStatusSucceeded {
		t.Fatalf("succeeded event must map to succeeded, got %s (%v)", got, ok)
	}
}

func TestMapEventStatusFallsBackToIntentStatus(t *testing.T) {
	got, ok := MapEventStatus(stripe.EventType("payment_intent.amount_capturable_updated"), stripe.PaymentIntentStatusProcessing)
	if !ok || got != enums.PaymentStatusProcessing {
		t.Fatalf("fallback mapping failed, got %s (%v)", got, ok)
	}
}
