package enums

import "fmt"

// PaymentStatus tracks the lifecycle of a listing-fee payment.
type PaymentStatus string

const (
	PaymentStatusPending               PaymentStatus = "pending"
	PaymentStatusProcessing            PaymentStatus = "processing"
	PaymentStatusRequiresPaymentMethod PaymentStatus = "requires_payment_method"
	PaymentStatusRequiresConfirmation  PaymentStatus = "requires_confirmation"
	PaymentStatusRequiresAction        PaymentStatus = "requires_action"
	PaymentStatusSucceeded             PaymentStatus = "succeeded"
	PaymentStatusFailed                PaymentStatus = "failed"
	PaymentStatusCanceled              PaymentStatus = "canceled"
)

var paymentStatusSet = map[PaymentStatus]struct{}{
	PaymentStatusPending:               {},
	PaymentStatusProcessing:            {},
	PaymentStatusRequiresPaymentMethod: {},
	PaymentStatusRequiresConfirmation:  {},
	PaymentStatusRequiresAction:        {},
	PaymentStatusSucceeded:             {},
	PaymentStatusFailed:                {},
	PaymentStatusCanceled:              {},
}

func (p PaymentStatus) String() string { return string(p) }

func (p PaymentStatus) IsValid() bool {
	_, ok := paymentStatusSet[p]
	return ok
}

// IsTerminal reports whether the status can never change again. Succeeded and
// failed payments keep their status forever; canceled records stay canceled
// and the business re-attempts with a fresh intent.
func (p PaymentStatus) IsTerminal() bool {
	switch p {
	case PaymentStatusSucceeded, PaymentStatusFailed, PaymentStatusCanceled:
		return true
	}
	return false
}

func ParsePaymentStatus(value string) (PaymentStatus, error) {
	status := PaymentStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("unknown payment status %q", value)
	}
	return status, nil
}
