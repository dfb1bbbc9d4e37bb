package enums

import "fmt"

// BusinessStatus is the owner-controlled visibility of a business profile.
type BusinessStatus string

const (
	BusinessStatusDraft     BusinessStatus = "draft"
	BusinessStatusPublished BusinessStatus = "published"
	BusinessStatusArchived  BusinessStatus = "archived"
)

var businessStatusSet = map[BusinessStatus]struct{}{
	BusinessStatusDraft:     {},
	BusinessStatusPublished: {},
	BusinessStatusArchived:  {},
}

func (b BusinessStatus) String() string { return string(b) }

func (b BusinessStatus) IsValid() bool {
	_, ok := businessStatusSet[b]
	return ok
}

func ParseBusinessStatus(value string) (BusinessStatus, error) {
	status := BusinessStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("unknown business status %q", value)
	}
	return status, nil
}

// BusinessPaymentStatus summarizes the listing-fee state on the business row.
// Only the payment reconciliation engine writes it.
type BusinessPaymentStatus string

const (
	BusinessPaymentPending BusinessPaymentStatus = "pending"
	BusinessPaymentPaid    BusinessPaymentStatus = "paid"
	BusinessPaymentFailed  BusinessPaymentStatus = "failed"
)

var businessPaymentStatusSet = map[BusinessPaymentStatus]struct{}{
	BusinessPaymentPending: {},
	BusinessPaymentPaid:    {},
	BusinessPaymentFailed:  {},
}

func (b BusinessPaymentStatus) String() string { return string(b) }

func (b BusinessPaymentStatus) IsValid() bool {
	_, ok := businessPaymentStatusSet[b]
	return ok
}
