package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ahtisham774/spectech-backend/pkg/enums"
	"github.com/ahtisham774/spectech-backend/pkg/types"
)

// Payment is the ledger row for one attempt to pay the business-listing fee.
//
// The row is created pending when an intent is requested and mutated only by
// the reconciliation engine. AmountCents is fixed at the listing-fee price at
// creation and never changes. Rows are never hard-deleted.
type Payment struct {
	ID                    uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID                uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	BusinessID            uuid.UUID           `gorm:"column:business_id;type:uuid;not null;index"`
	StripePaymentIntentID string              `gorm:"column:stripe_payment_intent_id;not null;unique"`
	StripeCustomerID      string              `gorm:"column:stripe_customer_id;not null"`
	AmountCents           int64               `gorm:"column:amount_cents;not null"`
	Currency              string              `gorm:"column:currency;not null;default:'usd'"`
	Status                enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'pending'"`
	Description           *string             `gorm:"column:description"`
	FailureReason         *string             `gorm:"column:failure_reason"`
	Metadata              types.Metadata      `gorm:"column:metadata;type:jsonb"`
	RefundedAt            *time.Time          `gorm:"column:refunded_at"`
	RefundAmountCents     *int64              `gorm:"column:refund_amount_cents"`
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
