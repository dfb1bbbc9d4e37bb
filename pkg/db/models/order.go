package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ahtisham774/spectech-backend/pkg/enums"
	"github.com/ahtisham774/spectech-backend/pkg/types"
)

// Order records one completed commercial transaction tied to exactly one
// successful Payment. Line items are an immutable snapshot; totals are fixed
// at creation and never recomputed.
type Order struct {
	ID            uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber   string            `gorm:"column:order_number;not null;unique"`
	UserID        uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	BusinessID    uuid.UUID         `gorm:"column:business_id;type:uuid;not null;index"`
	PaymentID     uuid.UUID         `gorm:"column:payment_id;type:uuid;not null;uniqueIndex"`
	Items         types.OrderItems  `gorm:"column:items;type:jsonb;not null"`
	SubtotalCents int64             `gorm:"column:subtotal_cents;not null"`
	TaxCents      int64             `gorm:"column:tax_cents;not null;default:0"`
	TotalCents    int64             `gorm:"column:total_cents;not null"`
	Currency      string            `gorm:"column:currency;not null;default:'usd'"`
	Status        enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending'"`
	BillingName   string            `gorm:"column:billing_name;not null"`
	BillingEmail  string            `gorm:"column:billing_email;not null"`
	CompletedAt   *time.Time        `gorm:"column:completed_at"`
	CanceledAt    *time.Time        `gorm:"column:canceled_at"`
	RefundedAt    *time.Time        `gorm:"column:refunded_at"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
