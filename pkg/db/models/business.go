package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ahtisham774/spectech-backend/pkg/enums"
	"github.com/ahtisham774/spectech-backend/pkg/types"
)

// Business represents the canonical tenant model of the directory.
//
// PaymentStatus is written only by the payment reconciliation engine.
// IsApproved and the rejection fields are written only by admin moderation,
// behind the paid gate. Status is owner-controlled visibility.
type Business struct {
	ID              uuid.UUID                   `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID         uuid.UUID                   `gorm:"column:owner_id;type:uuid;not null;index"`
	Name            string                      `gorm:"column:name;not null"`
	Description     *string                     `gorm:"column:description"`
	Phone           *string                     `gorm:"column:phone"`
	Email           *string                     `gorm:"column:email"`
	Website         *string                     `gorm:"column:website"`
	Categories      pq.StringArray              `gorm:"column:categories;type:text[]"`
	Address         types.Address               `gorm:"column:address;type:jsonb"`
	Status          enums.BusinessStatus        `gorm:"column:status;type:business_status;not null;default:'draft'"`
	PaymentStatus   enums.BusinessPaymentStatus `gorm:"column:payment_status;type:business_payment_status;not null;default:'pending'"`
	IsApproved      bool                        `gorm:"column:is_approved;not null;default:false"`
	ApprovedAt      *time.Time                  `gorm:"column:approved_at"`
	RejectedAt      *time.Time                  `gorm:"column:rejected_at"`
	RejectionReason *string                     `gorm:"column:rejection_reason"`
	RatingAverage   float64                     `gorm:"column:rating_average;not null;default:0"`
	RatingCount     int                         `gorm:"column:rating_count;not null;default:0"`
	FollowerCount   int                         `gorm:"column:follower_count;not null;default:0"`
	CreatedAt       time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}
