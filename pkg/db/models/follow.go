package models

import (
	"time"

	"github.com/google/uuid"
)

// Follow is a user subscription to a business. One row per pair.
type Follow struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_follows_user_business"`
	BusinessID uuid.UUID `gorm:"column:business_id;type:uuid;not null;uniqueIndex:idx_follows_user_business;index"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
