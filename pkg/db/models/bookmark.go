package models

import (
	"time"

	"github.com/google/uuid"
)

// Bookmark is a user's saved business. One row per pair.
type Bookmark struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_bookmarks_user_business"`
	BusinessID uuid.UUID `gorm:"column:business_id;type:uuid;not null;uniqueIndex:idx_bookmarks_user_business;index"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
