package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents the canonical identity entity. Credential issuance lives in
// the identity service; this backend only reads profile fields.
type User struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email            string     `gorm:"type:text;not null;uniqueIndex"`
	FirstName        string     `gorm:"column:first_name;not null"`
	LastName         string     `gorm:"column:last_name;not null"`
	Phone            *string    `gorm:"column:phone"`
	IsActive         bool       `gorm:"column:is_active;not null;default:true"`
	StripeCustomerID *string    `gorm:"column:stripe_customer_id"`
	LastLoginAt      *time.Time `gorm:"column:last_login_at"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// DisplayName joins the profile name fields for billing snapshots.
func (u User) DisplayName() string {
	switch {
	case u.FirstName == "" && u.LastName == "":
		return u.Email
	case u.LastName == "":
		return u.FirstName
	case u.FirstName == "":
		return u.LastName
	default:
		return u.FirstName + " " + u.LastName
	}
}
