package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ahtisham774/spectech-backend/pkg/enums"
)

// OutboxEvent is the transactional outbox row. Rows are inserted in the same
// transaction as the state change they describe and drained by the publisher
// worker.
type OutboxEvent struct {
	ID            uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AggregateType enums.OutboxAggregateType `gorm:"column:aggregate_type;not null"`
	AggregateID   uuid.UUID                 `gorm:"column:aggregate_id;type:uuid;not null"`
	EventType     enums.OutboxEventType     `gorm:"column:event_type;not null"`
	Payload       []byte                    `gorm:"column:payload;type:jsonb;not null"`
	Attempts      int                       `gorm:"column:attempts;not null;default:0"`
	LastError     *string                   `gorm:"column:last_error"`
	AvailableAt   time.Time                 `gorm:"column:available_at;not null"`
	PublishedAt   *time.Time                `gorm:"column:published_at"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime"`
}
