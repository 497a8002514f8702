// models/outbox.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	OutboxPending    = "pending"
	OutboxProcessing = "processing"
	OutboxDelivered  = "delivered"
	OutboxFailed     = "failed"
)

// OutboxEvent is a published domain event waiting for the notification relay.
type OutboxEvent struct {
	ID          string         `gorm:"primaryKey;size:36"`
	EventType   string         `gorm:"type:varchar(64);not null"`
	Payload     datatypes.JSON `gorm:"not null"`
	Status      string         `gorm:"type:varchar(20);not null;default:'pending';index"`
	Attempts    int            `gorm:"not null;default:0"`
	LastError   string         `gorm:"type:text"`
	CreatedAt   time.Time      `gorm:"index"`
	ClaimedAt   *time.Time
	DeliveredAt *time.Time
}

func (e *OutboxEvent) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return
}
