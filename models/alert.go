// models/alert.go
package models

import (
	"time"
)

const AlertTypeService = "service"

// CustomerAlert is a one-way message shown in the customer portal.
type CustomerAlert struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index" json:"userId"`
	EventID   *string   `gorm:"size:36;uniqueIndex" json:"-"`
	AlertType string    `gorm:"type:varchar(20);not null" json:"alertType"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	IsRead    bool      `gorm:"not null;default:false" json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

func (CustomerAlert) TableName() string { return "customer_alerts" }
