// services/alert_writer.go
package services

import (
	"context"

	"motoshop-backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AlertWriter stores a customer alert for events addressed to a linked customer.
// Redelivering the same event does not create a second alert.
type AlertWriter struct {
	db *gorm.DB
}

func NewAlertWriter(db *gorm.DB) *AlertWriter {
	return &AlertWriter{db: db}
}

func (w *AlertWriter) Handle(ctx context.Context, event JobCardEvent) error {
	if event.UserID == nil {
		return nil
	}
	alert := models.CustomerAlert{
		UserID:    event.UserID,
		AlertType: models.AlertTypeService,
		Message:   event.AlertMessage(),
	}
	if event.ID != "" {
		id := event.ID
		alert.EventID = &id
	}
	return w.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(&alert).Error
}
