// services/events.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"motoshop-backend/models"
	"motoshop-backend/utils"

	"go.uber.org/zap"
)

type EventType string

const (
	EventJobCardCreated       EventType = "job_card.created"
	EventJobCardStatusChanged EventType = "job_card.status_changed"
)

const descriptionPreviewRunes = 50

// JobCardEvent is published after a job card transaction commits.
type JobCardEvent struct {
	ID             string               `json:"id"`
	Type           EventType            `json:"type"`
	JobCardID      uint                 `json:"jobCardId"`
	UserID         *uint                `json:"userId,omitempty"`
	Description    string               `json:"description,omitempty"`
	Status         models.JobCardStatus `json:"status"`
	PreviousStatus models.JobCardStatus `json:"previousStatus,omitempty"`
	ActorID        uint                 `json:"actorId"`
	OccurredAt     time.Time            `json:"occurredAt"`
}

// AlertMessage renders the text shown to the customer.
func (e JobCardEvent) AlertMessage() string {
	switch e.Type {
	case EventJobCardCreated:
		return fmt.Sprintf("Service job card #%d created: %s",
			e.JobCardID, utils.Truncate(e.Description, descriptionPreviewRunes))
	case EventJobCardStatusChanged:
		return fmt.Sprintf("Your service job card #%d status changed to: %s",
			e.JobCardID, e.Status.Label())
	}
	return fmt.Sprintf("Service job card #%d updated", e.JobCardID)
}

type EventPublisher interface {
	Publish(ctx context.Context, event JobCardEvent) error
}

type EventHandler interface {
	Handle(ctx context.Context, event JobCardEvent) error
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(ctx context.Context, event JobCardEvent) error

func (f EventHandlerFunc) Handle(ctx context.Context, event JobCardEvent) error { return f(ctx, event) }

// Dispatcher hands an event to every handler and joins their failures.
type Dispatcher struct {
	handlers []EventHandler
	logger   *zap.Logger
}

func NewDispatcher(logger *zap.Logger, handlers ...EventHandler) *Dispatcher {
	return &Dispatcher{handlers: handlers, logger: logger}
}

func (d *Dispatcher) Dispatch(ctx context.Context, event JobCardEvent) error {
	var errs []error
	for _, h := range d.handlers {
		if err := h.Handle(ctx, event); err != nil {
			d.logger.Warn("event handler failed",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
