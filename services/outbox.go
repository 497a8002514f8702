// services/outbox.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"motoshop-backend/models"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OutboxPublisher stores events in outbox_events for the relay to deliver.
type OutboxPublisher struct {
	db *gorm.DB
}

func NewOutboxPublisher(db *gorm.DB) *OutboxPublisher {
	return &OutboxPublisher{db: db}
}

func (p *OutboxPublisher) Publish(ctx context.Context, event JobCardEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	row := models.OutboxEvent{
		ID:        event.ID,
		EventType: string(event.Type),
		Payload:   datatypes.JSON(payload),
		Status:    models.OutboxPending,
	}
	if err := p.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

// claimTimeout is how long a claimed event may stay in processing before
// another run takes it back.
const claimTimeout = 5 * time.Minute

// OutboxRelay delivers pending outbox events to the dispatcher.
type OutboxRelay struct {
	db          *gorm.DB
	dispatcher  *Dispatcher
	maxAttempts int
	batchSize   int
	logger      *zap.Logger
	now         func() time.Time
}

func NewOutboxRelay(db *gorm.DB, dispatcher *Dispatcher, maxAttempts, batchSize int, logger *zap.Logger) *OutboxRelay {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if batchSize < 1 {
		batchSize = 50
	}
	return &OutboxRelay{
		db:          db,
		dispatcher:  dispatcher,
		maxAttempts: maxAttempts,
		batchSize:   batchSize,
		logger:      logger,
		now:         time.Now,
	}
}

// DispatchPending delivers one batch, oldest first, and returns how many
// events were delivered. Each event is claimed before dispatch so runs on
// other goroutines or instances skip it. A failing event is retried on later
// runs until it reaches maxAttempts, then marked failed.
func (r *OutboxRelay) DispatchPending(ctx context.Context) (int, error) {
	db := r.db.WithContext(ctx)
	if err := r.releaseStale(db); err != nil {
		return 0, err
	}

	var rows []models.OutboxEvent
	err := db.Where("status = ?", models.OutboxPending).
		Order("created_at, id").
		Limit(r.batchSize).
		Find(&rows).Error
	if err != nil {
		return 0, fmt.Errorf("load outbox events: %w", err)
	}

	delivered := 0
	for _, row := range rows {
		claimed, err := r.claim(db, row.ID)
		if err != nil {
			return delivered, err
		}
		if !claimed {
			continue
		}

		var event JobCardEvent
		dispatchErr := json.Unmarshal(row.Payload, &event)
		if dispatchErr == nil {
			dispatchErr = r.dispatcher.Dispatch(ctx, event)
		}

		updates := map[string]interface{}{"attempts": row.Attempts + 1, "claimed_at": nil}
		if dispatchErr == nil {
			now := r.now()
			updates["status"] = models.OutboxDelivered
			updates["delivered_at"] = &now
			updates["last_error"] = ""
			delivered++
		} else {
			updates["status"] = models.OutboxPending
			updates["last_error"] = dispatchErr.Error()
			if row.Attempts+1 >= r.maxAttempts {
				updates["status"] = models.OutboxFailed
				r.logger.Error("outbox event gave up",
					zap.String("event_id", row.ID),
					zap.Int("attempts", row.Attempts+1),
					zap.Error(dispatchErr))
			}
		}

		if err := db.Model(&models.OutboxEvent{}).
			Where("id = ? AND status = ?", row.ID, models.OutboxProcessing).
			Updates(updates).Error; err != nil {
			return delivered, fmt.Errorf("update outbox event %s: %w", row.ID, err)
		}
	}
	return delivered, nil
}

// claim moves a pending event to processing. It reports false when another
// run got there first.
func (r *OutboxRelay) claim(db *gorm.DB, id string) (bool, error) {
	res := db.Model(&models.OutboxEvent{}).
		Where("id = ? AND status = ?", id, models.OutboxPending).
		Updates(map[string]interface{}{"status": models.OutboxProcessing, "claimed_at": r.now()})
	if res.Error != nil {
		return false, fmt.Errorf("claim outbox event %s: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// releaseStale returns events left in processing by a run that never
// finished, such as a crashed instance.
func (r *OutboxRelay) releaseStale(db *gorm.DB) error {
	res := db.Model(&models.OutboxEvent{}).
		Where("status = ? AND claimed_at < ?", models.OutboxProcessing, r.now().Add(-claimTimeout)).
		Updates(map[string]interface{}{"status": models.OutboxPending, "claimed_at": nil})
	if res.Error != nil {
		return fmt.Errorf("release stale outbox events: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		r.logger.Warn("released stale outbox events", zap.Int64("count", res.RowsAffected))
	}
	return nil
}

// cronLogger routes cron's own messages through zap.
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}

// StartOutboxRelay runs DispatchPending on the given cron schedule. A run
// still in progress when the next one is due makes the next one skip.
// Stop the returned cron to end the relay.
func StartOutboxRelay(relay *OutboxRelay, schedule string, logger *zap.Logger) (*cron.Cron, error) {
	cl := cronLogger{sugar: logger.Named("cron").Sugar()}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		n, err := relay.DispatchPending(ctx)
		if err != nil {
			logger.Error("outbox relay run failed", zap.Error(err))
			return
		}
		if n > 0 {
			logger.Info("outbox events delivered", zap.Int("count", n))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid relay schedule %q: %w", schedule, err)
	}
	c.Start()
	logger.Info("outbox relay started", zap.String("schedule", schedule))
	return c, nil
}
