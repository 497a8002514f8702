package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"motoshop-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func statusEvent(userID *uint) JobCardEvent {
	return JobCardEvent{
		ID:             uuid.NewString(),
		Type:           EventJobCardStatusChanged,
		JobCardID:      7,
		UserID:         userID,
		Status:         models.JobCardCompleted,
		PreviousStatus: models.JobCardInProgress,
		ActorID:        adminID,
		OccurredAt:     time.Now(),
	}
}

func TestOutboxRelay_DeliversToAlertWriter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	customer := seedUser(t, db, "rider@shop.test", models.RoleCustomer)

	event := statusEvent(&customer.ID)
	require.NoError(t, NewOutboxPublisher(db).Publish(ctx, event))

	relay := NewOutboxRelay(db, NewDispatcher(zap.NewNop(), NewAlertWriter(db)), 3, 10, zap.NewNop())
	n, err := relay.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var row models.OutboxEvent
	require.NoError(t, db.First(&row, "id = ?", event.ID).Error)
	assert.Equal(t, models.OutboxDelivered, row.Status)
	assert.Equal(t, 1, row.Attempts)
	assert.NotNil(t, row.DeliveredAt)

	var alerts []models.CustomerAlert
	require.NoError(t, db.Where("user_id = ?", customer.ID).Find(&alerts).Error)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Your service job card #7 status changed to: Completed", alerts[0].Message)
	assert.Equal(t, models.AlertTypeService, alerts[0].AlertType)
	assert.False(t, alerts[0].IsRead)

	n, err = relay.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOutboxRelay_RetriesThenFails(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	event := statusEvent(nil)
	require.NoError(t, NewOutboxPublisher(db).Publish(ctx, event))

	calls := 0
	failing := EventHandlerFunc(func(context.Context, JobCardEvent) error {
		calls++
		return errors.New("gateway timeout")
	})
	relay := NewOutboxRelay(db, NewDispatcher(zap.NewNop(), failing), 2, 10, zap.NewNop())

	_, err := relay.DispatchPending(ctx)
	require.NoError(t, err)
	var row models.OutboxEvent
	require.NoError(t, db.First(&row, "id = ?", event.ID).Error)
	assert.Equal(t, models.OutboxPending, row.Status)
	assert.Equal(t, 1, row.Attempts)
	assert.Equal(t, "gateway timeout", row.LastError)

	_, err = relay.DispatchPending(ctx)
	require.NoError(t, err)
	require.NoError(t, db.First(&row, "id = ?", event.ID).Error)
	assert.Equal(t, models.OutboxFailed, row.Status)
	assert.Equal(t, 2, row.Attempts)

	_, err = relay.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestOutboxRelay_OverlappingRunsDeliverOnce(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	event := statusEvent(nil)
	require.NoError(t, NewOutboxPublisher(db).Publish(ctx, event))

	var calls atomic.Int32
	slow := EventHandlerFunc(func(context.Context, JobCardEvent) error {
		calls.Add(1)
		time.Sleep(200 * time.Millisecond)
		return nil
	})
	relay := NewOutboxRelay(db, NewDispatcher(zap.NewNop(), slow), 3, 10, zap.NewNop())

	var wg sync.WaitGroup
	var delivered atomic.Int32
	start := make(chan struct{})
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			n, err := relay.DispatchPending(ctx)
			assert.NoError(t, err)
			delivered.Add(int32(n))
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(1), delivered.Load())

	var row models.OutboxEvent
	require.NoError(t, db.First(&row, "id = ?", event.ID).Error)
	assert.Equal(t, models.OutboxDelivered, row.Status)
	assert.Equal(t, 1, row.Attempts)
	assert.Nil(t, row.ClaimedAt)
}

func TestOutboxRelay_ClaimedEventSkipped(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	event := statusEvent(nil)
	require.NoError(t, NewOutboxPublisher(db).Publish(ctx, event))

	calls := 0
	count := EventHandlerFunc(func(context.Context, JobCardEvent) error {
		calls++
		return nil
	})
	relay := NewOutboxRelay(db, NewDispatcher(zap.NewNop(), count), 3, 10, zap.NewNop())

	claimed, err := relay.claim(db, event.ID)
	require.NoError(t, err)
	require.True(t, claimed)
	claimed, err = relay.claim(db, event.ID)
	require.NoError(t, err)
	assert.False(t, claimed)

	n, err := relay.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, calls)

	// a claim older than the timeout is taken back
	relay.now = func() time.Time { return time.Now().Add(claimTimeout + time.Minute) }
	n, err = relay.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, calls)
}

func TestJobCardService_OutboxEndToEnd(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	customer := seedUser(t, db, "rider@shop.test", models.RoleCustomer)
	svc := newTestService(db, NewOutboxPublisher(db))

	card, err := svc.Create(ctx, adminID, CreateJobCard{
		Customer:    models.LinkedCustomer(customer.ID),
		Description: "Full service",
	})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, adminID, card.ID, "in_progress")
	require.NoError(t, err)

	relay := NewOutboxRelay(db, NewDispatcher(zap.NewNop(), NewAlertWriter(db)), 3, 10, zap.NewNop())
	n, err := relay.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var alerts []models.CustomerAlert
	require.NoError(t, db.Where("user_id = ?", customer.ID).Order("id").Find(&alerts).Error)
	require.Len(t, alerts, 2)
	assert.Equal(t, "Service job card #1 created: Full service", alerts[0].Message)
	assert.Equal(t, "Your service job card #1 status changed to: In Progress", alerts[1].Message)
}

func TestAlertWriter_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	customer := seedUser(t, db, "rider@shop.test", models.RoleCustomer)
	writer := NewAlertWriter(db)

	event := statusEvent(&customer.ID)
	require.NoError(t, writer.Handle(ctx, event))
	require.NoError(t, writer.Handle(ctx, event))

	var count int64
	require.NoError(t, db.Model(&models.CustomerAlert{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, writer.Handle(ctx, statusEvent(nil)))
	require.NoError(t, db.Model(&models.CustomerAlert{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDispatcher_JoinsHandlerErrors(t *testing.T) {
	var seen []string
	ok := EventHandlerFunc(func(context.Context, JobCardEvent) error {
		seen = append(seen, "ok")
		return nil
	})
	boom := errors.New("boom")
	bad := EventHandlerFunc(func(context.Context, JobCardEvent) error {
		seen = append(seen, "bad")
		return boom
	})

	err := NewDispatcher(zap.NewNop(), bad, ok).Dispatch(context.Background(), statusEvent(nil))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"bad", "ok"}, seen)
}

func TestStartOutboxRelay_InvalidSchedule(t *testing.T) {
	db := newTestDB(t)
	relay := NewOutboxRelay(db, NewDispatcher(zap.NewNop()), 1, 1, zap.NewNop())

	_, err := StartOutboxRelay(relay, "not a schedule", zap.NewNop())
	assert.Error(t, err)

	c, err := StartOutboxRelay(relay, "@every 1h", zap.NewNop())
	require.NoError(t, err)
	c.Stop()
}
