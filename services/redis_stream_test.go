package services

import (
	"context"
	"os"
	"errors"
	"sync"
	"testing"
	"time"

	"motoshop-backend/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisStream_PublishAndConsume(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()
	stream := "test-jobcard-events-" + uuid.NewString()
	t.Cleanup(func() { client.Del(context.Background(), stream) })

	var mu sync.Mutex
	var got []JobCardEvent
	record := EventHandlerFunc(func(_ context.Context, e JobCardEvent) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e)
		return nil
	})

	consumer := NewStreamConsumer(client, stream, "notifier", "test-1", 3, NewDispatcher(zap.NewNop(), record), zap.NewNop())
	require.NoError(t, consumer.EnsureGroup(ctx))
	require.NoError(t, consumer.EnsureGroup(ctx))

	userID := uint(5)
	event := statusEvent(&userID)
	require.NoError(t, NewRedisStreamPublisher(client, stream).Publish(ctx, event))

	n, err := consumer.ReadOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, got, 1)
	assert.Equal(t, event.ID, got[0].ID)
	assert.Equal(t, models.JobCardCompleted, got[0].Status)

	pending, err := client.XPending(ctx, stream, "notifier").Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count)
}

func TestRedisStream_MalformedMessageAcked(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()
	stream := "test-jobcard-events-" + uuid.NewString()
	t.Cleanup(func() { client.Del(context.Background(), stream) })

	consumer := NewStreamConsumer(client, stream, "notifier", "test-1", 3, NewDispatcher(zap.NewNop()), zap.NewNop())
	require.NoError(t, consumer.EnsureGroup(ctx))
	require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{Stream: stream, Values: map[string]interface{}{"data": "{not json"}}).Err())

	n, err := consumer.ReadOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRedisStream_FailedDispatchReclaimed(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()
	stream := "test-jobcard-events-" + uuid.NewString()
	t.Cleanup(func() { client.Del(context.Background(), stream) })

	calls := 0
	flaky := EventHandlerFunc(func(context.Context, JobCardEvent) error {
		calls++
		if calls == 1 {
			return errors.New("database is locked")
		}
		return nil
	})
	consumer := NewStreamConsumer(client, stream, "notifier", "test-1", 3, NewDispatcher(zap.NewNop(), flaky), zap.NewNop())
	consumer.minIdle = 10 * time.Millisecond
	require.NoError(t, consumer.EnsureGroup(ctx))

	userID := uint(5)
	require.NoError(t, NewRedisStreamPublisher(client, stream).Publish(ctx, statusEvent(&userID)))

	n, err := consumer.ReadOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	time.Sleep(20 * time.Millisecond)
	n, err = consumer.Reclaim(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, calls)

	pending, err := client.XPending(ctx, stream, "notifier").Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count)
}

func TestRedisStream_GivesUpAfterMaxAttempts(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()
	stream := "test-jobcard-events-" + uuid.NewString()
	t.Cleanup(func() { client.Del(context.Background(), stream) })

	calls := 0
	failing := EventHandlerFunc(func(context.Context, JobCardEvent) error {
		calls++
		return errors.New("gateway timeout")
	})
	consumer := NewStreamConsumer(client, stream, "notifier", "test-1", 2, NewDispatcher(zap.NewNop(), failing), zap.NewNop())
	consumer.minIdle = 10 * time.Millisecond
	require.NoError(t, consumer.EnsureGroup(ctx))
	require.NoError(t, NewRedisStreamPublisher(client, stream).Publish(ctx, statusEvent(nil)))

	_, err := consumer.ReadOnce(ctx)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	n, err := consumer.Reclaim(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	time.Sleep(20 * time.Millisecond)
	n, err = consumer.Reclaim(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, calls)

	pending, err := client.XPending(ctx, stream, "notifier").Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count)
}
