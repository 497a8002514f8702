// services/redis_stream.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	streamBlock   = 5 * time.Second
	streamBatch   = 20
	streamMinIdle = time.Minute
)

// RedisStreamPublisher appends events to a Redis stream.
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
}

func NewRedisStreamPublisher(client *redis.Client, stream string) *RedisStreamPublisher {
	return &RedisStreamPublisher{client: client, stream: stream}
}

func (p *RedisStreamPublisher) Publish(ctx context.Context, event JobCardEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"id":   event.ID,
			"type": string(event.Type),
			"data": string(payload),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}

// StreamConsumer reads events with a consumer group and dispatches them.
// Messages whose dispatch fails stay pending and are reclaimed once they have
// been idle for minIdle, until they have been delivered maxAttempts times.
type StreamConsumer struct {
	client      *redis.Client
	stream      string
	group       string
	consumer    string
	maxAttempts int
	minIdle     time.Duration
	dispatcher  *Dispatcher
	logger      *zap.Logger
}

func NewStreamConsumer(client *redis.Client, stream, group, consumer string, maxAttempts int, dispatcher *Dispatcher, logger *zap.Logger) *StreamConsumer {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &StreamConsumer{
		client:      client,
		stream:      stream,
		group:       group,
		consumer:    consumer,
		maxAttempts: maxAttempts,
		minIdle:     streamMinIdle,
		dispatcher:  dispatcher,
		logger:      logger,
	}
}

// EnsureGroup creates the stream and group if they are missing.
func (c *StreamConsumer) EnsureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create group %s: %w", c.group, err)
	}
	return nil
}

// Run consumes until ctx is cancelled.
func (c *StreamConsumer) Run(ctx context.Context) error {
	if err := c.EnsureGroup(ctx); err != nil {
		return err
	}
	c.logger.Info("stream consumer started", zap.String("stream", c.stream), zap.String("group", c.group))
	lastReclaim := time.Now()
	for {
		if _, err := c.ReadOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Warn("stream read failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
		}
		if time.Since(lastReclaim) >= c.minIdle {
			if _, err := c.Reclaim(ctx); err != nil && ctx.Err() == nil {
				c.logger.Warn("stream reclaim failed", zap.Error(err))
			}
			lastReclaim = time.Now()
		}
	}
}

// ReadOnce reads one batch and returns how many messages were acknowledged.
func (c *StreamConsumer) ReadOnce(ctx context.Context) (int, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumer,
		Streams:  []string{c.stream, ">"},
		Count:    streamBatch,
		Block:    streamBlock,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}

	acked := 0
	for _, s := range streams {
		n, err := c.handle(ctx, s.Messages)
		acked += n
		if err != nil {
			return acked, err
		}
	}
	return acked, nil
}

// Reclaim takes over messages left unacknowledged for at least minIdle and
// dispatches them again. Messages already delivered maxAttempts times are
// acknowledged and dropped. It returns how many messages were acknowledged.
func (c *StreamConsumer) Reclaim(ctx context.Context) (int, error) {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.stream,
		Group:  c.group,
		Idle:   c.minIdle,
		Start:  "-",
		End:    "+",
		Count:  streamBatch,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("xpending %s: %w", c.stream, err)
	}

	acked := 0
	var retry []string
	for _, p := range pending {
		if p.RetryCount < int64(c.maxAttempts) {
			retry = append(retry, p.ID)
			continue
		}
		c.logger.Error("stream message gave up",
			zap.String("message_id", p.ID),
			zap.Int64("deliveries", p.RetryCount))
		if err := c.client.XAck(ctx, c.stream, c.group, p.ID).Err(); err != nil {
			return acked, fmt.Errorf("xack %s: %w", p.ID, err)
		}
		acked++
	}
	if len(retry) == 0 {
		return acked, nil
	}

	msgs, err := c.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   c.stream,
		Group:    c.group,
		Consumer: c.consumer,
		MinIdle:  c.minIdle,
		Messages: retry,
	}).Result()
	if err != nil {
		return acked, fmt.Errorf("xclaim %s: %w", c.stream, err)
	}
	n, err := c.handle(ctx, msgs)
	return acked + n, err
}

// handle dispatches messages and acknowledges the ones that succeeded or can
// never succeed.
func (c *StreamConsumer) handle(ctx context.Context, msgs []redis.XMessage) (int, error) {
	acked := 0
	for _, msg := range msgs {
		data, _ := msg.Values["data"].(string)
		var event JobCardEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			// undecodable messages would block the group forever
			c.logger.Error("dropping malformed stream message", zap.String("message_id", msg.ID), zap.Error(err))
		} else if err := c.dispatcher.Dispatch(ctx, event); err != nil {
			c.logger.Warn("stream message dispatch failed", zap.String("message_id", msg.ID), zap.Error(err))
			continue
		}
		if err := c.client.XAck(ctx, c.stream, c.group, msg.ID).Err(); err != nil {
			return acked, fmt.Errorf("xack %s: %w", msg.ID, err)
		}
		acked++
	}
	return acked, nil
}
