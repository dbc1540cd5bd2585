package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/project-tktt/community-hub/internal/domain"
)

// Consumer consumes snapshots from Redis queue
type Consumer struct {
	client    *redis.Client
	queueName string
	timeout   time.Duration
	logger    *zap.Logger
}

// NewConsumer creates a new queue consumer
func NewConsumer(client *redis.Client, queueName string, timeout time.Duration, logger *zap.Logger) *Consumer {
	if queueName == "" {
		queueName = DefaultQueue
	}
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{
		client:    client,
		queueName: queueName,
		timeout:   timeout,
		logger:    logger,
	}
}

// ErrMalformed wraps queue entries that are not valid snapshots
var ErrMalformed = errors.New("malformed snapshot")

// Consume blocks and waits for a snapshot from the queue.
// Returns nil, nil if timeout occurs with no snapshot.
func (c *Consumer) Consume(ctx context.Context) (*domain.Snapshot, error) {
	result, err := c.client.BRPop(ctx, c.timeout, c.queueName).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("brpop: %w", err)
	}

	if len(result) < 2 {
		return nil, nil
	}

	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(result[1]), &snap); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	return &snap, nil
}

// Run starts a continuous consumer loop. Handler and malformed-entry errors
// are logged and the loop continues.
func (c *Consumer) Run(ctx context.Context, handler func(context.Context, *domain.Snapshot) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		snap, err := c.Consume(ctx)
		if err != nil {
			if errors.Is(err, ErrMalformed) {
				c.logger.Warn("dropping malformed queue entry", zap.Error(err))
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("consume: %w", err)
		}

		if snap == nil {
			continue
		}

		if err := handler(ctx, snap); err != nil {
			c.logger.Error("snapshot handler failed", zap.String("snapshot_id", snap.ID), zap.Error(err))
		}
	}
}
