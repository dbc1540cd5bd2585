// Package queue moves aggregation snapshots between the publisher and the index worker over a Redis list.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/project-tktt/community-hub/internal/domain"
)

// DefaultQueue is the list snapshots are pushed to
const DefaultQueue = "hub:snapshots"

// Publisher pushes snapshots to Redis queue
type Publisher struct {
	client    *redis.Client
	queueName string
}

// NewPublisher creates a new queue publisher
func NewPublisher(client *redis.Client, queueName string) *Publisher {
	if queueName == "" {
		queueName = DefaultQueue
	}
	return &Publisher{
		client:    client,
		queueName: queueName,
	}
}

// Publish pushes a single snapshot to the queue
func (p *Publisher) Publish(ctx context.Context, snap *domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := p.client.LPush(ctx, p.queueName, data).Err(); err != nil {
		return fmt.Errorf("lpush: %w", err)
	}

	return nil
}

// QueueLength returns the current queue length
func (p *Publisher) QueueLength(ctx context.Context) (int64, error) {
	return p.client.LLen(ctx, p.queueName).Result()
}
