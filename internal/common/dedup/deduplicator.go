// Package dedup remembers which snapshot contents were already published.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/project-tktt/community-hub/internal/domain"
)

// DefaultTTL is how long a published fingerprint is remembered
const DefaultTTL = 30 * 24 * time.Hour

// Deduplicator tracks the last published fingerprint per queue in Redis
type Deduplicator struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewDeduplicator creates a new Redis-based deduplicator
func NewDeduplicator(client *redis.Client, prefix string, ttl time.Duration) *Deduplicator {
	if prefix == "" {
		prefix = "hub:published"
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Deduplicator{client: client, prefix: prefix, ttl: ttl}
}

// CheckResult represents the result of checking a snapshot
type CheckResult int

const (
	// ResultNew - nothing was published to the stream yet
	ResultNew CheckResult = iota
	// ResultUpdated - content differs from the last publish
	ResultUpdated
	// ResultUnchanged - content matches the last publish
	ResultUnchanged
)

func (r CheckResult) String() string {
	switch r {
	case ResultUpdated:
		return "updated"
	case ResultUnchanged:
		return "unchanged"
	default:
		return "new"
	}
}

// Fingerprint hashes the records of a snapshot. ID and timestamp are ignored,
// so two aggregations of identical upstream data share a fingerprint.
func Fingerprint(snap *domain.Snapshot) (string, error) {
	payload, err := json.Marshal(struct {
		Questions []domain.InterviewQuestion `json:"questions"`
		Jobs      []domain.Job               `json:"jobs"`
	}{snap.Questions, snap.Jobs})
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	h := sha256.Sum256(payload)
	return hex.EncodeToString(h[:16]), nil
}

// Check compares fingerprint with the last one marked for stream
func (d *Deduplicator) Check(ctx context.Context, stream, fingerprint string) (CheckResult, error) {
	stored, err := d.client.Get(ctx, d.makeKey(stream)).Result()
	if errors.Is(err, redis.Nil) {
		return ResultNew, nil
	}
	if err != nil {
		return ResultNew, fmt.Errorf("redis get: %w", err)
	}
	if stored != fingerprint {
		return ResultUpdated, nil
	}
	return ResultUnchanged, nil
}

// Mark records fingerprint as the last published content of stream
func (d *Deduplicator) Mark(ctx context.Context, stream, fingerprint string) error {
	if err := d.client.Set(ctx, d.makeKey(stream), fingerprint, d.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (d *Deduplicator) makeKey(stream string) string {
	return fmt.Sprintf("%s:%s", d.prefix, stream)
}
