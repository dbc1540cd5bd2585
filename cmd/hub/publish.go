package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/project-tktt/community-hub/internal/common/dedup"
	"github.com/project-tktt/community-hub/internal/domain"
	"github.com/project-tktt/community-hub/internal/queue"
)

var (
	publishQueue string
	publishForce bool
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Aggregate once and publish the snapshot to the index queue",
	RunE:  runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&publishQueue, "queue", "", "Queue name (defaults to REDIS_SNAPSHOT_QUEUE)")
	publishCmd.Flags().BoolVar(&publishForce, "force", false, "Publish even when the content matches the last snapshot")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	if publishQueue != "" {
		cfg.Redis.SnapshotQueue = publishQueue
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	rdb := a.redis
	if rdb == nil {
		rdb, err = newRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
	}

	data, err := a.aggregator.GetHomePageData(ctx)
	if err != nil {
		return fmt.Errorf("fetch homepage data: %w", err)
	}

	snap := domain.NewSnapshot(data, time.Now())
	fingerprint, err := dedup.Fingerprint(snap)
	if err != nil {
		return err
	}

	seen := dedup.NewDeduplicator(rdb, "", 0)
	result, err := seen.Check(ctx, cfg.Redis.SnapshotQueue, fingerprint)
	if err != nil {
		logger.Warn("dedup check failed, publishing anyway", zap.Error(err))
	}
	if result == dedup.ResultUnchanged && !publishForce {
		logger.Info("snapshot unchanged since last publish, skipping", zap.String("fingerprint", fingerprint))
		return nil
	}

	publisher := queue.NewPublisher(rdb, cfg.Redis.SnapshotQueue)
	if err := publisher.Publish(ctx, snap); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	if err := seen.Mark(ctx, cfg.Redis.SnapshotQueue, fingerprint); err != nil {
		logger.Warn("failed to record published fingerprint", zap.Error(err))
	}

	depth, err := publisher.QueueLength(ctx)
	if err != nil {
		logger.Warn("could not read queue length", zap.Error(err))
	}
	logger.Info("snapshot published",
		zap.String("snapshot_id", snap.ID),
		zap.String("content", result.String()),
		zap.Int("questions", len(snap.Questions)),
		zap.Int("jobs", len(snap.Jobs)),
		zap.String("queue", cfg.Redis.SnapshotQueue),
		zap.Int64("queue_length", depth),
	)
	return nil
}
