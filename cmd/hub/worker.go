package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/project-tktt/community-hub/internal/common/cleaner"
	"github.com/project-tktt/community-hub/internal/common/indexer"
	"github.com/project-tktt/community-hub/internal/config"
	"github.com/project-tktt/community-hub/internal/module/worker"
	"github.com/project-tktt/community-hub/internal/queue"
)

var workerConcurrency int

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume published snapshots and index them",
	Long:  `Read snapshots from the Redis queue, clean them and write questions and jobs to Elasticsearch or PostgreSQL depending on INDEXER_BACKEND.`,
	RunE:  runWorker,
}

func init() {
	workerCmd.Flags().IntVar(&workerConcurrency, "concurrency", 2, "Number of concurrent consumers")
	rootCmd.AddCommand(workerCmd)
}

// newIndexer opens the configured backend. The returned func releases it.
func newIndexer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (indexer.Indexer, func(), error) {
	switch cfg.Indexer.Backend {
	case "postgres":
		pg, err := indexer.NewPostgresIndexer(ctx, cfg.Postgres.ConnectionString, cfg.Postgres.TablePrefix, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres connection failed: %w", err)
		}
		logger.Info("postgres connected", zap.String("table_prefix", cfg.Postgres.TablePrefix))
		return pg, func() { _ = pg.Close() }, nil
	default:
		es, err := indexer.NewElasticsearchIndexer(cfg.Elasticsearch.Addresses, cfg.Elasticsearch.Index, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("elasticsearch connection failed: %w", err)
		}
		logger.Info("elasticsearch connected",
			zap.String("questions_index", es.QuestionsIndex()),
			zap.String("jobs_index", es.JobsIndex()),
		)
		if err := es.EnsureIndex(ctx); err != nil {
			logger.Warn("failed to ensure index", zap.Error(err))
		}
		return es, func() {}, nil
	}
}

func runWorker(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	rdb, err := newRedisClient(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()
	logger.Info("redis connected")

	idx, release, err := newIndexer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer release()

	consumer := queue.NewConsumer(rdb, cfg.Redis.SnapshotQueue, 5*time.Second, logger)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		w := worker.NewWorker(consumer, cleaner.NewCleaner(), idx, worker.Config{
			Concurrency: workerConcurrency,
			BatchSize:   cfg.Indexer.BatchSize,
		}, logger)
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("worker error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	logger.Info("shutdown signal received, stopping")
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("graceful shutdown complete")
	case <-time.After(30 * time.Second):
		logger.Warn("shutdown timeout, forcing exit")
	}
	return nil
}
