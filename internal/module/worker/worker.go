// Package worker consumes published snapshots and writes them to the configured index.
package worker

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/project-tktt/community-hub/internal/common/cleaner"
	"github.com/project-tktt/community-hub/internal/common/indexer"
	"github.com/project-tktt/community-hub/internal/domain"
)

// Consumer is the queue side the worker reads from
type Consumer interface {
	Run(ctx context.Context, handler func(context.Context, *domain.Snapshot) error) error
}

// Worker processes snapshots from queue and indexes to storage
type Worker struct {
	consumer Consumer
	cleaner  *cleaner.Cleaner
	indexer  indexer.Indexer
	logger   *zap.Logger

	batchSize   int
	concurrency int
}

// Config holds worker configuration
type Config struct {
	Concurrency int
	BatchSize   int
}

// NewWorker creates a new worker
func NewWorker(consumer Consumer, clean *cleaner.Cleaner, idx indexer.Indexer, cfg Config, logger *zap.Logger) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if clean == nil {
		clean = cleaner.NewCleaner()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Worker{
		consumer:    consumer,
		cleaner:     clean,
		indexer:     idx,
		logger:      logger,
		batchSize:   cfg.BatchSize,
		concurrency: cfg.Concurrency,
	}
}

// Run starts the worker pool and blocks until ctx is done or a consumer fails
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("starting worker pool", zap.Int("workers", w.concurrency))

	var wg sync.WaitGroup
	errChan := make(chan error, w.concurrency)

	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			err := w.consumer.Run(ctx, w.Handle)
			if err != nil && ctx.Err() == nil {
				errChan <- fmt.Errorf("worker %d: %w", workerID, err)
			}
			w.logger.Debug("worker stopped", zap.Int("worker", workerID))
		}(i)
	}

	// Wait for all workers or context cancellation
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		<-done
		return ctx.Err()
	case err := <-errChan:
		return err
	case <-done:
		return nil
	}
}

// Handle indexes one snapshot. Question text is indexed verbatim; only tags
// are sanitized.
func (w *Worker) Handle(ctx context.Context, snap *domain.Snapshot) error {
	log := w.logger.With(zap.String("snapshot_id", snap.ID))
	questions := w.cleanQuestions(snap.Questions)

	for start := 0; start < len(questions); start += w.batchSize {
		end := min(start+w.batchSize, len(questions))
		if err := w.indexer.IndexQuestions(ctx, snap.ID, questions[start:end]); err != nil {
			return fmt.Errorf("index questions: %w", err)
		}
	}
	for start := 0; start < len(snap.Jobs); start += w.batchSize {
		end := min(start+w.batchSize, len(snap.Jobs))
		if err := w.indexer.IndexJobs(ctx, snap.ID, snap.Jobs[start:end]); err != nil {
			return fmt.Errorf("index jobs: %w", err)
		}
	}

	log.Info("indexed snapshot",
		zap.Int("questions", len(questions)),
		zap.Int("jobs", len(snap.Jobs)),
		zap.Time("taken_at", snap.TakenAt),
	)
	return nil
}

func (w *Worker) cleanQuestions(in []domain.InterviewQuestion) []domain.InterviewQuestion {
	out := make([]domain.InterviewQuestion, 0, len(in))
	for _, q := range in {
		q.Question = strings.TrimSpace(q.Question)
		if q.Question == "" {
			w.logger.Debug("dropping blank question", zap.String("company", q.Company))
			continue
		}
		q.Tags = w.cleaner.CleanTags(q.Tags)
		out = append(out, q)
	}
	return out
}
