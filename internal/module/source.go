// Package module holds the remote data sources and the contracts they share.
package module

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/project-tktt/community-hub/internal/common/cache"
	"github.com/project-tktt/community-hub/internal/common/fetcher"
	"github.com/project-tktt/community-hub/internal/domain"
	"github.com/project-tktt/community-hub/internal/metrics"
)

// QuestionSource is the common interface for interview question backends
type QuestionSource interface {
	// GetAllInterviewQuestions returns every question the source holds
	GetAllInterviewQuestions(ctx context.Context) ([]domain.InterviewQuestion, error)
	// Source returns the source identifier
	Source() domain.Source
}

// PartitionedSource can load the questions of one year or one company
// without fetching the rest of the repository
type PartitionedSource interface {
	QuestionSource
	GetQuestionsByYear(ctx context.Context, year string) ([]domain.InterviewQuestion, error)
	GetQuestionsByCompany(ctx context.Context, company string) ([]domain.InterviewQuestion, error)
}

// JobSource is the common interface for job listing backends
type JobSource interface {
	GetJobs(ctx context.Context) ([]domain.Job, error)
	Source() domain.Source
}

// Fetcher retrieves a remote document body
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Loader reads documents through a cache. A document is cached only after
// it decodes successfully.
type Loader struct {
	fetcher Fetcher
	cache   cache.Store
	logger  *zap.Logger
	metrics *metrics.Collectors
}

// NewLoader creates a loader. A nil store gets a fresh in-memory cache.
func NewLoader(f Fetcher, store cache.Store, logger *zap.Logger, m *metrics.Collectors) *Loader {
	if store == nil {
		store = cache.NewMemory(cache.DefaultTTL, nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{fetcher: f, cache: store, logger: logger, metrics: m}
}

// Load fetches url (or reads it from cache) and hands the body to decode.
// Decode failures surface as fetcher.KindParseError.
func (l *Loader) Load(ctx context.Context, url string, decode func([]byte) error) error {
	if body, ok := l.cached(ctx, url); ok {
		err := decode(body)
		if err == nil {
			return nil
		}
		l.logger.Warn("cached document no longer decodes, refetching", zap.String("url", url), zap.Error(err))
	}

	start := time.Now()
	body, err := l.fetcher.Fetch(ctx, url)
	if err != nil {
		return err
	}
	if err := decode(body); err != nil {
		return fetcher.NewParseError(url, err)
	}

	if err := l.cache.Put(ctx, url, body); err != nil {
		l.logger.Warn("cache write failed", zap.String("url", url), zap.Error(err))
	}
	l.logger.Info("loaded document",
		zap.String("url", url),
		zap.Int("bytes", len(body)),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// Clear drops every cached document
func (l *Loader) Clear(ctx context.Context) error {
	return l.cache.Clear(ctx)
}

func (l *Loader) cached(ctx context.Context, url string) ([]byte, bool) {
	body, ok, err := l.cache.Get(ctx, url)
	if err != nil {
		l.logger.Warn("cache read failed", zap.String("url", url), zap.Error(err))
		return nil, false
	}
	if !ok {
		l.metrics.CacheMiss()
		return nil, false
	}
	l.metrics.CacheHit()
	return body, true
}
