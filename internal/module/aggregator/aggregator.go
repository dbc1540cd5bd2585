// Package aggregator assembles homepage data from the question and job sources.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/project-tktt/community-hub/internal/common/fetcher"
	"github.com/project-tktt/community-hub/internal/domain"
	"github.com/project-tktt/community-hub/internal/metrics"
	"github.com/project-tktt/community-hub/internal/module"
	"github.com/project-tktt/community-hub/internal/retry"
)

// ErrAllSourcesFailed is returned when no source produced data
var ErrAllSourcesFailed = errors.New("all homepage data sources failed")

// FailurePolicy decides when a failing source fails homepage assembly
type FailurePolicy int

const (
	// FailWhenAllFail substitutes an empty list for a failing source and
	// errors only when every source failed
	FailWhenAllFail FailurePolicy = iota
	// FailOnAny errors as soon as one source failed
	FailOnAny
	// NeverFail always returns data, possibly with both lists empty
	NeverFail
)

func (p FailurePolicy) String() string {
	switch p {
	case FailOnAny:
		return "fail_on_any"
	case NeverFail:
		return "never_fail"
	default:
		return "fail_when_all_fail"
	}
}

// ParseFailurePolicy maps a config string to a policy; unknown values give
// the default
func ParseFailurePolicy(s string) FailurePolicy {
	switch s {
	case "fail_on_any":
		return FailOnAny
	case "never_fail":
		return NeverFail
	default:
		return FailWhenAllFail
	}
}

// Config holds aggregation configuration
type Config struct {
	Policy FailurePolicy
	Retry  retry.Config
}

// DefaultConfig retries each source 3 times starting at 1s
func DefaultConfig() Config {
	return Config{Policy: FailWhenAllFail, Retry: retry.DefaultConfig()}
}

// Aggregator combines sources under a retry and failure policy
type Aggregator struct {
	questions module.QuestionSource
	jobs      module.JobSource
	config    Config
	logger    *zap.Logger
	metrics   *metrics.Collectors
}

// New creates an aggregator
func New(questions module.QuestionSource, jobs module.JobSource, cfg Config, logger *zap.Logger, m *metrics.Collectors) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		questions: questions,
		jobs:      jobs,
		config:    cfg,
		logger:    logger,
		metrics:   m,
	}
}

func (a *Aggregator) retryConfig(source domain.Source) retry.Config {
	cfg := a.config.Retry
	cfg.OnRetry = func(attempt int, err error, wait time.Duration) {
		a.logger.Warn("source attempt failed, retrying",
			zap.String("source", string(source)),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}
	return cfg
}

// permanent stops retrying fetch failures a repeat request cannot fix
func permanent[T any](fn func(context.Context) (T, error)) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		v, err := fn(ctx)
		var fe *fetcher.Error
		if errors.As(err, &fe) && !fe.Retryable() {
			return v, retry.NonRetryable(err)
		}
		return v, err
	}
}

// GetAllInterviewQuestions loads questions with retry
func (a *Aggregator) GetAllInterviewQuestions(ctx context.Context) ([]domain.InterviewQuestion, error) {
	return retry.DoWithResult(ctx, a.retryConfig(a.questions.Source()), permanent(a.questions.GetAllInterviewQuestions))
}

// GetInterviewQuestions loads the questions a year or company facet can match.
// Partitioned sources fetch only the matching partitions, by year when both
// are given; the caller still applies every facet. Empty values load everything.
func (a *Aggregator) GetInterviewQuestions(ctx context.Context, year, company string) ([]domain.InterviewQuestion, error) {
	ps, ok := a.questions.(module.PartitionedSource)
	if !ok || (year == "" && company == "") {
		return a.GetAllInterviewQuestions(ctx)
	}

	load := func(ctx context.Context) ([]domain.InterviewQuestion, error) {
		if year != "" {
			return ps.GetQuestionsByYear(ctx, year)
		}
		return ps.GetQuestionsByCompany(ctx, company)
	}
	return retry.DoWithResult(ctx, a.retryConfig(a.questions.Source()), permanent(load))
}

// GetJobs loads job listings with retry
func (a *Aggregator) GetJobs(ctx context.Context) ([]domain.Job, error) {
	return retry.DoWithResult(ctx, a.retryConfig(a.jobs.Source()), permanent(a.jobs.GetJobs))
}

// GetHomePageData fetches questions and jobs concurrently and applies the
// failure policy
func (a *Aggregator) GetHomePageData(ctx context.Context) (*domain.HomePageData, error) {
	start := time.Now()
	defer func() { a.metrics.ObserveAggregate(time.Since(start)) }()

	var (
		questions      []domain.InterviewQuestion
		jobs           []domain.Job
		questionsError error
		jobsError      error
	)

	var g errgroup.Group
	g.Go(func() error {
		questions, questionsError = a.GetAllInterviewQuestions(ctx)
		return nil
	})
	g.Go(func() error {
		jobs, jobsError = a.GetJobs(ctx)
		return nil
	})
	_ = g.Wait()

	if questionsError != nil {
		a.sourceFailed(a.questions.Source(), questionsError)
		questions = []domain.InterviewQuestion{}
	}
	if jobsError != nil {
		a.sourceFailed(a.jobs.Source(), jobsError)
		jobs = []domain.Job{}
	}

	switch a.config.Policy {
	case FailOnAny:
		if questionsError != nil {
			return nil, fmt.Errorf("interview questions: %w", questionsError)
		}
		if jobsError != nil {
			return nil, fmt.Errorf("jobs: %w", jobsError)
		}
	case FailWhenAllFail:
		if questionsError != nil && jobsError != nil {
			return nil, fmt.Errorf("%w: interview questions: %w; jobs: %w", ErrAllSourcesFailed, questionsError, jobsError)
		}
	}

	a.logger.Info("assembled homepage data",
		zap.Int("questions", len(questions)),
		zap.Int("jobs", len(jobs)),
		zap.Duration("took", time.Since(start)),
	)
	return &domain.HomePageData{InterviewQuestions: questions, Jobs: jobs}, nil
}

func (a *Aggregator) sourceFailed(source domain.Source, err error) {
	a.metrics.SourceFailed(string(source))
	a.logger.Warn("source failed, substituting empty list",
		zap.String("source", string(source)),
		zap.String("policy", a.config.Policy.String()),
		zap.Error(err),
	)
}
