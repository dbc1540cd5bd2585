package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/project-tktt/community-hub/internal/common/cache"
	"github.com/project-tktt/community-hub/internal/common/clock"
	"github.com/project-tktt/community-hub/internal/common/cleaner"
	"github.com/project-tktt/community-hub/internal/common/fetcher"
	"github.com/project-tktt/community-hub/internal/common/parser"
	"github.com/project-tktt/community-hub/internal/common/ratelimit"
	"github.com/project-tktt/community-hub/internal/config"
	"github.com/project-tktt/community-hub/internal/metrics"
	"github.com/project-tktt/community-hub/internal/module"
	"github.com/project-tktt/community-hub/internal/module/aggregator"
	"github.com/project-tktt/community-hub/internal/module/github"
	"github.com/project-tktt/community-hub/internal/module/githubcsv"
	"github.com/project-tktt/community-hub/internal/module/sheets"
	"github.com/project-tktt/community-hub/internal/retry"
)

// app holds the components shared by every subcommand
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Collectors
	redis    *redis.Client
	store    cache.Store

	aggregator *aggregator.Aggregator
	// repo is nil when questions come from the legacy CSV file
	repo *github.Client
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// setup loads and validates configuration and builds the logger
func setup() (*config.Config, *zap.Logger, error) {
	cfg := config.Load()
	warnings, err := cfg.Validate()
	if err != nil {
		return nil, nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	for _, w := range warnings {
		logger.Warn("configuration warning", zap.String("detail", w))
	}
	return cfg, logger, nil
}

func newRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return rdb, nil
}

// newApp wires fetchers, caches and sources into an aggregator
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}

	m, err := metrics.New(a.registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	a.metrics = m

	switch cfg.Cache.Backend {
	case "redis":
		rdb, err := newRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.redis = rdb
		a.store = cache.NewRedisStore(rdb, cfg.Cache.Prefix, cfg.Cache.TTL)
	default:
		a.store = cache.NewMemory(cfg.Cache.TTL, clock.Real{})
	}

	p := parser.New(cleaner.NewCleaner(), logger)

	jsonFetcher, csvFetcher := newRawFetchers(cfg.Fetch, logger, m, clock.Real{})

	var questions module.QuestionSource
	if cfg.Repo.UseCSV {
		base := github.RawBaseURL(cfg.Repo.Owner, cfg.Repo.Name, cfg.Repo.Branch)
		loader := module.NewLoader(csvFetcher, a.store, logger, m)
		questions = githubcsv.NewClient(base, loader, p, logger)
	} else {
		policy := github.PartitionTolerate
		if cfg.Repo.StrictPartitions {
			policy = github.PartitionStrict
		}
		a.repo = github.NewClient(github.Config{
			Owner:         cfg.Repo.Owner,
			Repo:          cfg.Repo.Name,
			Branch:        cfg.Repo.Branch,
			Policy:        policy,
			MaxConcurrent: cfg.Fetch.MaxConcurrency,
		}, module.NewLoader(jsonFetcher, a.store, logger, m), p, clock.Real{}, logger)
		questions = a.repo
	}

	sheet := fetcher.New(fetcher.Config{
		Timeout:         cfg.Fetch.Timeout,
		Accept:          fetcher.AcceptCSV,
		FollowRedirects: true,
		Logger:          logger.Named("sheets"),
		Metrics:         m,
	})
	jobs := sheets.NewClient(cfg.Jobs.SheetURL, module.NewLoader(sheet, a.store, logger, m), p, logger)

	a.aggregator = aggregator.New(questions, jobs, aggregator.Config{
		Policy: aggregator.ParseFailurePolicy(cfg.Fetch.FailurePolicy),
		Retry: retry.Config{
			MaxAttempts:  cfg.Fetch.RetryAttempts,
			InitialDelay: cfg.Fetch.RetryDelay,
			Multiplier:   2,
		},
	}, logger, m)

	logger.Info("hub configured",
		zap.String("repo", cfg.Repo.Owner+"/"+cfg.Repo.Name+"@"+cfg.Repo.Branch),
		zap.Bool("csv", cfg.Repo.UseCSV),
		zap.String("cache", cfg.Cache.Backend),
		zap.String("failure_policy", cfg.Fetch.FailurePolicy),
	)
	return a, nil
}

// newRawFetchers builds the raw-host fetchers. Only the legacy CSV path is
// rate limited; index and partition fetches are not, since one pass issues a
// request per partition.
func newRawFetchers(cfg config.FetchConfig, logger *zap.Logger, m *metrics.Collectors, c clock.Clock) (jsonFetcher, csvFetcher *fetcher.Fetcher) {
	jsonFetcher = fetcher.New(fetcher.Config{
		Timeout: cfg.Timeout,
		Accept:  fetcher.AcceptJSON,
		Logger:  logger.Named("raw"),
		Metrics: m,
	})
	csvFetcher = fetcher.New(fetcher.Config{
		Timeout: cfg.Timeout,
		Accept:  fetcher.AcceptCSV,
		Limiter: ratelimit.NewWindow(cfg.RateLimit, cfg.RateWindow, c),
		Logger:  logger.Named("raw_csv"),
		Metrics: m,
	})
	return jsonFetcher, csvFetcher
}

func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	_ = a.logger.Sync()
}
