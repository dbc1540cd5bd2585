// Package metrics exposes Prometheus collectors for the fetch / cache / aggregation pipeline.
// A nil *Collectors is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "community_hub"

// Collectors groups every metric the pipeline records
type Collectors struct {
	FetchTotal        *prometheus.CounterVec
	FetchDuration     prometheus.Histogram
	CacheLookups      *prometheus.CounterVec
	RateLimited       *prometheus.CounterVec
	SourceFailures    *prometheus.CounterVec
	AggregateDuration prometheus.Histogram
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) (*Collectors, error) {
	c := &Collectors{
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Remote document fetches by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Latency of remote document fetches.",
			Buckets:   prometheus.DefBuckets,
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Document cache lookups by result.",
		}, []string{"result"}),
		RateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests refused by a rate limit, by origin (local pre-check or remote 429).",
		}, []string{"origin"}),
		SourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_failures_total",
			Help:      "Data sources that failed after retries during homepage assembly.",
		}, []string{"source"}),
		AggregateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "homepage_fetch_duration_seconds",
			Help:      "Time spent assembling homepage data.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		}),
	}

	for _, col := range []prometheus.Collector{
		c.FetchTotal, c.FetchDuration, c.CacheLookups,
		c.RateLimited, c.SourceFailures, c.AggregateDuration,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collectors) ObserveFetch(outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.FetchTotal.WithLabelValues(outcome).Inc()
	c.FetchDuration.Observe(d.Seconds())
}

func (c *Collectors) CacheHit() {
	if c == nil {
		return
	}
	c.CacheLookups.WithLabelValues("hit").Inc()
}

func (c *Collectors) CacheMiss() {
	if c == nil {
		return
	}
	c.CacheLookups.WithLabelValues("miss").Inc()
}

func (c *Collectors) RateLimitedLocal() {
	if c == nil {
		return
	}
	c.RateLimited.WithLabelValues("local").Inc()
}

func (c *Collectors) RateLimitedRemote() {
	if c == nil {
		return
	}
	c.RateLimited.WithLabelValues("remote").Inc()
}

func (c *Collectors) SourceFailed(source string) {
	if c == nil {
		return
	}
	c.SourceFailures.WithLabelValues(source).Inc()
}

func (c *Collectors) ObserveAggregate(d time.Duration) {
	if c == nil {
		return
	}
	c.AggregateDuration.Observe(d.Seconds())
}
