// Package fetcher performs bounded-timeout GET requests against remote document hosts
// and classifies every failure into a small, typed taxonomy.
package fetcher

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/project-tktt/community-hub/internal/metrics"
)

const (
	// DefaultTimeout is the hard per-request abort
	DefaultTimeout = 15 * time.Second
	// DefaultUserAgent identifies the hub to upstream hosts
	DefaultUserAgent = "TWS-Community-Hub/2.0"

	AcceptJSON = "application/json"
	AcceptCSV  = "text/csv"
)

// Limiter gates outgoing requests. Allow records the request when it returns true.
type Limiter interface {
	Allow() (bool, time.Time)
}

// Config holds fetcher configuration
type Config struct {
	Timeout         time.Duration
	UserAgent       string
	Accept          string
	FollowRedirects bool
	// Limiter is consulted before every request when set
	Limiter   Limiter
	Transport http.RoundTripper
	Logger    *zap.Logger
	Metrics   *metrics.Collectors
}

// Fetcher issues GET requests for remote documents
type Fetcher struct {
	client  *http.Client
	config  Config
	logger  *zap.Logger
	metrics *metrics.Collectors
}

// New creates a fetcher. Unset fields fall back to the package defaults.
func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	client := &http.Client{Transport: cfg.Transport}
	if !cfg.FollowRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return &Fetcher{
		client:  client,
		config:  cfg,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}
}

// Fetch GETs url and returns the response body
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if f.config.Limiter != nil {
		ok, resetAt := f.config.Limiter.Allow()
		if !ok {
			f.metrics.RateLimitedLocal()
			f.logger.Warn("local rate limit exceeded, request not sent",
				zap.String("url", url),
				zap.Time("resets_at", resetAt),
			)
			return nil, &Error{Kind: KindRateLimited, URL: url, ResetAt: resetAt}
		}
	}

	start := time.Now()
	body, err := f.do(ctx, url)
	outcome := "ok"
	if err != nil {
		outcome = string(KindOf(err))
	}
	f.metrics.ObserveFetch(outcome, time.Since(start))
	if err != nil {
		return nil, err
	}

	f.logger.Debug("fetched document", zap.String("url", url), zap.Int("bytes", len(body)))
	return body, nil
}

func (f *Fetcher) do(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Kind: KindNetworkError, URL: url, Cause: err}
	}
	f.setHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, f.statusError(url, resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(url, err)
	}

	if strings.TrimSpace(string(body)) == "" {
		return nil, &Error{Kind: KindEmptyPayload, URL: url, Status: resp.StatusCode}
	}

	return body, nil
}

func (f *Fetcher) statusError(url string, resp *http.Response) *Error {
	switch resp.StatusCode {
	case http.StatusNotFound:
		return &Error{Kind: KindNotFound, URL: url, Status: resp.StatusCode}
	case http.StatusTooManyRequests:
		resetAt := parseResetHeader(resp.Header.Get("X-RateLimit-Reset"))
		f.metrics.RateLimitedRemote()
		f.logger.Warn("remote host rejected request with 429",
			zap.String("url", url),
			zap.Time("resets_at", resetAt),
		)
		return &Error{Kind: KindRateLimited, URL: url, Status: resp.StatusCode, Remote: true, ResetAt: resetAt}
	default:
		return &Error{Kind: KindHTTPError, URL: url, Status: resp.StatusCode}
	}
}

func (f *Fetcher) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", f.config.UserAgent)
	if f.config.Accept != "" {
		req.Header.Set("Accept", f.config.Accept)
	}
}

func classifyTransportError(url string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, URL: url, Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, URL: url, Cause: err}
	}
	return &Error{Kind: KindNetworkError, URL: url, Cause: err}
}

// parseResetHeader reads a unix-seconds reset header; zero when absent or malformed
func parseResetHeader(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(secs, 0)
}
