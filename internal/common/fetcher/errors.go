package fetcher

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies a fetch failure
type Kind string

const (
	KindTimeout      Kind = "timeout"
	KindRateLimited  Kind = "rate_limited"
	KindNotFound     Kind = "not_found"
	KindHTTPError    Kind = "http_error"
	KindNetworkError Kind = "network_error"
	KindEmptyPayload Kind = "empty_payload"
	KindParseError   Kind = "parse_error"
)

// Error represents a failure fetching or decoding a remote document
type Error struct {
	Kind   Kind
	URL    string
	Status int
	// Remote is set when a rate limit was reported by the server (HTTP 429)
	// rather than by the local pre-check.
	Remote  bool
	ResetAt time.Time
	Cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s fetching %s", e.Kind, e.URL)
	switch {
	case e.Kind == KindRateLimited && !e.ResetAt.IsZero():
		msg += fmt.Sprintf(" (resets at %s)", e.ResetAt.UTC().Format(time.RFC3339))
	case e.Status != 0:
		msg += fmt.Sprintf(": HTTP %d %s", e.Status, http.StatusText(e.Status))
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the same request may succeed later
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindRateLimited, KindNetworkError:
		return true
	case KindHTTPError:
		return e.Status >= 500
	default:
		return false
	}
}

// KindOf extracts the Kind from err, or "" when err is not a fetch error
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// NewParseError wraps a decode failure for url
func NewParseError(url string, cause error) *Error {
	return &Error{Kind: KindParseError, URL: url, Cause: cause}
}
