package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/project-tktt/community-hub/internal/common/clock"
	"github.com/project-tktt/community-hub/internal/common/ratelimit"
)

func TestFetch_Success(t *testing.T) {
	var gotUA, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	f := New(Config{Accept: AcceptJSON})
	body, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, DefaultUserAgent, gotUA)
	assert.Equal(t, AcceptJSON, gotAccept)
}

func TestFetch_StatusClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		kind      Kind
		retryable bool
	}{
		{"not found", http.StatusNotFound, KindNotFound, false},
		{"server error", http.StatusBadGateway, KindHTTPError, true},
		{"client error", http.StatusForbidden, KindHTTPError, false},
		{"too many requests", http.StatusTooManyRequests, KindRateLimited, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			_, err := New(Config{}).Fetch(context.Background(), server.URL)
			require.Error(t, err)

			var fe *Error
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.kind, fe.Kind)
			assert.Equal(t, tt.status, fe.Status)
			assert.Equal(t, tt.retryable, fe.Retryable())
		})
	}
}

func TestFetch_EmptyPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("   \n\t "))
	}))
	defer server.Close()

	_, err := New(Config{}).Fetch(context.Background(), server.URL)
	assert.Equal(t, KindEmptyPayload, KindOf(err))
}

func TestFetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	_, err := New(Config{Timeout: 50 * time.Millisecond}).Fetch(context.Background(), server.URL)
	assert.Equal(t, KindTimeout, KindOf(err), "got %v", err)
}

func TestFetch_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := New(Config{}).Fetch(context.Background(), url)
	assert.Equal(t, KindNetworkError, KindOf(err), "got %v", err)
}

func TestFetch_LocalRateLimitSkipsNetwork(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	limiter := ratelimit.NewWindow(2, time.Hour, clock.NewFake(time.Unix(0, 0)))
	f := New(Config{Limiter: limiter})

	// failed attempts still consume the window
	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	_, err = f.Fetch(context.Background(), server.URL)
	require.Error(t, err)

	_, err = f.Fetch(context.Background(), server.URL)
	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindRateLimited, fe.Kind)
	assert.False(t, fe.Remote)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestFetch_RemoteAndLocalRateLimitLoggedDistinctly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-RateLimit-Reset", "1700000000")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	core, logs := observer.New(zapcore.WarnLevel)
	limiter := ratelimit.NewWindow(1, time.Hour, clock.NewFake(time.Unix(0, 0)))
	f := New(Config{Limiter: limiter, Logger: zap.New(core)})

	_, err := f.Fetch(context.Background(), server.URL)
	var remote *Error
	require.ErrorAs(t, err, &remote)
	assert.True(t, remote.Remote)
	assert.Equal(t, time.Unix(1700000000, 0), remote.ResetAt)

	_, err = f.Fetch(context.Background(), server.URL)
	var local *Error
	require.ErrorAs(t, err, &local)
	assert.False(t, local.Remote)

	assert.Equal(t, 1, logs.FilterMessage("remote host rejected request with 429").Len())
	assert.Equal(t, 1, logs.FilterMessage("local rate limit exceeded, request not sent").Len())
}

func TestFetch_Redirects(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("id,title,company\n1,SRE,Acme\n"))
	}))
	defer target.Close()

	redirector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL, http.StatusTemporaryRedirect)
	}))
	defer redirector.Close()

	_, err := New(Config{}).Fetch(context.Background(), redirector.URL)
	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindHTTPError, fe.Kind)
	assert.Equal(t, http.StatusTemporaryRedirect, fe.Status)

	body, err := New(Config{FollowRedirects: true}).Fetch(context.Background(), redirector.URL)
	require.NoError(t, err)
	assert.Contains(t, string(body), "SRE")
}

func TestError_Message(t *testing.T) {
	err := &Error{Kind: KindHTTPError, URL: "https://example.com/x", Status: 500}
	assert.Contains(t, err.Error(), "HTTP 500")
	assert.Contains(t, err.Error(), "https://example.com/x")

	cause := errors.New("boom")
	wrapped := NewParseError("u", cause)
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, KindParseError, KindOf(wrapped))
	assert.Equal(t, Kind(""), KindOf(cause))
}
