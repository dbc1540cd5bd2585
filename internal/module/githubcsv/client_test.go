package githubcsv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/project-tktt/community-hub/internal/common/clock"
	"github.com/project-tktt/community-hub/internal/common/fetcher"
	"github.com/project-tktt/community-hub/internal/common/ratelimit"
	"github.com/project-tktt/community-hub/internal/domain"
	"github.com/project-tktt/community-hub/internal/module"
)

const devopsCSV = "company,year,contributor,role,experience,topic,question\n" +
	"Acme,2024,alice,SRE,3,Kubernetes,What is a pod?\n" +
	"Globex,2023,,,,,\n" +
	",,,,,,Explain blue/green deployments\n"

func TestGetDevOpsQuestions(t *testing.T) {
	var gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/"+DevOpsPath {
			http.NotFound(w, r)
			return
		}
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte(devopsCSV))
	}))
	defer server.Close()

	f := fetcher.New(fetcher.Config{Accept: fetcher.AcceptCSV})
	c := NewClient(server.URL, module.NewLoader(f, nil, nil, nil), nil, nil)

	qs, err := c.GetAllInterviewQuestions(context.Background())
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, fetcher.AcceptCSV, gotAccept)

	assert.Equal(t, "alice", qs[0].Contributor.Key())
	assert.Equal(t, "Kubernetes", qs[0].Topic)
	assert.Equal(t, domain.DefaultCompany, qs[1].Company)
	assert.Equal(t, domain.DefaultContributor, qs[1].Contributor.Key())
	assert.Equal(t, domain.SourceGitHubCSV, c.Source())
}

func TestGetDevOpsQuestions_RateLimitedWithoutNetwork(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(devopsCSV))
	}))
	defer server.Close()

	limiter := ratelimit.NewWindow(1, time.Hour, clock.NewFake(time.Unix(0, 0)))
	f := fetcher.New(fetcher.Config{Limiter: limiter})
	// separate loaders so the second call misses the cache
	first := NewClient(server.URL, module.NewLoader(f, nil, nil, nil), nil, nil)
	second := NewClient(server.URL, module.NewLoader(f, nil, nil, nil), nil, nil)

	_, err := first.GetDevOpsQuestions(context.Background())
	require.NoError(t, err)

	_, err = second.GetDevOpsQuestions(context.Background())
	assert.Equal(t, fetcher.KindRateLimited, fetcher.KindOf(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestGetDevOpsQuestions_MalformedIsParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("company,year\nAcme,2024\n"))
	}))
	defer server.Close()

	c := NewClient(server.URL, module.NewLoader(fetcher.New(fetcher.Config{}), nil, nil, nil), nil, nil)
	_, err := c.GetDevOpsQuestions(context.Background())
	assert.Equal(t, fetcher.KindParseError, fetcher.KindOf(err))
}
