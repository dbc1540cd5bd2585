// Package server exposes the aggregated data and the view layer over a read-only JSON API.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/project-tktt/community-hub/internal/domain"
	"github.com/project-tktt/community-hub/internal/module/github"
	"github.com/project-tktt/community-hub/internal/view"
)

// Service provides the aggregated records
type Service interface {
	GetAllInterviewQuestions(ctx context.Context) ([]domain.InterviewQuestion, error)
	// GetInterviewQuestions may narrow loading to a year or company
	GetInterviewQuestions(ctx context.Context, year, company string) ([]domain.InterviewQuestion, error)
	GetJobs(ctx context.Context) ([]domain.Job, error)
	GetHomePageData(ctx context.Context) (*domain.HomePageData, error)
}

// Repository is the index-backed question repository. It is optional.
type Repository interface {
	GetFilterOptionsFromIndex(ctx context.Context) (*github.IndexFilterOptions, error)
	GetContributors(ctx context.Context) *domain.ContributorsData
}

// Clearer drops cached documents
type Clearer interface {
	Clear(ctx context.Context) error
}

// Options configures the server
type Options struct {
	PageSize int
	// Repository enables index-backed filter options and the contributors leaderboard
	Repository Repository
	Cache      Clearer
	Gatherer   prometheus.Gatherer
	Logger     *zap.Logger
}

// Server handles HTTP requests
type Server struct {
	svc      Service
	repo     Repository
	cache    Clearer
	gatherer prometheus.Gatherer
	pageSize int
	logger   *zap.Logger
}

// New creates a server
func New(svc Service, opts Options) *Server {
	if opts.PageSize <= 0 {
		opts.PageSize = view.DefaultPageSize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		svc:      svc,
		repo:     opts.Repository,
		cache:    opts.Cache,
		gatherer: opts.Gatherer,
		pageSize: opts.PageSize,
		logger:   opts.Logger,
	}
}

// Handler builds the router
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger(s.logger))

	router.Get("/healthz", s.health)
	router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	router.Route("/api", func(r chi.Router) {
		r.Get("/home", s.home)
		r.Get("/jobs", s.jobs)
		r.Get("/contributors", s.contributors)
		r.Post("/refresh", s.refresh)

		r.Route("/questions", func(r chi.Router) {
			r.Get("/", s.questions)
			r.Get("/filters", s.filters)
			r.Get("/export.csv", s.export)
		})
	})

	return router
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// loadQuestions never fails; errors degrade to an empty list. Only the year
// and company facets of f narrow the load.
func (s *Server) loadQuestions(r *http.Request, f view.Filter) []domain.InterviewQuestion {
	qs, err := s.svc.GetInterviewQuestions(r.Context(), narrowing(f.Year), narrowing(f.Company))
	if err != nil {
		s.logger.Warn("interview questions unavailable", zap.String("path", r.URL.Path), zap.Error(err))
		return []domain.InterviewQuestion{}
	}
	return qs
}

// parseQuery reads facets, search text and page from the query string
func parseQuery(r *http.Request) view.Query {
	v := r.URL.Query()
	page, _ := strconv.Atoi(v.Get("page"))
	return view.Query{
		Filter: view.Filter{
			Company:     v.Get("company"),
			Year:        v.Get("year"),
			Role:        v.Get("role"),
			Experience:  v.Get("experience"),
			Topic:       v.Get("topic"),
			Contributor: v.Get("contributor"),
			Difficulty:  v.Get("difficulty"),
		},
		Search: v.Get("q"),
		Page:   page,
	}
}

func narrowing(facet string) string {
	if strings.EqualFold(facet, view.AllValues) {
		return ""
	}
	return facet
}

func (s *Server) questions(w http.ResponseWriter, r *http.Request) {
	q := parseQuery(r)
	result := view.Run(s.loadQuestions(r, q.Filter), q, s.pageSize)
	writeJSON(w, http.StatusOK, result)
}

type filtersResponse struct {
	view.FilterOptions
	Index *github.IndexFilterOptions `json:"index,omitempty"`
}

func (s *Server) filters(w http.ResponseWriter, r *http.Request) {
	resp := filtersResponse{FilterOptions: view.Options(s.loadQuestions(r, view.Filter{}))}
	if s.repo != nil {
		idx, err := s.repo.GetFilterOptionsFromIndex(r.Context())
		if err != nil {
			s.logger.Warn("index filter options unavailable", zap.Error(err))
		} else {
			resp.Index = idx
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	q := parseQuery(r)
	matched := view.Search(q.Filter.Apply(s.loadQuestions(r, q.Filter)), q.Search)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="interview-questions.csv"`)
	if err := view.ExportCSV(w, matched); err != nil {
		s.logger.Warn("csv export interrupted", zap.Error(err))
	}
}

func (s *Server) jobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.svc.GetJobs(r.Context())
	if err != nil {
		s.logger.Warn("jobs unavailable", zap.Error(err))
		jobs = []domain.Job{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	data, err := s.svc.GetHomePageData(r.Context())
	if err != nil {
		s.logger.Warn("homepage data unavailable", zap.Error(err))
		data = &domain.HomePageData{
			InterviewQuestions: []domain.InterviewQuestion{},
			Jobs:               []domain.Job{},
		}
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) contributors(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeJSON(w, http.StatusOK, domain.FallbackContributors(timeNow()))
		return
	}
	writeJSON(w, http.StatusOK, s.repo.GetContributors(r.Context()))
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	if s.cache != nil {
		if err := s.cache.Clear(r.Context()); err != nil {
			s.logger.Error("cache clear failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "refresh failed"})
			return
		}
	}
	s.logger.Info("cache cleared")
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

var timeNow = time.Now
