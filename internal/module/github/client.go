// Package github reads the interview-questions repository through its raw-file host:
// an index manifest, per (year, company) partition documents and the contributors leaderboard.
package github

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/project-tktt/community-hub/internal/common/clock"
	"github.com/project-tktt/community-hub/internal/common/parser"
	"github.com/project-tktt/community-hub/internal/domain"
	"github.com/project-tktt/community-hub/internal/module"
)

const (
	// RawHost serves repository files verbatim
	RawHost = "https://raw.githubusercontent.com"

	IndexPath        = "index.json"
	ContributorsPath = "contributors.json"
)

// RawBaseURL builds the raw-file base for a repository branch
func RawBaseURL(owner, repo, branch string) string {
	return fmt.Sprintf("%s/%s/%s/%s", RawHost, owner, repo, branch)
}

// PartitionPolicy decides what a failed partition fetch does to the whole call
type PartitionPolicy int

const (
	// PartitionTolerate drops failed partitions and logs them
	PartitionTolerate PartitionPolicy = iota
	// PartitionStrict fails the call when any partition fails
	PartitionStrict
)

func (p PartitionPolicy) String() string {
	if p == PartitionStrict {
		return "strict"
	}
	return "tolerate"
}

// Config holds repository coordinates
type Config struct {
	// BaseURL overrides the raw base derived from Owner/Repo/Branch
	BaseURL string
	Owner   string
	Repo    string
	Branch  string
	Policy  PartitionPolicy
	// MaxConcurrent bounds parallel partition fetches; 0 means unbounded
	MaxConcurrent int
}

// Client reads question documents from the repository
type Client struct {
	loader *module.Loader
	parser *parser.Parser
	base   string
	config Config
	clock  clock.Clock
	logger *zap.Logger
}

// NewClient creates a repository client
func NewClient(cfg Config, loader *module.Loader, p *parser.Parser, c clock.Clock, logger *zap.Logger) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = RawBaseURL(cfg.Owner, cfg.Repo, cfg.Branch)
	}
	if p == nil {
		p = parser.New(nil, logger)
	}
	if c == nil {
		c = clock.Real{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		loader: loader,
		parser: p,
		base:   strings.TrimRight(base, "/"),
		config: cfg,
		clock:  c,
		logger: logger,
	}
}

// Source returns the source identifier
func (c *Client) Source() domain.Source {
	return domain.SourceGitHubJSON
}

// URL resolves a repository path against the raw base
func (c *Client) URL(path string) string {
	return c.base + "/" + strings.TrimLeft(path, "/")
}

// GetIndex returns the repository manifest
func (c *Client) GetIndex(ctx context.Context) (*domain.IndexData, error) {
	var idx *domain.IndexData
	err := c.loader.Load(ctx, c.URL(IndexPath), func(b []byte) error {
		var err error
		idx, err = c.parser.ParseIndex(b)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get index: %w", err)
	}
	if sum := idx.CountSum(); sum != idx.TotalQuestions {
		c.logger.Warn("index total does not match partition counts",
			zap.Int("total_questions", idx.TotalQuestions),
			zap.Int("partition_sum", sum),
		)
	}
	return idx, nil
}

// GetCompanyQuestions returns one partition with company and year stamped
// onto every question
func (c *Client) GetCompanyQuestions(ctx context.Context, year, company string) ([]domain.InterviewQuestion, error) {
	path := domain.PartitionPath(year, company)
	var doc *domain.PartitionDocument
	err := c.loader.Load(ctx, c.URL(path), func(b []byte) error {
		var err error
		doc, err = c.parser.ParsePartition(b)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get partition %s: %w", path, err)
	}

	docCompany, docYear := doc.Company, doc.Year
	if docCompany == "" {
		docCompany = company
	}
	if docYear == "" {
		docYear = year
	}

	questions := make([]domain.InterviewQuestion, len(doc.Questions))
	for i, q := range doc.Questions {
		q.Company = docCompany
		q.Year = docYear
		questions[i] = q
	}
	return questions, nil
}

// GetAllInterviewQuestions loads every partition listed in the index
func (c *Client) GetAllInterviewQuestions(ctx context.Context) ([]domain.InterviewQuestion, error) {
	idx, err := c.GetIndex(ctx)
	if err != nil {
		return nil, err
	}
	return c.fetchPartitions(ctx, idx.Files)
}

// GetQuestionsByYear loads only the partitions for year
func (c *Client) GetQuestionsByYear(ctx context.Context, year string) ([]domain.InterviewQuestion, error) {
	idx, err := c.GetIndex(ctx)
	if err != nil {
		return nil, err
	}
	return c.fetchPartitions(ctx, selectFiles(idx.Files, func(f domain.QuestionFile) bool {
		return f.Year == year
	}))
}

// GetQuestionsByCompany loads only the partitions for company, across years
func (c *Client) GetQuestionsByCompany(ctx context.Context, company string) ([]domain.InterviewQuestion, error) {
	idx, err := c.GetIndex(ctx)
	if err != nil {
		return nil, err
	}
	return c.fetchPartitions(ctx, selectFiles(idx.Files, func(f domain.QuestionFile) bool {
		return f.Company == company
	}))
}

func selectFiles(files []domain.QuestionFile, keep func(domain.QuestionFile) bool) []domain.QuestionFile {
	out := make([]domain.QuestionFile, 0, len(files))
	for _, f := range files {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

// fetchPartitions fetches files concurrently and merges them in index order.
// A failing partition never cancels its siblings.
func (c *Client) fetchPartitions(ctx context.Context, files []domain.QuestionFile) ([]domain.InterviewQuestion, error) {
	results := make([][]domain.InterviewQuestion, len(files))
	errs := make([]error, len(files))

	var g errgroup.Group
	if c.config.MaxConcurrent > 0 {
		g.SetLimit(c.config.MaxConcurrent)
	}
	for i, f := range files {
		g.Go(func() error {
			year, company, err := f.Coordinates()
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i], errs[i] = c.GetCompanyQuestions(ctx, year, company)
			return nil
		})
	}
	_ = g.Wait()

	var merged []domain.InterviewQuestion
	failed := 0
	for i, f := range files {
		if err := errs[i]; err != nil {
			if c.config.Policy == PartitionStrict {
				return nil, err
			}
			failed++
			c.logger.Warn("skipping failed partition", zap.String("path", f.Path), zap.Error(err))
			continue
		}
		if got := len(results[i]); got != f.Count {
			c.logger.Warn("partition count mismatch",
				zap.String("path", f.Path),
				zap.Int("advertised", f.Count),
				zap.Int("fetched", got),
			)
		}
		merged = append(merged, results[i]...)
	}

	c.logger.Debug("merged partitions",
		zap.Int("partitions", len(files)),
		zap.Int("failed", failed),
		zap.Int("questions", len(merged)),
	)
	if merged == nil {
		merged = []domain.InterviewQuestion{}
	}
	return merged, nil
}

// IndexFilterOptions are facet values read straight from the index metadata
type IndexFilterOptions struct {
	Companies      []string `json:"companies"`
	Years          []string `json:"years"`
	Topics         []string `json:"topics"`
	TotalQuestions int      `json:"totalQuestions"`
}

// GetFilterOptionsFromIndex returns sorted facet values without loading partitions.
// Years are newest first.
func (c *Client) GetFilterOptionsFromIndex(ctx context.Context) (*IndexFilterOptions, error) {
	idx, err := c.GetIndex(ctx)
	if err != nil {
		return nil, err
	}
	years := sortedCopy(idx.Metadata.Years)
	sort.Sort(sort.Reverse(sort.StringSlice(years)))
	return &IndexFilterOptions{
		Companies:      sortedCopy(idx.Metadata.Companies),
		Years:          years,
		Topics:         sortedCopy(idx.Metadata.Topics),
		TotalQuestions: idx.TotalQuestions,
	}, nil
}

func sortedCopy(in []string) []string {
	out := append([]string{}, in...)
	sort.Strings(out)
	return out
}

// GetContributors returns the leaderboard, or a fixed placeholder list when
// the document cannot be loaded
func (c *Client) GetContributors(ctx context.Context) *domain.ContributorsData {
	var doc *domain.ContributorsData
	err := c.loader.Load(ctx, c.URL(ContributorsPath), func(b []byte) error {
		var err error
		doc, err = c.parser.ParseContributors(b)
		return err
	})
	if err != nil {
		c.logger.Warn("contributors unavailable, using placeholder list", zap.Error(err))
		return domain.FallbackContributors(c.clock.Now())
	}
	return doc
}
