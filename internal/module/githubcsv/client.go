// Package githubcsv reads the legacy CSV question files from the repository raw-file host.
package githubcsv

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/project-tktt/community-hub/internal/common/parser"
	"github.com/project-tktt/community-hub/internal/domain"
	"github.com/project-tktt/community-hub/internal/module"
)

// DevOpsPath is the only published category file
const DevOpsPath = "devops/interview-questions.csv"

// Client fetches and parses CSV question files
type Client struct {
	loader *module.Loader
	parser *parser.Parser
	base   string
	logger *zap.Logger
}

// NewClient creates a CSV client rooted at base (see github.RawBaseURL)
func NewClient(base string, loader *module.Loader, p *parser.Parser, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if p == nil {
		p = parser.New(nil, logger)
	}
	return &Client{
		loader: loader,
		parser: p,
		base:   strings.TrimRight(base, "/"),
		logger: logger,
	}
}

func (c *Client) Source() domain.Source {
	return domain.SourceGitHubCSV
}

// GetDevOpsQuestions returns the DevOps category
func (c *Client) GetDevOpsQuestions(ctx context.Context) ([]domain.InterviewQuestion, error) {
	return c.getCategory(ctx, DevOpsPath)
}

// GetAllInterviewQuestions returns every category. DevOps is currently the only one.
func (c *Client) GetAllInterviewQuestions(ctx context.Context) ([]domain.InterviewQuestion, error) {
	return c.GetDevOpsQuestions(ctx)
}

func (c *Client) getCategory(ctx context.Context, path string) ([]domain.InterviewQuestion, error) {
	var questions []domain.InterviewQuestion
	err := c.loader.Load(ctx, c.base+"/"+path, func(b []byte) error {
		var err error
		questions, err = c.parser.ParseQuestionsCSV(b)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	return questions, nil
}
