// Package sheets reads job listings from a published spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/project-tktt/community-hub/internal/common/parser"
	"github.com/project-tktt/community-hub/internal/domain"
	"github.com/project-tktt/community-hub/internal/module"
)

// DefaultJobsURL is the community jobs sheet published as CSV
const DefaultJobsURL = "https://docs.google.com/spreadsheets/d/e/2PACX-1vTXG1tfJqAN5IqlJqpvPWnOMVlCEKCYIgSfddrb30wZndYyn4rl2KSznKhx8D1GvdJmG040p1KA983u/pub?output=csv"

// ErrNoURL is returned when the sheet URL is not configured
var ErrNoURL = errors.New("jobs sheet URL is not configured")

// Client fetches job listings. The sheet host redirects published exports, so
// the fetcher behind loader must follow redirects.
type Client struct {
	loader *module.Loader
	parser *parser.Parser
	url    string
	logger *zap.Logger
}

// NewClient creates a jobs client for url
func NewClient(url string, loader *module.Loader, p *parser.Parser, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if p == nil {
		p = parser.New(nil, logger)
	}
	return &Client{loader: loader, parser: p, url: url, logger: logger}
}

func (c *Client) Source() domain.Source {
	return domain.SourceSheets
}

// GetJobs returns every listing with an id, title and company. Both the CSV
// export and the HTML publish view are accepted.
func (c *Client) GetJobs(ctx context.Context) ([]domain.Job, error) {
	if c.url == "" {
		return nil, ErrNoURL
	}

	var jobs []domain.Job
	err := c.loader.Load(ctx, c.url, func(b []byte) error {
		var err error
		if parser.LooksLikeHTML(b) {
			c.logger.Debug("jobs sheet returned html, parsing table")
			jobs, err = c.parser.ParseJobsHTML(b)
		} else {
			jobs, err = c.parser.ParseJobsCSV(b)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get jobs: %w", err)
	}
	return jobs, nil
}
