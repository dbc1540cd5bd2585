// Package parser decodes remote CSV, HTML-table and JSON documents into domain records.
package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/project-tktt/community-hub/internal/common/cleaner"
	"github.com/project-tktt/community-hub/internal/domain"
)

// ErrNoHeader is returned for documents without a header row
var ErrNoHeader = errors.New("document has no header row")

// Parser converts raw document bodies into records
type Parser struct {
	cleaner *cleaner.Cleaner
	logger  *zap.Logger
}

// New creates a parser. A nil cleaner defaults to the strict cleaner.
func New(cl *cleaner.Cleaner, logger *zap.Logger) *Parser {
	if cl == nil {
		cl = cleaner.NewCleaner()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{cleaner: cl, logger: logger}
}

// table is a header-keyed view over CSV (or HTML table) rows
type table struct {
	columns map[string]int
	rows    [][]string
}

func (t *table) has(col string) bool {
	_, ok := t.columns[col]
	return ok
}

func (t *table) get(row []string, col string) string {
	i, ok := t.columns[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func newTable(header []string, rows [][]string) *table {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if key == "" {
			continue
		}
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}
	return &table{columns: cols, rows: rows}
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
}

// readCSV reads every record. Malformed rows are logged and skipped.
func (p *Parser) readCSV(data []byte) (*table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var rows [][]string
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				p.logger.Warn("skipping malformed csv row", zap.Int("line", perr.Line), zap.Error(err))
				continue
			}
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		if isBlankRow(rec) {
			continue
		}
		rows = append(rows, rec)
	}

	return newTable(header, rows), nil
}

func isBlankRow(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ParseQuestionsCSV decodes the legacy interview-questions CSV. Header names
// are case- and order-insensitive. Fields are only trimmed. Rows without
// question text are dropped and missing optional fields get sentinel defaults.
func (p *Parser) ParseQuestionsCSV(data []byte) ([]domain.InterviewQuestion, error) {
	t, err := p.readCSV(data)
	if err != nil {
		return nil, err
	}
	if !t.has("question") {
		return nil, fmt.Errorf("missing %q column", "question")
	}

	questions := make([]domain.InterviewQuestion, 0, len(t.rows))
	for _, row := range t.rows {
		// question text is kept verbatim; it routinely contains literal <tags>
		text := t.get(row, "question")
		if text == "" {
			continue
		}
		questions = append(questions, domain.InterviewQuestion{
			Company:     orDefault(t.get(row, "company"), domain.DefaultCompany),
			Year:        orDefault(t.get(row, "year"), domain.DefaultYear),
			Contributor: domain.AnonymousContributor(orDefault(t.get(row, "contributor"), domain.DefaultContributor)),
			Role:        orDefault(t.get(row, "role"), domain.DefaultRole),
			Experience:  orDefault(t.get(row, "experience"), domain.DefaultExperience),
			Topic:       orDefault(t.get(row, "topic"), domain.DefaultTopic),
			Question:    text,
		})
	}
	return questions, nil
}

// ParseJobsCSV decodes the jobs spreadsheet export
func (p *Parser) ParseJobsCSV(data []byte) ([]domain.Job, error) {
	t, err := p.readCSV(data)
	if err != nil {
		return nil, err
	}
	return p.jobsFromTable(t), nil
}

// jobsFromTable maps rows to jobs, discarding rows without id, title or company
func (p *Parser) jobsFromTable(t *table) []domain.Job {
	jobs := make([]domain.Job, 0, len(t.rows))
	for _, row := range t.rows {
		job := domain.Job{
			ID:         normalizeID(t.get(row, "id")),
			Title:      p.cleaner.CleanText(t.get(row, "title")),
			Company:    p.cleaner.CleanText(t.get(row, "company")),
			Location:   p.cleaner.CleanText(t.get(row, "location")),
			Experience: p.cleaner.CleanText(t.get(row, "experience")),
			Type:       p.cleaner.CleanText(t.get(row, "type")),
			PostedDate: t.get(row, "posteddate"),
			ApplyLink:  p.cleaner.CleanURL(t.get(row, "applylink")),
		}
		if err := job.Validate(); err != nil {
			p.logger.Debug("discarding incomplete job row", zap.String("id", job.ID), zap.Error(err))
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs
}

// normalizeID turns spreadsheet-formatted integers ("12.0") into "12"
func normalizeID(id string) string {
	if strings.HasSuffix(id, ".0") && isDigits(strings.TrimSuffix(id, ".0")) {
		return strings.TrimSuffix(id, ".0")
	}
	return id
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
