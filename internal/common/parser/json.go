package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/project-tktt/community-hub/internal/domain"
)

var (
	ErrMissingFiles        = errors.New("index document has no files list")
	ErrMissingQuestions    = errors.New("partition document has no questions list")
	ErrMissingContributors = errors.New("contributors document has no contributors list")
)

// decodeStrict decodes a single JSON value into v and rejects trailing data
func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON document")
	}
	return nil
}

// ParseIndex decodes the index manifest
func (p *Parser) ParseIndex(data []byte) (*domain.IndexData, error) {
	var idx domain.IndexData
	if err := decodeStrict(data, &idx); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	if idx.Files == nil {
		return nil, ErrMissingFiles
	}
	return &idx, nil
}

// ParsePartition decodes one partition document. Questions without text are dropped.
func (p *Parser) ParsePartition(data []byte) (*domain.PartitionDocument, error) {
	var doc domain.PartitionDocument
	if err := decodeStrict(data, &doc); err != nil {
		return nil, fmt.Errorf("decode partition: %w", err)
	}
	if doc.Questions == nil {
		return nil, ErrMissingQuestions
	}

	kept := doc.Questions[:0]
	for _, q := range doc.Questions {
		if !q.HasText() {
			p.logger.Debug("dropping question without text",
				zap.String("company", doc.Company),
				zap.String("year", doc.Year),
			)
			continue
		}
		kept = append(kept, q)
	}
	doc.Questions = kept
	return &doc, nil
}

// ParseContributors decodes the contributors leaderboard
func (p *Parser) ParseContributors(data []byte) (*domain.ContributorsData, error) {
	var doc domain.ContributorsData
	if err := decodeStrict(data, &doc); err != nil {
		return nil, fmt.Errorf("decode contributors: %w", err)
	}
	if doc.Contributors == nil {
		return nil, ErrMissingContributors
	}
	return &doc, nil
}
