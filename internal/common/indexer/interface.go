// Package indexer writes snapshot contents to search and relational storage.
package indexer

import (
	"context"
	"time"

	"github.com/project-tktt/community-hub/internal/domain"
)

// Indexer defines the interface for snapshot indexing backends
type Indexer interface {
	// IndexQuestions upserts questions keyed by their stable id
	IndexQuestions(ctx context.Context, snapshotID string, questions []domain.InterviewQuestion) error
	// IndexJobs upserts job listings keyed by id
	IndexJobs(ctx context.Context, snapshotID string, jobs []domain.Job) error
}

// QuestionDocument is the flattened, storage-ready form of a question
type QuestionDocument struct {
	ID              string    `json:"id"`
	Company         string    `json:"company"`
	Year            string    `json:"year"`
	Role            string    `json:"role"`
	Experience      string    `json:"experience"`
	Topic           string    `json:"topic"`
	Question        string    `json:"question"`
	Difficulty      string    `json:"difficulty,omitempty"`
	ContributorKey  string    `json:"contributor_key"`
	ContributorName string    `json:"contributor_name"`
	Tags            []string  `json:"tags"`
	SnapshotID      string    `json:"snapshot_id"`
	IndexedAt       time.Time `json:"indexed_at"`
}

// NewQuestionDocument flattens q; the contributor union becomes key and display name
func NewQuestionDocument(q *domain.InterviewQuestion, snapshotID string, at time.Time) QuestionDocument {
	tags := q.Tags
	if tags == nil {
		tags = []string{}
	}
	return QuestionDocument{
		ID:              q.StableID(),
		Company:         q.Company,
		Year:            q.Year,
		Role:            q.Role,
		Experience:      q.Experience,
		Topic:           q.Topic,
		Question:        q.Question,
		Difficulty:      string(q.Difficulty),
		ContributorKey:  q.Contributor.Key(),
		ContributorName: q.Contributor.DisplayName(),
		Tags:            tags,
		SnapshotID:      snapshotID,
		IndexedAt:       at,
	}
}

// JobDocument is a job listing tagged with the snapshot it came from
type JobDocument struct {
	domain.Job
	SnapshotID string    `json:"snapshot_id"`
	IndexedAt  time.Time `json:"indexed_at"`
}
