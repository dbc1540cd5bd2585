package domain

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is one published aggregation result, consumed by the index worker
type Snapshot struct {
	ID        string              `json:"id"`
	TakenAt   time.Time           `json:"taken_at"`
	Questions []InterviewQuestion `json:"questions"`
	Jobs      []Job               `json:"jobs"`
}

// NewSnapshot wraps homepage data for publishing
func NewSnapshot(data *HomePageData, takenAt time.Time) *Snapshot {
	return &Snapshot{
		ID:        uuid.NewString(),
		TakenAt:   takenAt,
		Questions: data.InterviewQuestions,
		Jobs:      data.Jobs,
	}
}
