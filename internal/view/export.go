package view

import (
	"encoding/csv"
	"io"

	"github.com/project-tktt/community-hub/internal/domain"
)

// ExportHeader is the column order of ExportCSV
var ExportHeader = []string{"Company", "Year", "Role", "Experience", "Topic", "Question", "Contributor"}

// ExportCSV writes questions as CSV, one row per question
func ExportCSV(w io.Writer, questions []domain.InterviewQuestion) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for i := range questions {
		q := &questions[i]
		if err := cw.Write([]string{
			q.Company, q.Year, q.Role, q.Experience, q.Topic, q.Question, q.Contributor.DisplayName(),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
