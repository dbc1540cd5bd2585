package domain

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Job represents a job posting from the jobs spreadsheet
type Job struct {
	ID         string `json:"id" validate:"required"`
	Title      string `json:"title" validate:"required"`
	Company    string `json:"company" validate:"required"`
	Location   string `json:"location"`
	Experience string `json:"experience"`
	Type       string `json:"type"`
	PostedDate string `json:"postedDate"`
	ApplyLink  string `json:"applyLink"`
}

// Validate checks the fields a listing cannot be shown without
func (j *Job) Validate() error {
	return validate.Struct(j)
}

// Source identifies where a record came from
type Source string

const (
	SourceGitHubJSON Source = "github_json"
	SourceGitHubCSV  Source = "github_csv"
	SourceSheets     Source = "google_sheets"
)
