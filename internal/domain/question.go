package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sentinel values filled into CSV rows with missing fields
const (
	DefaultCompany     = "Unknown"
	DefaultYear        = "N/A"
	DefaultContributor = "Anonymous"
	DefaultRole        = "N/A"
	DefaultExperience  = "N/A"
	DefaultTopic       = "General"
)

// Difficulty is an optional question rating
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// InterviewQuestion is one community-contributed question
type InterviewQuestion struct {
	ID            string      `json:"id,omitempty"`
	Company       string      `json:"company"`
	Year          string      `json:"year"`
	Role          string      `json:"role"`
	Experience    string      `json:"experience"`
	Topic         string      `json:"topic"`
	Question      string      `json:"question"`
	Difficulty    Difficulty  `json:"difficulty,omitempty"`
	Contributor   Contributor `json:"contributor"`
	ContributedAt string      `json:"contributedAt,omitempty"`
	Tags          []string    `json:"tags,omitempty"`
}

// HasText reports whether the question carries non-blank text
func (q *InterviewQuestion) HasText() bool {
	return strings.TrimSpace(q.Question) != ""
}

// StableID returns the source id, or a content hash when the source has none
func (q *InterviewQuestion) StableID() string {
	if q.ID != "" {
		return q.ID
	}
	h := sha256.Sum256([]byte(q.Company + "\x00" + q.Year + "\x00" + strings.TrimSpace(q.Question)))
	return hex.EncodeToString(h[:16])
}

// HomePageData is everything the landing page renders
type HomePageData struct {
	InterviewQuestions []InterviewQuestion `json:"interviewQuestions"`
	Jobs               []Job               `json:"jobs"`
}
