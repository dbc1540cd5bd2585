// Package view filters, searches and paginates loaded interview questions.
package view

import (
	"strings"

	"github.com/project-tktt/community-hub/internal/domain"
)

// AllValues disables a facet
const AllValues = "all"

// Filter is a set of exact-match facets. Empty (or "all") facets match everything.
type Filter struct {
	Company     string `json:"company,omitempty"`
	Year        string `json:"year,omitempty"`
	Role        string `json:"role,omitempty"`
	Experience  string `json:"experience,omitempty"`
	Topic       string `json:"topic,omitempty"`
	Contributor string `json:"contributor,omitempty"`
	Difficulty  string `json:"difficulty,omitempty"`
}

func facetMatches(want, got string) bool {
	if want == "" || strings.EqualFold(want, AllValues) {
		return true
	}
	return want == got
}

// Matches reports whether q satisfies every facet
func (f Filter) Matches(q *domain.InterviewQuestion) bool {
	return facetMatches(f.Company, q.Company) &&
		facetMatches(f.Year, q.Year) &&
		facetMatches(f.Role, q.Role) &&
		facetMatches(f.Experience, q.Experience) &&
		facetMatches(f.Topic, q.Topic) &&
		facetMatches(f.Contributor, q.Contributor.Key()) &&
		facetMatches(f.Difficulty, string(q.Difficulty))
}

// Apply returns the matching questions in source order
func (f Filter) Apply(questions []domain.InterviewQuestion) []domain.InterviewQuestion {
	out := make([]domain.InterviewQuestion, 0, len(questions))
	for i := range questions {
		if f.Matches(&questions[i]) {
			out = append(out, questions[i])
		}
	}
	return out
}

// Query is a full view request: facets, free-text search and page number
type Query struct {
	Filter
	Search string `json:"q,omitempty"`
	Page   int    `json:"page,omitempty"`
}

// Changed reports whether the facets or the search text differ from prev.
// The page number is not part of the comparison.
func (q Query) Changed(prev Query) bool {
	return q.Filter != prev.Filter || strings.TrimSpace(q.Search) != strings.TrimSpace(prev.Search)
}

// Result is one rendered page of questions
type Result struct {
	Page[domain.InterviewQuestion]
	Query Query `json:"query"`
}

// Run filters, then searches the filtered subset, then paginates
func Run(questions []domain.InterviewQuestion, q Query, pageSize int) Result {
	matched := Search(q.Filter.Apply(questions), q.Search)
	page := Paginate(matched, q.Page, pageSize)
	q.Page = page.Number
	return Result{Page: page, Query: q}
}

// State tracks the current query across successive requests and resets the
// page whenever the criteria change
type State struct {
	query    Query
	pageSize int
}

// NewState creates a state with the given page size
func NewState(pageSize int) *State {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &State{query: Query{Page: 1}, pageSize: pageSize}
}

// Update applies next and returns the page to show
func (s *State) Update(next Query) Query {
	if next.Changed(s.query) {
		next.Page = 1
	}
	if next.Page < 1 {
		next.Page = 1
	}
	s.query = next
	return next
}

// Query returns the current query
func (s *State) Query() Query {
	return s.query
}

// Render runs the current query over questions
func (s *State) Render(questions []domain.InterviewQuestion) Result {
	return Run(questions, s.query, s.pageSize)
}
