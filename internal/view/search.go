package view

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"

	"github.com/project-tktt/community-hub/internal/domain"
)

// SearchThreshold is the worst normalized edit distance still counted as a match
const SearchThreshold = 0.3

var searchParams = levenshtein.NewParams()

// Score returns the best normalized edit distance between query and any
// same-length window of text, in [0, 1]. 0 is an exact substring match.
func Score(text, query string) float64 {
	q := []rune(strings.ToLower(strings.TrimSpace(query)))
	t := []rune(strings.ToLower(text))
	if len(q) == 0 {
		return 0
	}
	if len(t) == 0 {
		return 1
	}
	if len(t) <= len(q) {
		d := levenshtein.Distance(string(t), string(q), searchParams)
		return normalize(d, len(q))
	}

	best := len(q)
	qs := string(q)
	for i := 0; i+len(q) <= len(t); i++ {
		d := levenshtein.Distance(string(t[i:i+len(q)]), qs, searchParams)
		if d < best {
			best = d
			if best == 0 {
				break
			}
		}
	}
	return normalize(best, len(q))
}

func normalize(d, n int) float64 {
	s := float64(d) / float64(n)
	if s > 1 {
		return 1
	}
	return s
}

// questionScore is the best score over the searchable fields
func questionScore(q *domain.InterviewQuestion, query string) float64 {
	best := 1.0
	for _, field := range []string{q.Question, q.Topic, q.Company, q.Role} {
		if s := Score(field, query); s < best {
			best = s
		}
	}
	return best
}

// Search keeps questions scoring within SearchThreshold, best first. Ties keep
// source order. A blank query returns questions unchanged.
func Search(questions []domain.InterviewQuestion, query string) []domain.InterviewQuestion {
	if strings.TrimSpace(query) == "" {
		return questions
	}

	type hit struct {
		index int
		score float64
	}
	hits := make([]hit, 0, len(questions))
	for i := range questions {
		if s := questionScore(&questions[i], query); s <= SearchThreshold {
			hits = append(hits, hit{index: i, score: s})
		}
	}
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].score < hits[b].score
	})

	out := make([]domain.InterviewQuestion, len(hits))
	for i, h := range hits {
		out[i] = questions[h.index]
	}
	return out
}
