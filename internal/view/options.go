package view

import (
	"sort"

	"github.com/project-tktt/community-hub/internal/domain"
)

// FilterOptions lists the distinct facet values present in a question list
type FilterOptions struct {
	Companies    []string `json:"companies"`
	Years        []string `json:"years"`
	Roles        []string `json:"roles"`
	Experiences  []string `json:"experiences"`
	Topics       []string `json:"topics"`
	Contributors []string `json:"contributors"`
	Difficulties []string `json:"difficulties"`
}

type valueSet map[string]struct{}

func (s valueSet) add(v string) {
	if v != "" {
		s[v] = struct{}{}
	}
}

func (s valueSet) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Options collects sorted distinct values. Years are newest first and
// contributors are listed by grouping key.
func Options(questions []domain.InterviewQuestion) FilterOptions {
	companies, years, roles := valueSet{}, valueSet{}, valueSet{}
	experiences, topics := valueSet{}, valueSet{}
	contributors, difficulties := valueSet{}, valueSet{}

	for i := range questions {
		q := &questions[i]
		companies.add(q.Company)
		years.add(q.Year)
		roles.add(q.Role)
		experiences.add(q.Experience)
		topics.add(q.Topic)
		contributors.add(q.Contributor.Key())
		difficulties.add(string(q.Difficulty))
	}

	yearList := years.sorted()
	sort.Sort(sort.Reverse(sort.StringSlice(yearList)))

	return FilterOptions{
		Companies:    companies.sorted(),
		Years:        yearList,
		Roles:        roles.sorted(),
		Experiences:  experiences.sorted(),
		Topics:       topics.sorted(),
		Contributors: contributors.sorted(),
		Difficulties: difficulties.sorted(),
	}
}
