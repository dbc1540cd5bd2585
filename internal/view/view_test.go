package view

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/project-tktt/community-hub/internal/domain"
)

func sample() []domain.InterviewQuestion {
	return []domain.InterviewQuestion{
		{ID: "q0", Company: "Initech", Year: "2022", Role: "SRE", Topic: "CI/CD", Question: "Debug a flaky pipelne", Contributor: domain.AnonymousContributor("peter")},
		{ID: "q1", Company: "Acme", Year: "2024", Role: "SRE", Topic: "Kubernetes", Question: "How does a Kubernetes pod get scheduled?", Difficulty: domain.DifficultyMedium, Contributor: domain.NamedContributor("alice", "Alice", "")},
		{ID: "q2", Company: "Globex", Year: "2024", Role: "DevOps", Topic: "Terraform", Question: "Explain Terraform state locking", Contributor: domain.AnonymousContributor("bob")},
		{ID: "q3", Company: "Acme", Year: "2023", Role: "SRE", Topic: "CI/CD", Question: "Describe a CI pipeline", Contributor: domain.NamedContributor("alice", "", "")},
		{ID: "q4", Company: "Acme", Year: "2024", Role: "Cloud", Topic: "AWS", Question: "What is an AWS VPC?", Difficulty: domain.DifficultyEasy, Contributor: domain.AnonymousContributor("carol")},
		{ID: "q5", Company: "Globex", Year: "2023", Role: "DevOps", Topic: "CI/CD", Question: "Why do pipelines fail?", Contributor: domain.AnonymousContributor("bob")},
	}
}

func ids(qs []domain.InterviewQuestion) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}

func TestFilter_ConjunctiveAndOrdered(t *testing.T) {
	got := Filter{Company: "Acme", Year: "2024"}.Apply(sample())
	assert.Equal(t, []string{"q1", "q4"}, ids(got))
}

func TestFilter_Facets(t *testing.T) {
	qs := sample()
	assert.Equal(t, []string{"q1", "q3"}, ids(Filter{Contributor: "alice"}.Apply(qs)))
	assert.Equal(t, []string{"q4"}, ids(Filter{Difficulty: "easy"}.Apply(qs)))
	assert.Equal(t, []string{"q2", "q5"}, ids(Filter{Role: "DevOps"}.Apply(qs)))
	assert.Len(t, Filter{Company: "all", Topic: "ALL"}.Apply(qs), len(qs))
	assert.Empty(t, Filter{Company: "acme"}.Apply(qs))
}

func TestScore(t *testing.T) {
	assert.Equal(t, 0.0, Score("How does Kubernetes work", "kubernetes"))
	assert.Equal(t, 0.0, Score("anything", "  "))
	assert.Equal(t, 1.0, Score("", "pod"))
	assert.InDelta(t, 1.0/9.0, Score("Kubernetes", "kubernets"), 1e-9)
}

func TestSearch_TypoTolerant(t *testing.T) {
	got := Search(sample(), "kubernets")
	assert.Equal(t, []string{"q1"}, ids(got))
}

func TestSearch_RankedByScoreThenSourceOrder(t *testing.T) {
	got := Search(sample(), "pipeline")
	assert.Equal(t, []string{"q3", "q5", "q0"}, ids(got))
}

func TestSearch_MatchesTopicCompanyRole(t *testing.T) {
	assert.Equal(t, []string{"q2", "q5"}, ids(Search(sample(), "globex")))
	assert.Equal(t, []string{"q4"}, ids(Search(sample(), "cloud")))
	assert.Empty(t, Search(sample(), "zookeeper"))
	assert.Len(t, Search(sample(), ""), 6)
}

func TestPaginate(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i
	}

	p := Paginate(items, 3, 10)
	assert.Equal(t, []int{20, 21, 22, 23, 24}, p.Items)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 25, p.TotalItems)

	assert.Equal(t, 1, Paginate(items, 0, 10).Number)
	assert.Equal(t, 3, Paginate(items, 9, 10).Number)
	assert.Equal(t, DefaultPageSize, Paginate(items, 1, 0).Size)

	empty := Paginate([]int{}, 2, 10)
	assert.Equal(t, 1, empty.Number)
	assert.Equal(t, 1, empty.TotalPages)
	assert.NotNil(t, empty.Items)
	assert.Empty(t, empty.Items)
}

func TestState_ResetsPageWhenCriteriaChange(t *testing.T) {
	s := NewState(2)

	assert.Equal(t, 3, s.Update(Query{Page: 3}).Page)

	acme := Query{Filter: Filter{Company: "Acme"}, Page: 3}
	assert.Equal(t, 1, s.Update(acme).Page)

	acme.Page = 2
	assert.Equal(t, 2, s.Update(acme).Page)

	acme.Search = "pod"
	assert.Equal(t, 1, s.Update(acme).Page)

	acme.Search = ""
	acme.Page = 2
	s.Update(Query{Filter: acme.Filter})
	s.Update(acme)
	res := s.Render(sample())
	assert.Equal(t, 2, res.Number)
	assert.Equal(t, []string{"q4"}, ids(res.Items))
	assert.Equal(t, 3, res.TotalItems)
}

func TestRun_FiltersBeforeSearch(t *testing.T) {
	res := Run(sample(), Query{Filter: Filter{Company: "Acme"}, Search: "pipeline"}, 10)
	assert.Equal(t, []string{"q3"}, ids(res.Items))
	assert.Equal(t, 1, res.Query.Page)
}

func TestOptions(t *testing.T) {
	opts := Options(sample())
	assert.Equal(t, []string{"Acme", "Globex", "Initech"}, opts.Companies)
	assert.Equal(t, []string{"2024", "2023", "2022"}, opts.Years)
	assert.Equal(t, []string{"Cloud", "DevOps", "SRE"}, opts.Roles)
	assert.Equal(t, []string{"alice", "bob", "carol", "peter"}, opts.Contributors)
	assert.Equal(t, []string{"easy", "medium"}, opts.Difficulties)
}

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	qs := Filter{Company: "Acme", Year: "2024"}.Apply(sample())
	require.NoError(t, ExportCSV(&buf, qs))

	want := "Company,Year,Role,Experience,Topic,Question,Contributor\n" +
		"Acme,2024,SRE,,Kubernetes,How does a Kubernetes pod get scheduled?,Alice\n" +
		"Acme,2024,Cloud,,AWS,What is an AWS VPC?,carol\n"
	assert.Equal(t, want, buf.String())
}
