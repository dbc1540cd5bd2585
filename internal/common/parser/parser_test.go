package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/project-tktt/community-hub/internal/domain"
)

func TestParseQuestionsCSV_DefaultsAndDrops(t *testing.T) {
	data := []byte(" Question ,COMPANY,Year,Topic\n" +
		"What is a pod?,Acme,2024,Kubernetes\n" +
		"   ,Acme,2024,Kubernetes\n" +
		"Explain DNS,,,\n")

	qs, err := New(nil, nil).ParseQuestionsCSV(data)
	require.NoError(t, err)
	require.Len(t, qs, 2)

	assert.Equal(t, "What is a pod?", qs[0].Question)
	assert.Equal(t, "Acme", qs[0].Company)
	assert.Equal(t, "Kubernetes", qs[0].Topic)
	assert.Equal(t, domain.DefaultRole, qs[0].Role)

	assert.Equal(t, "Explain DNS", qs[1].Question)
	assert.Equal(t, domain.DefaultCompany, qs[1].Company)
	assert.Equal(t, domain.DefaultYear, qs[1].Year)
	assert.Equal(t, domain.DefaultTopic, qs[1].Topic)
	assert.Equal(t, domain.DefaultExperience, qs[1].Experience)
	assert.Equal(t, domain.ContributorAnonymous, qs[1].Contributor.Kind())
	assert.Equal(t, domain.DefaultContributor, qs[1].Contributor.Key())
}

func TestParseQuestionsCSV_KeepsLiteralMarkup(t *testing.T) {
	data := []byte("company,question,contributor\n" +
		"Acme,\"What is the difference between <div> and <span>?\",alice\n" +
		"Acme,Explain Vec<T> vs &[T] in Rust,bob\n" +
		"Acme,  <template>  ,carol\n")

	qs, err := New(nil, nil).ParseQuestionsCSV(data)
	require.NoError(t, err)
	require.Len(t, qs, 3)
	assert.Equal(t, "What is the difference between <div> and <span>?", qs[0].Question)
	assert.Equal(t, "Explain Vec<T> vs &[T] in Rust", qs[1].Question)
	assert.Equal(t, "<template>", qs[2].Question)
	assert.Equal(t, "alice", qs[0].Contributor.Key())
}

func TestParseQuestionsCSV_StripsByteOrderMark(t *testing.T) {
	data := []byte("\ufeffQuestion,Company\nWhat is a pod?,Acme\n")

	qs, err := New(nil, nil).ParseQuestionsCSV(data)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "What is a pod?", qs[0].Question)
	assert.Equal(t, "Acme", qs[0].Company)
}

func TestParseQuestionsCSV_Errors(t *testing.T) {
	_, err := New(nil, nil).ParseQuestionsCSV(nil)
	assert.ErrorIs(t, err, ErrNoHeader)

	_, err = New(nil, nil).ParseQuestionsCSV([]byte("company,year\nAcme,2024\n"))
	assert.Error(t, err)
}

func TestParseJobsCSV(t *testing.T) {
	data := []byte("id,title,company,location,experience,type,postedDate,applyLink\n" +
		"1.0,SRE,Acme,Remote,3+,Full-time,2024-05-01,https://acme.example/jobs/1\n" +
		"2,,Acme,Remote,,,,\n" +
		",Platform Engineer,Globex,,,,,\n" +
		"3,DevOps Engineer,Globex,Berlin,5+,Contract,2024-04-20,javascript:alert(1)\n")

	core, logs := observer.New(zapcore.DebugLevel)
	jobs, err := New(nil, zap.New(core)).ParseJobsCSV(data)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, domain.Job{
		ID:         "1",
		Title:      "SRE",
		Company:    "Acme",
		Location:   "Remote",
		Experience: "3+",
		Type:       "Full-time",
		PostedDate: "2024-05-01",
		ApplyLink:  "https://acme.example/jobs/1",
	}, jobs[0])
	assert.Equal(t, "3", jobs[1].ID)
	assert.Empty(t, jobs[1].ApplyLink)
	assert.Equal(t, 2, logs.FilterMessage("discarding incomplete job row").Len())
}

func TestParseJobsCSV_HeaderCaseInsensitive(t *testing.T) {
	data := []byte("ID,Title,Company,POSTEDDATE\n7,SRE,Acme,2024-01-01\n")
	jobs, err := New(nil, nil).ParseJobsCSV(data)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "2024-01-01", jobs[0].PostedDate)
}

func TestParseJobsHTML(t *testing.T) {
	page := []byte(`<!DOCTYPE html><html><body>
<table class="waffle">
<tr><th></th><th>A</th><th>B</th><th>C</th></tr>
<tr><th>1</th><td>id</td><td>title</td><td>company</td><td>applyLink</td></tr>
<tr><th>2</th><td>10</td><td>SRE</td><td>Acme</td><td>https://acme.example/10</td></tr>
<tr><th>3</th><td></td><td></td><td></td><td></td></tr>
<tr><th>4</th><td>11</td><td>Cloud Engineer &amp; Ops</td><td>Globex</td><td></td></tr>
</table></body></html>`)

	require.True(t, LooksLikeHTML(page))
	jobs, err := New(nil, nil).ParseJobsHTML(page)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "10", jobs[0].ID)
	assert.Equal(t, "https://acme.example/10", jobs[0].ApplyLink)
	assert.Equal(t, "Cloud Engineer & Ops", jobs[1].Title)
}

func TestParseJobsHTML_NoHeader(t *testing.T) {
	_, err := New(nil, nil).ParseJobsHTML([]byte("<html><table><tr><td>x</td></tr></table></html>"))
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestLooksLikeHTML(t *testing.T) {
	assert.False(t, LooksLikeHTML([]byte("id,title,company\n1,SRE,Acme\n")))
	assert.True(t, LooksLikeHTML([]byte("  <html><body></body></html>")))
}

func TestParseIndex(t *testing.T) {
	idx, err := New(nil, nil).ParseIndex([]byte(`{
		"version": "1",
		"totalQuestions": 3,
		"files": [
			{"path": "data/2024/acme.json", "company": "acme", "year": "2024", "count": 2, "topics": ["k8s"]},
			{"path": "data/2023/globex.json", "company": "globex", "year": "2023", "count": 1, "topics": []}
		],
		"metadata": {"companies": ["acme", "globex"], "years": ["2023", "2024"], "topics": ["k8s"]}
	}`))
	require.NoError(t, err)
	assert.Len(t, idx.Files, 2)
	assert.Equal(t, 3, idx.CountSum())

	_, err = New(nil, nil).ParseIndex([]byte(`{"version": "1"}`))
	assert.ErrorIs(t, err, ErrMissingFiles)

	_, err = New(nil, nil).ParseIndex([]byte(`[1, 2]`))
	assert.Error(t, err)

	_, err = New(nil, nil).ParseIndex([]byte(`{"files": []} {"files": []}`))
	assert.Error(t, err)
}

func TestParsePartition(t *testing.T) {
	doc, err := New(nil, nil).ParsePartition([]byte(`{
		"company": "acme",
		"year": "2024",
		"questions": [
			{"question": "What is a pod?", "role": "SRE", "contributor": "alice"},
			{"question": "  ", "contributor": "bob"},
			{"question": "Explain etcd", "contributor": {"name": "Carol", "github": "carol"}}
		]
	}`))
	require.NoError(t, err)
	require.Len(t, doc.Questions, 2)
	assert.Equal(t, "alice", doc.Questions[0].Contributor.Key())
	assert.Equal(t, domain.ContributorNamed, doc.Questions[1].Contributor.Kind())
	assert.Equal(t, "Carol", doc.Questions[1].Contributor.DisplayName())

	_, err = New(nil, nil).ParsePartition([]byte(`{"company": "acme"}`))
	assert.ErrorIs(t, err, ErrMissingQuestions)

	_, err = New(nil, nil).ParsePartition([]byte(`{"questions": [{"question": "x", "contributor": 42}]}`))
	assert.Error(t, err)
}

func TestParseContributors(t *testing.T) {
	doc, err := New(nil, nil).ParseContributors([]byte(`{
		"version": "1",
		"totalContributors": 2,
		"contributors": [{"name": "Alice", "github": "alice", "count": 4}, {"name": "Bob", "github": "bob", "count": 1}]
	}`))
	require.NoError(t, err)
	require.Len(t, doc.Contributors, 2)
	assert.Equal(t, 4, doc.Contributors[0].Count)

	_, err = New(nil, nil).ParseContributors([]byte(`{}`))
	assert.ErrorIs(t, err, ErrMissingContributors)
}
