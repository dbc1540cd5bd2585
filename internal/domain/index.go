package domain

import (
	"fmt"
	"path"
	"strings"
)

// QuestionFile references one partition document in the index
type QuestionFile struct {
	Path    string   `json:"path"`
	Company string   `json:"company"`
	Year    string   `json:"year"`
	Count   int      `json:"count"`
	Topics  []string `json:"topics"`
	SHA256  string   `json:"sha256,omitempty"`
}

// IndexMetadata lists aggregate facet values
type IndexMetadata struct {
	Companies []string `json:"companies"`
	Years     []string `json:"years"`
	Topics    []string `json:"topics"`
}

// IndexData is the top-level manifest of the questions repository
type IndexData struct {
	Version        string         `json:"version"`
	LastUpdated    string         `json:"lastUpdated"`
	TotalQuestions int            `json:"totalQuestions"`
	Files          []QuestionFile `json:"files"`
	Metadata       IndexMetadata  `json:"metadata"`
}

// CountSum adds up the advertised per-partition counts
func (idx *IndexData) CountSum() int {
	total := 0
	for _, f := range idx.Files {
		total += f.Count
	}
	return total
}

// PartitionDocument holds every question for one (company, year) pair.
// Questions in the document omit company and year.
type PartitionDocument struct {
	Company   string              `json:"company"`
	Year      string              `json:"year"`
	Questions []InterviewQuestion `json:"questions"`
}

// Coordinates derives (year, company) from a partition path of the form
// data/<year>/<company>.json
func (f QuestionFile) Coordinates() (year, company string, err error) {
	parts := strings.Split(strings.Trim(f.Path, "/"), "/")
	if len(parts) != 3 || parts[0] != "data" || path.Ext(parts[2]) != ".json" {
		return "", "", fmt.Errorf("unexpected partition path %q", f.Path)
	}
	year = parts[1]
	company = strings.TrimSuffix(parts[2], ".json")
	if year == "" || company == "" {
		return "", "", fmt.Errorf("unexpected partition path %q", f.Path)
	}
	return year, company, nil
}

// PartitionPath builds the repository path for a (year, company) partition
func PartitionPath(year, company string) string {
	return fmt.Sprintf("data/%s/%s.json", year, company)
}
