package domain

import "time"

// ContributorStat is one leaderboard row
type ContributorStat struct {
	Name   string `json:"name"`
	GitHub string `json:"github"`
	Count  int    `json:"count"`
}

// ContributorsData is the leaderboard document
type ContributorsData struct {
	Version           string            `json:"version"`
	LastUpdated       string            `json:"lastUpdated"`
	TotalContributors int               `json:"totalContributors"`
	Contributors      []ContributorStat `json:"contributors"`
}

// FallbackContributors is shown when the leaderboard document is unavailable
func FallbackContributors(now time.Time) *ContributorsData {
	return &ContributorsData{
		Version:           "v1",
		LastUpdated:       now.UTC().Format(time.RFC3339),
		TotalContributors: 3,
		Contributors: []ContributorStat{
			{Name: "Test User", GitHub: "@testuser", Count: 5},
			{Name: "Demo Contributor", GitHub: "@demo", Count: 3},
			{Name: "Sample User", GitHub: "@sample", Count: 2},
		},
	}
}
