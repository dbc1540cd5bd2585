package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ContributorKind tags the Contributor variant
type ContributorKind int

const (
	// ContributorAnonymous is a bare identifier string
	ContributorAnonymous ContributorKind = iota
	// ContributorNamed is a structured profile keyed by GitHub handle
	ContributorNamed
)

// Contributor is either a bare identifier or a structured profile. The
// source documents encode it as a JSON string or object respectively.
type Contributor struct {
	kind     ContributorKind
	id       string
	name     string
	linkedin string
}

// AnonymousContributor creates a bare-identifier contributor
func AnonymousContributor(identifier string) Contributor {
	return Contributor{kind: ContributorAnonymous, id: identifier}
}

// NamedContributor creates a structured contributor keyed by github
func NamedContributor(github, name, linkedin string) Contributor {
	return Contributor{kind: ContributorNamed, id: github, name: name, linkedin: linkedin}
}

func (c Contributor) Kind() ContributorKind { return c.kind }

// Key is the canonical grouping identifier: the GitHub handle for named
// contributors, the bare identifier otherwise.
func (c Contributor) Key() string {
	return c.id
}

// DisplayName is what a listing shows for the contributor
func (c Contributor) DisplayName() string {
	switch c.kind {
	case ContributorNamed:
		if c.name != "" {
			return c.name
		}
		return c.id
	default:
		return c.id
	}
}

// GitHub returns the handle for named contributors
func (c Contributor) GitHub() (string, bool) {
	if c.kind != ContributorNamed {
		return "", false
	}
	return c.id, true
}

// LinkedIn returns the profile URL for named contributors that have one
func (c Contributor) LinkedIn() (string, bool) {
	if c.kind != ContributorNamed || c.linkedin == "" {
		return "", false
	}
	return c.linkedin, true
}

type contributorProfile struct {
	Name     string `json:"name,omitempty"`
	GitHub   string `json:"github"`
	LinkedIn string `json:"linkedin,omitempty"`
}

func (c Contributor) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case ContributorNamed:
		return json.Marshal(contributorProfile{Name: c.name, GitHub: c.id, LinkedIn: c.linkedin})
	default:
		return json.Marshal(c.id)
	}
}

func (c *Contributor) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = Contributor{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = AnonymousContributor(s)
		return nil
	case '{':
		var p contributorProfile
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		if p.GitHub == "" {
			// profile without a handle has no stable key; keep the name as identifier
			*c = AnonymousContributor(p.Name)
			return nil
		}
		*c = NamedContributor(p.GitHub, p.Name, p.LinkedIn)
		return nil
	default:
		return fmt.Errorf("contributor must be a string or object, got %s", string(data))
	}
}
