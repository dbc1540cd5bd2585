package cleaner

import (
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Cleaner strips markup from community-submitted text before it is stored or rendered
type Cleaner struct {
	policy *bluemonday.Policy
}

// NewCleaner creates a cleaner that removes all HTML
func NewCleaner() *Cleaner {
	return &Cleaner{policy: bluemonday.StrictPolicy()}
}

// CleanText sanitizes s, decodes entities and trims surrounding whitespace
func (c *Cleaner) CleanText(s string) string {
	if s == "" {
		return ""
	}
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	text := html.UnescapeString(c.policy.Sanitize(s))
	return strings.TrimSpace(text)
}

// CleanTags sanitizes every tag and drops the ones left empty
func (c *Cleaner) CleanTags(tags []string) []string {
	if len(tags) == 0 {
		return tags
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = c.CleanText(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// CleanURL returns u when it is an absolute http(s) URL, otherwise ""
func (c *Cleaner) CleanURL(u string) string {
	u = strings.TrimSpace(u)
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return ""
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	return u
}
