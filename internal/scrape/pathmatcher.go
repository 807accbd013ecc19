package scrape

import (
	"net/url"
	"path"
	"strings"
)

// defaultExcludePatterns skip pages that carry placeholder or boilerplate
// data: privacy policies and legal notices routinely contain example
// addresses and the lawyer's contacts, which poison the field miners.
var defaultExcludePatterns = []string{
	"/privacy*",
	"/cookie*",
	"/legal*",
	"/terms*",
	"/gdpr*",
	"/informativa*",
	"/condizioni*",
	"/note-legali*",
}

// PathMatcher filters URLs based on glob-style path patterns.
// Uses path.Match from stdlib, plus a segmented match so "/privacy*" also
// covers multi-level paths like "/privacy/policy".
type PathMatcher struct {
	patterns []string
}

// NewPathMatcher creates a PathMatcher from glob patterns.
// Falls back to the privacy/legal defaults if none are provided.
func NewPathMatcher(patterns []string) *PathMatcher {
	if len(patterns) == 0 {
		patterns = defaultExcludePatterns
	}
	return &PathMatcher{patterns: patterns}
}

// Patterns returns the configured patterns.
func (m *PathMatcher) Patterns() []string {
	return m.patterns
}

// IsExcluded checks whether a URL matches any exclude pattern.
func (m *PathMatcher) IsExcluded(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	return m.isPathExcluded(u.Path)
}

func (m *PathMatcher) isPathExcluded(urlPath string) bool {
	urlPath = strings.ToLower(strings.TrimRight(urlPath, "/"))
	for _, pattern := range m.patterns {
		if matchSegmented(strings.ToLower(pattern), urlPath) {
			return true
		}
	}
	return false
}

// matchSegmented performs glob matching where "/privacy*" matches "/privacy",
// "/privacy-policy", and "/privacy/cookies".
func matchSegmented(pattern, urlPath string) bool {
	if ok, _ := path.Match(pattern, urlPath); ok {
		return true
	}

	// "/x*" should also match deeper paths; path.Match stops at separators.
	if strings.HasSuffix(pattern, "*") {
		prefix := strings.TrimSuffix(pattern, "*")
		if strings.HasPrefix(urlPath, prefix) {
			return true
		}
	}
	return false
}
