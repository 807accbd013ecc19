package websearch

import (
	"net/url"
	"strings"

	"github.com/birralog/enrich-cli/internal/textmatch"
)

// Filter selects the most plausible official-site hit from a result list.
// Rating platforms, social networks and encyclopedias are excluded up front:
// they dominate beer-related SERPs but are never the brewery's own site.
type Filter struct {
	excluded []string
}

// NewFilter creates a Filter with the given excluded-domain suffixes.
func NewFilter(excludedDomains []string) *Filter {
	return &Filter{excluded: excludedDomains}
}

// PickOfficialSite returns the earliest non-excluded result whose host or
// title shares a distinctive token with the brewery name, or nil when none
// does. A result with zero name overlap is never returned: mining an
// unrelated site would persist a stranger's facts onto the brewery record,
// which is worse than falling through to the later strategies.
func (f *Filter) PickOfficialSite(results []Result, breweryName string) *Result {
	nameTokens := nameTokens(breweryName)

	for i := range results {
		r := &results[i]
		host := hostOf(r.URL)
		if host == "" || f.isExcluded(host) {
			continue
		}
		if tokenOverlap(nameTokens, host) || tokenOverlap(nameTokens, textmatch.Normalize(r.Title)) {
			return r
		}
	}
	return nil
}

func (f *Filter) isExcluded(host string) bool {
	for _, d := range f.excluded {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// genericTokens never count as a name match on their own: nearly every
// Italian brewery site contains them.
var genericTokens = map[string]bool{
	"birrificio": true, "birra": true, "birre": true, "beer": true,
	"brewery": true, "brewing": true, "craft": true, "artigianale": true,
	"del": true, "della": true, "di": true, "la": true, "il": true, "le": true,
}

func nameTokens(name string) []string {
	var out []string
	for _, tok := range strings.Fields(textmatch.Normalize(name)) {
		if len(tok) >= 3 && !genericTokens[tok] {
			out = append(out, tok)
		}
	}
	return out
}

// tokenOverlap reports whether any distinctive name token appears in the
// candidate string (host or normalized title).
func tokenOverlap(tokens []string, candidate string) bool {
	if candidate == "" {
		return false
	}
	flat := strings.ReplaceAll(strings.ReplaceAll(candidate, "-", ""), " ", "")
	for _, tok := range tokens {
		if strings.Contains(candidate, tok) || strings.Contains(flat, tok) {
			return true
		}
	}
	return false
}
