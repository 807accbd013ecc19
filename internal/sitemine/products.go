package sitemine

import (
	"regexp"
	"strings"
)

var (
	headingRe     = regexp.MustCompile(`(?is)<h[23][^>]*>(.*?)</h[23]>`)
	productLinkRe = regexp.MustCompile(`(?is)<a[^>]+href="[^"]*(?:/birre?/|/beers?/|/prodott[oi]/|/product/)[^"]+"[^>]*>(.*?)</a>`)
	tagStripRe    = regexp.MustCompile(`<[^>]+>`)
)

const (
	minProductNameLen = 3
	maxProductNameLen = 40
	maxProducts       = 30
)

// MineProducts extracts candidate beer names from a page's markup: product
// links under beer-catalogue paths plus section headings. Names matching the
// stoplist or looking like prose are dropped.
func MineProducts(html string) []string {
	var out []string
	seen := map[string]bool{}

	add := func(raw string) {
		name := strings.TrimSpace(tagStripRe.ReplaceAllString(raw, ""))
		name = strings.Join(strings.Fields(name), " ")
		if !plausibleProductName(name) {
			return
		}
		key := strings.ToLower(name)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, name)
	}

	for _, m := range productLinkRe.FindAllStringSubmatch(html, -1) {
		add(m[1])
	}
	for _, m := range headingRe.FindAllStringSubmatch(html, -1) {
		add(m[1])
	}

	if len(out) > maxProducts {
		out = out[:maxProducts]
	}
	return out
}

func plausibleProductName(name string) bool {
	if len(name) < minProductNameLen || len(name) > maxProductNameLen {
		return false
	}
	if isStoplisted(name) {
		return false
	}
	// Prose fragments end in punctuation; product names do not.
	if strings.ContainsAny(string(name[len(name)-1]), ".,:;!?") {
		return false
	}
	if strings.Count(name, " ") > 4 {
		return false
	}
	return true
}
