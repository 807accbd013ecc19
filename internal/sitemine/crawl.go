package sitemine

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

var anchorRe = regexp.MustCompile(`(?is)<a[^>]+href="([^"#]+)"[^>]*>(.*?)</a>`)

type rankedLink struct {
	URL    string
	Weight int
}

// extractLinks pulls same-domain links from homepage markup and ranks them by
// keyword priority. The homepage itself, off-domain links, and anything the
// path matcher would exclude are handled by the caller; here only shape and
// domain are checked.
func extractLinks(html, baseURL string, limit int) []rankedLink {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	seen := map[string]bool{}
	var links []rankedLink

	for _, m := range anchorRe.FindAllStringSubmatch(html, -1) {
		href := strings.TrimSpace(m[1])
		anchorText := tagStripRe.ReplaceAllString(m[2], "")

		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			continue
		}
		if !sameDomain(abs.Hostname(), base.Hostname()) {
			continue
		}
		if isAssetPath(abs.Path) {
			continue
		}

		abs.Fragment = ""
		key := abs.String()
		if key == baseURL || seen[key] {
			continue
		}
		seen[key] = true

		links = append(links, rankedLink{URL: key, Weight: pageWeight(abs.Path, anchorText)})
	}

	sort.SliceStable(links, func(i, j int) bool { return links[i].Weight > links[j].Weight })

	if len(links) > limit {
		links = links[:limit]
	}
	return links
}

func sameDomain(a, b string) bool {
	a = strings.TrimPrefix(strings.ToLower(a), "www.")
	b = strings.TrimPrefix(strings.ToLower(b), "www.")
	return a == b
}

var assetExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".ico",
	".pdf", ".zip", ".css", ".js", ".xml", ".mp4", ".woff", ".woff2",
}

func isAssetPath(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range assetExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
