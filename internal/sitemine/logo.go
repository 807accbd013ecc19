package sitemine

import (
	"net/url"
	"regexp"
	"strings"
)

var imgTagRe = regexp.MustCompile(`(?is)<img[^>]+>`)

var imgAttrRe = map[string]*regexp.Regexp{
	"src":   regexp.MustCompile(`(?i)src="([^"]+)"`),
	"alt":   regexp.MustCompile(`(?i)alt="([^"]*)"`),
	"class": regexp.MustCompile(`(?i)class="([^"]*)"`),
	"id":    regexp.MustCompile(`(?i)id="([^"]*)"`),
}

// FindLogo scans page markup for the site logo and resolves it to an
// absolute URL. Images whose src, alt, class or id mention "logo" qualify;
// header placement is not required because many small-brewery themes inline
// the logo anywhere.
func FindLogo(html, baseURL string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}

	for _, tag := range imgTagRe.FindAllString(html, -1) {
		src := firstAttr(tag, "src")
		if src == "" || strings.HasPrefix(src, "data:") {
			continue
		}
		haystack := strings.ToLower(src + " " + firstAttr(tag, "alt") + " " + firstAttr(tag, "class") + " " + firstAttr(tag, "id"))
		if !strings.Contains(haystack, "logo") {
			continue
		}
		if strings.Contains(haystack, "footer-partner") || strings.Contains(haystack, "sponsor") {
			continue
		}

		ref, err := url.Parse(src)
		if err != nil {
			continue
		}
		return base.ResolveReference(ref).String()
	}
	return ""
}

func firstAttr(tag, name string) string {
	if m := imgAttrRe[name].FindStringSubmatch(tag); m != nil {
		return m[1]
	}
	return ""
}
