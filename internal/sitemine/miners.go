package sitemine

import (
	"regexp"
	"strconv"
	"strings"
)

// AddressMatch is a mined postal address with a completeness score.
// Postal code and province each raise the score; a bare street line scores 1.
type AddressMatch struct {
	Address string
	Score   int
}

var (
	// Italian street address, optionally followed by CAP and province code.
	// "Via Roma 12, 20100 Milano (MI)" scores 3; "Via Roma 12" scores 1.
	itAddressRe = regexp.MustCompile(`(?i)\b((?:Via|Viale|Piazza|Piazzale|Corso|Strada|Località|Loc\.|Frazione|Fraz\.|Contrada|Borgo|Vicolo)\s+[A-Za-zÀ-ÿ'. ]{2,40}?,?\s*(?:n\.?\s*)?\d{1,4}[/A-Za-z]{0,2})(?:\s*[-,–]?\s*(\d{5}))?\s*([A-Za-zÀ-ÿ' ]{2,30})?(?:\s*\(([A-Z]{2})\))?`)

	emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)

	// Landlines start with 0, mobiles with 3; both may carry a +39 prefix.
	phoneRe = regexp.MustCompile(`(?:\+39[\s.]?)?\b(?:0\d{1,3}|3\d{2})[\s./\-]?\d{6,8}\b`)

	// VAT numbers are 11 digits; personal fiscal codes are 16 alphanumerics.
	vatRe        = regexp.MustCompile(`(?i)(?:P\.?\s?IVA|Partita\s+IVA|VAT)[:\s]*(?:IT\s?)?(\d{11})`)
	fiscalCodeRe = regexp.MustCompile(`(?i)(?:C\.?F\.?|Codice\s+Fiscale)[:\s]*([A-Z0-9]{11,16})`)

	reaRe = regexp.MustCompile(`(?i)\bR\.?E\.?A\.?[:\s]*(?:n\.?\s*)?([A-Z]{2}[\s\-]?\d{5,7})`)

	// Excise warehouse codes for beer producers, e.g. IT00MIB00123X.
	exciseRe = regexp.MustCompile(`(?i)(?:accisa|cod(?:ice)?\s+accisa|deposito\s+fiscale)[:\s]*([A-Z]{2}\s?\d{2}\s?[A-Z0-9]{7,9})`)

	foundedRe = regexp.MustCompile(`(?i)(?:dal|fondat[oa]\s+nel|nat[oa]\s+nel|since|est(?:d|\.)?\s*)\s*(1[89]\d{2}|20[0-2]\d)\b`)

	brewerRe = regexp.MustCompile(`(?i:mastro\s+birraio|il\s+birraio|head\s+brewer|brewmaster)[,:\s]+([A-ZÀ-Ý][a-zà-ÿ]+(?:\s+[A-ZÀ-Ý][a-zà-ÿ]+){0,2})`)

	awardRe = regexp.MustCompile(`(?im)^.{0,10}(?:medaglia|premio|premiat[oa]|award|birra\s+dell'anno|world\s+beer).{0,120}$`)
)

// MineAddresses returns every address found in the text, best first.
func MineAddresses(text string) []AddressMatch {
	var out []AddressMatch
	for _, m := range itAddressRe.FindAllStringSubmatch(text, -1) {
		street, cap, city, prov := strings.TrimSpace(m[1]), m[2], strings.TrimSpace(m[3]), m[4]

		score := 1
		addr := street
		if cap != "" {
			score++
			addr += ", " + cap
			if city != "" {
				addr += " " + city
			}
		}
		if prov != "" {
			score++
			addr += " (" + prov + ")"
		}
		out = append(out, AddressMatch{Address: addr, Score: score})
	}

	// Best-scoring first; FindAll preserves document order for ties.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Score > out[j-1].Score; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// MineEmail returns the first ordinary email address, skipping PEC mailboxes
// (those are mined separately) and image filenames that look like emails.
func MineEmail(text string) string {
	for _, m := range emailRe.FindAllString(text, -1) {
		lower := strings.ToLower(m)
		if isPECAddress(lower) {
			continue
		}
		if strings.HasSuffix(lower, ".png") || strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".webp") {
			continue
		}
		return m
	}
	return ""
}

// MinePEC returns the first certified-mail (PEC) address.
func MinePEC(text string) string {
	for _, m := range emailRe.FindAllString(text, -1) {
		if isPECAddress(strings.ToLower(m)) {
			return m
		}
	}
	return ""
}

func isPECAddress(lower string) bool {
	for _, marker := range []string{"@pec.", ".pec.", "@legalmail.", "@arubapec.", "@cert.", "@postacert.", "@legalmailpa."} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// MinePhone returns the first phone number, normalized to digits and +.
func MinePhone(text string) string {
	m := phoneRe.FindString(text)
	if m == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range m {
		if r == '+' || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MineFiscalCode returns the VAT number or fiscal code, VAT preferred.
func MineFiscalCode(text string) string {
	if m := vatRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := fiscalCodeRe.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[1])
	}
	return ""
}

// MineREACode returns the company-registry (REA) code, e.g. "MI-1234567".
func MineREACode(text string) string {
	m := reaRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	code := strings.ToUpper(m[1])
	code = strings.ReplaceAll(code, " ", "-")
	if !strings.Contains(code, "-") {
		code = code[:2] + "-" + code[2:]
	}
	return code
}

// MineExciseCode returns the excise warehouse code, spaces stripped.
func MineExciseCode(text string) string {
	m := exciseRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.ToUpper(strings.ReplaceAll(m[1], " ", ""))
}

// MineFoundedYear returns the founding year, or 0.
func MineFoundedYear(text string) int {
	m := foundedRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	year, _ := strconv.Atoi(m[1])
	return year
}

// MineBrewerName returns the named head brewer, or "".
func MineBrewerName(text string) string {
	m := brewerRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

const (
	minDescriptionLen = 80
	maxDescriptionLen = 600
)

var breweryWordRe = regexp.MustCompile(`(?i)\b(birrificio|birra|birre|brewery|beer|brassicol)`)

// MineDescription picks the first substantial brewery-related paragraph,
// truncated at a word boundary.
func MineDescription(text string) string {
	for _, para := range strings.Split(text, "\n") {
		para = strings.TrimSpace(para)
		if len(para) < minDescriptionLen || !breweryWordRe.MatchString(para) {
			continue
		}
		if len(para) > maxDescriptionLen {
			cut := strings.LastIndex(para[:maxDescriptionLen], " ")
			if cut < minDescriptionLen {
				cut = maxDescriptionLen
			}
			para = para[:cut] + "…"
		}
		return para
	}
	return ""
}

var hectoliterRe = regexp.MustCompile(`(?i)(\d[\d.,]{0,8})\s*(?:hl|ettolitri)`)

// MineSizeClass classifies the producer by stated production volume or
// self-description. Returns "micro", "small", "medium", "large" or "".
func MineSizeClass(text string) string {
	lower := strings.ToLower(text)
	if m := hectoliterRe.FindStringSubmatch(text); m != nil {
		digits := strings.NewReplacer(".", "", ",", "").Replace(m[1])
		if hl, err := strconv.Atoi(digits); err == nil {
			switch {
			case hl < 1000:
				return "micro"
			case hl < 10000:
				return "small"
			case hl < 100000:
				return "medium"
			default:
				return "large"
			}
		}
	}
	if strings.Contains(lower, "microbirrificio") || strings.Contains(lower, "brewpub") {
		return "micro"
	}
	if strings.Contains(lower, "birrificio artigianale") {
		return "small"
	}
	return ""
}

var socialHosts = map[string]string{
	"facebook.com":  "facebook",
	"instagram.com": "instagram",
	"twitter.com":   "twitter",
	"x.com":         "twitter",
	"linkedin.com":  "linkedin",
	"youtube.com":   "youtube",
	"untappd.com":   "untappd",
}

var hrefRe = regexp.MustCompile(`(?i)href="([^"]+)"`)

// MineSocialLinks extracts social profile URLs from raw HTML.
func MineSocialLinks(html string) map[string]string {
	out := map[string]string{}
	for _, m := range hrefRe.FindAllStringSubmatch(html, -1) {
		href := m[1]
		lower := strings.ToLower(href)
		for host, name := range socialHosts {
			if !strings.Contains(lower, host) {
				continue
			}
			// Share widgets link to sharer endpoints, not profiles.
			if strings.Contains(lower, "sharer") || strings.Contains(lower, "share?") || strings.Contains(lower, "/intent/") {
				continue
			}
			if _, seen := out[name]; !seen {
				out[name] = href
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

var awardStopRe = regexp.MustCompile(`(?i)cookie|privacy|iscriviti`)

// MineAwards collects award/medal mentions, deduplicated, capped at 10.
func MineAwards(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range awardRe.FindAllString(text, -1) {
		line := strings.TrimSpace(m)
		if len(line) < 15 || awardStopRe.MatchString(line) {
			continue
		}
		key := strings.ToLower(line)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, line)
		if len(out) == 10 {
			break
		}
	}
	return out
}
