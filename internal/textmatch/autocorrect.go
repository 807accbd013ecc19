package textmatch

import (
	"regexp"
	"strings"
)

// maxCorrectionDistance bounds how far a correction may drift from the OCR
// reading. Vision extraction flips one or two characters; anything farther is
// a different word, not a misread.
const (
	maxCorrectionDistance = 2
	maxLengthDelta        = 2
	minCandidateLen       = 5
)

// Correction is the outcome of attempting to fix an OCR-derived name against
// authoritative enrichment text.
type Correction struct {
	Name         string `json:"name"`
	WasCorrected bool   `json:"was_corrected"`
	// Distance is the edit distance between the OCR name and the accepted
	// correction; zero when no correction fired.
	Distance int `json:"distance,omitempty"`
}

// namePatterns extract capitalized-phrase candidates from free text.
// Ordered from most to least specific.
var namePatterns = []*regexp.Regexp{
	// "... is named Tipopils", "... si chiama Tipopils"
	regexp.MustCompile(`(?:is named|named|si chiama|chiamata)\s+"?([A-Z][\pL\d']+(?:\s+[A-Z][\pL\d']+)*)"?`),
	// "Tipopils is a/the ...", "Tipopils è una ..."
	regexp.MustCompile(`([A-Z][\pL\d']+(?:\s+[A-Z][\pL\d']+)*)\s+(?:is a|is the|is an|è una|è la|è un)`),
	// Bare capitalized sequences.
	regexp.MustCompile(`\b([A-Z][\pL\d']{2,}(?:\s+[A-Z][\pL\d']+)*)\b`),
}

// Correct mines description and tasting-notes text for a name within edit
// distance 2 of the OCR name and substitutes it. When the OCR name is
// multi-word, each candidate is also compared against the last token alone
// and the minimum distance wins. Ties pick the closest match.
func Correct(ocrName, description, tastingNotes string) Correction {
	out := Correction{Name: ocrName}
	if strings.TrimSpace(ocrName) == "" {
		return out
	}

	text := description + "\n" + tastingNotes
	if strings.TrimSpace(text) == "" {
		return out
	}

	lastToken := ocrName
	if fields := strings.Fields(ocrName); len(fields) > 1 {
		lastToken = fields[len(fields)-1]
	}

	best := ""
	bestDist := maxCorrectionDistance + 1

	for _, cand := range extractCandidates(text) {
		if cand == ocrName {
			// Exact match in source text confirms the OCR reading; nothing to fix.
			return Correction{Name: ocrName}
		}

		ref := ocrName
		d := EditDistance(ocrName, cand)
		if lastToken != ocrName {
			if ld := EditDistance(lastToken, cand); ld < d {
				d = ld
				ref = lastToken
			}
		}

		if d == 0 || d > maxCorrectionDistance {
			continue
		}
		if delta := len(cand) - len(ref); delta > maxLengthDelta || delta < -maxLengthDelta {
			continue
		}
		if d < bestDist {
			bestDist = d
			best = cand
		}
	}

	if best == "" {
		return out
	}
	return Correction{Name: best, WasCorrected: true, Distance: bestDist}
}

// extractCandidates runs all name patterns over the text and returns unique
// candidates of plausible length.
func extractCandidates(text string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(cand string) {
		cand = strings.TrimSpace(cand)
		if len(cand) < minCandidateLen || seen[cand] {
			return
		}
		seen[cand] = true
		out = append(out, cand)
	}
	for _, re := range namePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			cand := strings.TrimSpace(m[1])
			add(cand)
			// A multi-word phrase also contributes its individual words, since
			// a beer name is often a single token inside a larger capitalized run.
			if words := strings.Fields(cand); len(words) > 1 {
				for _, w := range words {
					add(w)
				}
			}
		}
	}
	return out
}
