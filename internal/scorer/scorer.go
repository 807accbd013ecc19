// Package scorer arbitrates candidate quality. It gates whether a grounded
// search result is good enough to persist or whether the cascade must fall
// through to search-engine scraping and direct site extraction.
package scorer

import (
	"fmt"
	"strings"

	"github.com/birralog/enrich-cli/internal/model"
)

// Field weights. Website outweighs everything because it unlocks direct
// extraction; official identifiers together outweigh it because a brewery
// with fiscal code, registry code and address is verifiable even with no
// public site.
const (
	weightName        = 20
	weightWebsite     = 25
	weightAddress     = 20
	weightFiscalCode  = 15
	weightREACode     = 10
	weightPEC         = 5
	weightEmail       = 5
	weightPhone       = 5
	weightDescription = 5

	// MaxScore is the sum of all field weights.
	MaxScore = weightName + weightWebsite + weightAddress + weightFiscalCode +
		weightREACode + weightPEC + weightEmail + weightPhone + weightDescription

	// DefaultAcceptScore is the default acceptance threshold. Tuned on real
	// brewery data, not derived; override it via configuration.
	DefaultAcceptScore = 60
)

// Verdict is the scorer's judgement of one brewery candidate.
type Verdict struct {
	Score        int     `json:"score"`
	Percentage   float64 `json:"percentage"`
	IsAcceptable bool    `json:"is_acceptable"`
	Reason       string  `json:"reason"`
}

// Scorer scores brewery candidates against a configurable threshold.
type Scorer struct {
	acceptScore int
}

// New creates a Scorer. acceptScore <= 0 selects the default threshold.
func New(acceptScore int) *Scorer {
	if acceptScore <= 0 {
		acceptScore = DefaultAcceptScore
	}
	return &Scorer{acceptScore: acceptScore}
}

// Score computes the weighted completeness of a brewery candidate and applies
// the acceptance rule: acceptable when score >= threshold OR a website is
// present. A nil facts object scores zero.
func (s *Scorer) Score(facts *model.BreweryFacts) Verdict {
	if facts == nil {
		return Verdict{Reason: "no candidate"}
	}

	score := 0
	var missing []string

	weigh := func(present bool, weight int, name string) {
		if present {
			score += weight
		} else {
			missing = append(missing, name)
		}
	}

	weigh(facts.Name != "", weightName, "name")
	weigh(facts.Website != "", weightWebsite, "website")
	weigh(facts.Address != "", weightAddress, "address")
	weigh(facts.FiscalCode != "", weightFiscalCode, "fiscal_code")
	weigh(facts.REACode != "", weightREACode, "rea_code")
	weigh(facts.PECEmail != "", weightPEC, "pec_email")
	weigh(facts.Email != "", weightEmail, "email")
	weigh(facts.Phone != "", weightPhone, "phone")
	weigh(facts.History != "", weightDescription, "description")

	hasWebsite := facts.Website != ""
	acceptable := score >= s.acceptScore || hasWebsite

	var reason string
	switch {
	case acceptable && hasWebsite && score < s.acceptScore:
		reason = "website present"
	case acceptable:
		reason = fmt.Sprintf("score %d >= %d", score, s.acceptScore)
	default:
		reason = fmt.Sprintf("score %d < %d, no website; missing: %s",
			score, s.acceptScore, strings.Join(missing, ", "))
	}

	return Verdict{
		Score:        score,
		Percentage:   float64(score) / float64(MaxScore) * 100,
		IsAcceptable: acceptable,
		Reason:       reason,
	}
}
