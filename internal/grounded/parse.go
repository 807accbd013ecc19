package grounded

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/birralog/enrich-cli/internal/model"
)

// finding is the model's combined answer.
type finding struct {
	Found      bool                `json:"found"`
	Confidence float64             `json:"confidence"`
	Brewery    *model.BreweryFacts `json:"brewery,omitempty"`
	Beer       *model.BeerFacts    `json:"beer,omitempty"`
	Sources    []string            `json:"sources,omitempty"`
}

// parseFinding extracts and decodes the JSON object from model output, which
// may be wrapped in prose or a markdown code fence despite instructions.
func parseFinding(text string) (*finding, error) {
	raw := extractJSONBlock(text)
	if raw == "" {
		return nil, eris.New("grounded: no JSON object in response")
	}

	var f finding
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return nil, eris.Wrap(err, "grounded: decode response")
	}

	// An unnamed facts object is noise, not a finding.
	if f.Brewery != nil && f.Brewery.Name == "" && f.Brewery.Website == "" {
		f.Brewery = nil
	}
	if f.Beer != nil && f.Beer.Name == "" && f.Beer.Style == "" && f.Beer.ABV == 0 && f.Beer.Description == "" {
		f.Beer = nil
	}

	return &f, nil
}

// extractJSONBlock returns the outermost {...} in the text, honoring code
// fences when present.
func extractJSONBlock(text string) string {
	if i := strings.Index(text, "```json"); i >= 0 {
		rest := text[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			text = rest[:j]
		}
	} else if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		if j := strings.Index(rest, "```"); j >= 0 {
			text = rest[:j]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}
