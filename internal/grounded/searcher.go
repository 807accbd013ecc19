// Package grounded resolves brewery and beer facts through a web-grounded
// model call. One combined request covers both entities: the model that finds
// the brewery almost always knows the beer too, and a second round trip would
// double the cost for nothing.
package grounded

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/birralog/enrich-cli/internal/model"
	"github.com/birralog/enrich-cli/internal/resilience"
	"github.com/birralog/enrich-cli/pkg/anthropic"
)

const systemPrompt = `You are a research assistant for an Italian craft beer catalogue.
Given a beer name (possibly OCR-garbled) and an optional brewery hint, use web
search to identify the real beer and its producing brewery. Answer with a
single JSON object and nothing else:
{
  "found": bool,
  "confidence": number between 0 and 1,
  "brewery": {
    "name": "", "website": "", "address": "", "email": "", "phone": "",
    "fiscal_code": "", "founded_year": 0, "history": "", "logo_url": ""
  },
  "beer": {
    "name": "", "style": "", "sub_style": "", "abv": 0, "ibu": 0,
    "volume_ml": 0, "color": "", "description": "", "ingredients": "",
    "tasting_notes": "", "pairing": ""
  },
  "sources": ["url", ...]
}
Omit fields you could not verify. Prefer the brewery's own site over rating
platforms. If the beer name looks misspelled, report the correct spelling.`

// Searcher runs grounded lookups through the Anthropic client.
type Searcher struct {
	client        anthropic.Client
	model         string
	minConfidence float64
	maxSearches   int
}

// NewSearcher creates a Searcher. Results below minConfidence are treated as
// not found.
func NewSearcher(client anthropic.Client, modelID string, minConfidence float64, maxSearches int) *Searcher {
	if minConfidence <= 0 {
		minConfidence = 0.5
	}
	if maxSearches <= 0 {
		maxSearches = 3
	}
	return &Searcher{
		client:        client,
		model:         modelID,
		minConfidence: minConfidence,
		maxSearches:   maxSearches,
	}
}

// Search asks the model for both entities in one shot. Returns
// resilience.ErrNotFound when the model found nothing, a LowConfidenceError
// when it found something below the floor, and an Unreachable error on
// transport failure so the cascade falls through.
func (s *Searcher) Search(ctx context.Context, beerName, breweryHint string) (*model.Candidate, error) {
	resp, err := s.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:          s.model,
		MaxTokens:      2048,
		System:         systemPrompt,
		Messages:       []anthropic.Message{{Role: "user", Content: buildQuery(beerName, breweryHint)}},
		WebSearch:      true,
		MaxWebSearches: s.maxSearches,
	})
	if err != nil {
		return nil, resilience.NewUnreachable("grounded_search", err)
	}

	resp.Usage.LogCost(s.model, "grounded_search")

	finding, err := parseFinding(resp.Text())
	if err != nil {
		zap.L().Warn("grounded: unparseable response",
			zap.String("beer", beerName),
			zap.Error(err),
		)
		return nil, resilience.ErrNotFound
	}

	if !finding.Found {
		return nil, resilience.ErrNotFound
	}
	if finding.Confidence < s.minConfidence {
		zap.L().Debug("grounded: below confidence floor",
			zap.String("beer", beerName),
			zap.Float64("confidence", finding.Confidence),
			zap.Float64("floor", s.minConfidence),
		)
		return nil, &resilience.LowConfidenceError{
			Score:  finding.Confidence,
			Reason: fmt.Sprintf("grounded confidence %.2f below floor %.2f", finding.Confidence, s.minConfidence),
		}
	}

	refs := mergeRefs(finding.Sources, resp.CitedURLs())

	return &model.Candidate{
		SourceKind: model.SourceGrounded,
		Brewery:    finding.Brewery,
		Beer:       finding.Beer,
		Confidence: finding.Confidence,
		SourceRefs: refs,
	}, nil
}

func buildQuery(beerName, breweryHint string) string {
	if breweryHint != "" {
		return fmt.Sprintf("Beer: %q. Brewery hint: %q.", beerName, breweryHint)
	}
	return fmt.Sprintf("Beer: %q. Brewery unknown.", beerName)
}

// mergeRefs combines model-reported sources with tool citations, citations
// first since they are verifiable, deduplicated.
func mergeRefs(reported, cited []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, u := range append(append([]string{}, cited...), reported...) {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
