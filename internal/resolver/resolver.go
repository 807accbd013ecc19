// Package resolver turns a noisy label guess into canonical brewery and beer
// records. It runs the source cascade (local store, grounded search, search
// engine scraping, direct site extraction), arbitrates candidates through the
// quality scorer and persists the merged result without ever overwriting
// fields a higher-confidence pass already filled.
package resolver

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/birralog/enrich-cli/internal/model"
	"github.com/birralog/enrich-cli/internal/resilience"
	"github.com/birralog/enrich-cli/internal/scorer"
	"github.com/birralog/enrich-cli/internal/store"
	"github.com/birralog/enrich-cli/internal/websearch"
)

// GroundedSearcher is the web-grounded model lookup.
type GroundedSearcher interface {
	Search(ctx context.Context, beerName, breweryHint string) (*model.Candidate, error)
}

// WebSearcher is the search-engine scraper. It never fails; a dead engine is
// an empty result list.
type WebSearcher interface {
	Search(ctx context.Context, query string) []websearch.Result
}

// SiteExtractor crawls a brewery site and mines facts from it.
type SiteExtractor interface {
	Extract(ctx context.Context, baseURL string) (*model.Candidate, error)
	ExtractLogo(ctx context.Context, baseURL string) string
}

// Options tunes the resolver's arbitration thresholds.
type Options struct {
	// FuzzyThreshold is the minimum name similarity for a fuzzy local match.
	FuzzyThreshold float64
	// FuzzySampleSize bounds how many records the in-memory fuzzy pass scans.
	FuzzySampleSize int
}

func (o *Options) withDefaults() {
	if o.FuzzyThreshold <= 0 {
		o.FuzzyThreshold = 0.7
	}
	if o.FuzzySampleSize <= 0 {
		o.FuzzySampleSize = 200
	}
}

// Resolver resolves one bottle at a time. All collaborators are injected so
// tests can run the full cascade against fakes.
type Resolver struct {
	store     store.Store
	grounded  GroundedSearcher
	web       WebSearcher
	filter    *websearch.Filter
	extractor SiteExtractor
	scorer    *scorer.Scorer
	opts      Options
}

// New creates a Resolver.
func New(st store.Store, grounded GroundedSearcher, web WebSearcher, filter *websearch.Filter, extractor SiteExtractor, sc *scorer.Scorer, opts Options) *Resolver {
	opts.withDefaults()
	return &Resolver{
		store:     st,
		grounded:  grounded,
		web:       web,
		filter:    filter,
		extractor: extractor,
		scorer:    sc,
		opts:      opts,
	}
}

// Resolution is the outcome of resolving one bottle. Flagged records are
// persisted anyway; the flag only routes them to the admin review list.
type Resolution struct {
	Brewery   *model.Brewery
	Beer      *model.Beer
	Source    model.SourceKind
	FastPath  bool
	Corrected bool
	Flagged   bool
}

// ResolveBottle runs the full cascade for a single label guess. It returns an
// error only when the bottle cannot be resolved at all; partial results are
// persisted flagged, not failed.
func (r *Resolver) ResolveBottle(ctx context.Context, guess model.LabelGuess) (*Resolution, error) {
	beerName := strings.TrimSpace(guess.BeerName)
	if beerName == "" {
		return nil, eris.New("resolver: empty beer name in label guess")
	}

	if res := r.fastPath(ctx, beerName); res != nil {
		return res, nil
	}

	cand := r.groundedLookup(ctx, guess)

	breweryName := strings.TrimSpace(guess.BreweryNameHint)
	var breweryFacts *model.BreweryFacts
	var beerFacts *model.BeerFacts
	confidence := 0.0
	source := model.SourceKind("")

	if cand != nil {
		if cand.Brewery != nil && cand.Brewery.Name != "" {
			breweryName = cand.Brewery.Name
		}
		breweryFacts = cand.Brewery
		beerFacts = cand.Beer
		confidence = cand.Confidence
		source = cand.SourceKind
	}

	if breweryName == "" {
		return nil, eris.Errorf("resolver: no brewery identified for beer %q", beerName)
	}

	brewery, brewerySource, err := r.resolveBrewery(ctx, breweryName, breweryFacts, confidence)
	if err != nil {
		return nil, err
	}
	if source == "" {
		source = brewerySource
	}

	beer, corrected, err := r.resolveBeer(ctx, brewery, beerName, beerFacts, confidence, source)
	if err != nil {
		return nil, err
	}

	return &Resolution{
		Brewery:   brewery,
		Beer:      beer,
		Source:    source,
		Corrected: corrected,
		Flagged:   brewery.NeedsManualReview || beer.NeedsManualReview,
	}, nil
}

// fastPath short-circuits the cascade when the beer already exists with an
// enriched brewery. This is cost control: every skipped cascade is a saved
// model call and a saved crawl.
func (r *Resolver) fastPath(ctx context.Context, beerName string) *Resolution {
	beer, err := r.store.FindBeerAnyBrewery(ctx, beerName)
	if err != nil || beer == nil {
		return nil
	}
	brewery, err := r.store.GetBrewery(ctx, beer.BreweryID)
	if err != nil || !brewery.IsEnriched() {
		return nil
	}
	zap.L().Debug("resolver: fast path hit",
		zap.String("beer", beerName),
		zap.String("brewery", brewery.Name),
	)
	return &Resolution{
		Brewery:  brewery,
		Beer:     beer,
		Source:   model.SourceLocal,
		FastPath: true,
	}
}

// groundedLookup runs the grounded search and absorbs every failure: the
// cascade has further strategies, so a dead or empty-handed model call is a
// nil candidate, never an error.
func (r *Resolver) groundedLookup(ctx context.Context, guess model.LabelGuess) *model.Candidate {
	cand, err := r.grounded.Search(ctx, guess.BeerName, guess.BreweryNameHint)
	if err == nil {
		return cand
	}
	switch {
	case errors.Is(err, resilience.ErrNotFound), resilience.IsLowConfidence(err):
		zap.L().Debug("resolver: grounded search found nothing usable", zap.String("beer", guess.BeerName))
	case resilience.IsUnreachable(err):
		zap.L().Warn("resolver: grounded search unreachable, falling through",
			zap.String("beer", guess.BeerName),
			zap.Error(err),
		)
	default:
		zap.L().Warn("resolver: grounded search failed, falling through",
			zap.String("beer", guess.BeerName),
			zap.Error(err),
		)
	}
	return nil
}
