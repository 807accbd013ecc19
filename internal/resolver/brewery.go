package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/birralog/enrich-cli/internal/model"
	"github.com/birralog/enrich-cli/internal/textmatch"
)

// resolveBrewery finds or creates the canonical brewery record for name,
// merging in grounded facts and escalating through web search and direct site
// extraction until the record passes the quality gate or every strategy is
// spent. The record is always persisted, flagged when nothing was usable.
func (r *Resolver) resolveBrewery(ctx context.Context, name string, grounded *model.BreweryFacts, groundedConf float64) (*model.Brewery, model.SourceKind, error) {
	existing, localSource, err := r.lookupLocal(ctx, name)
	if err != nil {
		return nil, "", err
	}

	brewery := existing
	source := localSource
	if brewery == nil {
		brewery = &model.Brewery{Name: name}
	}

	if grounded != nil {
		if mergeBreweryFacts(brewery, grounded) && existing != nil {
			zap.L().Debug("resolver: enriched existing brewery from grounded search",
				zap.String("brewery", brewery.Name),
			)
		}
		if source == "" || existing == nil {
			source = model.SourceGrounded
		}
	}

	verdict := r.scorer.Score(breweryToFacts(brewery))
	if !verdict.IsAcceptable {
		zap.L().Debug("resolver: candidate below quality gate",
			zap.String("brewery", brewery.Name),
			zap.Int("score", verdict.Score),
			zap.String("reason", verdict.Reason),
		)

		if brewery.Website == "" {
			if url := r.findOfficialSite(ctx, brewery.Name); url != "" {
				brewery.Website = url
				source = model.SourceSearchScrape
			}
		}

		// A near-duplicate already in the store may carry the website this
		// candidate is missing. One extra fuzzy pass before giving up.
		if brewery.Website == "" && existing == nil {
			if alt, err := r.fuzzyLocal(ctx, brewery.Name); err != nil {
				return nil, "", err
			} else if alt != nil && alt.Website != "" {
				zap.L().Info("resolver: adopting near-duplicate local record",
					zap.String("wanted", brewery.Name),
					zap.String("found", alt.Name),
				)
				merged := grounded
				existing, brewery, source = alt, alt, model.SourceFuzzyLocal
				if merged != nil {
					mergeBreweryFacts(brewery, merged)
				}
			}
		}
	}

	confidence := groundedConf
	scraped := false

	// Deterministic extraction runs whenever a website is known and the record
	// has not been verified yet, even when the grounded candidate passed the
	// gate: the model sometimes hallucinates a logo or address that a direct
	// crawl disproves.
	if brewery.Website != "" && !brewery.IsEnriched() {
		direct, err := r.extractor.Extract(ctx, brewery.Website)
		if err != nil {
			zap.L().Warn("resolver: direct extraction failed",
				zap.String("site", brewery.Website),
				zap.Error(err),
			)
		} else {
			mergeBreweryFacts(brewery, direct.Brewery)
			scraped = true
			if direct.Confidence > confidence {
				confidence = direct.Confidence
			}
			if source == "" {
				source = model.SourceDirectSite
			}
		}
	}

	// Logo-only pass: a missing or unverified logo is worth one targeted
	// scrape, and a verified logo replaces a model-suggested one.
	if brewery.Website != "" && (brewery.LogoURL == "" || !brewery.LogoVerified) {
		if logo := r.extractor.ExtractLogo(ctx, brewery.Website); logo != "" {
			brewery.LogoURL = logo
			brewery.LogoVerified = true
		}
	}

	r.finalizeLifecycle(brewery, existing != nil, source, confidence, scraped)

	if err := r.persistBrewery(ctx, brewery, existing != nil); err != nil {
		return nil, "", err
	}
	return brewery, source, nil
}

// lookupLocal tries exact, then partial, then fuzzy matching.
func (r *Resolver) lookupLocal(ctx context.Context, name string) (*model.Brewery, model.SourceKind, error) {
	b, err := r.store.FindBreweryExact(ctx, name)
	if err != nil {
		return nil, "", eris.Wrap(err, "resolver: exact lookup")
	}
	if b != nil {
		return b, model.SourceLocal, nil
	}

	b, err = r.store.FindBreweryPartial(ctx, name)
	if err != nil {
		return nil, "", eris.Wrap(err, "resolver: partial lookup")
	}
	if b != nil {
		return b, model.SourceLocal, nil
	}

	b, err = r.fuzzyLocal(ctx, name)
	if err != nil {
		return nil, "", err
	}
	if b != nil {
		return b, model.SourceFuzzyLocal, nil
	}
	return nil, "", nil
}

// fuzzyLocal scans a bounded sample of records for the closest name above the
// similarity threshold.
func (r *Resolver) fuzzyLocal(ctx context.Context, name string) (*model.Brewery, error) {
	sample, err := r.store.SampleBreweries(ctx, r.opts.FuzzySampleSize)
	if err != nil {
		return nil, eris.Wrap(err, "resolver: fuzzy sample")
	}

	var best *model.Brewery
	bestSim := r.opts.FuzzyThreshold
	for i := range sample {
		sim := textmatch.NormalizedSimilarity(name, sample[i].Name)
		if sim > bestSim {
			bestSim = sim
			best = &sample[i]
		}
	}
	if best != nil {
		zap.L().Debug("resolver: fuzzy local match",
			zap.String("wanted", name),
			zap.String("found", best.Name),
			zap.Float64("similarity", bestSim),
		)
	}
	return best, nil
}

// findOfficialSite queries the search engines and filters the results down to
// the most plausible official-site hit.
func (r *Resolver) findOfficialSite(ctx context.Context, name string) string {
	results := r.web.Search(ctx, name+" birrificio sito ufficiale")
	pick := r.filter.PickOfficialSite(results, name)
	if pick == nil {
		return ""
	}
	zap.L().Info("resolver: official site candidate",
		zap.String("brewery", name),
		zap.String("url", pick.URL),
	)
	return pick.URL
}

func (r *Resolver) finalizeLifecycle(b *model.Brewery, existed bool, source model.SourceKind, confidence float64, scraped bool) {
	if scraped {
		b.ValidationStatus = model.ValidationScraped
	} else if b.ValidationStatus == "" {
		b.ValidationStatus = model.ValidationPending
	}

	if confidence > b.Confidence {
		b.Confidence = confidence
	}
	if source != "" && b.DataSource == "" {
		b.DataSource = string(source)
	}

	if !existed && b.Confidence == 0 && !scraped && b.Website == "" {
		b.NeedsManualReview = true
		b.ReviewReason = fmt.Sprintf("no sources found for brewery %q", b.Name)
	} else if b.NeedsManualReview && (b.Confidence > 0 || scraped) {
		// A later run found real data; clear the flag.
		b.NeedsManualReview = false
		b.ReviewReason = ""
	}
	b.UpdatedAt = time.Now().UTC()
}

// persistBrewery writes the record idempotently: a create that loses a race
// to a concurrent attempt falls back to merging into the winner's row.
func (r *Resolver) persistBrewery(ctx context.Context, b *model.Brewery, existed bool) error {
	if existed {
		return eris.Wrap(r.store.UpdateBrewery(ctx, b), "resolver: update brewery")
	}

	if err := r.store.CreateBrewery(ctx, b); err != nil {
		winner, findErr := r.store.FindBreweryExact(ctx, b.Name)
		if findErr != nil || winner == nil {
			return eris.Wrap(err, "resolver: create brewery")
		}
		mergeBreweryRecord(winner, b)
		*b = *winner
		return eris.Wrap(r.store.UpdateBrewery(ctx, b), "resolver: merge into concurrent create")
	}
	return nil
}

// breweryToFacts projects a record into the scorer's candidate shape.
func breweryToFacts(b *model.Brewery) *model.BreweryFacts {
	return &model.BreweryFacts{
		Name:       b.Name,
		Website:    b.Website,
		Address:    b.Address,
		Email:      b.Email,
		Phone:      b.Phone,
		FiscalCode: b.FiscalCode,
		REACode:    b.REACode,
		PECEmail:   b.PECEmail,
		History:    b.History,
	}
}
