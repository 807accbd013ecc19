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

// resolveBeer finds or creates the beer record under an already-resolved
// brewery. The OCR reading is only trusted for the name, and even that is
// autocorrected against the enrichment text when the sources spell it
// slightly differently.
func (r *Resolver) resolveBeer(ctx context.Context, brewery *model.Brewery, ocrName string, facts *model.BeerFacts, confidence float64, source model.SourceKind) (*model.Beer, bool, error) {
	name := ocrName
	if facts != nil && facts.Name != "" {
		name = facts.Name
	}

	corrected := name != ocrName
	if facts != nil {
		corr := textmatch.Correct(name, facts.Description, facts.TastingNotes)
		if corr.WasCorrected {
			zap.L().Info("resolver: beer name autocorrected",
				zap.String("from", name),
				zap.String("to", corr.Name),
				zap.Int("distance", corr.Distance),
			)
			name = corr.Name
			corrected = true
		}
	}

	existing, err := r.store.FindBeer(ctx, brewery.ID, name)
	if err != nil {
		return nil, false, eris.Wrap(err, "resolver: beer lookup")
	}

	beer := existing
	if beer == nil {
		beer = &model.Beer{BreweryID: brewery.ID, Name: name}
	}

	mergeBeerFacts(beer, facts)

	if confidence > beer.Confidence {
		beer.Confidence = confidence
	}
	if beer.DataSource == "" && source != "" {
		beer.DataSource = string(source)
	}
	if beer.ValidationStatus == "" || (facts != nil && beer.ValidationStatus == model.ValidationPending) {
		if facts != nil {
			beer.ValidationStatus = model.ValidationScraped
		} else {
			beer.ValidationStatus = model.ValidationPending
		}
	}
	if existing == nil && beer.Confidence == 0 && facts == nil {
		beer.NeedsManualReview = true
		beer.ReviewReason = fmt.Sprintf("beer %q persisted from label guess only", name)
	}
	beer.UpdatedAt = time.Now().UTC()

	if err := r.persistBeer(ctx, beer, existing != nil); err != nil {
		return nil, false, err
	}
	return beer, corrected, nil
}

// persistBeer writes idempotently, same as persistBrewery: a lost create race
// resolves to updating the winner's row.
func (r *Resolver) persistBeer(ctx context.Context, b *model.Beer, existed bool) error {
	if existed {
		return eris.Wrap(r.store.UpdateBeer(ctx, b), "resolver: update beer")
	}

	if err := r.store.CreateBeer(ctx, b); err != nil {
		winner, findErr := r.store.FindBeer(ctx, b.BreweryID, b.Name)
		if findErr != nil || winner == nil {
			return eris.Wrap(err, "resolver: create beer")
		}
		mergeBeerFacts(winner, &model.BeerFacts{
			Style: b.Style, SubStyle: b.SubStyle, ABV: b.ABV, IBU: b.IBU,
			VolumeML: b.VolumeML, Color: b.Color, ServingTempC: b.ServingTempC,
			Description: b.Description, Ingredients: b.Ingredients,
			TastingNotes: b.TastingNotes, Pairing: b.Pairing,
		})
		*b = *winner
		return eris.Wrap(r.store.UpdateBeer(ctx, b), "resolver: merge into concurrent create")
	}
	return nil
}
