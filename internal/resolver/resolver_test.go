package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birralog/enrich-cli/internal/model"
	"github.com/birralog/enrich-cli/internal/resilience"
	"github.com/birralog/enrich-cli/internal/scorer"
	"github.com/birralog/enrich-cli/internal/store"
	"github.com/birralog/enrich-cli/internal/websearch"
)

type fakeGrounded struct {
	cand  *model.Candidate
	err   error
	calls int
}

func (f *fakeGrounded) Search(context.Context, string, string) (*model.Candidate, error) {
	f.calls++
	return f.cand, f.err
}

type fakeWeb struct {
	results []websearch.Result
	calls   int
}

func (f *fakeWeb) Search(context.Context, string) []websearch.Result {
	f.calls++
	return f.results
}

type fakeExtractor struct {
	cand         *model.Candidate
	err          error
	logo         string
	extractCalls int
	logoCalls    int
}

func (f *fakeExtractor) Extract(context.Context, string) (*model.Candidate, error) {
	f.extractCalls++
	return f.cand, f.err
}

func (f *fakeExtractor) ExtractLogo(context.Context, string) string {
	f.logoCalls++
	return f.logo
}

type deps struct {
	store     store.Store
	grounded  *fakeGrounded
	web       *fakeWeb
	extractor *fakeExtractor
}

func newResolver(t *testing.T, d *deps) *Resolver {
	t.Helper()
	if d.store == nil {
		s, err := store.NewSQLite(":memory:")
		require.NoError(t, err)
		require.NoError(t, s.Migrate(context.Background()))
		t.Cleanup(func() { _ = s.Close() })
		d.store = s
	}
	if d.grounded == nil {
		d.grounded = &fakeGrounded{err: resilience.ErrNotFound}
	}
	if d.web == nil {
		d.web = &fakeWeb{}
	}
	if d.extractor == nil {
		d.extractor = &fakeExtractor{err: resilience.NewUnreachable("direct_site", nil)}
	}
	return New(d.store, d.grounded, d.web,
		websearch.NewFilter([]string{"untappd.com", "wikipedia.org"}),
		d.extractor, scorer.New(0), Options{})
}

func groundedTipopils() *model.Candidate {
	return &model.Candidate{
		SourceKind: model.SourceGrounded,
		Confidence: 0.8,
		Brewery: &model.BreweryFacts{
			Name:    "Birrificio Italiano",
			Website: "https://www.birrificioitaliano.it",
		},
		Beer: &model.BeerFacts{
			Name:  "Tipopils",
			Style: "Pilsner",
			ABV:   5.2,
		},
		SourceRefs: []string{"https://www.birrificioitaliano.it"},
	}
}

func directItaliano() *model.Candidate {
	return &model.Candidate{
		SourceKind: model.SourceDirectSite,
		Confidence: 0.6,
		Brewery: &model.BreweryFacts{
			Website:      "https://www.birrificioitaliano.it",
			Address:      "Via Castello 51, 22070 Lurago Marinone (CO)",
			Email:        "info@birrificioitaliano.it",
			FiscalCode:   "02072810136",
			LogoURL:      "https://www.birrificioitaliano.it/logo.png",
			LogoVerified: true,
		},
	}
}

func TestResolveBottle_EndToEnd(t *testing.T) {
	d := &deps{
		grounded:  &fakeGrounded{cand: groundedTipopils()},
		extractor: &fakeExtractor{cand: directItaliano()},
	}
	r := newResolver(t, d)
	ctx := context.Background()

	res, err := r.ResolveBottle(ctx, model.LabelGuess{BeerName: "Tipopils"})
	require.NoError(t, err)

	assert.False(t, res.FastPath)
	assert.False(t, res.Flagged)
	assert.Equal(t, model.SourceGrounded, res.Source)

	b := res.Brewery
	assert.Equal(t, "Birrificio Italiano", b.Name)
	assert.Equal(t, "https://www.birrificioitaliano.it", b.Website)
	assert.Equal(t, "Via Castello 51, 22070 Lurago Marinone (CO)", b.Address)
	assert.Equal(t, model.ValidationScraped, b.ValidationStatus)
	assert.InDelta(t, 0.8, b.Confidence, 0.001)
	assert.True(t, b.LogoVerified)

	beer := res.Beer
	assert.Equal(t, "Tipopils", beer.Name)
	assert.Equal(t, b.ID, beer.BreweryID)
	assert.Equal(t, "Pilsner", beer.Style)
	assert.InDelta(t, 5.2, beer.ABV, 0.001)

	// Records are really persisted.
	stored, err := d.store.FindBreweryExact(ctx, "birrificio italiano")
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestResolveBottle_SecondRunTakesFastPath(t *testing.T) {
	d := &deps{
		grounded:  &fakeGrounded{cand: groundedTipopils()},
		extractor: &fakeExtractor{cand: directItaliano()},
	}
	r := newResolver(t, d)
	ctx := context.Background()

	first, err := r.ResolveBottle(ctx, model.LabelGuess{BeerName: "Tipopils"})
	require.NoError(t, err)

	second, err := r.ResolveBottle(ctx, model.LabelGuess{BeerName: "Tipopils"})
	require.NoError(t, err)

	assert.True(t, second.FastPath)
	assert.Equal(t, model.SourceLocal, second.Source)
	assert.Equal(t, first.Brewery.ID, second.Brewery.ID)
	assert.Equal(t, first.Beer.ID, second.Beer.ID)
	assert.Equal(t, 1, d.grounded.calls, "fast path must not hit the model again")
}

func TestResolveBottle_NonDestructiveEnrichment(t *testing.T) {
	d := &deps{grounded: &fakeGrounded{cand: &model.Candidate{
		SourceKind: model.SourceGrounded,
		Confidence: 0.6,
		Brewery: &model.BreweryFacts{
			Name:    "Birrificio Lambrate",
			Website: "https://wrong.example.com",
			Phone:   "+390289126",
		},
		Beer: &model.BeerFacts{Name: "Ghisa"},
	}}}
	r := newResolver(t, d)
	ctx := context.Background()

	existing := &model.Brewery{
		Name:    "Birrificio Lambrate",
		Website: "https://www.birrificiolambrate.com",
		Lifecycle: model.Lifecycle{
			Confidence:       0.9,
			ValidationStatus: model.ValidationValidated,
		},
	}
	require.NoError(t, d.store.CreateBrewery(ctx, existing))

	res, err := r.ResolveBottle(ctx, model.LabelGuess{BeerName: "Ghisa", BreweryNameHint: "Birrificio Lambrate"})
	require.NoError(t, err)

	assert.Equal(t, existing.ID, res.Brewery.ID)
	assert.Equal(t, "https://www.birrificiolambrate.com", res.Brewery.Website,
		"a populated website must never be replaced by a lower-confidence candidate")
	assert.Equal(t, "+390289126", res.Brewery.Phone, "gaps still get filled")
	assert.InDelta(t, 0.9, res.Brewery.Confidence, 0.001)
}

func TestResolveBottle_WebSearchFallback(t *testing.T) {
	d := &deps{
		grounded: &fakeGrounded{err: resilience.NewUnreachable("grounded_search", nil)},
		web: &fakeWeb{results: []websearch.Result{
			{Title: "Birrificio Lambrate | Untappd", URL: "https://untappd.com/w/lambrate"},
			{Title: "Birrificio Lambrate - il birrificio di Milano", URL: "https://www.birrificiolambrate.com"},
		}},
		extractor: &fakeExtractor{cand: &model.Candidate{
			SourceKind: model.SourceDirectSite,
			Confidence: 0.4,
			Brewery: &model.BreweryFacts{
				Website: "https://www.birrificiolambrate.com",
				Address: "Via Adelchi 5, 20131 Milano (MI)",
			},
		}},
	}
	r := newResolver(t, d)

	res, err := r.ResolveBottle(context.Background(), model.LabelGuess{
		BeerName:        "Ghisa",
		BreweryNameHint: "Birrificio Lambrate",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, d.web.calls)
	assert.Equal(t, 1, d.extractor.extractCalls)
	assert.Equal(t, model.SourceSearchScrape, res.Source)
	assert.Equal(t, "https://www.birrificiolambrate.com", res.Brewery.Website)
	assert.Equal(t, "Via Adelchi 5, 20131 Milano (MI)", res.Brewery.Address)
	assert.Equal(t, model.ValidationScraped, res.Brewery.ValidationStatus)
}

func TestResolveBottle_AllStrategiesFail(t *testing.T) {
	r := newResolver(t, &deps{})
	ctx := context.Background()

	res, err := r.ResolveBottle(ctx, model.LabelGuess{
		BeerName:        "Sconosciuta",
		BreweryNameHint: "Birrificio Fantasma",
	})
	require.NoError(t, err, "an unresolvable bottle is flagged, not failed")

	assert.True(t, res.Flagged)
	assert.True(t, res.Brewery.NeedsManualReview)
	assert.Contains(t, res.Brewery.ReviewReason, "Birrificio Fantasma")
	assert.Zero(t, res.Brewery.Confidence)
	assert.True(t, res.Beer.NeedsManualReview)
}

func TestResolveBottle_NoBreweryIdentified(t *testing.T) {
	r := newResolver(t, &deps{})

	_, err := r.ResolveBottle(context.Background(), model.LabelGuess{BeerName: "Misteriosa"})
	assert.Error(t, err)
}

func TestResolveBottle_EmptyBeerName(t *testing.T) {
	r := newResolver(t, &deps{})

	_, err := r.ResolveBottle(context.Background(), model.LabelGuess{BeerName: "   "})
	assert.Error(t, err)
}

func TestResolveBottle_AutocorrectsBeerName(t *testing.T) {
	d := &deps{grounded: &fakeGrounded{cand: &model.Candidate{
		SourceKind: model.SourceGrounded,
		Confidence: 0.7,
		Brewery:    &model.BreweryFacts{Name: "Birrificio Rurale", Website: "https://www.birrificiorurale.it"},
		Beer: &model.BeerFacts{
			Description: "Sudigiri è una session IPA leggera e dissetante.",
		},
	}}}
	r := newResolver(t, d)

	res, err := r.ResolveBottle(context.Background(), model.LabelGuess{BeerName: "Sudigir"})
	require.NoError(t, err)

	assert.True(t, res.Corrected)
	assert.Equal(t, "Sudigiri", res.Beer.Name)
}

func TestResolveBottle_AutocorrectDoesNotFireOnUnrelatedText(t *testing.T) {
	d := &deps{grounded: &fakeGrounded{cand: &model.Candidate{
		SourceKind: model.SourceGrounded,
		Confidence: 0.7,
		Brewery:    &model.BreweryFacts{Name: "Birrificio Rurale", Website: "https://www.birrificiorurale.it"},
		Beer: &model.BeerFacts{
			Description: "Completely Different Name appears in this text.",
		},
	}}}
	r := newResolver(t, d)

	res, err := r.ResolveBottle(context.Background(), model.LabelGuess{BeerName: "Sudigir"})
	require.NoError(t, err)

	assert.False(t, res.Corrected)
	assert.Equal(t, "Sudigir", res.Beer.Name)
}

func TestResolveBottle_FuzzyLocalMatch(t *testing.T) {
	d := &deps{}
	r := newResolver(t, d)
	ctx := context.Background()

	existing := &model.Brewery{
		Name:    "Birrificio Lambrate",
		Website: "https://www.birrificiolambrate.com",
		Lifecycle: model.Lifecycle{
			Confidence:       0.8,
			ValidationStatus: model.ValidationScraped,
		},
	}
	require.NoError(t, d.store.CreateBrewery(ctx, existing))

	// One flipped character in the hint still lands on the existing record.
	res, err := r.ResolveBottle(ctx, model.LabelGuess{
		BeerName:        "Ghisa",
		BreweryNameHint: "Birrificio Lambrata",
	})
	require.NoError(t, err)

	assert.Equal(t, existing.ID, res.Brewery.ID)
	assert.Equal(t, model.SourceFuzzyLocal, res.Source)

	// No duplicate row was created.
	sample, err := d.store.SampleBreweries(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, sample, 1)
}

func TestResolveBottle_Idempotent(t *testing.T) {
	d := &deps{
		grounded:  &fakeGrounded{cand: groundedTipopils()},
		extractor: &fakeExtractor{cand: directItaliano()},
	}
	r := newResolver(t, d)
	ctx := context.Background()

	_, err := r.ResolveBottle(ctx, model.LabelGuess{BeerName: "Tipopils"})
	require.NoError(t, err)
	_, err = r.ResolveBottle(ctx, model.LabelGuess{BeerName: "Tipopils"})
	require.NoError(t, err)

	sample, err := d.store.SampleBreweries(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, sample, 1, "two runs must not duplicate the brewery")
}
