package enrich

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birralog/enrich-cli/internal/model"
	"github.com/birralog/enrich-cli/internal/resolver"
	"github.com/birralog/enrich-cli/internal/store"
)

type fakeResolver struct {
	fn func(ctx context.Context, guess model.LabelGuess) (*resolver.Resolution, error)
}

func (f *fakeResolver) ResolveBottle(ctx context.Context, guess model.LabelGuess) (*resolver.Resolution, error) {
	return f.fn(ctx, guess)
}

func newEnrichStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// setupJob creates a review with one slot per guess and a claimed job for it.
func setupJob(t *testing.T, s store.Store, guesses []model.LabelGuess) (*model.Review, *model.EnrichmentJob) {
	t.Helper()
	ctx := context.Background()

	slots := make([]model.RatingSlot, len(guesses))
	for i, g := range guesses {
		slots[i] = model.RatingSlot{Index: i, Guess: g}
	}
	review := &model.Review{Slots: slots}
	require.NoError(t, s.CreateReview(ctx, review))

	_, err := s.EnqueueJob(ctx, review.ID, guesses, 0, 3)
	require.NoError(t, err)
	job, err := s.DequeueJob(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	return review, job
}

func resolutionFor(guess model.LabelGuess, source model.SourceKind) *resolver.Resolution {
	return &resolver.Resolution{
		Brewery: &model.Brewery{ID: "brewery-" + guess.BeerName, Name: "Birrificio " + guess.BeerName},
		Beer:    &model.Beer{ID: "beer-" + guess.BeerName, Name: guess.BeerName},
		Source:  source,
	}
}

func TestProcess_AllBottlesResolved(t *testing.T) {
	s := newEnrichStore(t)
	ctx := context.Background()

	guesses := []model.LabelGuess{{BeerName: "Tipopils"}, {BeerName: "Ghisa"}}
	review, job := setupJob(t, s, guesses)

	o := NewOrchestrator(s, &fakeResolver{fn: func(_ context.Context, g model.LabelGuess) (*resolver.Resolution, error) {
		return resolutionFor(g, model.SourceGrounded), nil
	}})

	out, err := o.Process(ctx, job)
	require.NoError(t, err)

	assert.Equal(t, model.JobCompleted, out.State)
	assert.Equal(t, 2, out.Result.BottlesProcessed)
	assert.Empty(t, out.Result.Errors)
	assert.Equal(t, "grounded_search", out.Result.DataSource)

	got, err := s.GetReview(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, "brewery-Tipopils", got.SlotByIndex(0).BreweryID)
	assert.Equal(t, "beer-Tipopils", got.SlotByIndex(0).BeerID)
	assert.Equal(t, "brewery-Ghisa", got.SlotByIndex(1).BreweryID)
	assert.False(t, got.NeedsAdminReview)

	// Progress reached the final checkpoint.
	j, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, j.Progress.Percent)
}

func TestProcess_PartialFailureFlagsReview(t *testing.T) {
	s := newEnrichStore(t)
	ctx := context.Background()

	guesses := []model.LabelGuess{{BeerName: "Tipopils"}, {BeerName: "Introvabile"}}
	review, job := setupJob(t, s, guesses)

	o := NewOrchestrator(s, &fakeResolver{fn: func(_ context.Context, g model.LabelGuess) (*resolver.Resolution, error) {
		if g.BeerName == "Introvabile" {
			return nil, eris.New("no brewery identified")
		}
		return resolutionFor(g, model.SourceDirectSite), nil
	}})

	out, err := o.Process(ctx, job)
	require.NoError(t, err, "partial failure is absorbed, not propagated")

	assert.Equal(t, model.JobNeedsAdminReview, out.State)
	assert.Equal(t, 1, out.Result.BottlesProcessed)
	require.Len(t, out.Result.Errors, 1)
	assert.Contains(t, out.Result.Errors[0], "Introvabile")

	got, err := s.GetReview(ctx, review.ID)
	require.NoError(t, err)
	assert.True(t, got.NeedsAdminReview)
	assert.Contains(t, got.ReviewReason, "1 of 2 bottles failed")
	// The successful bottle still got its references.
	assert.Equal(t, "brewery-Tipopils", got.SlotByIndex(0).BreweryID)
	assert.Empty(t, got.SlotByIndex(1).BreweryID)
}

func TestProcess_TotalFailureIsFatal(t *testing.T) {
	s := newEnrichStore(t)
	ctx := context.Background()

	guesses := []model.LabelGuess{{BeerName: "A"}, {BeerName: "B"}}
	review, job := setupJob(t, s, guesses)

	o := NewOrchestrator(s, &fakeResolver{fn: func(context.Context, model.LabelGuess) (*resolver.Resolution, error) {
		return nil, eris.New("not found anywhere")
	}})

	_, err := o.Process(ctx, job)
	require.Error(t, err, "zero successes must propagate so the queue retries")

	got, err := s.GetReview(ctx, review.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, got.ProcessingError)
	assert.Contains(t, got.ProcessingError, "no bottle could be resolved")
}

func TestProcess_RaceGuardPreservesUserWrites(t *testing.T) {
	s := newEnrichStore(t)
	ctx := context.Background()

	guesses := []model.LabelGuess{{BeerName: "Tipopils"}}
	review, job := setupJob(t, s, guesses)

	o := NewOrchestrator(s, &fakeResolver{fn: func(_ context.Context, g model.LabelGuess) (*resolver.Resolution, error) {
		// Simulate the user saving a rating while the bottle resolves.
		current, err := s.GetReview(ctx, review.ID)
		if err != nil {
			return nil, err
		}
		current.Slots[0].Rating = 4
		current.Slots[0].Notes = "great"
		if err := s.ReplaceReviewSlots(ctx, review.ID, current.Slots); err != nil {
			return nil, err
		}
		return resolutionFor(g, model.SourceGrounded), nil
	}})

	out, err := o.Process(ctx, job)
	require.NoError(t, err)
	assert.Equal(t, model.JobCompleted, out.State)

	got, err := s.GetReview(ctx, review.ID)
	require.NoError(t, err)
	slot := got.SlotByIndex(0)
	assert.Equal(t, 4, slot.Rating, "user rating must survive the attachment write")
	assert.Equal(t, "great", slot.Notes)
	assert.Equal(t, "brewery-Tipopils", slot.BreweryID)
	assert.Equal(t, "beer-Tipopils", slot.BeerID)
}

func TestProcess_EmptyJobIsFatal(t *testing.T) {
	s := newEnrichStore(t)
	ctx := context.Background()

	review := &model.Review{Slots: nil}
	require.NoError(t, s.CreateReview(ctx, review))
	_, err := s.EnqueueJob(ctx, review.ID, nil, 0, 3)
	require.NoError(t, err)
	job, err := s.DequeueJob(ctx)
	require.NoError(t, err)

	o := NewOrchestrator(s, &fakeResolver{fn: func(context.Context, model.LabelGuess) (*resolver.Resolution, error) {
		t.Fatal("resolver must not be called for an empty job")
		return nil, nil
	}})

	_, err = o.Process(ctx, job)
	assert.Error(t, err)
}
