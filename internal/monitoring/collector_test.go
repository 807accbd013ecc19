package monitoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birralog/enrich-cli/internal/model"
	"github.com/birralog/enrich-cli/internal/store"
)

func TestCollect(t *testing.T) {
	s, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))

	b := &model.Brewery{Name: "Birrificio Italiano"}
	require.NoError(t, s.CreateBrewery(ctx, b))
	require.NoError(t, s.CreateBrewery(ctx, &model.Brewery{
		Name:      "Birrificio Fantasma",
		Lifecycle: model.Lifecycle{NeedsManualReview: true, ReviewReason: "no sources found"},
	}))
	require.NoError(t, s.CreateBeer(ctx, &model.Beer{BreweryID: b.ID, Name: "Tipopils"}))

	// One queued, one completed, one failed.
	_, err = s.EnqueueJob(ctx, "rev-1", []model.LabelGuess{{BeerName: "A"}}, 0, 3)
	require.NoError(t, err)

	done, err := s.EnqueueJob(ctx, "rev-2", []model.LabelGuess{{BeerName: "B"}}, 5, 3)
	require.NoError(t, err)
	claimed, err := s.DequeueJob(ctx)
	require.NoError(t, err)
	require.Equal(t, done.ID, claimed.ID)
	require.NoError(t, s.CompleteJob(ctx, done.ID, model.JobCompleted, &model.JobResult{BottlesProcessed: 1}))

	dead, err := s.EnqueueJob(ctx, "rev-3", []model.LabelGuess{{BeerName: "C"}}, 5, 1)
	require.NoError(t, err)
	_, err = s.DequeueJob(ctx)
	require.NoError(t, err)
	require.NoError(t, s.FailJob(ctx, dead.ID, "boom"))

	snap, err := NewCollector(s, 0).Collect(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, snap.JobsQueued)
	assert.Equal(t, 1, snap.JobsCompleted)
	assert.Equal(t, 1, snap.JobsFailed)
	assert.Zero(t, snap.JobsActive)
	assert.InDelta(t, 0.5, snap.FailRate, 0.001)
	assert.Equal(t, 2, snap.Breweries)
	assert.Equal(t, 1, snap.Beers)
	assert.Equal(t, 1, snap.ReviewBacklog)
	assert.False(t, snap.CollectedAt.IsZero())
}

func TestCollect_EmptyStore(t *testing.T) {
	s, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))

	snap, err := NewCollector(s, 10).Collect(ctx)
	require.NoError(t, err)
	assert.Zero(t, snap.JobsQueued)
	assert.Zero(t, snap.FailRate)
	assert.Zero(t, snap.Breweries)
}
