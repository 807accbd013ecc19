package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birralog/enrich-cli/internal/model"
	"github.com/birralog/enrich-cli/internal/resilience"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBrewery_CreateAndFind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := &model.Brewery{Name: "Birrificio Italiano", Website: "https://www.birrificioitaliano.it"}
	require.NoError(t, s.CreateBrewery(ctx, b))
	require.NotEmpty(t, b.ID)

	got, err := s.FindBreweryExact(ctx, "BIRRIFICIO   italiano")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, "https://www.birrificioitaliano.it", got.Website)

	partial, err := s.FindBreweryPartial(ctx, "Italiano")
	require.NoError(t, err)
	require.NotNil(t, partial)
	assert.Equal(t, b.ID, partial.ID)

	miss, err := s.FindBreweryExact(ctx, "Baladin")
	require.NoError(t, err)
	assert.Nil(t, miss)

	_, err = s.GetBrewery(ctx, "nonexistent")
	assert.ErrorIs(t, err, resilience.ErrNotFound)
}

func TestBrewery_DuplicateNameRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateBrewery(ctx, &model.Brewery{Name: "Baladin"}))
	err := s.CreateBrewery(ctx, &model.Brewery{Name: "BALADIN"})
	assert.Error(t, err)
}

func TestBrewery_UpdateAndReviewList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := &model.Brewery{Name: "Lambrate"}
	require.NoError(t, s.CreateBrewery(ctx, b))

	b.Website = "https://www.birrificiolambrate.com"
	b.NeedsManualReview = true
	b.ReviewReason = "no sources found"
	require.NoError(t, s.UpdateBrewery(ctx, b))

	flagged, err := s.ListBreweriesNeedingReview(ctx, 10)
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.Equal(t, "no sources found", flagged[0].ReviewReason)
}

func TestBeer_UniquePerBrewery(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b1 := &model.Brewery{Name: "Birrificio Italiano"}
	b2 := &model.Brewery{Name: "Lambrate"}
	require.NoError(t, s.CreateBrewery(ctx, b1))
	require.NoError(t, s.CreateBrewery(ctx, b2))

	require.NoError(t, s.CreateBeer(ctx, &model.Beer{BreweryID: b1.ID, Name: "Tipopils"}))

	// Same name under the same brewery is a conflict.
	assert.Error(t, s.CreateBeer(ctx, &model.Beer{BreweryID: b1.ID, Name: "TIPOPILS"}))
	// Same name under a different brewery is fine.
	assert.NoError(t, s.CreateBeer(ctx, &model.Beer{BreweryID: b2.ID, Name: "Tipopils"}))

	got, err := s.FindBeer(ctx, b1.ID, "tipopils")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, b1.ID, got.BreweryID)

	any, err := s.FindBeerAnyBrewery(ctx, "Tipopils")
	require.NoError(t, err)
	require.NotNil(t, any)

	miss, err := s.FindBeer(ctx, b1.ID, "Ghisa")
	require.NoError(t, err)
	assert.Nil(t, miss)
}

func TestReview_AttachSlotPreservesUserData(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := &model.Review{
		Slots: []model.RatingSlot{
			{Index: 0, Guess: model.LabelGuess{BeerName: "Tipopils"}, Rating: 4, Notes: "great"},
			{Index: 1, Guess: model.LabelGuess{BeerName: "Ghisa"}},
		},
	}
	require.NoError(t, s.CreateReview(ctx, r))

	require.NoError(t, s.AttachSlotRefs(ctx, r.ID, 0, "brewery-1", "beer-1"))

	got, err := s.GetReview(ctx, r.ID)
	require.NoError(t, err)
	slot := got.SlotByIndex(0)
	require.NotNil(t, slot)
	assert.Equal(t, "brewery-1", slot.BreweryID)
	assert.Equal(t, "beer-1", slot.BeerID)
	assert.Equal(t, 4, slot.Rating)
	assert.Equal(t, "great", slot.Notes)

	// Untouched slot stays untouched.
	assert.Empty(t, got.SlotByIndex(1).BreweryID)

	assert.Error(t, s.AttachSlotRefs(ctx, r.ID, 9, "x", "y"))
}

func TestReview_FlagAndError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := &model.Review{Slots: []model.RatingSlot{{Index: 0}}}
	require.NoError(t, s.CreateReview(ctx, r))

	require.NoError(t, s.FlagReview(ctx, r.ID, "1 bottle failed"))
	require.NoError(t, s.SetReviewError(ctx, r.ID, "timeout"))

	got, err := s.GetReview(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, got.NeedsAdminReview)
	assert.Equal(t, "1 bottle failed", got.ReviewReason)
	assert.Equal(t, "timeout", got.ProcessingError)
}

func TestJob_PriorityAndFIFO(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	low, err := s.EnqueueJob(ctx, "rev-low", []model.LabelGuess{{BeerName: "A"}}, 0, 3)
	require.NoError(t, err)
	high, err := s.EnqueueJob(ctx, "rev-high", []model.LabelGuess{{BeerName: "B"}}, 5, 3)
	require.NoError(t, err)

	first, err := s.DequeueJob(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, high.ID, first.ID)
	assert.Equal(t, model.JobActive, first.State)
	assert.Equal(t, 1, first.Attempts)
	require.NotNil(t, first.Heartbeat)

	second, err := s.DequeueJob(ctx)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, low.ID, second.ID)

	empty, err := s.DequeueJob(ctx)
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestJob_RetryRespectsBackoff(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job, err := s.EnqueueJob(ctx, "rev-1", []model.LabelGuess{{BeerName: "A"}}, 0, 3)
	require.NoError(t, err)

	claimed, err := s.DequeueJob(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)

	require.NoError(t, s.RetryJob(ctx, job.ID, "grounded search down", time.Now().Add(time.Hour)))

	// Not runnable until the backoff elapses.
	next, err := s.DequeueJob(ctx)
	require.NoError(t, err)
	assert.Nil(t, next)

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobQueued, got.State)
	assert.Equal(t, "grounded search down", got.LastError)
}

func TestJob_ProgressAndComplete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job, err := s.EnqueueJob(ctx, "rev-1", []model.LabelGuess{{BeerName: "A"}}, 0, 3)
	require.NoError(t, err)

	_, err = s.DequeueJob(ctx)
	require.NoError(t, err)

	require.NoError(t, s.UpdateJobProgress(ctx, job.ID, model.JobProgress{Percent: 40, Step: "web_resolution"}))
	require.NoError(t, s.HeartbeatJob(ctx, job.ID))

	result := &model.JobResult{BottlesProcessed: 1, ProcessingTimeMs: 1200, DataSource: "grounded_search"}
	require.NoError(t, s.CompleteJob(ctx, job.ID, model.JobCompleted, result))

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobCompleted, got.State)
	assert.Equal(t, 40, got.Progress.Percent)
	require.NotNil(t, got.Result)
	assert.Equal(t, 1, got.Result.BottlesProcessed)
	assert.Nil(t, got.Heartbeat)
}

func TestJob_ReclaimStalled(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job, err := s.EnqueueJob(ctx, "rev-1", []model.LabelGuess{{BeerName: "A"}}, 0, 3)
	require.NoError(t, err)
	_, err = s.DequeueJob(ctx)
	require.NoError(t, err)

	// Negative timeout puts the cutoff in the future, so the fresh heartbeat
	// counts as stalled.
	n, err := s.ReclaimStalled(ctx, -time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobQueued, got.State)
}

func TestJob_ReclaimStalled_ExhaustedFails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job, err := s.EnqueueJob(ctx, "rev-1", []model.LabelGuess{{BeerName: "A"}}, 0, 1)
	require.NoError(t, err)
	_, err = s.DequeueJob(ctx)
	require.NoError(t, err)

	n, err := s.ReclaimStalled(ctx, -time.Second)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobFailed, got.State)
}

func TestJob_Archive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job, err := s.EnqueueJob(ctx, "rev-1", []model.LabelGuess{{BeerName: "A"}}, 0, 3)
	require.NoError(t, err)
	_, err = s.DequeueJob(ctx)
	require.NoError(t, err)
	require.NoError(t, s.CompleteJob(ctx, job.ID, model.JobCompleted, &model.JobResult{BottlesProcessed: 1}))

	n, err := s.ArchiveTerminalJobs(ctx, -time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.GetJob(ctx, job.ID)
	assert.ErrorIs(t, err, resilience.ErrNotFound)

	// Queued jobs survive the sweep.
	keep, err := s.EnqueueJob(ctx, "rev-2", []model.LabelGuess{{BeerName: "B"}}, 0, 3)
	require.NoError(t, err)
	n, err = s.ArchiveTerminalJobs(ctx, -time.Second)
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = s.GetJob(ctx, keep.ID)
	assert.NoError(t, err)
}

func TestJobStatsAndCatalogueCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := &model.Brewery{Name: "Birrificio Italiano"}
	require.NoError(t, s.CreateBrewery(ctx, b))
	require.NoError(t, s.CreateBrewery(ctx, &model.Brewery{Name: "Birrificio Lambrate"}))
	require.NoError(t, s.CreateBeer(ctx, &model.Beer{BreweryID: b.ID, Name: "Tipopils"}))

	_, err := s.EnqueueJob(ctx, "rev-1", []model.LabelGuess{{BeerName: "A"}}, 0, 3)
	require.NoError(t, err)
	active, err := s.EnqueueJob(ctx, "rev-2", []model.LabelGuess{{BeerName: "B"}}, 5, 3)
	require.NoError(t, err)
	claimed, err := s.DequeueJob(ctx)
	require.NoError(t, err)
	require.Equal(t, active.ID, claimed.ID)

	stats, err := s.JobStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats[model.JobQueued])
	assert.Equal(t, 1, stats[model.JobActive])
	assert.Zero(t, stats[model.JobCompleted])

	breweries, beers, err := s.CountCatalogue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, breweries)
	assert.Equal(t, 1, beers)
}
