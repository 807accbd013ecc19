package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birralog/enrich-cli/internal/model"
	"github.com/birralog/enrich-cli/internal/monitoring"
	"github.com/birralog/enrich-cli/internal/store"
)

func newAPIStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAPI_Health(t *testing.T) {
	h := newRouter(newAPIStore(t), apiOptions{})

	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAPI_ReviewThenJobLifecycle(t *testing.T) {
	s := newAPIStore(t)
	h := newRouter(s, apiOptions{MaxAttempts: 3})

	rec := doJSON(t, h, http.MethodPost, "/api/reviews", map[string]any{
		"guesses": []model.LabelGuess{
			{BeerName: "Tipopils"},
			{BeerName: "Ghisa", BreweryNameHint: "Birrificio Lambrate"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var review model.Review
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &review))
	require.NotEmpty(t, review.ID)
	require.Len(t, review.Slots, 2)

	rec = doJSON(t, h, http.MethodPost, "/api/jobs", map[string]any{
		"review_id": review.ID,
		"priority":  2,
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var job model.EnrichmentJob
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, model.JobQueued, job.State)
	assert.Equal(t, 2, job.Priority)
	assert.Len(t, job.Guesses, 2)

	rec = doJSON(t, h, http.MethodGet, "/api/jobs/"+job.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.EnrichmentJob
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, job.ID, got.ID)
}

func TestAPI_Validation(t *testing.T) {
	h := newRouter(newAPIStore(t), apiOptions{})

	rec := doJSON(t, h, http.MethodPost, "/api/reviews", map[string]any{"guesses": []model.LabelGuess{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/jobs", map[string]any{"priority": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/jobs", map[string]any{"review_id": "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/jobs/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_Stats(t *testing.T) {
	s := newAPIStore(t)
	h := newRouter(s, apiOptions{})
	ctx := context.Background()

	b := &model.Brewery{Name: "Birrificio Italiano"}
	require.NoError(t, s.CreateBrewery(ctx, b))
	require.NoError(t, s.CreateBeer(ctx, &model.Beer{BreweryID: b.ID, Name: "Tipopils"}))
	_, err := s.EnqueueJob(ctx, "rev-1", []model.LabelGuess{{BeerName: "Tipopils"}}, 0, 3)
	require.NoError(t, err)

	rec := doJSON(t, h, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snap monitoring.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, 1, snap.JobsQueued)
	assert.Equal(t, 1, snap.Breweries)
	assert.Equal(t, 1, snap.Beers)
	assert.Zero(t, snap.ReviewBacklog)
}

func TestAPI_NeedsReviewList(t *testing.T) {
	s := newAPIStore(t)
	h := newRouter(s, apiOptions{})
	ctx := context.Background()

	flagged := &model.Brewery{
		Name: "Birrificio Fantasma",
		Lifecycle: model.Lifecycle{
			NeedsManualReview: true,
			ReviewReason:      "no sources found",
		},
	}
	require.NoError(t, s.CreateBrewery(ctx, flagged))
	require.NoError(t, s.CreateBrewery(ctx, &model.Brewery{Name: "Baladin"}))

	rec := doJSON(t, h, http.MethodGet, "/api/breweries/needs-review", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []model.Brewery
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Birrificio Fantasma", got[0].Name)
}
