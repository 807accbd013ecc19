package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/birralog/enrich-cli/internal/model"
	"github.com/birralog/enrich-cli/internal/monitoring"
	"github.com/birralog/enrich-cli/internal/resilience"
	"github.com/birralog/enrich-cli/internal/store"
)

// apiOptions are the queue knobs the intake endpoint applies to new jobs.
type apiOptions struct {
	MaxAttempts int
}

// newRouter builds the HTTP API. Factored out of the serve command so handler
// tests can drive it directly with httptest.
func newRouter(st store.Store, opts apiOptions) http.Handler {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/reviews", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Guesses []model.LabelGuess `json:"guesses"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if len(body.Guesses) == 0 {
			writeError(w, http.StatusBadRequest, "at least one guess is required")
			return
		}

		slots := make([]model.RatingSlot, len(body.Guesses))
		for i, g := range body.Guesses {
			slots[i] = model.RatingSlot{Index: i, Guess: g}
		}
		review := &model.Review{Slots: slots}
		if err := st.CreateReview(req.Context(), review); err != nil {
			zap.L().Error("api: create review failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "create review failed")
			return
		}
		writeJSON(w, http.StatusCreated, review)
	})

	// Job intake: called once a human has confirmed the review, never before.
	r.Post("/api/jobs", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			ReviewID string `json:"review_id"`
			Priority int    `json:"priority"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.ReviewID == "" {
			writeError(w, http.StatusBadRequest, "review_id is required")
			return
		}

		review, err := st.GetReview(req.Context(), body.ReviewID)
		if err != nil {
			if errors.Is(err, resilience.ErrNotFound) {
				writeError(w, http.StatusNotFound, "review not found")
				return
			}
			zap.L().Error("api: load review failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "load review failed")
			return
		}

		guesses := make([]model.LabelGuess, len(review.Slots))
		for i, s := range review.Slots {
			guesses[i] = s.Guess
		}

		job, err := st.EnqueueJob(req.Context(), review.ID, guesses, body.Priority, opts.MaxAttempts)
		if err != nil {
			zap.L().Error("api: enqueue failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "enqueue failed")
			return
		}
		writeJSON(w, http.StatusAccepted, job)
	})

	// Status query, polled by the user-facing endpoint.
	r.Get("/api/jobs/{id}", func(w http.ResponseWriter, req *http.Request) {
		job, err := st.GetJob(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			if errors.Is(err, resilience.ErrNotFound) {
				writeError(w, http.StatusNotFound, "job not found")
				return
			}
			zap.L().Error("api: load job failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "load job failed")
			return
		}
		writeJSON(w, http.StatusOK, job)
	})

	collector := monitoring.NewCollector(st, 1000)
	r.Get("/api/stats", func(w http.ResponseWriter, req *http.Request) {
		snap, err := collector.Collect(req.Context())
		if err != nil {
			zap.L().Error("api: collect stats failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "stats failed")
			return
		}
		writeJSON(w, http.StatusOK, snap)
	})

	r.Get("/api/breweries/needs-review", func(w http.ResponseWriter, req *http.Request) {
		flagged, err := st.ListBreweriesNeedingReview(req.Context(), 100)
		if err != nil {
			zap.L().Error("api: list needs-review failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "list failed")
			return
		}
		writeJSON(w, http.StatusOK, flagged)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
