// Package enrich orchestrates one enrichment job: resolve every bottle of a
// confirmed review sequentially, attach the resulting entity references to
// the review's rating slots without clobbering concurrent user writes, and
// decide the job's terminal state.
package enrich

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/birralog/enrich-cli/internal/model"
	"github.com/birralog/enrich-cli/internal/queue"
	"github.com/birralog/enrich-cli/internal/resolver"
	"github.com/birralog/enrich-cli/internal/store"
)

// BottleResolver resolves a single label guess into persisted entities.
type BottleResolver interface {
	ResolveBottle(ctx context.Context, guess model.LabelGuess) (*resolver.Resolution, error)
}

// Orchestrator processes enrichment jobs. It satisfies queue.ProcessFunc via
// its Process method.
type Orchestrator struct {
	store    store.Store
	resolver BottleResolver
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(st store.Store, res BottleResolver) *Orchestrator {
	return &Orchestrator{store: st, resolver: res}
}

// Process runs one job to a terminal outcome. Per-bottle failures are
// absorbed as long as at least one bottle resolves; zero successes is fatal
// and returns an error so the queue retries the job.
func (o *Orchestrator) Process(ctx context.Context, job *model.EnrichmentJob) (*queue.Outcome, error) {
	start := time.Now()
	log := zap.L().With(zap.String("job_id", job.ID), zap.String("review_id", job.ReviewID))

	// The slot snapshot taken now is what the race guard compares against
	// before writing entity references at the end.
	baseline, err := o.store.GetReview(ctx, job.ReviewID)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: load review")
	}
	if len(job.Guesses) == 0 {
		return nil, eris.Errorf("enrich: job %s has no bottles", job.ID)
	}

	o.checkpoint(ctx, job.ID, 5, "job_start")

	resolutions := make([]*resolver.Resolution, len(job.Guesses))
	var errs []string
	resolved := 0

	// Bottles run sequentially: the downstream sources are rate-limited and
	// parallel bottles would multiply outbound fan-out per job.
	for i, guess := range job.Guesses {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "enrich: cancelled mid-job")
		}

		res, err := o.resolver.ResolveBottle(ctx, guess)
		if err != nil {
			log.Warn("enrich: bottle failed",
				zap.Int("bottle", i),
				zap.String("beer", guess.BeerName),
				zap.Error(err),
			)
			errs = append(errs, fmt.Sprintf("bottle %d (%s): %s", i, guess.BeerName, eris.ToString(err, false)))
		} else {
			resolutions[i] = res
			resolved++
		}

		o.checkpoint(ctx, job.ID, 10+70*(i+1)/len(job.Guesses), "bottle_resolved")
	}

	if resolved == 0 {
		msg := "no bottle could be resolved: " + strings.Join(errs, "; ")
		if setErr := o.store.SetReviewError(ctx, job.ReviewID, msg); setErr != nil {
			log.Error("enrich: recording processing error failed", zap.Error(setErr))
		}
		return nil, eris.New("enrich: " + msg)
	}

	o.checkpoint(ctx, job.ID, 85, "validation")

	if err := o.attachReferences(ctx, job.ReviewID, baseline, resolutions); err != nil {
		if setErr := o.store.SetReviewError(ctx, job.ReviewID, eris.ToString(err, false)); setErr != nil {
			log.Error("enrich: recording processing error failed", zap.Error(setErr))
		}
		return nil, err
	}

	state := model.JobCompleted
	if len(errs) > 0 {
		state = model.JobNeedsAdminReview
		reason := fmt.Sprintf("%d of %d bottles failed: %s", len(errs), len(job.Guesses), strings.Join(errs, "; "))
		if err := o.store.FlagReview(ctx, job.ReviewID, reason); err != nil {
			log.Error("enrich: flagging review failed", zap.Error(err))
		}
	}

	o.checkpoint(ctx, job.ID, 100, "completed")
	log.Info("enrich: job processed",
		zap.Int("resolved", resolved),
		zap.Int("failed", len(errs)),
		zap.String("state", string(state)),
	)

	return &queue.Outcome{
		State: state,
		Result: &model.JobResult{
			BottlesProcessed: resolved,
			Errors:           errs,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			DataSource:       dominantSource(resolutions),
		},
	}, nil
}

// attachReferences writes entity references onto the review's slots. When the
// user has written ratings or notes since the job started, the whole-array
// replace is unsafe; each resolved slot gets a targeted update instead.
func (o *Orchestrator) attachReferences(ctx context.Context, reviewID string, baseline *model.Review, resolutions []*resolver.Resolution) error {
	current, err := o.store.GetReview(ctx, reviewID)
	if err != nil {
		return eris.Wrap(err, "enrich: re-read review")
	}

	if userWroteSince(baseline, current) {
		zap.L().Info("enrich: concurrent user write detected, switching to per-slot updates",
			zap.String("review_id", reviewID),
		)
		for i, res := range resolutions {
			if res == nil {
				continue
			}
			if err := o.store.AttachSlotRefs(ctx, reviewID, i, res.Brewery.ID, res.Beer.ID); err != nil {
				return eris.Wrapf(err, "enrich: attach refs to slot %d", i)
			}
		}
		return nil
	}

	slots := make([]model.RatingSlot, len(current.Slots))
	copy(slots, current.Slots)
	for i, res := range resolutions {
		if res == nil {
			continue
		}
		for j := range slots {
			if slots[j].Index == i {
				slots[j].BreweryID = res.Brewery.ID
				slots[j].BeerID = res.Beer.ID
				break
			}
		}
	}
	return eris.Wrap(o.store.ReplaceReviewSlots(ctx, reviewID, slots), "enrich: replace slots")
}

// userWroteSince reports whether any slot gained rating or notes content
// between the two reads.
func userWroteSince(before, after *model.Review) bool {
	for _, s := range after.Slots {
		b := before.SlotByIndex(s.Index)
		if b == nil {
			return true
		}
		if s.Rating != b.Rating || s.Notes != b.Notes {
			return true
		}
	}
	return false
}

// checkpoint reports monotonic progress; a failed write never fails the job.
func (o *Orchestrator) checkpoint(ctx context.Context, jobID string, percent int, step string) {
	if err := o.store.UpdateJobProgress(ctx, jobID, model.JobProgress{Percent: percent, Step: step}); err != nil {
		zap.L().Warn("enrich: progress write failed",
			zap.String("job_id", jobID),
			zap.String("step", step),
			zap.Error(err),
		)
	}
}

// dominantSource picks the most frequent source kind among resolutions, for
// the terminal result's data_source field.
func dominantSource(resolutions []*resolver.Resolution) string {
	counts := map[model.SourceKind]int{}
	var best model.SourceKind
	for _, res := range resolutions {
		if res == nil || res.Source == "" {
			continue
		}
		counts[res.Source]++
		if counts[res.Source] > counts[best] {
			best = res.Source
		}
	}
	return string(best)
}
