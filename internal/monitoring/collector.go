// Package monitoring gathers point-in-time health metrics about the
// enrichment pipeline: queue depth per state, catalogue size, and the manual
// review backlog. The snapshot is served by the status API and meant for
// dashboards and simple threshold alerts.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/birralog/enrich-cli/internal/model"
	"github.com/birralog/enrich-cli/internal/store"
)

// Snapshot holds a point-in-time view of pipeline health.
type Snapshot struct {
	// Queue depth per state.
	JobsQueued           int `json:"jobs_queued"`
	JobsActive           int `json:"jobs_active"`
	JobsCompleted        int `json:"jobs_completed"`
	JobsNeedsAdminReview int `json:"jobs_needs_admin_review"`
	JobsFailed           int `json:"jobs_failed"`

	// FailRate is failed / (completed + needs_admin_review + failed).
	FailRate float64 `json:"fail_rate"`

	// Catalogue size.
	Breweries int `json:"breweries"`
	Beers     int `json:"beers"`

	// ReviewBacklog is the number of breweries flagged for manual review.
	ReviewBacklog int `json:"review_backlog"`

	CollectedAt time.Time `json:"collected_at"`
}

// Collector gathers metrics from the store.
type Collector struct {
	store        store.Store
	backlogLimit int
}

// NewCollector creates a Collector. backlogLimit bounds the review backlog
// count query.
func NewCollector(st store.Store, backlogLimit int) *Collector {
	if backlogLimit <= 0 {
		backlogLimit = 1000
	}
	return &Collector{store: st, backlogLimit: backlogLimit}
}

// Collect builds a snapshot.
func (c *Collector) Collect(ctx context.Context) (*Snapshot, error) {
	stats, err := c.store.JobStats(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: job stats")
	}

	breweries, beers, err := c.store.CountCatalogue(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: count catalogue")
	}

	flagged, err := c.store.ListBreweriesNeedingReview(ctx, c.backlogLimit)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: review backlog")
	}

	snap := &Snapshot{
		JobsQueued:           stats[model.JobQueued],
		JobsActive:           stats[model.JobActive],
		JobsCompleted:        stats[model.JobCompleted],
		JobsNeedsAdminReview: stats[model.JobNeedsAdminReview],
		JobsFailed:           stats[model.JobFailed],
		Breweries:            breweries,
		Beers:                beers,
		ReviewBacklog:        len(flagged),
		CollectedAt:          time.Now().UTC(),
	}

	terminal := snap.JobsCompleted + snap.JobsNeedsAdminReview + snap.JobsFailed
	if terminal > 0 {
		snap.FailRate = float64(snap.JobsFailed) / float64(terminal)
	}
	return snap, nil
}
