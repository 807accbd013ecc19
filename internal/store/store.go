// Package store persists the canonical catalogue (breweries, beers, reviews)
// and the durable job queue. Two implementations exist: SQLite for local and
// single-node deployments, Postgres for shared ones.
package store

import (
	"context"
	"time"

	"github.com/birralog/enrich-cli/internal/model"
)

// Store defines the persistence operations of the enrichment pipeline.
// Find* lookups return (nil, nil) on a clean miss; Get* by ID return an error
// when the row does not exist. No operation ever deletes a brewery or beer:
// only archival of terminal jobs removes rows.
type Store interface {
	// Breweries
	CreateBrewery(ctx context.Context, b *model.Brewery) error
	GetBrewery(ctx context.Context, id string) (*model.Brewery, error)
	// FindBreweryExact matches the normalized name exactly.
	FindBreweryExact(ctx context.Context, name string) (*model.Brewery, error)
	// FindBreweryPartial matches on substring containment either way.
	FindBreweryPartial(ctx context.Context, name string) (*model.Brewery, error)
	// SampleBreweries returns up to limit records for fuzzy matching in memory.
	SampleBreweries(ctx context.Context, limit int) ([]model.Brewery, error)
	UpdateBrewery(ctx context.Context, b *model.Brewery) error
	ListBreweriesNeedingReview(ctx context.Context, limit int) ([]model.Brewery, error)

	// Beers
	CreateBeer(ctx context.Context, b *model.Beer) error
	FindBeer(ctx context.Context, breweryID, name string) (*model.Beer, error)
	// FindBeerAnyBrewery powers the fast path: a beer with this name linked
	// to any brewery at all.
	FindBeerAnyBrewery(ctx context.Context, name string) (*model.Beer, error)
	UpdateBeer(ctx context.Context, b *model.Beer) error

	// Reviews
	CreateReview(ctx context.Context, r *model.Review) error
	GetReview(ctx context.Context, id string) (*model.Review, error)
	// ReplaceReviewSlots overwrites the whole slot array. Callers must hold
	// a fresh read proving no concurrent user write happened.
	ReplaceReviewSlots(ctx context.Context, reviewID string, slots []model.RatingSlot) error
	// AttachSlotRefs sets only the entity references of one slot, leaving
	// rating and notes untouched. The targeted write for the race case.
	AttachSlotRefs(ctx context.Context, reviewID string, slotIndex int, breweryID, beerID string) error
	FlagReview(ctx context.Context, reviewID, reason string) error
	SetReviewError(ctx context.Context, reviewID, message string) error

	// Jobs
	EnqueueJob(ctx context.Context, reviewID string, guesses []model.LabelGuess, priority, maxAttempts int) (*model.EnrichmentJob, error)
	// DequeueJob atomically claims the runnable job with the highest
	// priority (FIFO within a priority), marks it active, increments its
	// attempt counter and stamps a heartbeat. Returns (nil, nil) when no
	// job is runnable.
	DequeueJob(ctx context.Context) (*model.EnrichmentJob, error)
	GetJob(ctx context.Context, id string) (*model.EnrichmentJob, error)
	UpdateJobProgress(ctx context.Context, id string, p model.JobProgress) error
	HeartbeatJob(ctx context.Context, id string) error
	CompleteJob(ctx context.Context, id string, state model.JobState, result *model.JobResult) error
	// RetryJob puts a failed attempt back in the queue with a backoff delay.
	RetryJob(ctx context.Context, id string, lastError string, nextRunAt time.Time) error
	// FailJob marks the job terminally failed.
	FailJob(ctx context.Context, id string, lastError string) error
	// ReclaimStalled requeues active jobs whose heartbeat is older than the
	// stall timeout; jobs out of attempts are failed instead. Returns the
	// number of requeued jobs.
	ReclaimStalled(ctx context.Context, stallTimeout time.Duration) (int, error)
	// ArchiveTerminalJobs moves completed/failed jobs older than the grace
	// period out of the live table.
	ArchiveTerminalJobs(ctx context.Context, grace time.Duration) (int, error)
	// JobStats returns live job counts grouped by state.
	JobStats(ctx context.Context) (map[model.JobState]int, error)
	// CountCatalogue returns the total number of breweries and beers.
	CountCatalogue(ctx context.Context) (breweries, beers int, err error)

	Migrate(ctx context.Context) error
	Close() error
}
