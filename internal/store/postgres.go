package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/birralog/enrich-cli/internal/db"
	"github.com/birralog/enrich-cli/internal/model"
	"github.com/birralog/enrich-cli/internal/resilience"
	"github.com/birralog/enrich-cli/internal/textmatch"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}

	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool; used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool exposes the underlying pool for bulk import helpers.
func (s *PostgresStore) Pool() db.Pool { return s.pool }

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS breweries (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	name_norm  TEXT NOT NULL UNIQUE,
	data       JSONB NOT NULL,
	needs_manual_review BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS beers (
	id         TEXT PRIMARY KEY,
	brewery_id TEXT NOT NULL REFERENCES breweries(id),
	name       TEXT NOT NULL,
	name_norm  TEXT NOT NULL,
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE (brewery_id, name_norm)
);

CREATE TABLE IF NOT EXISTS reviews (
	id         TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS jobs (
	id           TEXT PRIMARY KEY,
	review_id    TEXT NOT NULL,
	guesses      JSONB NOT NULL,
	state        TEXT NOT NULL DEFAULT 'queued',
	priority     INTEGER NOT NULL DEFAULT 0,
	progress     JSONB,
	attempts     INTEGER NOT NULL DEFAULT 0,
	max_attempts INTEGER NOT NULL DEFAULT 3,
	last_error   TEXT,
	next_run_at  TIMESTAMPTZ NOT NULL,
	heartbeat    TIMESTAMPTZ,
	result       JSONB,
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS archived_jobs (
	id          TEXT PRIMARY KEY,
	review_id   TEXT NOT NULL,
	state       TEXT NOT NULL,
	result      JSONB,
	archived_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_beers_name_norm ON beers(name_norm);
CREATE INDEX IF NOT EXISTS idx_jobs_state_priority ON jobs(state, priority, next_run_at);
CREATE INDEX IF NOT EXISTS idx_breweries_review ON breweries(needs_manual_review);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// --- breweries ---

func (s *PostgresStore) CreateBrewery(ctx context.Context, b *model.Brewery) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	data, err := json.Marshal(b)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal brewery")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO breweries (id, name, name_norm, data, needs_manual_review, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		b.ID, b.Name, textmatch.Normalize(b.Name), data, b.NeedsManualReview, now, now,
	)
	return eris.Wrapf(err, "postgres: insert brewery %s", b.Name)
}

func (s *PostgresStore) GetBrewery(ctx context.Context, id string) (*model.Brewery, error) {
	return s.queryBrewery(ctx, `SELECT data FROM breweries WHERE id = $1`, false, id)
}

func (s *PostgresStore) FindBreweryExact(ctx context.Context, name string) (*model.Brewery, error) {
	return s.queryBrewery(ctx,
		`SELECT data FROM breweries WHERE name_norm = $1`, true, textmatch.Normalize(name))
}

func (s *PostgresStore) FindBreweryPartial(ctx context.Context, name string) (*model.Brewery, error) {
	norm := textmatch.Normalize(name)
	return s.queryBrewery(ctx,
		`SELECT data FROM breweries
		 WHERE name_norm LIKE '%' || $1 || '%' OR $1 LIKE '%' || name_norm || '%'
		 ORDER BY length(name_norm) LIMIT 1`, true, norm)
}

func (s *PostgresStore) SampleBreweries(ctx context.Context, limit int) ([]model.Brewery, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM breweries ORDER BY updated_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: sample breweries")
	}
	defer rows.Close()
	return collectBreweriesPgx(rows)
}

func (s *PostgresStore) UpdateBrewery(ctx context.Context, b *model.Brewery) error {
	b.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(b)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal brewery")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE breweries SET name = $1, name_norm = $2, data = $3, needs_manual_review = $4, updated_at = $5
		 WHERE id = $6`,
		b.Name, textmatch.Normalize(b.Name), data, b.NeedsManualReview, b.UpdatedAt, b.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update brewery %s", b.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("brewery not found: %s", b.ID)
	}
	return nil
}

func (s *PostgresStore) ListBreweriesNeedingReview(ctx context.Context, limit int) ([]model.Brewery, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM breweries WHERE needs_manual_review ORDER BY updated_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list review breweries")
	}
	defer rows.Close()
	return collectBreweriesPgx(rows)
}

func (s *PostgresStore) queryBrewery(ctx context.Context, query string, nilOnMiss bool, args ...any) (*model.Brewery, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, query, args...).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		if nilOnMiss {
			return nil, nil
		}
		return nil, resilience.ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query brewery")
	}

	var b model.Brewery
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal brewery")
	}
	return &b, nil
}

// --- beers ---

func (s *PostgresStore) CreateBeer(ctx context.Context, b *model.Beer) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	data, err := json.Marshal(b)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal beer")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO beers (id, brewery_id, name, name_norm, data, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		b.ID, b.BreweryID, b.Name, textmatch.Normalize(b.Name), data, now,
	)
	return eris.Wrapf(err, "postgres: insert beer %s", b.Name)
}

func (s *PostgresStore) FindBeer(ctx context.Context, breweryID, name string) (*model.Beer, error) {
	return s.queryBeer(ctx,
		`SELECT data FROM beers WHERE brewery_id = $1 AND name_norm = $2`,
		breweryID, textmatch.Normalize(name))
}

func (s *PostgresStore) FindBeerAnyBrewery(ctx context.Context, name string) (*model.Beer, error) {
	return s.queryBeer(ctx,
		`SELECT data FROM beers WHERE name_norm = $1 ORDER BY created_at LIMIT 1`,
		textmatch.Normalize(name))
}

func (s *PostgresStore) UpdateBeer(ctx context.Context, b *model.Beer) error {
	b.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(b)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal beer")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE beers SET name = $1, name_norm = $2, data = $3 WHERE id = $4`,
		b.Name, textmatch.Normalize(b.Name), data, b.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update beer %s", b.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("beer not found: %s", b.ID)
	}
	return nil
}

func (s *PostgresStore) queryBeer(ctx context.Context, query string, args ...any) (*model.Beer, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, query, args...).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query beer")
	}

	var b model.Beer
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal beer")
	}
	return &b, nil
}

// --- reviews ---

func (s *PostgresStore) CreateReview(ctx context.Context, r *model.Review) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	data, err := json.Marshal(r)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal review")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO reviews (id, data, updated_at) VALUES ($1, $2, $3)`,
		r.ID, data, now,
	)
	return eris.Wrapf(err, "postgres: insert review %s", r.ID)
}

func (s *PostgresStore) GetReview(ctx context.Context, id string) (*model.Review, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM reviews WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, resilience.ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get review")
	}

	var r model.Review
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal review")
	}
	return &r, nil
}

func (s *PostgresStore) ReplaceReviewSlots(ctx context.Context, reviewID string, slots []model.RatingSlot) error {
	return s.mutateReview(ctx, reviewID, func(r *model.Review) {
		r.Slots = slots
	})
}

func (s *PostgresStore) AttachSlotRefs(ctx context.Context, reviewID string, slotIndex int, breweryID, beerID string) error {
	var missing bool
	err := s.mutateReview(ctx, reviewID, func(r *model.Review) {
		slot := r.SlotByIndex(slotIndex)
		if slot == nil {
			missing = true
			return
		}
		slot.BreweryID = breweryID
		slot.BeerID = beerID
	})
	if err != nil {
		return err
	}
	if missing {
		return eris.Errorf("postgres: review %s has no slot %d", reviewID, slotIndex)
	}
	return nil
}

func (s *PostgresStore) FlagReview(ctx context.Context, reviewID, reason string) error {
	return s.mutateReview(ctx, reviewID, func(r *model.Review) {
		r.NeedsAdminReview = true
		r.ReviewReason = reason
	})
}

func (s *PostgresStore) SetReviewError(ctx context.Context, reviewID, message string) error {
	return s.mutateReview(ctx, reviewID, func(r *model.Review) {
		r.ProcessingError = message
	})
}

// mutateReview reads the review FOR UPDATE, applies fn, and writes back.
func (s *PostgresStore) mutateReview(ctx context.Context, reviewID string, fn func(*model.Review)) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var data []byte
	err = tx.QueryRow(ctx, `SELECT data FROM reviews WHERE id = $1 FOR UPDATE`, reviewID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return resilience.ErrNotFound
	}
	if err != nil {
		return eris.Wrap(err, "postgres: read review")
	}

	var r model.Review
	if err := json.Unmarshal(data, &r); err != nil {
		return eris.Wrap(err, "postgres: unmarshal review")
	}

	fn(&r)
	r.UpdatedAt = time.Now().UTC()

	updated, err := json.Marshal(&r)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal review")
	}
	if _, err := tx.Exec(ctx,
		`UPDATE reviews SET data = $1, updated_at = $2 WHERE id = $3`,
		updated, r.UpdatedAt, reviewID,
	); err != nil {
		return eris.Wrap(err, "postgres: write review")
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit review")
}

// --- jobs ---

func (s *PostgresStore) EnqueueJob(ctx context.Context, reviewID string, guesses []model.LabelGuess, priority, maxAttempts int) (*model.EnrichmentJob, error) {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	now := time.Now().UTC()
	job := &model.EnrichmentJob{
		ID:          uuid.New().String(),
		ReviewID:    reviewID,
		Guesses:     guesses,
		State:       model.JobQueued,
		Priority:    priority,
		MaxAttempts: maxAttempts,
		NextRunAt:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	guessJSON, err := json.Marshal(guesses)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal guesses")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO jobs (id, review_id, guesses, state, priority, max_attempts, next_run_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		job.ID, reviewID, guessJSON, string(model.JobQueued), priority, maxAttempts, now, now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: enqueue job for review %s", reviewID)
	}
	return job, nil
}

const pgJobColumns = `id, review_id, guesses, state, priority, progress, attempts, max_attempts,
	last_error, next_run_at, heartbeat, result, created_at, updated_at`

// DequeueJob claims the next runnable job with SKIP LOCKED so concurrent
// workers never double-claim.
func (s *PostgresStore) DequeueJob(ctx context.Context) (*model.EnrichmentJob, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE jobs SET state = 'active', attempts = attempts + 1, heartbeat = now(), updated_at = now()
		 WHERE id = (
			SELECT id FROM jobs
			WHERE state = 'queued' AND next_run_at <= now()
			ORDER BY priority DESC, created_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		 )
		 RETURNING `+pgJobColumns)

	job, err := scanJobPgx(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: dequeue")
	}
	return job, nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id string) (*model.EnrichmentJob, error) {
	job, err := scanJobPgx(s.pool.QueryRow(ctx,
		`SELECT `+pgJobColumns+` FROM jobs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, resilience.ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get job %s", id)
	}
	return job, nil
}

func (s *PostgresStore) UpdateJobProgress(ctx context.Context, id string, p model.JobProgress) error {
	progressJSON, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal progress")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET progress = $1, updated_at = now() WHERE id = $2`,
		progressJSON, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update progress %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("job not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) HeartbeatJob(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET heartbeat = now() WHERE id = $1 AND state = 'active'`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: heartbeat %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("job not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) CompleteJob(ctx context.Context, id string, state model.JobState, result *model.JobResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET state = $1, result = $2, heartbeat = NULL, updated_at = now() WHERE id = $3`,
		string(state), resultJSON, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete job %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("job not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) RetryJob(ctx context.Context, id string, lastError string, nextRunAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET state = 'queued', last_error = $1, next_run_at = $2, heartbeat = NULL, updated_at = now()
		 WHERE id = $3`,
		lastError, nextRunAt.UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: retry job %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("job not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) FailJob(ctx context.Context, id string, lastError string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET state = 'failed', last_error = $1, heartbeat = NULL, updated_at = now() WHERE id = $2`,
		lastError, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail job %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("job not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) ReclaimStalled(ctx context.Context, stallTimeout time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-stallTimeout)

	if _, err := s.pool.Exec(ctx,
		`UPDATE jobs SET state = 'failed', last_error = 'worker stalled', heartbeat = NULL, updated_at = now()
		 WHERE state = 'active' AND heartbeat < $1 AND attempts >= max_attempts`,
		cutoff,
	); err != nil {
		return 0, eris.Wrap(err, "postgres: fail stalled")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET state = 'queued', heartbeat = NULL, next_run_at = now(), updated_at = now()
		 WHERE state = 'active' AND heartbeat < $1`,
		cutoff,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: requeue stalled")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) ArchiveTerminalJobs(ctx context.Context, grace time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-grace)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin archive")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO archived_jobs (id, review_id, state, result, archived_at)
		 SELECT id, review_id, state, result, now() FROM jobs
		 WHERE state IN ('completed', 'needs_admin_review', 'failed') AND updated_at < $1
		 ON CONFLICT (id) DO NOTHING`,
		cutoff,
	); err != nil {
		return 0, eris.Wrap(err, "postgres: archive copy")
	}

	tag, err := tx.Exec(ctx,
		`DELETE FROM jobs WHERE state IN ('completed', 'needs_admin_review', 'failed') AND updated_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: archive delete")
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: archive commit")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) JobStats(ctx context.Context) (map[model.JobState]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT state, COUNT(*) FROM jobs GROUP BY state`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: job stats")
	}
	defer rows.Close()

	stats := map[model.JobState]int{}
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan job stats")
		}
		stats[model.JobState(state)] = n
	}
	return stats, eris.Wrap(rows.Err(), "postgres: job stats rows")
}

func (s *PostgresStore) CountCatalogue(ctx context.Context) (int, int, error) {
	var breweries, beers int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM breweries`).Scan(&breweries); err != nil {
		return 0, 0, eris.Wrap(err, "postgres: count breweries")
	}
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM beers`).Scan(&beers); err != nil {
		return 0, 0, eris.Wrap(err, "postgres: count beers")
	}
	return breweries, beers, nil
}

// --- helpers ---

func collectBreweriesPgx(rows pgx.Rows) ([]model.Brewery, error) {
	var out []model.Brewery
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan brewery row")
		}
		var b model.Brewery
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal brewery row")
		}
		out = append(out, b)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate breweries")
}

func scanJobPgx(row pgx.Row) (*model.EnrichmentJob, error) {
	var (
		j            model.EnrichmentJob
		state        string
		guessJSON    []byte
		progressJSON []byte
		lastError    *string
		heartbeat    *time.Time
		resultJSON   []byte
	)

	err := row.Scan(&j.ID, &j.ReviewID, &guessJSON, &state, &j.Priority, &progressJSON,
		&j.Attempts, &j.MaxAttempts, &lastError, &j.NextRunAt, &heartbeat, &resultJSON,
		&j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}

	j.State = model.JobState(state)
	if err := json.Unmarshal(guessJSON, &j.Guesses); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal guesses")
	}
	if len(progressJSON) > 0 {
		if err := json.Unmarshal(progressJSON, &j.Progress); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal progress")
		}
	}
	if lastError != nil {
		j.LastError = *lastError
	}
	j.Heartbeat = heartbeat
	if len(resultJSON) > 0 {
		j.Result = &model.JobResult{}
		if err := json.Unmarshal(resultJSON, j.Result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal result")
		}
	}
	return &j, nil
}
