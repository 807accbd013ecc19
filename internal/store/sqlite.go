package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/birralog/enrich-cli/internal/model"
	"github.com/birralog/enrich-cli/internal/resilience"
	"github.com/birralog/enrich-cli/internal/textmatch"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	// The queue claim relies on a single writer at a time.
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS breweries (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	name_norm  TEXT NOT NULL,
	data       TEXT NOT NULL,
	needs_manual_review INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS beers (
	id         TEXT PRIMARY KEY,
	brewery_id TEXT NOT NULL REFERENCES breweries(id),
	name       TEXT NOT NULL,
	name_norm  TEXT NOT NULL,
	data       TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS reviews (
	id         TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS jobs (
	id           TEXT PRIMARY KEY,
	review_id    TEXT NOT NULL,
	guesses      TEXT NOT NULL,
	state        TEXT NOT NULL DEFAULT 'queued',
	priority     INTEGER NOT NULL DEFAULT 0,
	progress     TEXT,
	attempts     INTEGER NOT NULL DEFAULT 0,
	max_attempts INTEGER NOT NULL DEFAULT 3,
	last_error   TEXT,
	next_run_at  DATETIME NOT NULL,
	heartbeat    DATETIME,
	result       TEXT,
	created_at   DATETIME NOT NULL,
	updated_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS archived_jobs (
	id          TEXT PRIMARY KEY,
	review_id   TEXT NOT NULL,
	state       TEXT NOT NULL,
	result      TEXT,
	archived_at DATETIME NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_breweries_name_norm ON breweries(name_norm);
CREATE UNIQUE INDEX IF NOT EXISTS idx_beers_brewery_name ON beers(brewery_id, name_norm);
CREATE INDEX IF NOT EXISTS idx_beers_name_norm ON beers(name_norm);
CREATE INDEX IF NOT EXISTS idx_jobs_state_priority ON jobs(state, priority, next_run_at);
CREATE INDEX IF NOT EXISTS idx_breweries_review ON breweries(needs_manual_review);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- breweries ---

func (s *SQLiteStore) CreateBrewery(ctx context.Context, b *model.Brewery) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	data, err := json.Marshal(b)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal brewery")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO breweries (id, name, name_norm, data, needs_manual_review, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, textmatch.Normalize(b.Name), string(data), boolToInt(b.NeedsManualReview), now, now,
	)
	return eris.Wrapf(err, "sqlite: insert brewery %s", b.Name)
}

func (s *SQLiteStore) GetBrewery(ctx context.Context, id string) (*model.Brewery, error) {
	return scanBrewery(s.db.QueryRowContext(ctx,
		`SELECT data FROM breweries WHERE id = ?`, id), false)
}

func (s *SQLiteStore) FindBreweryExact(ctx context.Context, name string) (*model.Brewery, error) {
	return scanBrewery(s.db.QueryRowContext(ctx,
		`SELECT data FROM breweries WHERE name_norm = ?`, textmatch.Normalize(name)), true)
}

func (s *SQLiteStore) FindBreweryPartial(ctx context.Context, name string) (*model.Brewery, error) {
	norm := textmatch.Normalize(name)
	return scanBrewery(s.db.QueryRowContext(ctx,
		`SELECT data FROM breweries
		 WHERE name_norm LIKE '%' || ? || '%' OR ? LIKE '%' || name_norm || '%'
		 ORDER BY length(name_norm) LIMIT 1`,
		norm, norm), true)
}

func (s *SQLiteStore) SampleBreweries(ctx context.Context, limit int) ([]model.Brewery, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM breweries ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: sample breweries")
	}
	defer rows.Close()
	return collectBreweries(rows)
}

func (s *SQLiteStore) UpdateBrewery(ctx context.Context, b *model.Brewery) error {
	b.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(b)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal brewery")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE breweries SET name = ?, name_norm = ?, data = ?, needs_manual_review = ?, updated_at = ?
		 WHERE id = ?`,
		b.Name, textmatch.Normalize(b.Name), string(data), boolToInt(b.NeedsManualReview), b.UpdatedAt, b.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update brewery %s", b.ID)
	}
	return checkRowsAffected(res, "brewery", b.ID)
}

func (s *SQLiteStore) ListBreweriesNeedingReview(ctx context.Context, limit int) ([]model.Brewery, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM breweries WHERE needs_manual_review = 1 ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list review breweries")
	}
	defer rows.Close()
	return collectBreweries(rows)
}

// --- beers ---

func (s *SQLiteStore) CreateBeer(ctx context.Context, b *model.Beer) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	data, err := json.Marshal(b)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal beer")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO beers (id, brewery_id, name, name_norm, data, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.BreweryID, b.Name, textmatch.Normalize(b.Name), string(data), now,
	)
	return eris.Wrapf(err, "sqlite: insert beer %s", b.Name)
}

func (s *SQLiteStore) FindBeer(ctx context.Context, breweryID, name string) (*model.Beer, error) {
	return scanBeer(s.db.QueryRowContext(ctx,
		`SELECT data FROM beers WHERE brewery_id = ? AND name_norm = ?`,
		breweryID, textmatch.Normalize(name)))
}

func (s *SQLiteStore) FindBeerAnyBrewery(ctx context.Context, name string) (*model.Beer, error) {
	return scanBeer(s.db.QueryRowContext(ctx,
		`SELECT data FROM beers WHERE name_norm = ? ORDER BY created_at LIMIT 1`,
		textmatch.Normalize(name)))
}

func (s *SQLiteStore) UpdateBeer(ctx context.Context, b *model.Beer) error {
	b.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(b)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal beer")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE beers SET name = ?, name_norm = ?, data = ? WHERE id = ?`,
		b.Name, textmatch.Normalize(b.Name), string(data), b.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update beer %s", b.ID)
	}
	return checkRowsAffected(res, "beer", b.ID)
}

// --- reviews ---

func (s *SQLiteStore) CreateReview(ctx context.Context, r *model.Review) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	data, err := json.Marshal(r)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal review")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reviews (id, data, updated_at) VALUES (?, ?, ?)`,
		r.ID, string(data), now,
	)
	return eris.Wrapf(err, "sqlite: insert review %s", r.ID)
}

func (s *SQLiteStore) GetReview(ctx context.Context, id string) (*model.Review, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM reviews WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, resilience.ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get review")
	}

	var r model.Review
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal review")
	}
	return &r, nil
}

func (s *SQLiteStore) ReplaceReviewSlots(ctx context.Context, reviewID string, slots []model.RatingSlot) error {
	return s.mutateReview(ctx, reviewID, func(r *model.Review) {
		r.Slots = slots
	})
}

func (s *SQLiteStore) AttachSlotRefs(ctx context.Context, reviewID string, slotIndex int, breweryID, beerID string) error {
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
		return eris.Errorf("sqlite: review %s has no slot %d", reviewID, slotIndex)
	}
	return nil
}

func (s *SQLiteStore) FlagReview(ctx context.Context, reviewID, reason string) error {
	return s.mutateReview(ctx, reviewID, func(r *model.Review) {
		r.NeedsAdminReview = true
		r.ReviewReason = reason
	})
}

func (s *SQLiteStore) SetReviewError(ctx context.Context, reviewID, message string) error {
	return s.mutateReview(ctx, reviewID, func(r *model.Review) {
		r.ProcessingError = message
	})
}

// mutateReview applies fn to the stored review inside a write transaction so
// concurrent slot updates serialize instead of clobbering each other.
func (s *SQLiteStore) mutateReview(ctx context.Context, reviewID string, fn func(*model.Review)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer func() { _ = tx.Rollback() }()

	var data string
	err = tx.QueryRowContext(ctx, `SELECT data FROM reviews WHERE id = ?`, reviewID).Scan(&data)
	if err == sql.ErrNoRows {
		return resilience.ErrNotFound
	}
	if err != nil {
		return eris.Wrap(err, "sqlite: read review")
	}

	var r model.Review
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return eris.Wrap(err, "sqlite: unmarshal review")
	}

	fn(&r)
	r.UpdatedAt = time.Now().UTC()

	updated, err := json.Marshal(&r)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal review")
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE reviews SET data = ?, updated_at = ? WHERE id = ?`,
		string(updated), r.UpdatedAt, reviewID,
	); err != nil {
		return eris.Wrap(err, "sqlite: write review")
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit review")
}

// --- jobs ---

func (s *SQLiteStore) EnqueueJob(ctx context.Context, reviewID string, guesses []model.LabelGuess, priority, maxAttempts int) (*model.EnrichmentJob, error) {
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
		return nil, eris.Wrap(err, "sqlite: marshal guesses")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, review_id, guesses, state, priority, max_attempts, next_run_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, reviewID, string(guessJSON), string(model.JobQueued), priority, maxAttempts, now, now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: enqueue job for review %s", reviewID)
	}
	return job, nil
}

const jobColumns = `id, review_id, guesses, state, priority, progress, attempts, max_attempts,
	last_error, next_run_at, heartbeat, result, created_at, updated_at`

func (s *SQLiteStore) DequeueJob(ctx context.Context) (*model.EnrichmentJob, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin dequeue")
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	row := tx.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs
		 WHERE state = 'queued' AND next_run_at <= ?
		 ORDER BY priority DESC, created_at ASC LIMIT 1`, now)

	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: dequeue select")
	}

	job.State = model.JobActive
	job.Attempts++
	job.Heartbeat = &now
	job.UpdatedAt = now

	if _, err := tx.ExecContext(ctx,
		`UPDATE jobs SET state = 'active', attempts = attempts + 1, heartbeat = ?, updated_at = ? WHERE id = ?`,
		now, now, job.ID,
	); err != nil {
		return nil, eris.Wrap(err, "sqlite: dequeue claim")
	}
	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: dequeue commit")
	}
	return job, nil
}

func (s *SQLiteStore) GetJob(ctx context.Context, id string) (*model.EnrichmentJob, error) {
	job, err := scanJob(s.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, resilience.ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get job %s", id)
	}
	return job, nil
}

func (s *SQLiteStore) UpdateJobProgress(ctx context.Context, id string, p model.JobProgress) error {
	progressJSON, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal progress")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET progress = ?, updated_at = ? WHERE id = ?`,
		string(progressJSON), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update progress %s", id)
	}
	return checkRowsAffected(res, "job", id)
}

func (s *SQLiteStore) HeartbeatJob(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET heartbeat = ? WHERE id = ? AND state = 'active'`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: heartbeat %s", id)
	}
	return checkRowsAffected(res, "job", id)
}

func (s *SQLiteStore) CompleteJob(ctx context.Context, id string, state model.JobState, result *model.JobResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET state = ?, result = ?, heartbeat = NULL, updated_at = ? WHERE id = ?`,
		string(state), string(resultJSON), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete job %s", id)
	}
	return checkRowsAffected(res, "job", id)
}

func (s *SQLiteStore) RetryJob(ctx context.Context, id string, lastError string, nextRunAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET state = 'queued', last_error = ?, next_run_at = ?, heartbeat = NULL, updated_at = ? WHERE id = ?`,
		lastError, nextRunAt.UTC(), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: retry job %s", id)
	}
	return checkRowsAffected(res, "job", id)
}

func (s *SQLiteStore) FailJob(ctx context.Context, id string, lastError string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET state = 'failed', last_error = ?, heartbeat = NULL, updated_at = ? WHERE id = ?`,
		lastError, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail job %s", id)
	}
	return checkRowsAffected(res, "job", id)
}

func (s *SQLiteStore) ReclaimStalled(ctx context.Context, stallTimeout time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-stallTimeout)
	now := time.Now().UTC()

	// Exhausted jobs fail; the rest go back to the queue.
	if _, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET state = 'failed', last_error = 'worker stalled', heartbeat = NULL, updated_at = ?
		 WHERE state = 'active' AND heartbeat < ? AND attempts >= max_attempts`,
		now, cutoff,
	); err != nil {
		return 0, eris.Wrap(err, "sqlite: fail stalled")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET state = 'queued', heartbeat = NULL, next_run_at = ?, updated_at = ?
		 WHERE state = 'active' AND heartbeat < ?`,
		now, now, cutoff,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: requeue stalled")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: stalled rows affected")
}

func (s *SQLiteStore) ArchiveTerminalJobs(ctx context.Context, grace time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-grace)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin archive")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO archived_jobs (id, review_id, state, result, archived_at)
		 SELECT id, review_id, state, result, ? FROM jobs
		 WHERE state IN ('completed', 'needs_admin_review', 'failed') AND updated_at < ?`,
		time.Now().UTC(), cutoff,
	); err != nil {
		return 0, eris.Wrap(err, "sqlite: archive copy")
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM jobs WHERE state IN ('completed', 'needs_admin_review', 'failed') AND updated_at < ?`,
		cutoff,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: archive delete")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: archive rows affected")
	}
	return int(n), eris.Wrap(tx.Commit(), "sqlite: archive commit")
}

func (s *SQLiteStore) JobStats(ctx context.Context) (map[model.JobState]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT state, COUNT(*) FROM jobs GROUP BY state`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: job stats")
	}
	defer rows.Close()

	stats := map[model.JobState]int{}
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan job stats")
		}
		stats[model.JobState(state)] = n
	}
	return stats, eris.Wrap(rows.Err(), "sqlite: job stats rows")
}

func (s *SQLiteStore) CountCatalogue(ctx context.Context) (int, int, error) {
	var breweries, beers int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM breweries`).Scan(&breweries); err != nil {
		return 0, 0, eris.Wrap(err, "sqlite: count breweries")
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM beers`).Scan(&beers); err != nil {
		return 0, 0, eris.Wrap(err, "sqlite: count beers")
	}
	return breweries, beers, nil
}

// --- helpers ---

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

// scanBrewery decodes a single-row brewery query. nilOnMiss selects the
// Find-style (nil, nil) miss behavior over the Get-style error.
func scanBrewery(row scannable, nilOnMiss bool) (*model.Brewery, error) {
	var data string
	err := row.Scan(&data)
	if err == sql.ErrNoRows {
		if nilOnMiss {
			return nil, nil
		}
		return nil, resilience.ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan brewery")
	}

	var b model.Brewery
	if err := json.Unmarshal([]byte(data), &b); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal brewery")
	}
	return &b, nil
}

func scanBeer(row scannable) (*model.Beer, error) {
	var data string
	err := row.Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan beer")
	}

	var b model.Beer
	if err := json.Unmarshal([]byte(data), &b); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal beer")
	}
	return &b, nil
}

func collectBreweries(rows *sql.Rows) ([]model.Brewery, error) {
	var out []model.Brewery
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan brewery row")
		}
		var b model.Brewery
		if err := json.Unmarshal([]byte(data), &b); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal brewery row")
		}
		out = append(out, b)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate breweries")
}

// scanJob decodes one job row. Returns sql.ErrNoRows untouched so callers can
// map misses their own way.
func scanJob(row scannable) (*model.EnrichmentJob, error) {
	var (
		j            model.EnrichmentJob
		state        string
		guessJSON    string
		progressJSON sql.NullString
		lastError    sql.NullString
		heartbeat    sql.NullTime
		resultJSON   sql.NullString
	)

	err := row.Scan(&j.ID, &j.ReviewID, &guessJSON, &state, &j.Priority, &progressJSON,
		&j.Attempts, &j.MaxAttempts, &lastError, &j.NextRunAt, &heartbeat, &resultJSON,
		&j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}

	j.State = model.JobState(state)
	if err := json.Unmarshal([]byte(guessJSON), &j.Guesses); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal guesses")
	}
	if progressJSON.Valid && progressJSON.String != "" {
		if err := json.Unmarshal([]byte(progressJSON.String), &j.Progress); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal progress")
		}
	}
	if lastError.Valid {
		j.LastError = lastError.String
	}
	if heartbeat.Valid {
		hb := heartbeat.Time
		j.Heartbeat = &hb
	}
	if resultJSON.Valid && resultJSON.String != "" {
		j.Result = &model.JobResult{}
		if err := json.Unmarshal([]byte(resultJSON.String), j.Result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal result")
		}
	}
	return &j, nil
}
