package model

import "time"

// JobState represents the lifecycle of an enrichment job.
type JobState string

const (
	JobQueued           JobState = "queued"
	JobActive           JobState = "active"
	JobCompleted        JobState = "completed"
	JobNeedsAdminReview JobState = "needs_admin_review"
	JobFailed           JobState = "failed"
)

// TerminalStates are the states eligible for archival after the grace period.
var TerminalStates = []JobState{JobCompleted, JobNeedsAdminReview, JobFailed}

// JobProgress is a discrete checkpoint reported while a job runs. Percent is
// monotonically non-decreasing within a job.
type JobProgress struct {
	Percent int    `json:"percent"`
	Step    string `json:"step"`
}

// JobResult is the terminal outcome exposed to the status endpoint.
type JobResult struct {
	BottlesProcessed int      `json:"bottles_processed"`
	Errors           []string `json:"errors,omitempty"`
	ProcessingTimeMs int64    `json:"processing_time_ms"`
	DataSource       string   `json:"data_source,omitempty"`
}

// EnrichmentJob is one queued unit of work: resolve every bottle of a
// confirmed review. Jobs are durable, retried with backoff, and reclaimed
// when a worker dies mid-processing (heartbeat-based).
type EnrichmentJob struct {
	ID       string       `json:"id"`
	ReviewID string       `json:"review_id"`
	Guesses  []LabelGuess `json:"guesses"`
	State    JobState     `json:"state"`
	Priority int          `json:"priority"`
	Progress JobProgress  `json:"progress"`

	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"max_attempts"`
	LastError   string     `json:"last_error,omitempty"`
	NextRunAt   time.Time  `json:"next_run_at"`
	Heartbeat   *time.Time `json:"heartbeat,omitempty"`

	Result    *JobResult `json:"result,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsTerminal reports whether the job has reached a final state.
func (j *EnrichmentJob) IsTerminal() bool {
	switch j.State {
	case JobCompleted, JobNeedsAdminReview, JobFailed:
		return true
	}
	return false
}
