package main

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/birralog/enrich-cli/internal/model"
)

var (
	enqueueReviewID string
	enqueueGuesses  []string
	enqueuePriority int
	statusJobID     string
	retryJobID      string
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage enrichment jobs",
}

var jobsEnqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Create a review and enqueue an enrichment job for it",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		guesses, err := parseGuesses(enqueueGuesses)
		if err != nil {
			return err
		}

		reviewID := enqueueReviewID
		if reviewID == "" {
			slots := make([]model.RatingSlot, len(guesses))
			for i, g := range guesses {
				slots[i] = model.RatingSlot{Index: i, Guess: g}
			}
			review := &model.Review{Slots: slots}
			if err := st.CreateReview(ctx, review); err != nil {
				return eris.Wrap(err, "create review")
			}
			reviewID = review.ID
		}

		job, err := st.EnqueueJob(ctx, reviewID, guesses, enqueuePriority, cfg.Queue.MaxAttempts)
		if err != nil {
			return eris.Wrap(err, "enqueue job")
		}

		zap.L().Info("job enqueued",
			zap.String("job_id", job.ID),
			zap.String("review_id", reviewID),
			zap.Int("bottles", len(guesses)),
			zap.Int("priority", enqueuePriority),
		)
		return printJSON(job)
	},
}

var jobsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state, progress and result of a job",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		job, err := st.GetJob(ctx, statusJobID)
		if err != nil {
			return eris.Wrapf(err, "job %s", statusJobID)
		}
		return printJSON(job)
	},
}

var jobsRetryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Requeue a failed job for one more attempt",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		job, err := st.GetJob(ctx, retryJobID)
		if err != nil {
			return eris.Wrapf(err, "job %s", retryJobID)
		}
		if job.State != model.JobFailed && job.State != model.JobNeedsAdminReview {
			return eris.Errorf("job %s is %s, only failed or needs_admin_review jobs can be retried", job.ID, job.State)
		}
		if err := st.RetryJob(ctx, job.ID, "", time.Now()); err != nil {
			return eris.Wrapf(err, "requeue job %s", job.ID)
		}

		zap.L().Info("job requeued", zap.String("job_id", job.ID), zap.Int("attempts", job.Attempts))
		job, err = st.GetJob(ctx, job.ID)
		if err != nil {
			return eris.Wrapf(err, "job %s", retryJobID)
		}
		return printJSON(job)
	},
}

// parseGuesses parses "BeerName" or "BeerName|BreweryHint" flag values.
func parseGuesses(raw []string) ([]model.LabelGuess, error) {
	if len(raw) == 0 {
		return nil, eris.New("at least one --guess is required")
	}
	guesses := make([]model.LabelGuess, 0, len(raw))
	for _, r := range raw {
		beer, brewery, _ := strings.Cut(r, "|")
		beer = strings.TrimSpace(beer)
		if beer == "" {
			return nil, eris.Errorf("invalid guess %q: empty beer name", r)
		}
		guesses = append(guesses, model.LabelGuess{
			BeerName:        beer,
			BreweryNameHint: strings.TrimSpace(brewery),
		})
	}
	return guesses, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	jobsEnqueueCmd.Flags().StringVar(&enqueueReviewID, "review", "", "existing review ID (a new review is created when omitted)")
	jobsEnqueueCmd.Flags().StringArrayVar(&enqueueGuesses, "guess", nil, `label guess, "BeerName" or "BeerName|BreweryHint" (repeatable)`)
	jobsEnqueueCmd.Flags().IntVar(&enqueuePriority, "priority", 0, "job priority (higher runs first)")

	jobsStatusCmd.Flags().StringVar(&statusJobID, "id", "", "job ID (required)")
	_ = jobsStatusCmd.MarkFlagRequired("id")

	jobsRetryCmd.Flags().StringVar(&retryJobID, "id", "", "job ID (required)")
	_ = jobsRetryCmd.MarkFlagRequired("id")

	jobsCmd.AddCommand(jobsEnqueueCmd, jobsStatusCmd, jobsRetryCmd)
	rootCmd.AddCommand(jobsCmd)
}
