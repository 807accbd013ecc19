package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/birralog/enrich-cli/internal/queue"
	"github.com/birralog/enrich-cli/internal/resilience"
)

var workerConcurrency int

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the enrichment worker pool",
	Long:  "Polls the durable job queue, processes enrichment jobs with bounded concurrency, reclaims stalled jobs and archives terminal ones. Runs until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		concurrency := workerConcurrency
		if concurrency == 0 {
			concurrency = cfg.Queue.Concurrency
		}

		w := queue.NewWorker(env.Store, env.Orchestrator.Process, queue.Options{
			Concurrency:  concurrency,
			PollInterval: cfg.Queue.PollInterval(),
			StallTimeout: cfg.Queue.StallTimeout(),
			ArchiveGrace: time.Duration(cfg.Queue.ArchiveAfterHrs) * time.Hour,
			Backoff: resilience.RetryConfig{
				MaxAttempts:    cfg.Queue.MaxAttempts,
				InitialBackoff: time.Duration(cfg.Queue.BackoffBaseSecs) * time.Second,
			},
		})

		return w.Run(ctx)
	},
}

func init() {
	workerCmd.Flags().IntVar(&workerConcurrency, "concurrency", 0, "worker pool size (default from config)")
	rootCmd.AddCommand(workerCmd)
}
