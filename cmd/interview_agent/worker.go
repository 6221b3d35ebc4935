package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/interview-coach/internal/queue"
	"github.com/jonathan/interview-coach/internal/worker"
)

var workerCount int

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background job worker",
	Long:  `Start worker processes that consume queued jobs: feedback report generation and retrieval reindexing.`,
	RunE:  runWorker,
}

func init() {
	workerCmd.Flags().IntVar(&workerCount, "concurrency", 2, "Number of concurrent consumers")
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := buildEnv(ctx)
	if err != nil {
		return fmt.Errorf("failed to build environment: %w", err)
	}
	defer env.Close()

	if workerCount < 1 {
		workerCount = 1
	}
	log.Printf("Starting %d workers (poll interval %s)", workerCount, env.cfg.PollInterval)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workerCount; i++ {
		w := worker.New(env.jobs, worker.Options{
			PollInterval: env.cfg.PollInterval,
			StaleAfter:   env.cfg.StaleAfter,
		})
		w.Register(queue.TypeGenerateFeedback, worker.GenerateFeedbackHandler(env.generator))
		w.Register(queue.TypeReindexDocuments, worker.ReindexDocumentsHandler(env.database, env.orch))

		g.Go(func() error {
			return w.Run(ctx)
		})
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	log.Println("Workers stopped")
	return nil
}
