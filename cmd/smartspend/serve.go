package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/smartspend/smartspend/internal/advice"
	"github.com/smartspend/smartspend/internal/auth"
	"github.com/smartspend/smartspend/internal/classifier"
	"github.com/smartspend/smartspend/internal/common"
	"github.com/smartspend/smartspend/internal/config"
	"github.com/smartspend/smartspend/internal/engine"
	"github.com/smartspend/smartspend/internal/jobs/inmemory"
	"github.com/smartspend/smartspend/internal/server"
	"github.com/smartspend/smartspend/internal/service"
	"github.com/smartspend/smartspend/internal/storage"
	"github.com/smartspend/smartspend/internal/worker"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Start the smartspend backend: the HTTP API plus the background
worker that categorizes uploaded statements.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (overrides server.addr)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.Load()

	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	logger := slog.Default()

	tokens, err := auth.NewTokenIssuer(cfg.Auth.Secret, cfg.Auth.TokenExpiry)
	if err != nil {
		return fmt.Errorf("auth.secret must be set (SMARTSPEND_AUTH_SECRET): %w", err)
	}

	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	// Another instance holding the file lock mid-migration is transient.
	err = common.WithRetry(ctx, func() error {
		return store.Migrate(ctx)
	}, service.RetryOptions{MaxAttempts: 3, InitialDelay: 500 * time.Millisecond})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	hfClient := classifier.NewHFClient(classifier.Config{
		Token:       cfg.Classifier.Token,
		Endpoint:    cfg.Classifier.Endpoint,
		Timeout:     cfg.Classifier.Timeout,
		MinInterval: cfg.Classifier.MinInterval,
	}, logger)

	categorizer := engine.NewCategorizer(hfClient, logger)
	processor := engine.NewBatchProcessor(store, categorizer, logger)
	corrector := engine.NewCorrector(store, logger)

	advisor := advice.NewLLMGenerator(advice.Config{
		Token:   cfg.Advice.Token,
		BaseURL: cfg.Advice.BaseURL,
		Model:   cfg.Advice.Model,
		Timeout: cfg.Advice.Timeout,
	}, logger)

	jobStore := inmemory.NewStore()
	queue := inmemory.NewQueue(cfg.Queue.BufferSize, jobStore)

	if err := queue.Start(ctx, worker.NewCategorizeHandler(processor, logger)); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := queue.Stop(stopCtx); err != nil {
			logger.Warn("Worker did not stop cleanly", "error", err)
		}
	}()

	srv := server.New(server.Config{
		Storage:    store,
		Publisher:  queue,
		JobStatus:  jobStore,
		Corrector:  corrector,
		Advisor:    advisor,
		Tokens:     tokens,
		Logger:     logger,
		MaxRetries: cfg.Queue.MaxRetries,
	})

	logger.Info("Starting smartspend",
		"addr", cfg.Server.Addr,
		"database", cfg.Database.Path,
		"classifier_configured", cfg.Classifier.Token != "")

	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}
