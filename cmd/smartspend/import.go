package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/smartspend/smartspend/internal/classifier"
	"github.com/smartspend/smartspend/internal/cli"
	"github.com/smartspend/smartspend/internal/config"
	"github.com/smartspend/smartspend/internal/engine"
	"github.com/smartspend/smartspend/internal/storage"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <statement.csv>",
		Short: "Import and categorize a statement CSV locally",
		Long: `Parse a bank-statement CSV and categorize its rows directly, without
going through the HTTP API or the job queue. Useful for seeding a local
database or for testing rules against a statement.

The CSV needs description, amount and date columns; common bank header
variants (payee, value, posted_date, ...) are recognized.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().String("user", "", "email or ID of the user to import under (required)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.Load()
	logger := slog.Default()

	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open statement: %w", err)
	}
	defer func() { _ = file.Close() }()

	rows, err := engine.ReadStatement(file)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("statement contains no transactions")
	}

	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	userArg, _ := cmd.Flags().GetString("user")
	userID, err := resolveUser(ctx, store, userArg)
	if err != nil {
		return err
	}

	hfClient := classifier.NewHFClient(classifier.Config{
		Token:       cfg.Classifier.Token,
		Endpoint:    cfg.Classifier.Endpoint,
		Timeout:     cfg.Classifier.Timeout,
		MinInterval: cfg.Classifier.MinInterval,
	}, logger)

	processor := engine.NewBatchProcessor(store, engine.NewCategorizer(hfClient, logger), logger)

	bar := newImportBar(len(rows))
	processor.SetProgress(func(_, _ int) {
		_ = bar.Add(1)
	})

	fmt.Println(cli.FormatTitle(fmt.Sprintf("Importing %d transactions from %s", len(rows), args[0])))
	if cfg.Classifier.Token == "" {
		fmt.Println(cli.FormatWarning("No classifier token configured; unmatched rows become Uncategorized"))
	}

	stats, err := processor.Process(ctx, uuid.New().String(), userID, rows)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	if stats.Skipped {
		fmt.Println(cli.FormatWarning("This exact statement was already imported; nothing to do"))
		return nil
	}

	summary := fmt.Sprintf("  • Rows: %d\n", stats.Rows) +
		fmt.Sprintf("  • Persisted: %d\n", stats.Persisted) +
		fmt.Sprintf("  • Failed: %d\n", stats.Failed) +
		fmt.Sprintf("  • Rule hits: %d\n", stats.RuleHits) +
		fmt.Sprintf("  • Classifier calls: %d %s\n", stats.ClassifierCalls, cli.RobotIcon) +
		fmt.Sprintf("  • Fallbacks: %d", stats.Fallbacks)

	fmt.Println(cli.RenderBox("Import Complete", summary))

	return nil
}

// resolveUser accepts either a user ID or an email address.
func resolveUser(ctx context.Context, store *storage.SQLiteStorage, arg string) (string, error) {
	if _, err := uuid.Parse(arg); err == nil {
		if _, err := store.GetUserByID(ctx, arg); err != nil {
			return "", fmt.Errorf("unknown user %q: %w", arg, err)
		}
		return arg, nil
	}

	user, err := store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(arg)))
	if err != nil {
		return "", fmt.Errorf("unknown user %q: %w", arg, err)
	}
	return user.ID, nil
}

func newImportBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Categorizing transactions...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}
