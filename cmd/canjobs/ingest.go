package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/canjobs/internal/config"
	"github.com/amishk599/canjobs/internal/ingest"
	"github.com/amishk599/canjobs/internal/model"
	"github.com/amishk599/canjobs/internal/notifier"
	"github.com/amishk599/canjobs/internal/store"
)

var (
	ingestCity   string
	ingestDays   int
	ingestDryRun bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest once, print new jobs, exit",
	Long:  "One-shot ingest: fetches every source for the city and day window, stores new jobs and prints them. With --dry-run nothing is written.",
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestCity, "city", "", `city to search, e.g. "Toronto, ON" (default: all of Canada)`)
	ingestCmd.Flags().IntVar(&ingestDays, "days", 0, "only keep postings from the last N days (default: ingest.days)")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "fetch and print matches without storing or notifying")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	days := ingestDays
	if days <= 0 {
		days = cfg.Ingest.Days
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var jobStore model.JobStore
	if ingestDryRun {
		logger.Info("dry-run mode: no jobs will be stored or sent")
		jobStore = store.NewNopStore()
	} else {
		sqlStore, err := openStore(ctx, cfg)
		if err != nil {
			logger.Error("failed to open store", "error", err)
			os.Exit(1)
		}
		defer sqlStore.Close()
		jobStore = sqlStore
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	pipeline := buildPipeline(cfg, jobStore, ingestNotifier(cfg, ingestDryRun, httpClient, logger), httpClient, logger)

	res, err := pipeline.Run(ctx, ingest.Request{City: ingestCity, Days: days})
	if err != nil {
		logger.Error("ingest failed", "error", err)
		os.Exit(1)
	}

	printJobTable(res.Jobs)
	fmt.Printf("\nFetched %d, matched %d, added %d", res.Fetched, res.Matched, res.Added)
	if len(res.Failed) > 0 {
		fmt.Printf(", failed sources: %v", res.Failed)
	}
	fmt.Println()
	return nil
}

// ingestNotifier keeps dry runs local: matches are only logged, whatever
// notifier is configured.
func ingestNotifier(cfg *config.Config, dryRun bool, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	if dryRun {
		return notifier.NewLogNotifier(logger)
	}
	return setupNotifier(cfg, httpClient, logger)
}
