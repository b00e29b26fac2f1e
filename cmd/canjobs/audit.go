package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/canjobs/internal/ai"
	"github.com/amishk599/canjobs/internal/audit"
	"github.com/amishk599/canjobs/internal/config"
	"github.com/amishk599/canjobs/internal/model"
	"github.com/amishk599/canjobs/internal/store"
)

// auditMaxPages bounds how many pages of stored jobs the audit view loads.
const auditMaxPages = 10

var auditSkills []string

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Browse stored jobs interactively (TUI)",
	Long:  "Shows the city picker TUI, then a split-pane view of stored jobs and the ones passing the configured filters.",
	RunE:  runAuditCmd,
}

func init() {
	auditCmd.Flags().StringSliceVar(&auditSkills, "skills", nil, "your skills, compared with each analysis")
	rootCmd.AddCommand(auditCmd)
}

func runAuditCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	sqlStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer sqlStore.Close()

	// Audit mode runs a TUI and any log output after the alt-screen starts
	// corrupts the display.
	silentLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, closeAnalysis := setupAnalysis(ctx, cfg, sqlStore, silentLogger)
	defer closeAnalysis()

	runAudit(cfg, sqlStore, svc)
	return nil
}

func runAudit(cfg *config.Config, jobStore model.JobStore, svc *ai.Service) {
	if len(cfg.Cities) == 0 {
		fmt.Println("No cities in config.")
		return
	}
	jobFilter := setupFilter(cfg)

	for {
		choice, err := audit.RunCityPicker(cfg.Cities)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return
		}
		if choice < 0 {
			return
		}
		city := cfg.Cities[choice]

		jobs, err := audit.RunLoader(city, func(ctx context.Context) ([]model.Job, error) {
			return loadAllJobs(ctx, jobStore, city, cfg.Ingest.Days)
		})
		if err != nil {
			fmt.Printf("Error loading jobs: %v\n", err)
			continue
		}

		var matched []model.Job
		for _, j := range jobs {
			if jobFilter.Match(j) {
				matched = append(matched, j)
			}
		}

		wantQuit, err := audit.RunAuditTUI(city, jobs, matched, svc, auditSkills)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return
		}
		// else: loop → back to picker
	}
}

func loadAllJobs(ctx context.Context, jobStore model.JobStore, city string, days int) ([]model.Job, error) {
	var all []model.Job
	for page := 1; page <= auditMaxPages; page++ {
		jobs, total, err := jobStore.ListJobs(ctx, model.ListQuery{
			City:     city,
			Days:     days,
			Page:     page,
			PageSize: store.MaxPageSize,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, jobs...)
		if len(all) >= total || len(jobs) == 0 {
			break
		}
	}
	return all, nil
}
