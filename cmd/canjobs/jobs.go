package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/canjobs/internal/model"
	"github.com/amishk599/canjobs/internal/store"
)

var (
	jobsCity     string
	jobsDays     int
	jobsMode     string
	jobsKeyword  string
	jobsPage     int
	jobsPageSize int
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List stored jobs",
	Long:  "Prints a table of stored jobs, newest first, with the same filters as GET /api/jobs.",
	RunE:  runJobs,
}

func init() {
	jobsCmd.Flags().StringVar(&jobsCity, "city", "", `city filter, e.g. "Toronto, ON"`)
	jobsCmd.Flags().IntVar(&jobsDays, "days", 0, "posted within the last N days (default: ingest.days)")
	jobsCmd.Flags().StringVar(&jobsMode, "mode", "", "work mode: Remote, Hybrid, Onsite or \"Not mentioned\"")
	jobsCmd.Flags().StringVarP(&jobsKeyword, "query", "q", "", "keyword over title, company, city and description")
	jobsCmd.Flags().IntVar(&jobsPage, "page", 1, "page number")
	jobsCmd.Flags().IntVar(&jobsPageSize, "page-size", store.DefaultPageSize, "jobs per page")
	rootCmd.AddCommand(jobsCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	days := jobsDays
	if days <= 0 {
		days = cfg.Ingest.Days
	}
	mode, err := model.ParseModeFilter(jobsMode)
	if err != nil {
		return err
	}

	ctx := context.Background()
	sqlStore, err := openStore(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer sqlStore.Close()

	jobs, total, err := sqlStore.ListJobs(ctx, model.ListQuery{
		City:     jobsCity,
		Days:     days,
		Mode:     mode,
		Keyword:  jobsKeyword,
		Page:     jobsPage,
		PageSize: jobsPageSize,
	})
	if err != nil {
		return err
	}

	printJobTable(jobs)
	fmt.Printf("\nShowing %d of %d jobs (page %d)\n", len(jobs), total, max(jobsPage, 1))
	return nil
}

// printJobTable prints jobs as a fixed-width table.
func printJobTable(jobs []model.Job) {
	fmt.Printf("%-6s %-36s %-24s %-16s %-13s %s\n", "ID", "Title", "Company", "City", "Mode", "Posted")
	fmt.Println(strings.Repeat("─", 110))
	for _, j := range jobs {
		posted := "n/a"
		if j.PostedAt != nil {
			posted = j.PostedAt.Local().Format("2006-01-02")
		}
		fmt.Printf("%-6d %-36s %-24s %-16s %-13s %s\n",
			j.ID, cut(j.Title, 36), cut(j.Company, 24), cut(j.City, 16), j.WorkMode, posted)
	}
}

// cut truncates s to n runes, marking the cut with an ellipsis.
func cut(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
