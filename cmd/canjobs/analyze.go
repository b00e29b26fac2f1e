package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/canjobs/internal/model"
)

var (
	analyzeSkills  []string
	analyzeRefresh bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <job-id>",
	Short: "Analyze a stored job",
	Long:  "Extracts skills, required experience, work mode and salary for a stored job and compares the skills with --skills.",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringSliceVar(&analyzeSkills, "skills", nil, "your skills, comma separated")
	analyzeCmd.Flags().BoolVar(&analyzeRefresh, "refresh", false, "re-analyze even if a stored analysis exists")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid job id %q", args[0])
	}

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

	svc, closeAnalysis := setupAnalysis(ctx, cfg, sqlStore, logger)
	defer closeAnalysis()

	res, err := svc.AnalyzeJob(ctx, id, analyzeSkills, analyzeRefresh)
	if errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("job %d not found", id)
	}
	if err != nil {
		return err
	}

	a := res.Analysis
	skills := model.NotMentioned
	if len(a.Skills) > 0 {
		skills = strings.Join(a.Skills, ", ")
	}
	fmt.Printf("%-12s %s\n", "Skills:", skills)
	fmt.Printf("%-12s %s\n", "Experience:", a.YearsText())
	fmt.Printf("%-12s %s\n", "Type:", a.WorkMode)
	fmt.Printf("%-12s %s\n", "Salary:", a.SalaryText())
	if len(analyzeSkills) > 0 {
		fmt.Printf("%-12s %s\n", "You have:", strings.Join(res.Matched, ", "))
		fmt.Printf("%-12s %s\n", "You lack:", strings.Join(res.Missing, ", "))
	}
	source := a.Source
	if res.Cached {
		source += ", stored"
	}
	fmt.Printf("\n(%s, %s)\n", source, a.AnalyzedAt.Local().Format("2006-01-02 15:04"))
	return nil
}
