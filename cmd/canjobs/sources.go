package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List all configured job sources",
	Long:  "Reads the config and prints a table of the Adzuna search titles and company boards.",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%-30s %-12s %s\n", "Source", "Type", "Status")
	fmt.Println(strings.Repeat("─", 52))

	status := func(on bool) string {
		if on {
			return "enabled"
		}
		return "disabled"
	}

	enabled, disabled := 0, 0
	count := func(on bool) {
		if on {
			enabled++
		} else {
			disabled++
		}
	}

	for _, title := range cfg.Ingest.Titles {
		on := cfg.Sources.Adzuna.Enabled
		count(on)
		fmt.Printf("%-30s %-12s %s\n", cut(title, 30), "adzuna", status(on))
	}
	for _, b := range cfg.Sources.Boards {
		count(b.Enabled)
		fmt.Printf("%-30s %-12s %s\n", cut(b.Name, 30), b.ATS, status(b.Enabled))
	}

	fmt.Printf("\nTotal: %d sources (%d enabled, %d disabled)\n", enabled+disabled, enabled, disabled)
	return nil
}
