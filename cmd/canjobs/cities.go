package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var citiesCmd = &cobra.Command{
	Use:   "cities",
	Short: "List the configured cities",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		for _, c := range cfg.Cities {
			fmt.Println(c)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(citiesCmd)
}
