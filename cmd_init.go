package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sisgap-scraper/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Writes a default configuration file at --config.",
	// the file does not exist yet, skip loading it
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("%s already exists", configPath)
		}
		if err := config.Default().Save(configPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s, fill in source.username and source.password\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
