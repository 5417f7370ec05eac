package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"sisgap-scraper/uploader"
)

var publishFlags struct {
	ics string
}

var publishCmd = &cobra.Command{
	Use:   "publish --ics file",
	Short: "Uploads an iCalendar file to the configured GitHub repository.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if publishFlags.ics == "" {
			return errors.New("--ics is required")
		}
		if err := publishICS(publishFlags.ics); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Published %s to %s/%s\n", filepath.Base(publishFlags.ics), cfg.Publish.GithubRepo, cfg.Publish.GithubPath)
		return nil
	},
}

func init() {
	publishCmd.Flags().StringVar(&publishFlags.ics, "ics", "", "iCalendar file to upload.")
	rootCmd.AddCommand(publishCmd)
}

func publishICS(path string) error {
	if cfg.Publish.GithubRepo == "" || cfg.Publish.GithubToken == "" {
		return errors.New("publish.github_repo and publish.github_token are required to publish")
	}
	up := uploader.New(uploader.DefaultAPIURL, cfg.Publish.GithubToken, cfg.Publish.GithubRepo)
	message := "Update timetable " + time.Now().Format(time.DateTime)
	return up.UploadFile(cfg.Publish.GithubPath, path, message)
}
