package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sisgap-scraper/googlecalendar"
)

var syncFlags struct {
	date    string
	lapse   string
	dryRun  bool
	fromICS string
}

var syncCmd = &cobra.Command{
	Use:   "sync [--lapse day|week|month] [--dry-run] [--from-ics file]",
	Short: "Mirrors the timetable into the configured Google calendar.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if cfg.Google.Recipient == "" {
			return errors.New("google.recipient is required to sync")
		}

		store, err := newStore(ctx, syncFlags.dryRun)
		if err != nil {
			return err
		}

		var report googlecalendar.Report
		if syncFlags.fromICS != "" {
			report, err = syncFromICS(ctx, store, syncFlags.fromICS)
		} else {
			report, err = runSync(ctx, store, syncFlags.date, syncFlags.lapse)
		}
		printReport(cmd.OutOrStdout(), report)
		return err
	},
}

func init() {
	f := syncCmd.Flags()
	f.StringVar(&syncFlags.date, "date", "", "Day to sync from, d/m/yyyy. Defaults to today.")
	f.StringVar(&syncFlags.lapse, "lapse", "", "Span to sync: day, week or month. Defaults to daemon.lapse.")
	f.BoolVar(&syncFlags.dryRun, "dry-run", false, "Sync against an empty in-memory calendar instead of Google.")
	f.StringVar(&syncFlags.fromICS, "from-ics", "", "Sync the events of an iCalendar file instead of scraping.")
	rootCmd.AddCommand(syncCmd)
}

// runSync is one scrape and sync pass, shared with the daemon.
func runSync(ctx context.Context, store googlecalendar.Store, date, lapse string) (googlecalendar.Report, error) {
	if lapse == "" {
		lapse = cfg.Daemon.Lapse
	}
	start, end, err := dateRange(date, lapse)
	if err != nil {
		return googlecalendar.Report{}, err
	}
	service, err := newTimetableService()
	if err != nil {
		return googlecalendar.Report{}, err
	}
	timetable, err := service.FetchTimetable(ctx, start, end)
	if err != nil {
		return googlecalendar.Report{}, err
	}
	return syncTimetable(ctx, store, timetable, cfg.Google.Recipient)
}

func syncFromICS(ctx context.Context, store googlecalendar.Store, path string) (googlecalendar.Report, error) {
	loc, err := cfg.Location()
	if err != nil {
		return googlecalendar.Report{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return googlecalendar.Report{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	events, err := googlecalendar.ReadICS(f, loc)
	if err != nil {
		return googlecalendar.Report{}, err
	}
	opts, err := eventOptions()
	if err != nil {
		return googlecalendar.Report{}, err
	}
	return googlecalendar.NewSyncer(store, opts, logger).SyncEvents(ctx, events)
}
