package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"sisgap-scraper/googlecalendar"
	"sisgap-scraper/scraper"
)

var timetableFlags struct {
	date   string
	lapse  string
	sync   string
	ics    string
	dryRun bool
}

var timetableCmd = &cobra.Command{
	Use:   "timetable [--date d/m/yyyy] [--lapse day|week|month] [--sync email] [--ics file]",
	Short: "Prints the timetable and optionally mirrors it into Google Calendar or an ICS file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		start, end, err := dateRange(timetableFlags.date, timetableFlags.lapse)
		if err != nil {
			return err
		}
		service, err := newTimetableService()
		if err != nil {
			return err
		}

		timetable, err := service.FetchTimetable(ctx, start, end)
		if err != nil {
			return err
		}
		if err := printTimetable(cmd.OutOrStdout(), timetable); err != nil {
			return err
		}

		if timetableFlags.ics != "" {
			if err := exportICS(timetableFlags.ics, timetable, timetableFlags.sync); err != nil {
				return err
			}
			logger.Info("calendar exported", "file", timetableFlags.ics)
		}

		if timetableFlags.sync != "" {
			store, err := newStore(ctx, timetableFlags.dryRun)
			if err != nil {
				return err
			}
			report, err := syncTimetable(ctx, store, timetable, timetableFlags.sync)
			printReport(cmd.OutOrStdout(), report)
			return err
		}
		return nil
	},
}

func init() {
	f := timetableCmd.Flags()
	f.StringVar(&timetableFlags.date, "date", "", "Day to fetch, d/m/yyyy. Defaults to today.")
	f.StringVar(&timetableFlags.lapse, "lapse", "day", "Span around the date: day, week or month.")
	f.StringVar(&timetableFlags.sync, "sync", "", "Mirror the timetable into Google Calendar, inviting this email.")
	f.StringVar(&timetableFlags.ics, "ics", "", "Also write the timetable as an iCalendar file.")
	f.BoolVar(&timetableFlags.dryRun, "dry-run", false, "Sync against an empty in-memory calendar instead of Google.")
	rootCmd.AddCommand(timetableCmd)
}

func printTimetable(out io.Writer, timetable scraper.Timetable) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tSTART\tEND\tGROUP\tSUBJECT\tGROUP ID\tSUBJECT ID")
	for _, item := range timetable.Items() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
			item.Date.Format("02/01/2006"),
			item.Start.Format("15:04"),
			item.End.Format("15:04"),
			item.GroupLabel,
			item.SubjectLabel,
			item.GroupID,
			item.SubjectID,
		)
	}
	return w.Flush()
}

func printReport(out io.Writer, report googlecalendar.Report) {
	fmt.Fprintf(out, "%d events: %d inserted, %d updated, %d unchanged, %d failed\n",
		report.Total(), report.Inserted, report.Updated, report.Unchanged, report.Failed)
}

func exportICS(path string, timetable scraper.Timetable, recipient string) error {
	opts, err := eventOptions()
	if err != nil {
		return err
	}
	var events []googlecalendar.Event
	for _, item := range timetable.Items() {
		events = append(events, googlecalendar.ToEvent(item, recipient, opts))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := googlecalendar.WriteICS(f, events); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// formatDay is the d/m/yyyy form the --date flag takes.
func formatDay(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", t.Day(), t.Month(), t.Year())
}
