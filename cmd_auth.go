package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sisgap-scraper/googlecalendar"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorizes access to Google Calendar and stores the token.",
	RunE: func(cmd *cobra.Command, args []string) error {
		oauthCfg, err := googlecalendar.OAuthConfig(cfg.Google.ClientSecretFile)
		if err != nil {
			return err
		}
		return googlecalendar.Authorize(cmd.Context(), oauthCfg, cfg.Google.TokenFile, cfg.Google.CallbackAddr, cmd.OutOrStdout())
	},
}

var eventsFlags struct {
	date  string
	lapse string
}

var eventsCmd = &cobra.Command{
	Use:   "events [--date d/m/yyyy] [--lapse day|week|month]",
	Short: "Lists the events already in the Google calendar.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		start, end, err := dateRange(eventsFlags.date, eventsFlags.lapse)
		if err != nil {
			return err
		}
		store, err := newGoogleStore(ctx)
		if err != nil {
			return err
		}
		events, err := store.ListEvents(ctx, start, end.AddDate(0, 0, 1))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, ev := range events {
			fmt.Fprintf(out, "%s %s-%s  %s\n",
				ev.Start.Format("02/01/2006"), ev.Start.Format("15:04"), ev.End.Format("15:04"), ev.Title)
		}
		fmt.Fprintf(out, "%d events between %s and %s\n", len(events), start.Format(time.DateOnly), end.Format(time.DateOnly))
		return nil
	},
}

func init() {
	f := eventsCmd.Flags()
	f.StringVar(&eventsFlags.date, "date", "", "Day to list from, d/m/yyyy. Defaults to today.")
	f.StringVar(&eventsFlags.lapse, "lapse", "week", "Span to list: day, week or month.")
	rootCmd.AddCommand(authCmd, eventsCmd)
}
