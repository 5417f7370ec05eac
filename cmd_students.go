package main

import (
	"errors"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var studentsFlags struct {
	group int
	date  string
	lapse string
}

var studentsCmd = &cobra.Command{
	Use:   "students --group ID [--date d/m/yyyy] [--lapse day|week|month]",
	Short: "Prints the roster of a group scheduled within the lapse.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if studentsFlags.group <= 0 {
			return errors.New("--group is required")
		}
		ctx := cmd.Context()
		start, end, err := dateRange(studentsFlags.date, studentsFlags.lapse)
		if err != nil {
			return err
		}
		service, err := newTimetableService()
		if err != nil {
			return err
		}

		item, err := service.FindGroup(ctx, studentsFlags.group, start, end)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("group %d has no session between %s and %s",
				studentsFlags.group, formatDay(start), formatDay(end))
		}
		logger.Info("group found", "group_id", item.GroupID, "group", item.GroupLabel, "date", formatDay(item.Date))

		students, err := service.FetchRoster(ctx, *item)
		if err != nil {
			return err
		}
		sort.SliceStable(students, func(i, j int) bool {
			return students[i].KnownAs < students[j].KnownAs
		})

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "%s - %s (%d students)\n", item.GroupLabel, item.SubjectLabel, len(students))
		fmt.Fprintln(w, "KNOWN AS\tFIRST NAME\tLAST NAME")
		for _, s := range students {
			fmt.Fprintf(w, "%s\t%s\t%s\n", s.KnownAs, s.FirstName, s.LastName)
		}
		return w.Flush()
	},
}

func init() {
	f := studentsCmd.Flags()
	f.IntVar(&studentsFlags.group, "group", 0, "Group id, as shown by the timetable command.")
	f.StringVar(&studentsFlags.date, "date", "", "Day to search from, d/m/yyyy. Defaults to today.")
	f.StringVar(&studentsFlags.lapse, "lapse", "week", "Span searched for the group: day, week or month.")
	rootCmd.AddCommand(studentsCmd)
}
