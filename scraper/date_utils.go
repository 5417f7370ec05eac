package scraper

import (
	"fmt"
	"time"
)

// Lapse is the span of days a command works on.
type Lapse string

const (
	LapseDay   Lapse = "day"
	LapseWeek  Lapse = "week"
	LapseMonth Lapse = "month"
)

// ParseLapse accepts "day", "week" or "month".
func ParseLapse(s string) (Lapse, error) {
	switch Lapse(s) {
	case LapseDay, LapseWeek, LapseMonth:
		return Lapse(s), nil
	case "":
		return LapseDay, nil
	}
	return "", fmt.Errorf("unknown lapse %q (want day, week or month)", s)
}

// Range returns the first and last day of the lapse containing date. Weeks
// run Monday to Sunday.
func Range(date time.Time, lapse Lapse) (time.Time, time.Time) {
	day := truncateDay(date)
	switch lapse {
	case LapseWeek:
		offset := (int(day.Weekday()) + 6) % 7
		first := day.AddDate(0, 0, -offset)
		return first, first.AddDate(0, 0, 6)
	case LapseMonth:
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return first, first.AddDate(0, 1, -1)
	default:
		return day, day
	}
}

// Dates lists every calendar day from start to end inclusive, ascending.
func Dates(start, end time.Time) []time.Time {
	start, end = truncateDay(start), truncateDay(end)
	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// ParseDate reads the d/m/yyyy form used on the command line.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2/1/2006", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want d/m/yyyy): %w", s, err)
	}
	return t, nil
}

// timetableDate is the month-first, unpadded date the timetable page expects.
func timetableDate(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", t.Month(), t.Day(), t.Year())
}

// rosterDate is the day-first, unpadded date the roster page expects.
func rosterDate(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", t.Day(), t.Month(), t.Year())
}

func clock(t time.Time) string {
	return t.Format("15:04")
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// atTimeOfDay combines the calendar day of date with the clock of tod.
func atTimeOfDay(date, tod time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), tod.Hour(), tod.Minute(), 0, 0, date.Location())
}
