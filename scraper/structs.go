// Package scraper logs in to SISGAP and harvests the staff timetable and
// group rosters from its server-rendered pages.
package scraper

import "time"

// Kind is the kind of a scheduled session as the source system names it.
type Kind string

// KindAttendance marks a session whose attendance can be taken.
const KindAttendance Kind = "asistencias"

// Credentials identify a staff member against one centre.
type Credentials struct {
	Username string
	Password string
	Centre   string
}

// TimetableItem is one row of the daily timetable.
type TimetableItem struct {
	GroupLabel   string
	SubjectLabel string
	Kind         Kind
	Date         time.Time
	SubjectID    int
	GroupID      int
	Start        time.Time
	End          time.Time
	// Extra is passed back untouched as the "tp" field of roster requests.
	Extra string
}

// Day holds the items scheduled for a single date, in page order.
type Day struct {
	Date  time.Time
	Items []TimetableItem
}

// Timetable is an ordered list of days, ascending by date.
type Timetable struct {
	Days []Day
}

// Get returns the items scheduled on the given calendar date.
func (t Timetable) Get(date time.Time) ([]TimetableItem, bool) {
	for _, day := range t.Days {
		if sameDay(day.Date, date) {
			return day.Items, true
		}
	}
	return nil, false
}

// Items flattens the timetable keeping day order.
func (t Timetable) Items() []TimetableItem {
	var items []TimetableItem
	for _, day := range t.Days {
		items = append(items, day.Items...)
	}
	return items
}

// Student is a roster row.
type Student struct {
	FirstName string
	LastName  string
	KnownAs   string
}
