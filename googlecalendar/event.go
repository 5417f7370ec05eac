// Package googlecalendar mirrors SISGAP timetables into Google Calendar and
// iCalendar files.
package googlecalendar

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"time"
	_ "time/tzdata"

	"sisgap-scraper/scraper"
)

const (
	StatusConfirmed = "confirmed"
	// DefaultTimeZone is the zone SISGAP schedules are expressed in.
	DefaultTimeZone = "Europe/Madrid"
)

// Event is the calendar-side view of a timetable item.
type Event struct {
	ID          string
	Title       string
	Description string
	Location    string
	ColorID     string
	Start       time.Time
	End         time.Time
	TimeZone    string
	Attendees   []string
	Status      string
}

// EventOptions are the settings shared by every event of a sync pass.
type EventOptions struct {
	// Location is the zone start and end are pinned to. Nil means
	// DefaultTimeZone.
	Location *time.Location
	// Place fills the event location field.
	Place   string
	ColorID string
}

func (o EventOptions) fill(ev Event) Event {
	if ev.ColorID == "" {
		ev.ColorID = o.ColorID
	}
	if ev.Location == "" {
		ev.Location = o.Place
	}
	return ev
}

// EventKey is the string an event id is derived from: date (MMDD), start
// (HHMM), end (HHMM) and the zero-padded group id.
func EventKey(item scraper.TimetableItem) string {
	return fmt.Sprintf("%02d%02d%02d%02d%02d%02d%04d",
		int(item.Date.Month()), item.Date.Day(),
		item.Start.Hour(), item.Start.Minute(),
		item.End.Hour(), item.End.Minute(),
		item.GroupID,
	)
}

// EventID derives the calendar id of an item. It only depends on date, start,
// end and group, so a relabelled item keeps its id. Lowercase hex is valid
// in the base32hex alphabet Google requires for event ids.
func EventID(item scraper.TimetableItem) string {
	sum := sha256.Sum256([]byte(EventKey(item)))
	return hex.EncodeToString(sum[:])
}

// ToEvent builds the calendar event for an item.
func ToEvent(item scraper.TimetableItem, recipient string, opts EventOptions) Event {
	loc := opts.Location
	if loc == nil {
		loc = defaultLocation()
	}

	var attendees []string
	if recipient != "" {
		attendees = []string{recipient}
	}

	return Event{
		ID:          EventID(item),
		Title:       item.GroupLabel,
		Description: fmt.Sprintf("%s - %s", item.GroupLabel, item.SubjectLabel),
		Location:    opts.Place,
		ColorID:     opts.ColorID,
		Start:       localize(item.Start, loc),
		End:         localize(item.End, loc),
		TimeZone:    loc.String(),
		Attendees:   attendees,
		Status:      StatusConfirmed,
	}
}

// localize keeps the wall clock of t and pins it to loc.
func localize(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
}

func defaultLocation() *time.Location {
	loc, err := time.LoadLocation(DefaultTimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// equal reports whether two events would render the same in the calendar.
func (e Event) equal(o Event) bool {
	return e.ID == o.ID &&
		e.Title == o.Title &&
		e.Description == o.Description &&
		e.Location == o.Location &&
		e.ColorID == o.ColorID &&
		e.Start.Equal(o.Start) &&
		e.End.Equal(o.End) &&
		e.Status == o.Status &&
		slices.Equal(e.Attendees, o.Attendees)
}
