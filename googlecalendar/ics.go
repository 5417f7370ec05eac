package googlecalendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

const productID = "-//sisgap-scraper//timetable//ES"

// propertyColorID carries the Google colour id, which iCalendar has no field for.
const propertyColorID = ics.ComponentProperty("X-SISGAP-COLOR-ID")

// WriteICS renders events as an iCalendar document. Event ids become UIDs,
// so re-importing the file updates rather than duplicates.
func WriteICS(w io.Writer, events []Event) error {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)

	stamp := time.Now().UTC()
	for _, ev := range events {
		ve := cal.AddEvent(ev.ID)
		ve.SetDtStampTime(stamp)
		ve.SetStartAt(ev.Start)
		ve.SetEndAt(ev.End)
		ve.SetSummary(ev.Title)
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			ve.SetLocation(ev.Location)
		}
		if ev.ColorID != "" {
			ve.SetProperty(propertyColorID, ev.ColorID)
		}
		if ev.Status != "" {
			ve.SetProperty(ics.ComponentPropertyStatus, strings.ToUpper(ev.Status))
		}
		for _, email := range ev.Attendees {
			ve.AddAttendee(email)
		}
	}

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return fmt.Errorf("write ics: %w", err)
	}
	return nil
}

// ReadICS parses an iCalendar document back into events, with times in loc.
// Events lacking a start or end are skipped.
func ReadICS(r io.Reader, loc *time.Location) ([]Event, error) {
	if loc == nil {
		loc = defaultLocation()
	}
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parse ics: %w", err)
	}

	var events []Event
	for _, ve := range cal.Events() {
		if ve == nil {
			continue
		}
		start, err := ve.GetStartAt()
		if err != nil {
			continue
		}
		end, err := ve.GetEndAt()
		if err != nil {
			continue
		}

		ev := Event{
			ID:          ve.Id(),
			Title:       propertyValue(ve, ics.ComponentPropertySummary),
			Description: propertyValue(ve, ics.ComponentPropertyDescription),
			Location:    propertyValue(ve, ics.ComponentPropertyLocation),
			ColorID:     propertyValue(ve, propertyColorID),
			Start:       start.In(loc),
			End:         end.In(loc),
			TimeZone:    loc.String(),
			Status:      strings.ToLower(propertyValue(ve, ics.ComponentPropertyStatus)),
		}
		for _, a := range ve.Attendees() {
			ev.Attendees = append(ev.Attendees, a.Email())
		}
		events = append(events, ev)
	}
	return events, nil
}

func propertyValue(ve *ics.VEvent, prop ics.ComponentProperty) string {
	p := ve.GetProperty(prop)
	if p == nil {
		return ""
	}
	return p.Value
}
