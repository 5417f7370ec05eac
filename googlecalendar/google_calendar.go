package googlecalendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
)

// GoogleStore is a Store backed by one Google calendar.
type GoogleStore struct {
	service    *calendar.Service
	calendarID string
	location   *time.Location
}

// NewGoogleStore wraps a calendar service. Times read back are expressed in
// loc; nil means DefaultTimeZone.
func NewGoogleStore(service *calendar.Service, calendarID string, loc *time.Location) *GoogleStore {
	if calendarID == "" {
		calendarID = "primary"
	}
	if loc == nil {
		loc = defaultLocation()
	}
	return &GoogleStore{service: service, calendarID: calendarID, location: loc}
}

func (g *GoogleStore) GetEvent(ctx context.Context, id string) (Event, error) {
	ev, err := g.service.Events.Get(g.calendarID, id).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
			return Event{}, ErrEventNotFound
		}
		return Event{}, fmt.Errorf("get event %s: %w", id, err)
	}
	return g.fromGoogle(ev)
}

func (g *GoogleStore) InsertEvent(ctx context.Context, ev Event) error {
	_, err := g.service.Events.Insert(g.calendarID, toGoogle(ev)).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("insert event %s: %w", ev.ID, err)
	}
	return nil
}

func (g *GoogleStore) UpdateEvent(ctx context.Context, ev Event) error {
	_, err := g.service.Events.Update(g.calendarID, ev.ID, toGoogle(ev)).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update event %s: %w", ev.ID, err)
	}
	return nil
}

// ListEvents retrieves every event starting between from and to.
func (g *GoogleStore) ListEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	var all []Event
	pageToken := ""
	for {
		call := g.service.Events.List(g.calendarID).
			Context(ctx).
			SingleEvents(true).
			OrderBy("startTime").
			TimeMin(from.Format(time.RFC3339)).
			TimeMax(to.Format(time.RFC3339))
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		page, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
		for _, item := range page.Items {
			if item == nil || item.Status == "cancelled" {
				continue
			}
			ev, err := g.fromGoogle(item)
			if err != nil {
				// all-day events have no DateTime, they are not ours
				continue
			}
			all = append(all, ev)
		}

		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return all, nil
}

func toGoogle(ev Event) *calendar.Event {
	out := &calendar.Event{
		Id:          ev.ID,
		Summary:     ev.Title,
		Description: ev.Description,
		Location:    ev.Location,
		ColorId:     ev.ColorID,
		Status:      ev.Status,
		Start: &calendar.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: ev.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: ev.End.Format(time.RFC3339),
			TimeZone: ev.TimeZone,
		},
		Reminders: &calendar.EventReminders{
			UseDefault: true,
		},
	}
	for _, email := range ev.Attendees {
		out.Attendees = append(out.Attendees, &calendar.EventAttendee{Email: email})
	}
	return out
}

func (g *GoogleStore) fromGoogle(ev *calendar.Event) (Event, error) {
	if ev.Start == nil || ev.End == nil || ev.Start.DateTime == "" || ev.End.DateTime == "" {
		return Event{}, fmt.Errorf("event %s has no start or end time", ev.Id)
	}
	start, err := time.Parse(time.RFC3339, ev.Start.DateTime)
	if err != nil {
		return Event{}, fmt.Errorf("event %s start: %w", ev.Id, err)
	}
	end, err := time.Parse(time.RFC3339, ev.End.DateTime)
	if err != nil {
		return Event{}, fmt.Errorf("event %s end: %w", ev.Id, err)
	}

	out := Event{
		ID:          ev.Id,
		Title:       ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		ColorID:     ev.ColorId,
		Start:       start.In(g.location),
		End:         end.In(g.location),
		TimeZone:    ev.Start.TimeZone,
		Status:      ev.Status,
	}
	for _, a := range ev.Attendees {
		if a != nil {
			out.Attendees = append(out.Attendees, a.Email)
		}
	}
	return out, nil
}
