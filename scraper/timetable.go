package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"sisgap-scraper/metrics"
)

// Service sequences session requests to build timetables and rosters. Each
// operation logs in once and logs out on every exit path.
type Service struct {
	session   *Session
	extractor *Extractor
	log       *slog.Logger
}

func NewService(session *Session, extractor *Extractor, logger *slog.Logger) *Service {
	if extractor == nil {
		extractor = NewExtractor("", 0, logger)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		session:   session,
		extractor: extractor,
		log:       logger.With("component", "sisgap_timetable"),
	}
}

// EachDay scrapes the days from start to end, ascending, handing each one to
// fn as soon as it is read. Returning false from fn stops the scan early.
func (s *Service) EachDay(ctx context.Context, start, end time.Time, fn func(Day) bool) error {
	if truncateDay(start).After(truncateDay(end)) {
		return fmt.Errorf("start %s is after end %s", start.Format(time.DateOnly), end.Format(time.DateOnly))
	}

	if err := s.session.Open(ctx); err != nil {
		return err
	}
	defer func() {
		// logout is best effort, Close already logged the failure. It still
		// goes out when ctx was cancelled mid scan.
		_ = s.session.Close(context.WithoutCancel(ctx))
	}()

	for _, date := range Dates(start, end) {
		t1 := time.Now()
		items, err := s.day(ctx, date)
		if err != nil {
			return err
		}
		metrics.ObserveScrapedDay(time.Since(t1), len(items))
		s.log.Debug("scraped day", "date", date.Format(time.DateOnly), "items", len(items))

		if !fn(Day{Date: date, Items: items}) {
			return nil
		}
	}
	return nil
}

func (s *Service) day(ctx context.Context, date time.Time) ([]TimetableItem, error) {
	resource := s.session.Resources().Timetable
	body, err := s.session.Get(ctx, resource, url.Values{"fecha": {timetableDate(date)}})
	if err != nil {
		return nil, &ScrapeError{Resource: resource, Err: err}
	}
	items, err := s.extractor.Timetable(body, date)
	if err != nil {
		return nil, fmt.Errorf("timetable for %s: %w", date.Format(time.DateOnly), err)
	}
	return items, nil
}

// FetchTimetable returns one Day per date in the range, empty days included.
// Any failure discards the days read so far.
func (s *Service) FetchTimetable(ctx context.Context, start, end time.Time) (Timetable, error) {
	var timetable Timetable
	err := s.EachDay(ctx, start, end, func(day Day) bool {
		timetable.Days = append(timetable.Days, day)
		return true
	})
	if err != nil {
		return Timetable{}, err
	}
	s.log.Info("timetable fetched",
		"start", start.Format(time.DateOnly),
		"end", end.Format(time.DateOnly),
		"items", len(timetable.Items()),
	)
	return timetable, nil
}

// FindGroup returns the first scheduled session of the group within the
// range, or nil when the group has none. Callers searching for several groups
// should fetch the timetable once and look through it instead.
func (s *Service) FindGroup(ctx context.Context, groupID int, start, end time.Time) (*TimetableItem, error) {
	var found *TimetableItem
	err := s.EachDay(ctx, start, end, func(day Day) bool {
		for i := range day.Items {
			if day.Items[i].GroupID == groupID {
				found = &day.Items[i]
				return false
			}
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// FetchRoster returns the students of the scheduled session, in page order.
func (s *Service) FetchRoster(ctx context.Context, item TimetableItem) ([]Student, error) {
	if err := s.session.Open(ctx); err != nil {
		return nil, err
	}
	defer func() {
		_ = s.session.Close(context.WithoutCancel(ctx))
	}()

	resource := s.session.Resources().Roster
	body, err := s.session.Post(ctx, resource, RosterFields(item))
	if err != nil {
		return nil, &ScrapeError{Resource: resource, Err: err}
	}
	students, err := s.extractor.Roster(body)
	if err != nil {
		return nil, fmt.Errorf("roster for group %d: %w", item.GroupID, err)
	}
	s.log.Info("roster fetched", "group_id", item.GroupID, "students", len(students))
	return students, nil
}

// RosterFields is the form the roster page expects for a scheduled session.
func RosterFields(item TimetableItem) url.Values {
	kind := item.Kind
	if kind == "" {
		kind = KindAttendance
	}
	return url.Values{
		"tipo":        {string(kind)},
		"fecha":       {rosterDate(item.Date)},
		"idMateria":   {strconv.Itoa(item.SubjectID)},
		"idGrupo":     {strconv.Itoa(item.GroupID)},
		"hora_inicio": {clock(item.Start)},
		"hora_fin":    {clock(item.End)},
		"tp":          {item.Extra},
	}
}
