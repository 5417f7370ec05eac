package googlecalendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sisgap-scraper/metrics"
	"sisgap-scraper/scraper"
)

// ErrEventNotFound is returned by Store.GetEvent when no event has the id.
// Any other error from GetEvent means the lookup itself failed.
var ErrEventNotFound = errors.New("calendar event not found")

// Store is the calendar the timetable is mirrored into.
type Store interface {
	GetEvent(ctx context.Context, id string) (Event, error)
	InsertEvent(ctx context.Context, ev Event) error
	UpdateEvent(ctx context.Context, ev Event) error
}

// SyncError is a failed calendar call for one event.
type SyncError struct {
	EventID string
	Op      string
	Err     error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync event %s: %s: %v", e.EventID, e.Op, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// Report counts what a sync pass did.
type Report struct {
	Inserted  int
	Updated   int
	Unchanged int
	Failed    int
}

func (r Report) Total() int {
	return r.Inserted + r.Updated + r.Unchanged + r.Failed
}

// Syncer upserts events by their deterministic id, so running it again on
// the same timetable creates nothing new. An event already stored with the
// same content is left alone: the update call is skipped and it is counted
// as unchanged.
type Syncer struct {
	store Store
	opts  EventOptions
	log   *slog.Logger
}

func NewSyncer(store Store, opts EventOptions, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		store: store,
		opts:  opts,
		log:   logger.With("component", "calendar_sync"),
	}
}

// Sync mirrors every item of the timetable. A failing event is logged and
// reported in the returned error; the remaining events are still synced.
func (s *Syncer) Sync(ctx context.Context, timetable scraper.Timetable, recipient string) (Report, error) {
	var events []Event
	for _, item := range timetable.Items() {
		events = append(events, ToEvent(item, recipient, s.opts))
	}
	return s.SyncEvents(ctx, events)
}

// SyncEvents upserts already built events. Events without a colour or
// place get the ones of the syncer options.
func (s *Syncer) SyncEvents(ctx context.Context, events []Event) (Report, error) {
	var report Report
	var errs []error

	for _, ev := range events {
		ev = s.opts.fill(ev)
		result, err := s.upsert(ctx, ev)
		metrics.CountSyncEvent(result)
		switch result {
		case metrics.ResultInserted:
			report.Inserted++
		case metrics.ResultUpdated:
			report.Updated++
		case metrics.ResultFailed:
			report.Failed++
			errs = append(errs, err)
			s.log.Error("event sync failed", "event_id", ev.ID, "title", ev.Title, "err", err)
			continue
		default:
			report.Unchanged++
		}
		s.log.Debug("event synced", "event_id", ev.ID, "title", ev.Title, "result", result)
	}

	metrics.MarkSyncCompleted(time.Now())
	s.log.Info("sync finished",
		"inserted", report.Inserted,
		"updated", report.Updated,
		"unchanged", report.Unchanged,
		"failed", report.Failed,
	)
	return report, errors.Join(errs...)
}

const resultUnchanged = "unchanged"

func (s *Syncer) upsert(ctx context.Context, ev Event) (string, error) {
	existing, err := s.store.GetEvent(ctx, ev.ID)
	switch {
	case errors.Is(err, ErrEventNotFound):
		if err := s.store.InsertEvent(ctx, ev); err != nil {
			return metrics.ResultFailed, &SyncError{EventID: ev.ID, Op: "insert", Err: err}
		}
		return metrics.ResultInserted, nil
	case err != nil:
		// an outage must not turn into a duplicate insert
		return metrics.ResultFailed, &SyncError{EventID: ev.ID, Op: "get", Err: err}
	}

	if existing.equal(ev) {
		return resultUnchanged, nil
	}
	if err := s.store.UpdateEvent(ctx, ev); err != nil {
		return metrics.ResultFailed, &SyncError{EventID: ev.ID, Op: "update", Err: err}
	}
	return metrics.ResultUpdated, nil
}
