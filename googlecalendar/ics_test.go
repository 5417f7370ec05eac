package googlecalendar

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestICSRoundTrip(t *testing.T) {
	loc := madrid(t)
	opts := EventOptions{Location: loc, Place: "IES Vigo", ColorID: "5"}
	var events []Event
	for _, item := range testTimetable().Items() {
		events = append(events, ToEvent(item, "profe@example.com", opts))
	}

	var buf bytes.Buffer
	require.NoError(t, WriteICS(&buf, events))
	out := buf.String()
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "UID:"+events[0].ID)
	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))

	read, err := ReadICS(strings.NewReader(out), loc)
	require.NoError(t, err)
	require.Len(t, read, 2)
	for i, ev := range read {
		assert.Equal(t, events[i].ID, ev.ID)
		assert.Equal(t, events[i].Title, ev.Title)
		assert.Equal(t, events[i].Description, ev.Description)
		assert.Equal(t, "IES Vigo", ev.Location)
		assert.Equal(t, "5", ev.ColorID)
		assert.True(t, events[i].Start.Equal(ev.Start))
		assert.True(t, events[i].End.Equal(ev.End))
		assert.Equal(t, StatusConfirmed, ev.Status)
		assert.Equal(t, []string{"profe@example.com"}, ev.Attendees)
	}
}

func TestICSImportIsIdempotent(t *testing.T) {
	loc := madrid(t)
	opts := EventOptions{Location: loc, Place: "IES Vigo", ColorID: "1"}
	store := NewMemoryStore()
	syncer := NewSyncer(store, opts, nil)
	ctx := context.Background()

	report, err := syncer.Sync(ctx, testTimetable(), "profe@example.com")
	require.NoError(t, err)
	assert.Equal(t, Report{Inserted: 2}, report)

	var buf bytes.Buffer
	require.NoError(t, WriteICS(&buf, store.Events()))
	read, err := ReadICS(bytes.NewReader(buf.Bytes()), loc)
	require.NoError(t, err)

	report, err = syncer.SyncEvents(ctx, read)
	require.NoError(t, err)
	assert.Equal(t, Report{Unchanged: 2}, report, "re-importing an export rewrites nothing")
	for _, ev := range store.Events() {
		assert.Equal(t, "1", ev.ColorID)
		assert.Equal(t, "IES Vigo", ev.Location)
	}
}

func TestSyncEventsFillsOptions(t *testing.T) {
	loc := madrid(t)
	var events []Event
	for _, item := range testTimetable().Items() {
		events = append(events, ToEvent(item, "", EventOptions{Location: loc}))
	}
	var buf bytes.Buffer
	require.NoError(t, WriteICS(&buf, events))
	read, err := ReadICS(bytes.NewReader(buf.Bytes()), loc)
	require.NoError(t, err)

	store := NewMemoryStore()
	syncer := NewSyncer(store, EventOptions{Location: loc, Place: "IES Vigo", ColorID: "1"}, nil)
	report, err := syncer.SyncEvents(context.Background(), read)
	require.NoError(t, err)
	assert.Equal(t, Report{Inserted: 2}, report)
	for _, ev := range store.Events() {
		assert.Equal(t, "1", ev.ColorID)
		assert.Equal(t, "IES Vigo", ev.Location)
	}

	report, err = syncer.SyncEvents(context.Background(), read)
	require.NoError(t, err)
	assert.Equal(t, Report{Unchanged: 2}, report)
}

func TestReadICSRejectsGarbage(t *testing.T) {
	_, err := ReadICS(strings.NewReader("this is not a calendar"), nil)
	assert.Error(t, err)
}
