package googlecalendar

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sisgap-scraper/scraper"
)

func testItem() scraper.TimetableItem {
	return scraper.TimetableItem{
		GroupLabel:   "1º ESO A",
		SubjectLabel: "Matemáticas",
		Kind:         scraper.KindAttendance,
		Date:         time.Date(2016, 7, 15, 0, 0, 0, 0, time.UTC),
		SubjectID:    345,
		GroupID:      12,
		Start:        time.Date(2016, 7, 15, 9, 0, 0, 0, time.UTC),
		End:          time.Date(2016, 7, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestEventKey(t *testing.T) {
	assert.Equal(t, "0715090010000012", EventKey(testItem()))
}

func TestEventIDDeterministic(t *testing.T) {
	item := testItem()
	id := EventID(item)

	assert.Equal(t, id, EventID(testItem()))
	assert.Len(t, id, 64)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-v]+$`), id, "google event ids use base32hex characters")

	relabelled := item
	relabelled.GroupLabel = "1º ESO A (desdoble)"
	relabelled.SubjectLabel = "Álgebra"
	relabelled.SubjectID = 999
	assert.Equal(t, id, EventID(relabelled), "labels and subject do not affect the id")
}

func TestEventIDChangesWithIdentity(t *testing.T) {
	base := EventID(testItem())

	mutations := map[string]func(*scraper.TimetableItem){
		"date": func(i *scraper.TimetableItem) {
			i.Date = i.Date.AddDate(0, 0, 1)
		},
		"start": func(i *scraper.TimetableItem) {
			i.Start = i.Start.Add(-30 * time.Minute)
		},
		"end": func(i *scraper.TimetableItem) {
			i.End = i.End.Add(30 * time.Minute)
		},
		"group": func(i *scraper.TimetableItem) {
			i.GroupID = 13
		},
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			item := testItem()
			mutate(&item)
			assert.NotEqual(t, base, EventID(item))
		})
	}
}

func TestToEvent(t *testing.T) {
	madrid, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)

	ev := ToEvent(testItem(), "profe@example.com", EventOptions{
		Location: madrid,
		Place:    "IES Vigo",
		ColorID:  "1",
	})

	assert.Equal(t, EventID(testItem()), ev.ID)
	assert.Equal(t, "1º ESO A", ev.Title)
	assert.Equal(t, "1º ESO A - Matemáticas", ev.Description)
	assert.Equal(t, "IES Vigo", ev.Location)
	assert.Equal(t, "1", ev.ColorID)
	assert.Equal(t, "Europe/Madrid", ev.TimeZone)
	assert.Equal(t, []string{"profe@example.com"}, ev.Attendees)
	assert.Equal(t, StatusConfirmed, ev.Status)

	// wall clock is kept, the zone is Madrid's
	assert.True(t, ev.Start.Equal(time.Date(2016, 7, 15, 9, 0, 0, 0, madrid)))
	assert.True(t, ev.End.Equal(time.Date(2016, 7, 15, 10, 0, 0, 0, madrid)))
}

func TestToEventWithoutRecipient(t *testing.T) {
	ev := ToEvent(testItem(), "", EventOptions{})
	assert.Empty(t, ev.Attendees)
	assert.Equal(t, DefaultTimeZone, ev.TimeZone)
}
