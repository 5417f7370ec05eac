package scraper

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cell(t *testing.T, inner string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<table><tr><td>" + inner + "</td></tr></table>"))
	require.NoError(t, err)
	return doc.Find("td").First()
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"markup and nbsp", "<b>Foo</b>&nbsp;Bar", "Foo Bar"},
		{"entities", "Pe&ntilde;a &amp; Hijos", "Peña & Hijos"},
		{"collapsed whitespace", "  1º\n\t  ESO   A ", "1º ESO A"},
		{"nested elements", "<div><span>Lengua</span> <i>castellana</i></div>", "Lengua castellana"},
		{"comments and scripts", "A<!-- hidden --><script>var x = 1;</script>B", "AB"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractText(cell(t, tt.html)))
		})
	}
}

func TestExtractTimeRange(t *testing.T) {
	loc := time.FixedZone("CEST", 2*60*60)
	date := time.Date(2016, 7, 15, 0, 0, 0, 0, loc)

	start, end, ok := ExtractTimeRange(cell(t, "09:00 - 10:00"), date)
	require.True(t, ok)
	assert.Equal(t, time.Date(2016, 7, 15, 9, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2016, 7, 15, 10, 0, 0, 0, loc), end)

	for _, bad := range []string{"", "09:00", "9h-10h", "09:00-25:00", "09:00-10:00-11:00"} {
		_, _, ok := ExtractTimeRange(cell(t, bad), date)
		assert.False(t, ok, bad)
	}
}

func TestExtractActionIDs(t *testing.T) {
	tests := []struct {
		html    string
		group   int
		subject int
		ok      bool
	}{
		{`<a href="javascript:pasarLista(12,345)">x</a>`, 12, 345, true},
		{`<a href="javascript:pasarLista( 7 , 8 , 'extra')">x</a>`, 7, 8, true},
		{`<a href="javascript:pasarLista(12)">x</a>`, 0, 0, false},
		{`<a href="javascript:pasarLista(a,b)">x</a>`, 0, 0, false},
		{`<a>no href</a>`, 0, 0, false},
		{`no anchor`, 0, 0, false},
	}
	for _, tt := range tests {
		group, subject, ok := ExtractActionIDs(cell(t, tt.html))
		assert.Equal(t, tt.ok, ok, tt.html)
		assert.Equal(t, tt.group, group, tt.html)
		assert.Equal(t, tt.subject, subject, tt.html)
	}
}

func TestExtractorTimetable(t *testing.T) {
	date := time.Date(2016, 7, 15, 0, 0, 0, 0, time.UTC)
	page := dataPage(
		timetableRow("<b>1º ESO</b>&nbsp;A", "Matemáticas", "09:00-10:00", 12, 345),
		`<tr><td>short</td><td>row</td></tr>`,
		timetableRow("2º ESO B", "Lengua", "mañana", 13, 346),
		`<tr><td>3º ESO</td><td>Física</td><td>11:00-12:00</td><td>sin enlace</td></tr>`,
		timetableRow("4º ESO C", "Inglés", "12:00-13:00", 14, 347),
	)

	items, err := NewExtractor("", 0, nil).Timetable([]byte(page), date)
	require.NoError(t, err)

	want := []TimetableItem{
		{
			GroupLabel:   "1º ESO A",
			SubjectLabel: "Matemáticas",
			Kind:         KindAttendance,
			Date:         date,
			SubjectID:    345,
			GroupID:      12,
			Start:        time.Date(2016, 7, 15, 9, 0, 0, 0, time.UTC),
			End:          time.Date(2016, 7, 15, 10, 0, 0, 0, time.UTC),
		},
		{
			GroupLabel:   "4º ESO C",
			SubjectLabel: "Inglés",
			Kind:         KindAttendance,
			Date:         date,
			SubjectID:    347,
			GroupID:      14,
			Start:        time.Date(2016, 7, 15, 12, 0, 0, 0, time.UTC),
			End:          time.Date(2016, 7, 15, 13, 0, 0, 0, time.UTC),
		},
	}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Errorf("timetable mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractorEmptyTable(t *testing.T) {
	items, err := NewExtractor("", 0, nil).Timetable([]byte(dataPage()), time.Now())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestExtractorMissingTable(t *testing.T) {
	page := `<html><body><table class="tabla"><tr><td>only one</td></tr></table></body></html>`

	_, err := NewExtractor("", 0, nil).Timetable([]byte(page), time.Now())
	var extractErr *ExtractionError
	require.True(t, errors.As(err, &extractErr), "got %v", err)

	_, err = NewExtractor("", 0, nil).Roster([]byte(page))
	require.True(t, errors.As(err, &extractErr), "got %v", err)
}

func TestExtractorCustomTable(t *testing.T) {
	page := `<html><body>
<table class="datos"><tr><th>h</th></tr>` + timetableRow("G", "S", "08:00-09:00", 1, 2) + `</table>
</body></html>`

	items, err := NewExtractor("datos", 1, nil).Timetable([]byte(page), time.Now())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].GroupID)
}

func TestRowsSkipsNestedTables(t *testing.T) {
	page := dataPage(
		`<tr><td><table class="inner"><tr><td>a</td></tr><tr><td>b</td></tr></table></td><td>x</td></tr>`,
		`<tr><td>y</td></tr>`,
	)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)
	table, err := LocateDataTable(doc, DefaultTableOrdinal, DefaultTableClass)
	require.NoError(t, err)

	assert.Equal(t, 2, Rows(table).Length())
}

func TestExtractorRoster(t *testing.T) {
	page := dataPage(
		studentRow("PEPE", "JOSÉ", "GARCÍA"),
		`<tr><td></td><td>short</td></tr>`,
		studentRow("maría", "maría&nbsp;luisa", "lópez"),
	)

	students, err := NewExtractor("", 0, nil).Roster([]byte(page))
	require.NoError(t, err)

	want := []Student{
		{KnownAs: "Pepe", FirstName: "José", LastName: "García"},
		{KnownAs: "María", FirstName: "María luisa", LastName: "López"},
	}
	if diff := cmp.Diff(want, students); diff != "" {
		t.Errorf("roster mismatch (-want +got):\n%s", diff)
	}
}
