package scraper

import (
	"bytes"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	DefaultTableClass   = "tabla"
	DefaultTableOrdinal = 9
)

// Extractor turns SISGAP pages into records. All knowledge about the page
// markup lives here.
type Extractor struct {
	// TableClass and TableOrdinal select the data table: the n-th table
	// (1-based, document order) carrying the class.
	TableClass   string
	TableOrdinal int
	Logger       *slog.Logger
}

func NewExtractor(class string, ordinal int, logger *slog.Logger) *Extractor {
	if class == "" {
		class = DefaultTableClass
	}
	if ordinal <= 0 {
		ordinal = DefaultTableOrdinal
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		TableClass:   class,
		TableOrdinal: ordinal,
		Logger:       logger.With("component", "sisgap_extractor"),
	}
}

// Timetable decodes the daily timetable page. Rows that cannot be decoded
// are dropped; a page without the data table is an ExtractionError.
func (e *Extractor) Timetable(body []byte, date time.Time) ([]TimetableItem, error) {
	table, err := e.dataTable(body)
	if err != nil {
		return nil, err
	}

	items := []TimetableItem{}
	Rows(table).Each(func(i int, row *goquery.Selection) {
		item, ok := DecodeTimetableRow(row, date)
		if !ok {
			e.Logger.Debug("skipping timetable row", "row", i+1, "date", date.Format(time.DateOnly))
			return
		}
		items = append(items, item)
	})
	return items, nil
}

// Roster decodes the group attendance page into students, in page order.
func (e *Extractor) Roster(body []byte) ([]Student, error) {
	table, err := e.dataTable(body)
	if err != nil {
		return nil, err
	}

	students := []Student{}
	Rows(table).Each(func(i int, row *goquery.Selection) {
		student, ok := DecodeStudentRow(row)
		if !ok {
			e.Logger.Debug("skipping roster row", "row", i+1)
			return
		}
		students = append(students, student)
	})
	return students, nil
}

func (e *Extractor) dataTable(body []byte) (*goquery.Selection, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &ExtractionError{What: "html document", Err: err}
	}
	return LocateDataTable(doc, e.TableOrdinal, e.TableClass)
}

// LocateDataTable returns the ordinal-th (1-based) table with the class.
func LocateDataTable(doc *goquery.Document, ordinal int, class string) (*goquery.Selection, error) {
	tables := doc.Find("table." + class)
	if ordinal < 1 || tables.Length() < ordinal {
		return nil, &ExtractionError{What: "table." + class + " #" + strconv.Itoa(ordinal)}
	}
	return tables.Eq(ordinal - 1), nil
}

// Rows returns the rows owned by the table, without the header row. Rows of
// nested tables are not included.
func Rows(table *goquery.Selection) *goquery.Selection {
	rows := table.Find("tr").FilterFunction(func(_ int, row *goquery.Selection) bool {
		return row.Closest("table").IsSelection(table)
	})
	if rows.Length() <= 1 {
		return rows.Slice(0, 0)
	}
	return rows.Slice(1, goquery.ToEnd)
}

// DecodeTimetableRow reads group, subject, time range and the action ids
// from the first four cells of a row.
func DecodeTimetableRow(row *goquery.Selection, date time.Time) (TimetableItem, bool) {
	cells := row.ChildrenFiltered("td")
	if cells.Length() < 4 {
		return TimetableItem{}, false
	}

	start, end, ok := ExtractTimeRange(cells.Eq(2), date)
	if !ok {
		return TimetableItem{}, false
	}
	groupID, subjectID, ok := ExtractActionIDs(cells.Eq(3))
	if !ok {
		return TimetableItem{}, false
	}

	return TimetableItem{
		GroupLabel:   ExtractText(cells.Eq(0)),
		SubjectLabel: ExtractText(cells.Eq(1)),
		Kind:         KindAttendance,
		Date:         date,
		SubjectID:    subjectID,
		GroupID:      groupID,
		Start:        start,
		End:          end,
	}, true
}

// DecodeStudentRow reads known-as, first name and last name from cells 1-3.
func DecodeStudentRow(row *goquery.Selection) (Student, bool) {
	cells := row.ChildrenFiltered("td")
	if cells.Length() < 4 {
		return Student{}, false
	}
	return Student{
		KnownAs:   capitalize(ExtractText(cells.Eq(1))),
		FirstName: capitalize(ExtractText(cells.Eq(2))),
		LastName:  capitalize(ExtractText(cells.Eq(3))),
	}, true
}

// ExtractText returns the plain text of a node and its descendants: entities
// decoded, tags and control characters dropped, whitespace collapsed.
func ExtractText(sel *goquery.Selection) string {
	var buf strings.Builder
	for _, n := range sel.Nodes {
		collectText(n, &buf)
		buf.WriteByte(' ')
	}
	// strings.Fields also splits on NBSP
	return strings.Join(strings.Fields(buf.String()), " ")
}

func collectText(n *html.Node, buf *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		for _, r := range n.Data {
			if unicode.IsControl(r) && !unicode.IsSpace(r) {
				continue
			}
			buf.WriteRune(r)
		}
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		if n.Data == "script" || n.Data == "style" {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, buf)
	}
}

// ExtractTimeRange parses "HH:MM-HH:MM" and places both ends on date, in
// date's location. ok is false when the cell does not hold a range.
func ExtractTimeRange(sel *goquery.Selection, date time.Time) (start, end time.Time, ok bool) {
	bounds := strings.Split(ExtractText(sel), "-")
	if len(bounds) != 2 {
		return time.Time{}, time.Time{}, false
	}
	from, err := time.Parse("15:04", strings.TrimSpace(bounds[0]))
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse("15:04", strings.TrimSpace(bounds[1]))
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return atTimeOfDay(date, from), atTimeOfDay(date, to), true
}

var actionArgs = regexp.MustCompile(`\(([^)]+)\)`)

// ExtractActionIDs reads the two integer arguments of the javascript action
// behind the cell's anchor, e.g. "javascript:go(912,5)" gives 912 and 5.
func ExtractActionIDs(sel *goquery.Selection) (groupID, subjectID int, ok bool) {
	href, exists := sel.ChildrenFiltered("a").First().Attr("href")
	if !exists {
		return 0, 0, false
	}
	match := actionArgs.FindStringSubmatch(href)
	if len(match) < 2 {
		return 0, 0, false
	}
	args := strings.Split(match[1], ",")
	if len(args) < 2 {
		return 0, 0, false
	}
	groupID, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, 0, false
	}
	subjectID, err = strconv.Atoi(strings.TrimSpace(args[1]))
	if err != nil {
		return 0, 0, false
	}
	return groupID, subjectID, true
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
