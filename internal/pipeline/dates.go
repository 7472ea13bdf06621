package pipeline

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ShafahmadxX69/Dashioh/internal"
	"github.com/ShafahmadxX69/Dashioh/internal/util"
)

const (
	isoDate = "2006-01-02"

	// serial day 25569 is 1970-01-01; serial 0 is 1899-12-30.
	serialEpochOffset = 25569
	msPerDay          = 86400 * 1000
	maxDateMs         = 8.64e15
)

var generalLayouts = []string{
	isoDate,
	"2006-1-2",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01",
	"2006/01/02",
	"2006/1/2",
	"2006/01/02 15:04:05",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"Mon Jan 2 2006",
	"Mon, 02 Jan 2006",
	time.RFC1123,
	time.RFC1123Z,
	time.RFC850,
	time.ANSIC,
}

var (
	reGVizDate = regexp.MustCompile(`^Date\((\d{1,6}),\s*(\d{1,2}),\s*(\d{1,2})(?:,\s*(\d{1,2}),\s*(\d{1,2}),\s*(\d{1,2})(?:,\s*\d{1,3})?)?\)$`)
	reDayFirst = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4}|\d{2})(?:[ T].*)?$`)
)

// ToISODate turns a cell into YYYY-MM-DD. Numbers are spreadsheet serials;
// text goes through a general parse, then day-first D/M/Y, then is cut to
// its first 10 characters. Null and anything else become "".
func ToISODate(v internal.Value) string {
	switch v.Kind {
	case internal.KindNumber:
		return serialToISO(v.Num)
	case internal.KindString:
		return textToISO(v.Str)
	default:
		return ""
	}
}

func serialToISO(serial float64) string {
	ms := math.Floor((serial-serialEpochOffset)*msPerDay + 0.5)
	if math.IsNaN(ms) || math.IsInf(ms, 0) || math.Abs(ms) > maxDateMs {
		return strconv.FormatFloat(serial, 'f', -1, 64)
	}
	return time.UnixMilli(int64(ms)).UTC().Format(isoDate)
}

func textToISO(text string) string {
	trimmed := strings.TrimSpace(text)
	if t, ok := parseGeneralDate(trimmed); ok {
		return t.Format(isoDate)
	}
	if t, ok := parseDayFirst(trimmed); ok {
		return t.Format(isoDate)
	}
	return util.TruncateRunes(text, 10)
}

func parseGeneralDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, ok := parseGVizDate(s); ok {
		return t, true
	}
	for _, layout := range generalLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseGVizDate reads the Date(y,m,d[,h,mi,s[,ms]]) literal GViz emits for
// date cells. The month is zero-based.
func parseGVizDate(s string) (time.Time, bool) {
	m := reGVizDate.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	var hour, minute, sec int
	if m[4] != "" {
		hour, _ = strconv.Atoi(m[4])
		minute, _ = strconv.Atoi(m[5])
		sec, _ = strconv.Atoi(m[6])
	}
	if month > 11 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month+1), day, hour, minute, sec, 0, time.UTC)
	if t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func parseDayFirst(s string) (time.Time, bool) {
	m := reDayFirst.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if len(m[3]) == 2 {
		if year >= 50 {
			year += 1900
		} else {
			year += 2000
		}
	}
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}
