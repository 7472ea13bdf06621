package pipeline

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/ShafahmadxX69/Dashioh/internal"
)

// rangeDays is how far back each window reaches from today, inclusive.
var rangeDays = map[internal.TimeRange]int{
	internal.Range1W: 6,
	internal.Range1M: 29,
	internal.Range1Y: 365,
}

// Today is the ISO date of now in now's location.
func Today(now time.Time) string {
	return now.Format(isoDate)
}

func daysBefore(now time.Time, days int) string {
	y, m, d := now.Date()
	return time.Date(y, m, d-days, 0, 0, 0, 0, now.Location()).Format(isoDate)
}

// Filter keeps the records matching the brand set, the free-text query and
// the time window. The window is relative to now, so results move with the
// clock. An unknown range keeps everything.
func Filter(records []internal.CanonicalRecord, spec internal.Filter, now time.Time) []internal.CanonicalRecord {
	brands := map[string]struct{}{}
	for _, b := range spec.Brands {
		brands[b] = struct{}{}
	}
	query := strings.ToLower(strings.TrimSpace(spec.Query))

	today := Today(now)
	cutoff := ""
	if days, ok := rangeDays[spec.Range]; ok {
		cutoff = daysBefore(now, days)
	}

	out := make([]internal.CanonicalRecord, 0, len(records))
	for _, rec := range records {
		if len(brands) > 0 {
			if _, ok := brands[strings.TrimSpace(rec.Brand)]; !ok {
				continue
			}
		}
		if query != "" && !strings.Contains(searchText(rec), query) {
			continue
		}
		switch {
		case spec.Range == internal.Range1D:
			if rec.Date != today {
				continue
			}
		case cutoff != "":
			if !isISODate(rec.Date) || rec.Date < cutoff {
				continue
			}
		}
		out = append(out, rec)
	}
	return out
}

// ParseRange accepts the range keys case-insensitively; anything else is
// RangeAll.
func ParseRange(s string) internal.TimeRange {
	switch internal.TimeRange(strings.ToUpper(strings.TrimSpace(s))) {
	case internal.Range1D:
		return internal.Range1D
	case internal.Range1W:
		return internal.Range1W
	case internal.Range1M:
		return internal.Range1M
	case internal.Range1Y:
		return internal.Range1Y
	default:
		return internal.RangeAll
	}
}

type searchDoc struct {
	Raw      internal.RawRow `json:"raw"`
	Schedule internal.Attrs  `json:"schedule,omitempty"`
	Erp      internal.Attrs  `json:"erp,omitempty"`
}

func searchText(rec internal.CanonicalRecord) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(searchDoc{Raw: rec.Raw, Schedule: rec.ScheduleAttrs, Erp: rec.ErpAttrs})
	return strings.ToLower(rec.Brand + " " + buf.String())
}

func isISODate(s string) bool {
	if len(s) != len(isoDate) {
		return false
	}
	_, err := time.Parse(isoDate, s)
	return err == nil
}
