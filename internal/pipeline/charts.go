package pipeline

import (
	"strings"
	"time"

	"github.com/ShafahmadxX69/Dashioh/internal"
)

const maxProductionBrands = 6

var weekdayLabels = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

type Series struct {
	Name string    `json:"name"`
	Data []float64 `json:"data"`
}

type Chart struct {
	Labels []string `json:"labels"`
	Series []Series `json:"series"`
}

type TableRow struct {
	Date        string  `json:"date"`
	Brand       string  `json:"brand"`
	Shift       string  `json:"shift"`
	Line        string  `json:"line"`
	Qty         float64 `json:"qty"`
	Rework      float64 `json:"rework"`
	ReworkFixed float64 `json:"reworkFixed"`
	PartKey     string  `json:"partKey"`
}

type Charts struct {
	Production Chart `json:"production"`
	Shift      Chart `json:"shift"`
	Export     Chart `json:"export"`
}

// Dashboard is everything a renderer needs for one filter state.
type Dashboard struct {
	Filter      internal.Filter  `json:"filter"`
	Summary     internal.Summary `json:"summary"`
	Brands      []string         `json:"brands"`
	Charts      Charts           `json:"charts"`
	Table       []TableRow       `json:"table"`
	RefreshedAt *time.Time       `json:"refreshedAt,omitempty"`
}

// BuildDashboard filters all records and assembles KPIs, chart series and
// table rows. Brand options come from the unfiltered table.
func BuildDashboard(all []internal.CanonicalRecord, spec internal.Filter, now time.Time, rowLimit int) Dashboard {
	filtered := Filter(all, spec, now)
	return Dashboard{
		Filter:  spec,
		Summary: Summarize(filtered, now),
		Brands:  Brands(all),
		Charts: Charts{
			Production: ProductionChart(filtered, Labels(spec.Range, now)),
			Shift:      ShiftChart(filtered),
			Export:     ExportChart(filtered),
		},
		Table: TableRows(filtered, rowLimit),
	}
}

// Labels are the x-axis buckets for a range: days for 1D/1W/1M, months
// (YYYY-MM) for 1Y, none otherwise.
func Labels(r internal.TimeRange, now time.Time) []string {
	y, m, d := now.Date()
	loc := now.Location()
	days := func(n int) []string {
		out := make([]string, 0, n)
		for i := n - 1; i >= 0; i-- {
			out = append(out, time.Date(y, m, d-i, 0, 0, 0, 0, loc).Format(isoDate))
		}
		return out
	}
	switch r {
	case internal.Range1D:
		return days(1)
	case internal.Range1W:
		return days(7)
	case internal.Range1M:
		return days(30)
	case internal.Range1Y:
		out := make([]string, 0, 12)
		for i := 11; i >= 0; i-- {
			out = append(out, time.Date(y, m-time.Month(i), 1, 0, 0, 0, 0, loc).Format("2006-01"))
		}
		return out
	default:
		return []string{}
	}
}

// ProductionChart sums quantity per label for up to six brands, taken in
// first-seen order.
func ProductionChart(records []internal.CanonicalRecord, labels []string) Chart {
	brands := []string{}
	seen := map[string]struct{}{}
	for _, rec := range records {
		if rec.Brand == "" {
			continue
		}
		if _, ok := seen[rec.Brand]; ok {
			continue
		}
		seen[rec.Brand] = struct{}{}
		brands = append(brands, rec.Brand)
		if len(brands) == maxProductionBrands {
			break
		}
	}

	series := make([]Series, 0, len(brands))
	for _, brand := range brands {
		data := make([]float64, len(labels))
		for i, label := range labels {
			for _, rec := range records {
				if rec.Brand == brand && strings.HasPrefix(rec.Date, label) {
					data[i] += rec.Quantity
				}
			}
		}
		series = append(series, Series{Name: brand, Data: data})
	}
	return Chart{Labels: labels, Series: series}
}

// ShiftChart buckets quantity by weekday, Shift A against everything else.
func ShiftChart(records []internal.CanonicalRecord) Chart {
	shiftA := make([]float64, len(weekdayLabels))
	shiftB := make([]float64, len(weekdayLabels))
	for _, rec := range records {
		if !isISODate(rec.Date) {
			continue
		}
		t, _ := time.Parse(isoDate, rec.Date)
		idx := (int(t.Weekday()) + 6) % 7
		if strings.Contains(strings.ToUpper(rec.Shift), "A") {
			shiftA[idx] += rec.Quantity
		} else {
			shiftB[idx] += rec.Quantity
		}
	}
	return Chart{
		Labels: append([]string(nil), weekdayLabels...),
		Series: []Series{{Name: "Shift A", Data: shiftA}, {Name: "Shift B", Data: shiftB}},
	}
}

// ExportChart totals quantity per brand in first-seen order.
func ExportChart(records []internal.CanonicalRecord) Chart {
	labels := []string{}
	totals := map[string]float64{}
	for _, rec := range records {
		brand := rec.Brand
		if brand == "" {
			brand = "Unknown"
		}
		if _, ok := totals[brand]; !ok {
			labels = append(labels, brand)
		}
		totals[brand] += rec.Quantity
	}
	data := make([]float64, 0, len(labels))
	for _, l := range labels {
		data = append(data, totals[l])
	}
	return Chart{Labels: labels, Series: []Series{{Name: "Export Qty", Data: data}}}
}

func TableRows(records []internal.CanonicalRecord, limit int) []TableRow {
	if limit <= 0 || limit > len(records) {
		limit = len(records)
	}
	out := make([]TableRow, 0, limit)
	for _, rec := range records[:limit] {
		out = append(out, TableRow{
			Date:        rec.Date,
			Brand:       rec.Brand,
			Shift:       rec.Shift,
			Line:        rec.Line,
			Qty:         rec.Quantity,
			Rework:      rec.ReworkQuantity,
			ReworkFixed: rec.ReworkFixed,
			PartKey:     rec.PartKey,
		})
	}
	return out
}
