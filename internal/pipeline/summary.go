package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ShafahmadxX69/Dashioh/internal"
)

var hundred = decimal.NewFromInt(100)

// Summarize computes the KPI block over an already filtered set.
func Summarize(records []internal.CanonicalRecord, now time.Time) internal.Summary {
	today := Today(now)

	todayTotal := decimal.Zero
	periodTotal := decimal.Zero
	reworkTotal := decimal.Zero

	brandTotals := map[string]decimal.Decimal{}
	brandOrder := []string{}

	for _, rec := range records {
		qty := decimal.NewFromFloat(rec.Quantity)
		periodTotal = periodTotal.Add(qty)
		reworkTotal = reworkTotal.Add(decimal.NewFromFloat(rec.ReworkQuantity))
		if rec.Date == today {
			todayTotal = todayTotal.Add(qty)
		}
		if rec.Brand == "" {
			continue
		}
		if _, seen := brandTotals[rec.Brand]; !seen {
			brandOrder = append(brandOrder, rec.Brand)
			brandTotals[rec.Brand] = decimal.Zero
		}
		brandTotals[rec.Brand] = brandTotals[rec.Brand].Add(qty)
	}

	rate := decimal.Zero
	if !periodTotal.IsZero() {
		rate = reworkTotal.Div(periodTotal).Mul(hundred)
	}

	summary := internal.Summary{
		TodayTotal:  todayTotal.InexactFloat64(),
		PeriodTotal: periodTotal.InexactFloat64(),
		ReworkTotal: reworkTotal.InexactFloat64(),
		ReworkRate:  rate.InexactFloat64(),
		RecordCount: len(records),
	}

	var top string
	best := decimal.Zero
	for i, brand := range brandOrder {
		total := brandTotals[brand]
		if i == 0 || total.GreaterThan(best) {
			top, best = brand, total
		}
	}
	if len(brandOrder) > 0 {
		summary.TopBrand = &top
	}
	return summary
}

// Brands lists the distinct trimmed, non-empty brands in sorted order.
func Brands(records []internal.CanonicalRecord) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, rec := range records {
		b := strings.TrimSpace(rec.Brand)
		if b == "" {
			continue
		}
		if _, ok := seen[b]; ok {
			continue
		}
		seen[b] = struct{}{}
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}
