package pipeline

import (
	"github.com/ShafahmadxX69/Dashioh/internal"
)

// Merge joins schedule and ERP rows onto the base records by part number.
//
// The base is the primary records, or the normalized schedule rows when
// there are none, or the normalized ERP rows after that. Each secondary row
// with a non-empty key copies all of its raw fields into the matching
// records' ScheduleAttrs / ErpAttrs; one row can fan out to many records and
// later rows overwrite earlier keys. Inputs are not modified.
func Merge(primary []internal.CanonicalRecord, scheduleRows, erpRows []internal.RawRow) []internal.CanonicalRecord {
	base, baseKind := chooseBase(primary, scheduleRows, erpRows)
	idx := BuildKeyIndex(base)

	if baseKind != internal.SourceSchedule {
		attach(base, idx, scheduleRows, func(r *internal.CanonicalRecord) internal.Attrs { return r.ScheduleAttrs })
	}
	if baseKind != internal.SourceErp {
		attach(base, idx, erpRows, func(r *internal.CanonicalRecord) internal.Attrs { return r.ErpAttrs })
	}

	for i := range base {
		finalize(&base[i])
	}
	return base
}

// BuildTable runs the whole normalize-and-join step over three fetched tables.
func BuildTable(primary, schedule, erp internal.RawTable) []internal.CanonicalRecord {
	records := NormalizeAll(RowMaps(primary), internal.SourcePrimary)
	return Merge(records, RowMaps(schedule), RowMaps(erp))
}

func chooseBase(primary []internal.CanonicalRecord, scheduleRows, erpRows []internal.RawRow) ([]internal.CanonicalRecord, internal.SourceKind) {
	switch {
	case len(primary) > 0:
		out := make([]internal.CanonicalRecord, 0, len(primary))
		for _, rec := range primary {
			out = append(out, rec.Clone())
		}
		return out, internal.SourcePrimary
	case len(scheduleRows) > 0:
		return NormalizeAll(scheduleRows, internal.SourceSchedule), internal.SourceSchedule
	case len(erpRows) > 0:
		return NormalizeAll(erpRows, internal.SourceErp), internal.SourceErp
	default:
		return []internal.CanonicalRecord{}, internal.SourcePrimary
	}
}

func attach(base []internal.CanonicalRecord, idx *KeyIndex, rows []internal.RawRow, target func(*internal.CanonicalRecord) internal.Attrs) {
	for _, row := range rows {
		for _, i := range idx.Lookup(JoinKey(row)) {
			attrs := target(&base[i])
			for _, col := range row.Columns {
				attrs[col] = row.Values[col]
			}
		}
	}
}

// finalize re-applies the numeric invariants and lets a record without a
// date pick one up from the attached schedule or ERP fields.
func finalize(rec *internal.CanonicalRecord) {
	if rec.ScheduleAttrs == nil {
		rec.ScheduleAttrs = internal.Attrs{}
	}
	if rec.ErpAttrs == nil {
		rec.ErpAttrs = internal.Attrs{}
	}
	if rec.Date == "" {
		rec.Date = dateFromAttrs(rec.ScheduleAttrs, scheduleAliases.Date)
	}
	if rec.Date == "" {
		rec.Date = dateFromAttrs(rec.ErpAttrs, erpAliases.Date)
	}
	rec.Quantity = ToNumber(internal.NumberValue(rec.Quantity))
	rec.ReworkQuantity = ToNumber(internal.NumberValue(rec.ReworkQuantity))
	rec.ReworkFixed = ToNumber(internal.NumberValue(rec.ReworkFixed))
}

func dateFromAttrs(attrs internal.Attrs, aliases []string) string {
	for _, name := range aliases {
		if v, ok := attrs[name]; ok && !v.IsNull() {
			return ToISODate(v)
		}
	}
	return ""
}
