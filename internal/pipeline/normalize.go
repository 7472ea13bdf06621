package pipeline

import (
	"strconv"
	"strings"

	"github.com/ShafahmadxX69/Dashioh/internal"
	"github.com/ShafahmadxX69/Dashioh/internal/util"
)

// RowMaps zips column names onto each positional row. Cells past the last
// named column get a col{idx} placeholder name.
func RowMaps(table internal.RawTable) []internal.RawRow {
	out := make([]internal.RawRow, 0, len(table.Rows))
	for _, cells := range table.Rows {
		row := internal.NewRawRow()
		for idx, cell := range cells {
			key := ""
			if idx < len(table.Columns) {
				key = table.Columns[idx]
			}
			if key == "" {
				key = "col" + strconv.Itoa(idx)
			}
			row.Set(key, cell)
		}
		out = append(out, row)
	}
	return out
}

// Normalize maps a raw row of the given source shape onto the canonical
// record. Fields nobody provides take their zero value.
func Normalize(row internal.RawRow, kind internal.SourceKind) internal.CanonicalRecord {
	aliases := aliasesFor(kind)

	date, ok := lookup(row, aliases.Date)
	if !ok && kind == internal.SourcePrimary {
		// Last-resort guess kept for compatibility with sheets whose date
		// column has no recognised header.
		date, _ = row.First()
	}

	return internal.CanonicalRecord{
		Date:           ToISODate(date),
		Brand:          lookupText(row, aliases.Brand),
		PartKey:        strings.TrimSpace(lookupText(row, aliases.PartKey)),
		Quantity:       lookupNumber(row, aliases.Quantity),
		ReworkQuantity: lookupNumber(row, aliases.Rework),
		ReworkFixed:    lookupNumber(row, aliases.ReworkFixed),
		Shift:          lookupText(row, aliases.Shift),
		Line:           lookupText(row, aliases.Line),
		PONumber:       strings.TrimSpace(lookupText(row, aliases.PONumber)),
		WONumber:       strings.TrimSpace(lookupText(row, aliases.WONumber)),
		ScheduleAttrs:  internal.Attrs{},
		ErpAttrs:       internal.Attrs{},
		Source:         kind,
		Raw:            row.Clone(),
	}
}

func NormalizeAll(rows []internal.RawRow, kind internal.SourceKind) []internal.CanonicalRecord {
	out := make([]internal.CanonicalRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, Normalize(row, kind))
	}
	return out
}

// JoinKey resolves the part number of a row, trimmed. Empty means the row
// cannot take part in a join.
func JoinKey(row internal.RawRow) string {
	v, ok := lookup(row, JoinKeyAliases)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v.String())
}

func lookupText(row internal.RawRow, aliases []string) string {
	v, _ := lookup(row, aliases)
	return v.String()
}

func lookupNumber(row internal.RawRow, aliases []string) float64 {
	v, _ := lookup(row, aliases)
	return ToNumber(v)
}

// ToNumber coerces a cell to a non-negative finite number; anything that
// does not read as a number is 0.
func ToNumber(v internal.Value) float64 {
	switch v.Kind {
	case internal.KindNumber:
		return util.NonNegative(v.Num)
	case internal.KindString:
		f, ok := util.ParseNumber(v.Str)
		if !ok {
			return 0
		}
		return util.NonNegative(f)
	case internal.KindBool:
		if v.Bool {
			return 1
		}
		return 0
	default:
		return 0
	}
}
