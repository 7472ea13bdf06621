package internal

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

type SourceKind string

const (
	SourcePrimary  SourceKind = "primary"
	SourceSchedule SourceKind = "schedule"
	SourceErp      SourceKind = "erp"
)

type ValueKind int

const (
	KindNull ValueKind = iota
	KindNumber
	KindString
	KindBool
)

// Value is one spreadsheet cell: null, number, string or bool.
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string
	Bool bool
}

var NullValue = Value{}

func NumberValue(f float64) Value { return Value{Kind: KindNumber, Num: f} }
func StringValue(s string) Value  { return Value{Kind: KindString, Str: s} }
func BoolValue(b bool) Value      { return Value{Kind: KindBool, Bool: b} }

// ValueFromAny converts a decoded JSON scalar (or a Sheets API cell) into a Value.
// Unsupported shapes become null.
func ValueFromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return NullValue
	case Value:
		return t
	case float64:
		return NumberValue(t)
	case float32:
		return NumberValue(float64(t))
	case int:
		return NumberValue(float64(t))
	case int64:
		return NumberValue(float64(t))
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return NumberValue(f)
		}
		return StringValue(t.String())
	case string:
		return StringValue(t)
	case bool:
		return BoolValue(t)
	default:
		return NullValue
	}
}

func (v Value) IsNull() bool { return v.Kind == KindNull }

// String renders the value the way a spreadsheet cell would print it.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindString:
		return v.Str
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return ""
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.Num)
	case KindString:
		return marshalString(v.Str), nil
	case KindBool:
		return json.Marshal(v.Bool)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = ValueFromAny(raw)
	return nil
}

// RawTable is a sheet as fetched: column names plus positional rows.
type RawTable struct {
	Columns []string
	Rows    [][]Value
}

func (t RawTable) Len() int { return len(t.Rows) }

// RawRow maps column names to cells. Columns keeps first-appearance order;
// a duplicate column name overwrites the earlier value.
type RawRow struct {
	Columns []string
	Values  map[string]Value
}

func NewRawRow() RawRow {
	return RawRow{Values: map[string]Value{}}
}

func (r *RawRow) Set(name string, v Value) {
	if r.Values == nil {
		r.Values = map[string]Value{}
	}
	if _, ok := r.Values[name]; !ok {
		r.Columns = append(r.Columns, name)
	}
	r.Values[name] = v
}

func (r RawRow) Get(name string) (Value, bool) {
	v, ok := r.Values[name]
	return v, ok
}

// First returns the value of the first column by position.
func (r RawRow) First() (Value, bool) {
	if len(r.Columns) == 0 {
		return NullValue, false
	}
	return r.Get(r.Columns[0])
}

func (r RawRow) Clone() RawRow {
	out := RawRow{Columns: append([]string(nil), r.Columns...), Values: make(map[string]Value, len(r.Values))}
	for k, v := range r.Values {
		out.Values[k] = v
	}
	return out
}

// MarshalJSON keeps column order so the output is stable.
func (r RawRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key := marshalString(col)
		val, err := r.Values[col].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Attrs holds fields attached to a record by the merge step.
type Attrs map[string]Value

func (a Attrs) Clone() Attrs {
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

type CanonicalRecord struct {
	Date           string     `json:"date"`
	Brand          string     `json:"brand"`
	PartKey        string     `json:"partKey"`
	Quantity       float64    `json:"quantity"`
	ReworkQuantity float64    `json:"reworkQuantity"`
	ReworkFixed    float64    `json:"reworkFixed"`
	Shift          string     `json:"shift"`
	Line           string     `json:"line"`
	PONumber       string     `json:"poNumber"`
	WONumber       string     `json:"woNumber"`
	ScheduleAttrs  Attrs      `json:"scheduleAttrs"`
	ErpAttrs       Attrs      `json:"erpAttrs"`
	Source         SourceKind `json:"source"`
	Raw            RawRow     `json:"raw"`
}

func (r CanonicalRecord) Clone() CanonicalRecord {
	out := r
	out.ScheduleAttrs = r.ScheduleAttrs.Clone()
	out.ErpAttrs = r.ErpAttrs.Clone()
	out.Raw = r.Raw.Clone()
	return out
}

type TimeRange string

const (
	RangeAll TimeRange = ""
	Range1D  TimeRange = "1D"
	Range1W  TimeRange = "1W"
	Range1M  TimeRange = "1M"
	Range1Y  TimeRange = "1Y"
)

type Filter struct {
	Brands []string  `json:"brands"`
	Query  string    `json:"q"`
	Range  TimeRange `json:"range"`
}

type Summary struct {
	TodayTotal  float64 `json:"todayTotal"`
	PeriodTotal float64 `json:"periodTotal"`
	ReworkTotal float64 `json:"reworkTotal"`
	ReworkRate  float64 `json:"reworkRate"`
	TopBrand    *string `json:"topBrand"`
	RecordCount int     `json:"recordCount"`
}

type SourceStatus string

const (
	StatusOK      SourceStatus = "ok"
	StatusSkipped SourceStatus = "skipped"
	StatusFailed  SourceStatus = "failed"
)

type SourceReport struct {
	Kind       SourceKind   `json:"kind"`
	SourceID   string       `json:"sourceId"`
	Status     SourceStatus `json:"status"`
	Rows       int          `json:"rows"`
	Error      string       `json:"error,omitempty"`
	DurationMs float64      `json:"durationMs"`
}

type RefreshRun struct {
	ID        string         `json:"id"`
	StartedAt string         `json:"startedAt"`
	Status    string         `json:"status"`
	Records   int            `json:"records"`
	TotalMs   float64        `json:"totalMs"`
	Error     string         `json:"error,omitempty"`
	Sources   []SourceReport `json:"sources"`
}

// marshalString encodes s without HTML escaping so stored text stays
// searchable as typed.
func marshalString(s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return bytes.TrimRight(buf.Bytes(), "\n")
}
