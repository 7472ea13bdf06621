package pipeline

import "github.com/ShafahmadxX69/Dashioh/internal"

// aliasSet lists, per canonical field, the column names tried in priority
// order. The order follows the header conventions of the three sheets and
// must not be reshuffled.
type aliasSet struct {
	Date        []string
	Brand       []string
	PartKey     []string
	Quantity    []string
	Rework      []string
	ReworkFixed []string
	Shift       []string
	Line        []string
	PONumber    []string
	WONumber    []string
}

// JoinKeyAliases resolve the part number used to attach schedule and ERP
// rows to base records.
var JoinKeyAliases = []string{"PART. NO.", "PartNo", "Part No", "PART NO"}

var primaryAliases = aliasSet{
	Date:        []string{"Date", "date", "Tanggal", "tanggal", "Col1"},
	Brand:       []string{"Customer", "Brand", "brand", "Merk", "merk", "Brand Name", "invoice_brand", "客戶 / Customer", "客戶"},
	PartKey:     []string{"PART. NO.", "產品料號 / PART. NO.", "產品料號", "PartNo", "Part No", "PART NO"},
	Quantity:    []string{"Qty", "qty", "Quantity", "Jumlah", "jumlah", "QTY", "IN", "入庫數 / IN", "入庫數"},
	Rework:      []string{"Rework", "rework", "Repair", "Perbaikan", "Rework QTY"},
	ReworkFixed: []string{"Rework Fixed", "ReworkFixed", "reworkfixed", "Fixed"},
	Shift:       []string{"Shift", "shift", "Shift A/B"},
	Line:        []string{"Line", "line", "Line Number"},
	PONumber:    []string{"PO. NO.", "訂單號碼 / PO. NO.", "訂單號碼"},
	WONumber:    []string{"NO. WO.", "工單號碼 / NO. WO.", "工單號碼"},
}

var scheduleAliases = aliasSet{
	Date:     []string{"Stuffing", "Date", "date", "Tanggal", "tanggal"},
	Brand:    []string{"Customer", "Brand", "brand"},
	PartKey:  JoinKeyAliases,
	Quantity: []string{"QTY Pcs", "Qty", "qty", "QTY"},
	Rework:   []string{"Rework", "Rework QTY"},
	Shift:    []string{"Shift"},
	Line:     []string{"Line"},
	PONumber: []string{"PO. NO.", "Invoice No."},
}

var erpAliases = aliasSet{
	Date:     []string{"Date", "date"},
	Brand:    []string{"Customer", "Brand", "客戶 / Customer"},
	PartKey:  []string{"PART. NO.", "產品料號 / PART. NO.", "產品料號", "PartNo", "Part No", "PART NO"},
	Quantity: []string{"Finish Goods QTY", "Qty", "QTY"},
	Rework:   []string{"Rework QTY", "Rework"},
	PONumber: []string{"PO. NO.", "訂單號碼 / PO. NO.", "訂單號碼"},
	WONumber: []string{"NO. WO.", "工單號碼 / NO. WO.", "工單號碼"},
}

func aliasesFor(kind internal.SourceKind) aliasSet {
	switch kind {
	case internal.SourceSchedule:
		return scheduleAliases
	case internal.SourceErp:
		return erpAliases
	default:
		return primaryAliases
	}
}

// lookup returns the first alias present in the row with a non-null value.
// An empty string is a value and wins.
func lookup(row internal.RawRow, aliases []string) (internal.Value, bool) {
	for _, name := range aliases {
		if v, ok := row.Get(name); ok && !v.IsNull() {
			return v, true
		}
	}
	return internal.NullValue, false
}
