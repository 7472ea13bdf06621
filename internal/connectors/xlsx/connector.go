package xlsx

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ShafahmadxX69/Dashioh/internal"
)

// Connector reads sheets from a local workbook, one sheet per source id.
type Connector struct {
	path string
}

func NewConnector(path string) (*Connector, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("xlsx: missing workbook path")
	}
	return &Connector{path: path}, nil
}

func (c *Connector) FetchTable(ctx context.Context, sheet string) (internal.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return internal.RawTable{}, err
	}
	return ReadSheet(c.path, sheet)
}

// ReadSheet loads one sheet; an empty name picks the first sheet. The first
// row names the columns. Cells keep their raw values, so dates arrive as
// serial numbers.
func ReadSheet(path, sheet string) (internal.RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return internal.RawTable{}, err
	}
	defer f.Close()

	sheet = strings.TrimSpace(sheet)
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return internal.RawTable{}, fmt.Errorf("xlsx: sheet %q not found in %s", sheet, path)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return internal.RawTable{}, err
	}
	return tableFromRows(rows), nil
}

// SplitSpec splits "book.xlsx:Sheet" into path and sheet name.
func SplitSpec(spec string) (string, string) {
	spec = strings.TrimSpace(spec)
	lower := strings.ToLower(spec)
	for _, ext := range []string{".xlsx:", ".xlsm:"} {
		if i := strings.LastIndex(lower, ext); i >= 0 {
			cut := i + len(ext) - 1
			return spec[:cut], spec[cut+1:]
		}
	}
	return spec, ""
}

func tableFromRows(rows [][]string) internal.RawTable {
	out := internal.RawTable{Columns: []string{}, Rows: [][]internal.Value{}}
	if len(rows) == 0 {
		return out
	}

	for idx, h := range rows[0] {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "col" + strconv.Itoa(idx)
		}
		out.Columns = append(out.Columns, name)
	}

	for _, raw := range rows[1:] {
		if isBlankRow(raw) {
			continue
		}
		width := len(out.Columns)
		if len(raw) > width {
			width = len(raw)
		}
		cells := make([]internal.Value, width)
		for i, text := range raw {
			cells[i] = cellValue(text)
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}

func cellValue(text string) internal.Value {
	if strings.TrimSpace(text) == "" {
		return internal.NullValue
	}
	if looksNumeric(text) {
		if f, err := strconv.ParseFloat(text, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return internal.NumberValue(f)
		}
	}
	return internal.StringValue(text)
}

// looksNumeric rejects codes with leading zeros so part numbers stay text.
func looksNumeric(s string) bool {
	if s == "" {
		return false
	}
	body := strings.TrimPrefix(s, "-")
	if len(body) > 1 && body[0] == '0' && body[1] != '.' {
		return false
	}
	for _, r := range body {
		if (r < '0' || r > '9') && r != '.' && r != 'E' && r != 'e' && r != '+' && r != '-' {
			return false
		}
	}
	return body != ""
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
