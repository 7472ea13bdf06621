package pipeline

import (
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/ShafahmadxX69/Dashioh/internal"
)

const (
	recordsSheet = "Records"
	summarySheet = "Summary"
)

var exportHeaders = []string{
	"date", "brand", "part_no", "shift", "line", "qty", "rework", "rework_fixed",
	"po_no", "wo_no", "source", "schedule_fields", "erp_fields",
}

func ExportRecordsToXLSX(records []internal.CanonicalRecord, summary internal.Summary, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	f, err := buildWorkbook(records, summary)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(outputPath)
}

func WriteRecordsXLSX(w io.Writer, records []internal.CanonicalRecord, summary internal.Summary) error {
	f, err := buildWorkbook(records, summary)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteTo(w)
	return err
}

func buildWorkbook(records []internal.CanonicalRecord, summary internal.Summary) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), recordsSheet); err != nil {
		_ = f.Close()
		return nil, err
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(recordsSheet, cell, h)
	}

	for i, rec := range records {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(recordsSheet, cell, value)
		}

		set(1, rec.Date)
		set(2, rec.Brand)
		set(3, rec.PartKey)
		set(4, rec.Shift)
		set(5, rec.Line)
		set(6, rec.Quantity)
		set(7, rec.ReworkQuantity)
		set(8, rec.ReworkFixed)
		set(9, rec.PONumber)
		set(10, rec.WONumber)
		set(11, string(rec.Source))
		set(12, len(rec.ScheduleAttrs))
		set(13, len(rec.ErpAttrs))
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	top := ""
	if summary.TopBrand != nil {
		top = *summary.TopBrand
	}
	kpis := [][2]any{
		{"today_total", summary.TodayTotal},
		{"period_total", summary.PeriodTotal},
		{"rework_total", summary.ReworkTotal},
		{"rework_rate_pct", summary.ReworkRate},
		{"top_brand", top},
		{"records", summary.RecordCount},
	}
	for i, kv := range kpis {
		key, _ := excelize.CoordinatesToCellName(1, i+1)
		val, _ := excelize.CoordinatesToCellName(2, i+1)
		_ = f.SetCellValue(summarySheet, key, kv[0])
		_ = f.SetCellValue(summarySheet, val, kv[1])
	}
	return f, nil
}
