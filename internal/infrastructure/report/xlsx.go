// Package report renders export rows into downloadable spreadsheets.
package report

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/workshift/shift-tracker/internal/core/ports"
)

const (
	SheetName = "Shifts"
	// CellTimeLayout is how timestamps appear in the sheet.
	CellTimeLayout = "02.01.2006 15:04"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// XLSXBuilder implements ports.ReportBuilder with a single-sheet workbook:
// bold centered headers and columns sized to their longest value.
type XLSXBuilder struct{}

func NewXLSXBuilder() *XLSXBuilder {
	return &XLSXBuilder{}
}

func (b *XLSXBuilder) ContentType() string { return xlsxContentType }
func (b *XLSXBuilder) Extension() string   { return "xlsx" }

func (b *XLSXBuilder) Build(headers []string, rows []ports.ExportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("xlsx: rename sheet: %w", err)
	}

	widths := make([]int, len(headers))
	measure := func(col int, v string) {
		if col < len(widths) {
			widths[col] = max(widths[col], utf8.RuneCountInString(v))
		}
	}

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
		measure(i, h)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("xlsx: write header: %w", err)
	}

	for i, r := range rows {
		values := []any{
			r.UserID,
			r.UserName,
			r.StartTime.Format(CellTimeLayout),
			r.EndText(CellTimeLayout),
			r.HoursText(),
		}
		if r.Hours != nil {
			values[4] = *r.Hours
		}
		texts := []string{
			strconv.FormatInt(r.UserID, 10),
			r.UserName,
			values[2].(string),
			values[3].(string),
			r.HoursText(),
		}
		for col, t := range texts {
			measure(col, t)
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("xlsx: write row %d: %w", i+1, err)
		}
	}

	if err := b.styleHeader(f, len(headers)); err != nil {
		return nil, err
	}
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(SheetName, col, col, float64(w+2)*1.2); err != nil {
			return nil, fmt.Errorf("xlsx: column width: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: write: %w", err)
	}
	return buf.Bytes(), nil
}

func (b *XLSXBuilder) styleHeader(f *excelize.File, n int) error {
	if n == 0 {
		return nil
	}
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("xlsx: header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(n, 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(SheetName, "A1", last, style)
}
