package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ExcelExporter exports report rows to Excel format
type ExcelExporter struct {
	options ExcelOptions
}

// ExcelOptions configures Excel export behavior
type ExcelOptions struct {
	SheetName     string `json:"sheet_name"`
	IncludeHeader bool   `json:"include_header"`
	FreezeHeader  bool   `json:"freeze_header"`
	AutoFilter    bool   `json:"auto_filter"`
	HeaderBold    bool   `json:"header_bold"`
	HeaderFill    string `json:"header_fill"`
}

// DefaultExcelOptions returns default Excel export options
func DefaultExcelOptions() ExcelOptions {
	return ExcelOptions{
		SheetName:     "Verification Report",
		IncludeHeader: true,
		FreezeHeader:  true,
		AutoFilter:    true,
		HeaderBold:    true,
		HeaderFill:    "4472C4",
	}
}

// NewExcelExporter creates a new Excel exporter
func NewExcelExporter(options ExcelOptions) *ExcelExporter {
	return &ExcelExporter{options: options}
}

// Export builds the workbook and writes it to w.
func (e *ExcelExporter) Export(w io.Writer, header []string, rows [][]string) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := e.options.SheetName
	file.SetSheetName("Sheet1", sheet)

	rowIndex := 1
	if e.options.IncludeHeader {
		if err := e.writeHeader(file, sheet, header); err != nil {
			return err
		}
		rowIndex = 2
	}
	for _, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, rowIndex)
		if err != nil {
			return fmt.Errorf("excel cell name: %w", err)
		}
		values := make([]interface{}, len(row))
		for i, v := range row {
			values[i] = v
		}
		if err := file.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write excel row %d: %w", rowIndex, err)
		}
		rowIndex++
	}

	if e.options.FreezeHeader && e.options.IncludeHeader {
		if err := file.SetPanes(sheet, &excelize.Panes{
			Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
		}); err != nil {
			return fmt.Errorf("freeze header: %w", err)
		}
	}
	if e.options.AutoFilter && len(header) > 0 {
		lastCol, err := excelize.ColumnNumberToName(len(header))
		if err != nil {
			return fmt.Errorf("excel column name: %w", err)
		}
		ref := fmt.Sprintf("A1:%s1", lastCol)
		if err := file.AutoFilter(sheet, ref, nil); err != nil {
			return fmt.Errorf("auto filter: %w", err)
		}
	}

	return file.Write(w)
}

func (e *ExcelExporter) writeHeader(file *excelize.File, sheet string, header []string) error {
	values := make([]interface{}, len(header))
	for i, h := range header {
		values[i] = h
	}
	if err := file.SetSheetRow(sheet, "A1", &values); err != nil {
		return fmt.Errorf("write excel header: %w", err)
	}
	if !e.options.HeaderBold && e.options.HeaderFill == "" {
		return nil
	}
	style := &excelize.Style{Font: &excelize.Font{Bold: e.options.HeaderBold, Color: "FFFFFF"}}
	if e.options.HeaderFill != "" {
		style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{e.options.HeaderFill}}
	}
	styleID, err := file.NewStyle(style)
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return fmt.Errorf("excel column name: %w", err)
	}
	if err := file.SetCellStyle(sheet, "A1", lastCol+"1", styleID); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}
	return nil
}
