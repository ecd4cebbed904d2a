// Package export writes inventory records to spreadsheet files.
package export

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/xuri/excelize/v2"

	"github.com/partsbin/partsbin/internal/component"
)

// SheetName is the worksheet holding the records.
const SheetName = "Components"

// Column maps one record field to a spreadsheet column.
type Column struct {
	Header string
	Field  string
	Width  float64
}

// Columns are written in order, one per record field.
var Columns = []Column{
	{Header: "ID", Field: component.FieldID, Width: 34},
	{Header: "Type", Field: component.FieldType, Width: 14},
	{Header: "Value", Field: component.FieldValue, Width: 14},
	{Header: "Quantity", Field: component.FieldQty, Width: 10},
	{Header: "Description", Field: component.FieldDescription, Width: 48},
	{Header: "Part Number", Field: component.FieldPartNumber, Width: 18},
	{Header: "Package", Field: component.FieldPackage, Width: 12},
	{Header: "Manufacturer", Field: component.FieldManufacturer, Width: 18},
	{Header: "Notes", Field: component.FieldNotes, Width: 40},
	{Header: "File", Field: component.FieldFile, Width: 60},
}

// WriteXLSX writes components as a single-sheet workbook to w.
func WriteXLSX(w io.Writer, components []component.Component) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, col := range Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, col.Header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}

		name, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(SheetName, name, name, col.Width)
	}
	last, _ := excelize.CoordinatesToCellName(len(Columns), 1)
	_ = f.SetCellStyle(SheetName, "A1", last, headerStyle)

	for r, c := range components {
		row := r + 2
		for i, col := range Columns {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if err := f.SetCellValue(SheetName, cell, cellValue(c, col.Field)); err != nil {
				return fmt.Errorf("failed to write row %d: %w", row, err)
			}
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	log.Debug("Exported workbook", "rows", len(components))
	return nil
}

// cellValue returns the value written for field. Quantities are numeric
// when they parse; everything else is text.
func cellValue(c component.Component, field string) any {
	if field == component.FieldQty {
		if n, ok := c.Quantity(); ok {
			return n
		}
		if s := c.String(component.FieldQty); s != "" {
			return s
		}
		return c.String(component.FieldQuantity)
	}
	return c.String(field)
}
