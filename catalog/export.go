package catalog

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Menu"

var exportHeader = []interface{}{"ID", "Name", "Category", "Price", "Available", "Position"}

// ExportXLSX writes the cached menu as a spreadsheet in display order
func (c *Catalog) ExportXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("export menu: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("export menu: %w", err)
	}

	for i, item := range c.List(AllCategories) {
		var position interface{}
		if item.SortOrder != nil {
			position = *item.SortOrder
		}
		available := "no"
		if item.IsAvailable {
			available = "yes"
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("export menu: %w", err)
		}
		row := []interface{}{item.ID, item.Name, item.Category, item.Price, available, position}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("export menu row %d: %w", item.ID, err)
		}
	}

	if err := f.SetColWidth(exportSheet, "B", "B", 28); err != nil {
		return fmt.Errorf("export menu: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("export menu: %w", err)
	}
	return nil
}
