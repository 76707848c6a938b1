// Package export writes the stock list as CSV or spreadsheet files
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/gocarina/gocsv"
	"github.com/xelth-com/stockmaster/internal/models"
)

// UnknownWarehouse is written for items whose warehouse is gone
const UnknownWarehouse = "Unknown"

const sheet = "Sheet1"

// Row is one exported stock line. Column order is fixed.
type Row struct {
	ID          string  `csv:"ID"`
	Name        string  `csv:"Name"`
	Category    string  `csv:"Category"`
	Quantity    float64 `csv:"Quantity"`
	CostPrice   float64 `csv:"Cost Price"`
	TotalValue  float64 `csv:"Total Value"`
	Threshold   float64 `csv:"Threshold"`
	Warehouse   string  `csv:"Warehouse"`
	Source      string  `csv:"Source"`
	LastUpdated string  `csv:"Last Updated"`
}

// Columns lists the header in export order
var Columns = []string{
	"ID", "Name", "Category", "Quantity", "Cost Price",
	"Total Value", "Threshold", "Warehouse", "Source", "Last Updated",
}

// Rows converts items to export rows, resolving warehouse names
func Rows(items []models.StockItem, warehouses []models.Warehouse) []Row {
	names := make(map[string]string, len(warehouses))
	for _, w := range warehouses {
		names[w.ID] = w.Name
	}
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		warehouse, ok := names[item.WarehouseID]
		if !ok || warehouse == "" {
			warehouse = UnknownWarehouse
		}
		var updated string
		if !item.LastUpdated.IsZero() {
			updated = item.LastUpdated.Format(time.RFC3339)
		}
		rows = append(rows, Row{
			ID:          item.ID,
			Name:        item.Name,
			Category:    item.Category,
			Quantity:    item.Quantity,
			CostPrice:   item.Price,
			TotalValue:  item.Value(),
			Threshold:   item.MinThreshold,
			Warehouse:   warehouse,
			Source:      item.Source,
			LastUpdated: updated,
		})
	}
	return rows
}

// WriteCSV writes the header and one line per item
func WriteCSV(w io.Writer, items []models.StockItem, warehouses []models.Warehouse) error {
	rows := Rows(items, warehouses)
	return gocsv.Marshal(&rows, w)
}

// ReadCSV parses a file produced by WriteCSV
func ReadCSV(r io.Reader) ([]Row, error) {
	var rows []Row
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("parse stock csv: %w", err)
	}
	return rows, nil
}

// WriteXLSX writes the same columns as WriteCSV into a spreadsheet
func WriteXLSX(w io.Writer, items []models.StockItem, warehouses []models.Warehouse) error {
	f := excelize.NewFile()
	for i, title := range Columns {
		f.SetCellValue(sheet, cell(i, 1), title)
	}
	if style, err := f.NewStyle(`{"font":{"bold":true}}`); err == nil {
		f.SetCellStyle(sheet, cell(0, 1), cell(len(Columns)-1, 1), style)
	}

	for r, row := range Rows(items, warehouses) {
		line := r + 2
		values := []interface{}{
			row.ID, row.Name, row.Category, row.Quantity, row.CostPrice,
			row.TotalValue, row.Threshold, row.Warehouse, row.Source, row.LastUpdated,
		}
		for c, v := range values {
			f.SetCellValue(sheet, cell(c, line), v)
		}
	}
	f.SetColWidth(sheet, "B", "B", 32)
	f.SetColWidth(sheet, "J", "J", 22)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write stock xlsx: %w", err)
	}
	return nil
}

// CSVFilename is the download name for a CSV export taken at now
func CSVFilename(now time.Time) string {
	return "stock_export_" + now.Format("2006-01-02") + ".csv"
}

// XLSXFilename is the download name for a spreadsheet export taken at now
func XLSXFilename(now time.Time) string {
	return "stock_export_" + now.Format("2006-01-02") + ".xlsx"
}

// cell returns the A1 reference of a zero-based column and one-based row
func cell(col, row int) string {
	name := ""
	for col >= 0 {
		name = string(rune('A'+col%26)) + name
		col = col/26 - 1
	}
	return fmt.Sprintf("%s%d", name, row)
}
