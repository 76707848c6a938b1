package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xelth-com/stockmaster/internal/models"
)

var (
	updated    = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	warehouses = []models.Warehouse{{ID: "wh-1", Name: "Main, Pune"}}
	items      = []models.StockItem{
		{ID: "a", WarehouseID: "wh-1", Name: `12" Monitor "Pro"`, Category: "Electronics", Quantity: 3, Price: 10499.99, MinThreshold: 2, Source: "Acme", LastUpdated: updated},
		{ID: "b", WarehouseID: "gone", Name: "Cable", Category: "General", Quantity: 0.5, Price: 0.1, MinThreshold: 5},
	}
)

func TestWriteCSV_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, items, warehouses))

	header, _, _ := strings.Cut(buf.String(), "\n")
	assert.Equal(t, strings.Join(Columns, ","), header)
	assert.Contains(t, buf.String(), `"12"" Monitor ""Pro"""`, "embedded quotes are doubled")

	rows, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	for i, item := range items {
		assert.Equal(t, item.ID, rows[i].ID)
		assert.Equal(t, item.Name, rows[i].Name)
		assert.Equal(t, item.Quantity, rows[i].Quantity)
		assert.Equal(t, item.Price, rows[i].CostPrice)
	}
	assert.Equal(t, "Main, Pune", rows[0].Warehouse)
	assert.Equal(t, UnknownWarehouse, rows[1].Warehouse)
	assert.Equal(t, 3*10499.99, rows[0].TotalValue)
	assert.Equal(t, "2026-03-14T10:30:00Z", rows[0].LastUpdated)
	assert.Empty(t, rows[1].LastUpdated)
}

func TestWriteCSV_EmptyHasHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil, nil))
	assert.Equal(t, strings.Join(Columns, ","), strings.TrimSpace(buf.String()))
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, items, warehouses))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, "ID", f.GetCellValue(sheet, "A1"))
	assert.Equal(t, "Last Updated", f.GetCellValue(sheet, "J1"))
	assert.Equal(t, "a", f.GetCellValue(sheet, "A2"))
	assert.Equal(t, `12" Monitor "Pro"`, f.GetCellValue(sheet, "B2"))
	assert.Equal(t, UnknownWarehouse, f.GetCellValue(sheet, "H3"))
}

func TestCell(t *testing.T) {
	assert.Equal(t, "A1", cell(0, 1))
	assert.Equal(t, "J7", cell(9, 7))
	assert.Equal(t, "Z2", cell(25, 2))
	assert.Equal(t, "AA2", cell(26, 2))
}

func TestFilenames(t *testing.T) {
	assert.Equal(t, "stock_export_2026-03-14.csv", CSVFilename(updated))
	assert.Equal(t, "stock_export_2026-03-14.xlsx", XLSXFilename(updated))
}
