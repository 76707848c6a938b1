package analytics

import (
	"sort"

	"github.com/xelth-com/stockmaster/internal/models"
)

// labelLimit is the longest chart label shown untruncated
const labelLimit = 10

// Point is one entry of a chart series
type Point struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// TopValueItems returns the n items with the highest stock value.
// Equal values keep their input order.
func TopValueItems(items []models.StockItem, n int) []Point {
	sorted := append([]models.StockItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Value() > sorted[j].Value() })
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	out := make([]Point, 0, len(sorted))
	for _, item := range sorted {
		out = append(out, Point{Name: shortLabel(item.Name), Value: item.Value()})
	}
	return out
}

func shortLabel(name string) string {
	r := []rune(name)
	if len(r) <= labelLimit {
		return name
	}
	return string(r[:labelLimit]) + "..."
}

// CategorySplit counts items per category in first-seen order
func CategorySplit(items []models.StockItem) []Point {
	index := make(map[string]int)
	var out []Point
	for _, item := range items {
		i, ok := index[item.Category]
		if !ok {
			out = append(out, Point{Name: item.Category})
			i = len(out) - 1
			index[item.Category] = i
		}
		out[i].Value++
	}
	return out
}

// ScopeToWarehouse restricts items to one warehouse and the ledger to entries
// of those items. An empty warehouseID returns the global view unchanged.
func ScopeToWarehouse(ledger []models.StockTransaction, items []models.StockItem, warehouseID string) ([]models.StockTransaction, []models.StockItem) {
	if warehouseID == "" {
		return ledger, items
	}
	ids := make(map[string]bool)
	scopedItems := make([]models.StockItem, 0)
	for _, item := range items {
		if item.WarehouseID == warehouseID {
			ids[item.ID] = true
			scopedItems = append(scopedItems, item)
		}
	}
	scopedLedger := make([]models.StockTransaction, 0)
	for _, tx := range ledger {
		if ids[tx.ItemID] {
			scopedLedger = append(scopedLedger, tx)
		}
	}
	return scopedLedger, scopedItems
}

// ItemHistory returns the entries of one item, newest first
func ItemHistory(ledger []models.StockTransaction, itemID string) []models.StockTransaction {
	out := make([]models.StockTransaction, 0)
	for _, tx := range ledger {
		if tx.ItemID == itemID {
			out = append(out, tx)
		}
	}
	return newestFirst(out)
}

// Recent returns the n newest entries
func Recent(ledger []models.StockTransaction, n int) []models.StockTransaction {
	out := newestFirst(append([]models.StockTransaction(nil), ledger...))
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// LowStock returns items at or below their threshold, in input order
func LowStock(items []models.StockItem) []models.StockItem {
	out := make([]models.StockItem, 0)
	for _, item := range items {
		if item.IsLow() {
			out = append(out, item)
		}
	}
	return out
}

func newestFirst(txs []models.StockTransaction) []models.StockTransaction {
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Date.After(txs[j].Date) })
	return txs
}
