package analytics

import (
	"time"

	"github.com/xelth-com/stockmaster/internal/models"
)

// RecentLimit is the number of ledger entries shown as recent activity
const RecentLimit = 10

// Dashboard bundles every derived view of one scope and window
type Dashboard struct {
	Window     Window                    `json:"window"`
	Since      time.Time                 `json:"since"`
	Financials Financials                `json:"financials"`
	TopItems   []Point                   `json:"topItems"`
	Categories []Point                   `json:"categories"`
	LowStock   []models.StockItem        `json:"lowStock"`
	Recent     []models.StockTransaction `json:"recent"`
	ItemCount  int                       `json:"itemCount"`
}

// BuildDashboard computes the dashboard for the given window ending at now
func BuildDashboard(ledger []models.StockTransaction, items []models.StockItem, w Window, now time.Time, topN int) Dashboard {
	start := w.Start(now)
	return Dashboard{
		Window:     w,
		Since:      start,
		Financials: ComputeFinancials(ledger, items, start),
		TopItems:   TopValueItems(items, topN),
		Categories: CategorySplit(items),
		LowStock:   LowStock(items),
		Recent:     Recent(ledger, RecentLimit),
		ItemCount:  len(items),
	}
}
