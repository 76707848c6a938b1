package analytics

import (
	"time"

	"github.com/xelth-com/stockmaster/internal/models"
)

// Financials summarizes ledger activity since a start instant.
// CurrentStockValue is a present-day figure and ignores the window.
type Financials struct {
	SalesRevenue      float64 `json:"salesRevenue"`
	CostOfGoodsSold   float64 `json:"costOfGoodsSold"`
	NetEarnings       float64 `json:"netEarnings"`
	DamageLoss        float64 `json:"damageLoss"`
	CurrentStockValue float64 `json:"currentStockValue"`
}

// ComputeFinancials totals sales, cost and damage for entries dated at or
// after start. A sale without a recorded cost falls back to the item's
// current price, or zero when the item is gone.
func ComputeFinancials(ledger []models.StockTransaction, items []models.StockItem, start time.Time) Financials {
	prices := make(map[string]float64, len(items))
	var f Financials
	for _, item := range items {
		prices[item.ID] = item.Price
		f.CurrentStockValue += item.Value()
	}

	for _, tx := range ledger {
		if tx.Date.Before(start) {
			continue
		}
		switch tx.Type {
		case models.TxOut:
			f.SalesRevenue += tx.Quantity * tx.Price
			cost := prices[tx.ItemID]
			if tx.CostPrice != nil {
				cost = *tx.CostPrice
			}
			f.CostOfGoodsSold += tx.Quantity * cost
		case models.TxDamage:
			f.DamageLoss += tx.Quantity * tx.Price
		}
	}
	f.NetEarnings = f.SalesRevenue - f.CostOfGoodsSold
	return f
}
