package analytics

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xelth-com/stockmaster/internal/models"
)

var now = time.Date(2026, 5, 20, 15, 0, 0, 0, time.UTC)

func ptr(v float64) *float64 { return &v }

func TestParseWindow(t *testing.T) {
	tests := []struct {
		in      string
		want    Window
		wantErr bool
	}{
		{in: "", want: WindowMonth},
		{in: "today", want: WindowToday},
		{in: " WEEK ", want: WindowWeek},
		{in: "year", want: WindowYear},
		{in: "all", want: WindowAll},
		{in: "decade", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWindow(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWindowStart(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	local := now.In(ist)

	assert.Equal(t, time.Date(2026, 5, 20, 0, 0, 0, 0, ist), WindowToday.Start(local))
	assert.Equal(t, now.AddDate(0, 0, -7), WindowWeek.Start(now))
	assert.Equal(t, time.Date(2026, 4, 20, 15, 0, 0, 0, time.UTC), WindowMonth.Start(now))
	assert.Equal(t, time.Date(2025, 5, 20, 15, 0, 0, 0, time.UTC), WindowYear.Start(now))
	assert.True(t, WindowAll.Start(now).IsZero())
}

func TestComputeFinancials(t *testing.T) {
	day := now.Add(-time.Hour)
	ledger := []models.StockTransaction{
		{ItemID: "a", Type: models.TxOut, Quantity: 2, Price: 100, CostPrice: ptr(60), Date: day},
		{ItemID: "a", Type: models.TxDamage, Quantity: 1, Price: 60, Date: day},
	}
	items := []models.StockItem{{ID: "a", Quantity: 3, Price: 60}}

	f := ComputeFinancials(ledger, items, WindowMonth.Start(now))
	assert.Equal(t, 200.0, f.SalesRevenue)
	assert.Equal(t, 120.0, f.CostOfGoodsSold)
	assert.Equal(t, 80.0, f.NetEarnings)
	assert.Equal(t, 60.0, f.DamageLoss)
	assert.Equal(t, 180.0, f.CurrentStockValue)
}

func TestComputeFinancials_CostFallbackAndWindow(t *testing.T) {
	ledger := []models.StockTransaction{
		{ItemID: "a", Type: models.TxOut, Quantity: 1, Price: 50, Date: now},
		{ItemID: "gone", Type: models.TxOut, Quantity: 1, Price: 30, Date: now},
		{ItemID: "a", Type: models.TxOut, Quantity: 1, Price: 50, CostPrice: ptr(0), Date: now},
		{ItemID: "a", Type: models.TxOut, Quantity: 9, Price: 50, Date: now.AddDate(0, -2, 0)},
		{ItemID: "a", Type: models.TxIn, Quantity: 5, Price: 40, Date: now},
	}
	items := []models.StockItem{{ID: "a", Quantity: 0, Price: 40}}

	f := ComputeFinancials(ledger, items, WindowMonth.Start(now))
	assert.Equal(t, 130.0, f.SalesRevenue)
	assert.Equal(t, 40.0, f.CostOfGoodsSold, "missing cost uses current price, a recorded zero is kept")
	assert.Equal(t, 90.0, f.NetEarnings)
	assert.Zero(t, f.CurrentStockValue)

	all := ComputeFinancials(ledger, items, WindowAll.Start(now))
	assert.Equal(t, 580.0, all.SalesRevenue)
}

func TestGroupInvoices(t *testing.T) {
	batch := now.Add(-time.Hour)
	earlier := now.Add(-48 * time.Hour)
	ledger := []models.StockTransaction{
		{ItemID: "old", Type: models.TxOut, Quantity: 1, Price: 10, Date: earlier, PartyName: "Meera"},
		{ItemID: "a", Type: models.TxOut, Quantity: 2, Price: 100, TaxPercent: ptr(18), Date: batch, PartyName: "Ravi", SellerName: "Asha Stores"},
		{ItemID: "a", Type: models.TxIn, Quantity: 5, Price: 60, Date: batch, PartyName: "Ravi"},
		{ItemID: "b", Type: models.TxOut, Quantity: 1, Price: 50, TaxPercent: ptr(18), Date: batch, PartyName: "Ravi", SellerName: "Asha Stores"},
		{ItemID: "c", Type: models.TxOut, Quantity: 1, Price: 5, Date: batch, PartyName: "Kiran"},
	}

	invoices := GroupInvoices(ledger)
	require.Len(t, invoices, 3)

	ravi := invoices[0]
	assert.Equal(t, "Ravi", ravi.CustomerName)
	assert.Equal(t, 2, ravi.ItemCount)
	assert.InDelta(t, 2*100*1.18+1*50*1.18, ravi.TotalAmount, 1e-9)
	assert.InDelta(t, 2*100*0.18+1*50*0.18, ravi.TaxAmount, 1e-9)
	assert.Equal(t, 250.0, ravi.Subtotal())
	assert.Equal(t, "Asha Stores", ravi.SellerName)
	assert.Equal(t, 18.0, ravi.TaxPercent)

	assert.Equal(t, "Kiran", invoices[1].CustomerName, "same date keeps ledger order")
	assert.Equal(t, DefaultSellerName, invoices[1].SellerName)
	assert.Equal(t, "Meera", invoices[2].CustomerName)

	found, ok := FindInvoice(invoices, ravi.ID)
	require.True(t, ok)
	assert.Equal(t, ravi.ID, found.ID)
	assert.NotEqual(t, invoices[0].ID, invoices[1].ID)
	_, ok = FindInvoice(invoices, "nope")
	assert.False(t, ok)
}

func TestSearchInvoices(t *testing.T) {
	invoices := []Invoice{
		{ID: "1", CustomerName: "Ravi Traders", SellerName: "Asha"},
		{ID: "2", CustomerName: "Meera", SellerName: "StockMaster Admin"},
	}
	assert.Len(t, SearchInvoices(invoices, ""), 2)
	got := SearchInvoices(invoices, "RAVI")
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
	got = SearchInvoices(invoices, "admin")
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)
}

func TestTopValueItems(t *testing.T) {
	items := []models.StockItem{
		{Name: "Cable", Quantity: 10, Price: 1},
		{Name: "Wireless Keyboard", Quantity: 2, Price: 50},
		{Name: "Mouse", Quantity: 5, Price: 2},
		{Name: "Hub", Quantity: 1, Price: 10},
	}
	got := TopValueItems(items, 3)
	assert.Equal(t, []Point{
		{Name: "Wireless K...", Value: 100},
		{Name: "Cable", Value: 10},
		{Name: "Mouse", Value: 10},
	}, got, "ties keep input order")

	assert.Len(t, TopValueItems(items, 10), 4)
}

func TestCategorySplit(t *testing.T) {
	items := []models.StockItem{
		{Category: "Electronics"},
		{Category: "General"},
		{Category: "Electronics"},
		{Category: "Tools"},
	}
	assert.Equal(t, []Point{
		{Name: "Electronics", Value: 2},
		{Name: "General", Value: 1},
		{Name: "Tools", Value: 1},
	}, CategorySplit(items))
}

func TestScopeToWarehouse(t *testing.T) {
	items := []models.StockItem{{ID: "a", WarehouseID: "w1"}, {ID: "b", WarehouseID: "w2"}}
	ledger := []models.StockTransaction{{ItemID: "a"}, {ItemID: "b"}, {ItemID: "a"}}

	l, i := ScopeToWarehouse(ledger, items, "w1")
	assert.Len(t, l, 2)
	require.Len(t, i, 1)
	assert.Equal(t, "a", i[0].ID)

	l, i = ScopeToWarehouse(ledger, items, "")
	assert.Len(t, l, 3)
	assert.Len(t, i, 2)
}

func TestItemHistoryAndLowStock(t *testing.T) {
	ledger := []models.StockTransaction{
		{ID: "1", ItemID: "a", Date: now.Add(-2 * time.Hour)},
		{ID: "2", ItemID: "b", Date: now.Add(-time.Hour)},
		{ID: "3", ItemID: "a", Date: now},
	}
	h := ItemHistory(ledger, "a")
	require.Len(t, h, 2)
	assert.Equal(t, "3", h[0].ID)

	items := []models.StockItem{
		{ID: "a", Quantity: 5, MinThreshold: 5},
		{ID: "b", Quantity: 6, MinThreshold: 5},
		{ID: "c", Quantity: 0, MinThreshold: 0},
	}
	low := LowStock(items)
	require.Len(t, low, 2)
	assert.Equal(t, "a", low[0].ID)
	assert.Equal(t, "c", low[1].ID)
}

func TestDerivedViewsAreRepeatable(t *testing.T) {
	ledger := []models.StockTransaction{
		{ItemID: "a", Type: models.TxOut, Quantity: 2, Price: 100, CostPrice: ptr(60), Date: now, PartyName: "Ravi"},
		{ItemID: "b", Type: models.TxOut, Quantity: 1, Price: 20, Date: now, PartyName: "Ravi"},
		{ItemID: "b", Type: models.TxDamage, Quantity: 1, Price: 10, Date: now},
	}
	items := []models.StockItem{
		{ID: "a", Name: "A", Category: "X", Quantity: 1, Price: 60},
		{ID: "b", Name: "B", Category: "Y", Quantity: 1, Price: 60},
	}

	render := func() []byte {
		data, err := json.Marshal(struct {
			D Dashboard
			I []Invoice
		}{BuildDashboard(ledger, items, WindowWeek, now, 5), GroupInvoices(ledger)})
		require.NoError(t, err)
		return data
	}
	assert.Equal(t, render(), render())
}
