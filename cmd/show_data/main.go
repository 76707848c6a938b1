package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/xelth-com/stockmaster/internal/analytics"
	"github.com/xelth-com/stockmaster/internal/config"
	"github.com/xelth-com/stockmaster/internal/database"
	"github.com/xelth-com/stockmaster/internal/live"
	"github.com/xelth-com/stockmaster/internal/services/printer"
	"github.com/xelth-com/stockmaster/internal/store"
)

func main() {
	window, err := analytics.ParseWindow(arg(1))
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		fmt.Printf("❌ Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	mirror := live.NewMirror()
	if err := mirror.Run(ctx, store.NewGorm(db.DB)); err != nil {
		fmt.Printf("❌ Subscribe failed: %v\n", err)
		os.Exit(1)
	}
	if err := mirror.WaitLoaded(ctx); err != nil {
		fmt.Printf("❌ Load failed: %v\n", err)
		os.Exit(1)
	}

	loc := cfg.Location()
	ledger, items := analytics.ScopeToWarehouse(mirror.Transactions(), mirror.Items(), arg(2))
	dash := analytics.BuildDashboard(ledger, items, window, time.Now().In(loc), 5)
	f := dash.Financials

	fmt.Printf("📊 StockMaster report (%s, since %s)\n", dash.Window, dash.Since.In(loc).Format("02 Jan 2006"))
	fmt.Println("──────────────────────────────────────────")
	fmt.Printf("  Items:          %d\n", dash.ItemCount)
	fmt.Printf("  Sales:          Rs. %s\n", printer.FormatINR(f.SalesRevenue))
	fmt.Printf("  Cost of goods:  Rs. %s\n", printer.FormatINR(f.CostOfGoodsSold))
	fmt.Printf("  Net earnings:   Rs. %s\n", printer.FormatINR(f.NetEarnings))
	fmt.Printf("  Damage loss:    Rs. %s\n", printer.FormatINR(f.DamageLoss))
	fmt.Printf("  Stock value:    Rs. %s\n", printer.FormatINR(f.CurrentStockValue))

	if len(dash.LowStock) > 0 {
		fmt.Println("\n⚠️  Low stock")
		for _, item := range dash.LowStock {
			fmt.Printf("  %-30s %6.0f (min %.0f)\n", item.Name, item.Quantity, item.MinThreshold)
		}
	}

	invoices := analytics.GroupInvoices(ledger)
	fmt.Printf("\n🧾 Invoices: %d\n", len(invoices))
	for i, inv := range invoices {
		if i == 5 {
			break
		}
		fmt.Printf("  %s  %-24s Rs. %s\n", printer.InvoiceNumber(inv), inv.CustomerName, printer.FormatINR(inv.TotalAmount))
	}
}

// arg returns the i-th command line argument or ""
func arg(i int) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return ""
}
