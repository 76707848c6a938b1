package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/xelth-com/stockmaster/internal/config"
	"github.com/xelth-com/stockmaster/internal/database"
	"github.com/xelth-com/stockmaster/internal/ledger"
	"github.com/xelth-com/stockmaster/internal/live"
	"github.com/xelth-com/stockmaster/internal/models"
	"github.com/xelth-com/stockmaster/internal/store"
)

var demoActor = ledger.Actor{ID: "demo@stockmaster.local", Email: "demo@stockmaster.local"}

type demoItem struct {
	name     string
	category string
	qty      float64
	price    float64
}

var demoStock = map[string][]demoItem{
	"Main Godown": {
		{"Wireless Mouse", "Electronics", 40, 250},
		{"USB-C Cable 1m", "Electronics", 120, 45},
		{"A4 Paper Ream", "Stationery", 3, 210},
		{"Stapler", "Stationery", 25, 80},
	},
	"City Shop": {
		{"Wireless Mouse", "Electronics", 8, 260},
		{"Mechanical Keyboard", "Electronics", 6, 1800},
		{"Whiteboard Marker", "Stationery", 60, 18},
	},
}

func main() {
	fmt.Println("🌱 StockMaster Demo Data Seeder")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st := store.NewGorm(db.DB)
	mirror := live.NewMirror()
	if err := mirror.Run(ctx, st); err != nil {
		log.Fatalf("❌ Subscribe failed: %v", err)
	}
	if err := mirror.WaitLoaded(ctx); err != nil {
		log.Fatalf("❌ Initial load failed: %v", err)
	}
	if n := len(mirror.Items()); n > 0 {
		fmt.Printf("⚠️  Store already has %d items. Aborted.\n", n)
		return
	}

	m := ledger.NewMutator(st, mirror, ledger.WithLocation(cfg.Location()))

	for name, stock := range demoStock {
		whID, err := m.CreateWarehouse(ctx, name, "Bengaluru")
		if err != nil {
			log.Fatalf("❌ Warehouse %s: %v", name, err)
		}
		waitFor(ctx, func() bool { _, ok := mirror.Warehouse(whID); return ok })

		rows := make([]ledger.IntakeRow, 0, len(stock))
		for _, it := range stock {
			rows = append(rows, ledger.IntakeRow{
				Name:     it.name,
				Category: it.category,
				Quantity: models.Float(it.qty),
				Price:    models.Float(it.price),
				Source:   "Demo Seed",
			})
		}
		res, err := m.IntakeNewItems(ctx, demoActor, whID, rows)
		if err != nil {
			log.Fatalf("❌ Intake into %s: %v", name, err)
		}
		fmt.Printf("   ✓ %s: %d items\n", name, len(res.ItemIDs))
	}

	if _, err := m.CreateCustomer(ctx, models.Customer{
		Name: "Sharma Traders", GSTIN: "29abcde1234f1z5", Address: "MG Road, Bengaluru", Mobile: "9800000000",
	}); err != nil {
		log.Fatalf("❌ Customer: %v", err)
	}

	waitFor(ctx, func() bool { return len(mirror.Items()) == 7 })
	var lines []ledger.CheckoutLine
	for _, item := range mirror.Items() {
		if item.Category == "Electronics" && item.Quantity >= 2 {
			lines = append(lines, ledger.CheckoutLine{ItemID: item.ID, Quantity: 2, Price: item.Price * 1.3})
		}
	}
	if _, err := m.Checkout(ctx, demoActor, ledger.CheckoutRequest{
		Lines:      lines,
		Buyer:      ledger.Party{Name: "Sharma Traders", GSTIN: "29ABCDE1234F1Z5", Address: "MG Road, Bengaluru"},
		Seller:     ledger.Party{Name: "StockMaster Demo"},
		TaxPercent: 18,
	}); err != nil {
		log.Fatalf("❌ Checkout: %v", err)
	}

	fmt.Println("✅ Demo data created")
}

func waitFor(ctx context.Context, cond func() bool) {
	for !cond() {
		select {
		case <-ctx.Done():
			log.Fatalf("❌ Timed out waiting for the store: %v", ctx.Err())
		case <-time.After(20 * time.Millisecond):
		}
	}
}
