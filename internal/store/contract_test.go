package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xelth-com/stockmaster/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// STORE_PG_TEST=1 runs every contract case against an embedded PostgreSQL
// as well as the in-memory store.
const (
	pgTestEnv  = "STORE_PG_TEST"
	pgTestPort = 5439
)

var pgDB *gorm.DB

func TestMain(m *testing.M) {
	if os.Getenv(pgTestEnv) == "" {
		os.Exit(m.Run())
	}

	dir, err := os.MkdirTemp("", "store-pg-*")
	if err != nil {
		fmt.Fprintln(os.Stderr, "temp dir:", err)
		os.Exit(1)
	}
	pg := embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
		RuntimePath(dir).
		Port(pgTestPort).
		Database("stockmaster_test"))
	if err := pg.Start(); err != nil {
		fmt.Fprintln(os.Stderr, "embedded postgres:", err)
		os.Exit(1)
	}

	dsn := fmt.Sprintf("host=localhost port=%d user=postgres password=postgres dbname=stockmaster_test sslmode=disable", pgTestPort)
	pgDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err == nil {
		err = pgDB.AutoMigrate(Models()...)
	}
	code := 1
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect:", err)
	} else {
		code = m.Run()
	}

	pg.Stop()
	os.RemoveAll(dir)
	os.Exit(code)
}

// eachStore runs fn against a fresh store of every implementation
func eachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemory())
	})
	t.Run("gorm", func(t *testing.T) {
		if pgDB == nil {
			t.Skipf("set %s=1 to run against PostgreSQL", pgTestEnv)
		}
		require.NoError(t, pgDB.Exec("TRUNCATE warehouses, inventory, stock_history, customers, team_chat, user_auths").Error)
		fn(t, NewGorm(pgDB))
	})
}

func seedItem(t *testing.T, s Store, id string, qty float64) {
	t.Helper()
	err := s.ApplyPatch(context.Background(), Patch{
		"inventory/" + id: models.StockItem{Name: "Mouse", Quantity: qty, Price: 10, MinThreshold: models.DefaultThreshold},
	})
	require.NoError(t, err)
}

func getItem(t *testing.T, s Store, id string) models.StockItem {
	t.Helper()
	raw, err := s.Get(context.Background(), models.CollectionInventory, id)
	require.NoError(t, err)
	return decodeItem(t, raw)
}

func decodeItem(t *testing.T, raw json.RawMessage) models.StockItem {
	t.Helper()
	var item models.StockItem
	require.NoError(t, json.Unmarshal(raw, &item))
	return item
}

func nextSnapshot(t *testing.T, sub *Subscription) Snapshot {
	t.Helper()
	select {
	case snap := <-sub.C:
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot delivered")
		return Snapshot{}
	}
}

func TestStore_RecordKeyBecomesID(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		seedItem(t, s, "item-1", 4)

		item := getItem(t, s, "item-1")
		assert.Equal(t, "item-1", item.ID)
		assert.Equal(t, 4.0, item.Quantity)

		_, err := s.Get(context.Background(), models.CollectionInventory, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_ZeroValuesAreKept(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		item := models.StockItem{Name: "Sample", Quantity: 0, Price: 0, MinThreshold: 0}
		require.NoError(t, s.ApplyPatch(ctx, Patch{"inventory/item-1": item}))

		got := getItem(t, s, "item-1")
		assert.Equal(t, 0.0, got.MinThreshold)
		assert.Equal(t, 0.0, got.Quantity)
		assert.Equal(t, 0.0, got.Price)

		// rewriting the record must not bring back a column default
		item.Quantity = 2
		require.NoError(t, s.ApplyPatch(ctx, Patch{"inventory/item-1": item}))
		got = getItem(t, s, "item-1")
		assert.Equal(t, 0.0, got.MinThreshold)
		assert.Equal(t, 2.0, got.Quantity)

		require.NoError(t, s.ApplyPatch(ctx, Patch{"warehouses/w1": models.Warehouse{Name: "Main"}}))
		raw, err := s.Get(ctx, models.CollectionWarehouses, "w1")
		require.NoError(t, err)
		var wh models.Warehouse
		require.NoError(t, json.Unmarshal(raw, &wh))
		assert.Empty(t, wh.Type)
	})
}

func TestStore_PatchIsAllOrNothing(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		seedItem(t, s, "item-1", 4)

		err := s.ApplyPatch(context.Background(), Patch{
			"inventory/item-1/quantity":  9.0,
			"inventory/missing/quantity": 1.0,
		})
		require.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, 4.0, getItem(t, s, "item-1").Quantity)

		err = s.ApplyPatch(context.Background(), Patch{
			"inventory/item-1/quantity": Inc(-1),
			"stock_history/tx-1":        models.StockTransaction{ItemID: "item-1", Type: models.TxOut, Quantity: 1, Date: time.Now()},
			"inventory/item-1/price":    "free",
		})
		require.ErrorIs(t, err, ErrInvalidPath)
		assert.Equal(t, 4.0, getItem(t, s, "item-1").Quantity)
		_, err = s.Get(context.Background(), models.CollectionHistory, "tx-1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_Increment(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		seedItem(t, s, "item-1", 4)
		ctx := context.Background()

		require.NoError(t, s.ApplyPatch(ctx, Patch{"inventory/item-1/quantity": Inc(-4)}))
		assert.Equal(t, 0.0, getItem(t, s, "item-1").Quantity)

		err := s.ApplyPatch(ctx, Patch{"inventory/item-1/quantity": Inc(-1)})
		assert.ErrorIs(t, err, ErrNegativeQuantity)
		assert.Equal(t, 0.0, getItem(t, s, "item-1").Quantity)

		err = s.ApplyPatch(ctx, Patch{"inventory/missing/quantity": Inc(1)})
		assert.ErrorIs(t, err, ErrNotFound)

		err = s.ApplyPatch(ctx, Patch{"inventory/item-1/name": Inc(1)})
		assert.ErrorIs(t, err, ErrInvalidPath)
	})
}

func TestStore_ConcurrentIncrementsNeverGoNegative(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		seedItem(t, s, "item-1", 5)

		var (
			wg  sync.WaitGroup
			mu  sync.Mutex
			won int
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := s.ApplyPatch(context.Background(), Patch{"inventory/item-1/quantity": Inc(-1)}); err == nil {
					mu.Lock()
					won++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 5, won)
		assert.Equal(t, 0.0, getItem(t, s, "item-1").Quantity)
	})
}

func TestStore_LedgerIsImmutable(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		entry := models.StockTransaction{ItemID: "item-1", Type: models.TxIn, Quantity: 1, Price: 2, Date: time.Now()}
		require.NoError(t, s.ApplyPatch(ctx, Patch{"stock_history/tx-1": entry}))

		assert.ErrorIs(t, s.ApplyPatch(ctx, Patch{"stock_history/tx-1": entry}), ErrImmutable)
		assert.ErrorIs(t, s.ApplyPatch(ctx, Patch{"stock_history/tx-1": nil}), ErrImmutable)
		assert.ErrorIs(t, s.ApplyPatch(ctx, Patch{"stock_history/tx-1/quantity": 5.0}), ErrImmutable)

		raw, err := s.Get(ctx, models.CollectionHistory, "tx-1")
		require.NoError(t, err)
		var got models.StockTransaction
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, 1.0, got.Quantity)
	})
}

func TestStore_RejectsOverlappingPaths(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		err := s.ApplyPatch(context.Background(), Patch{
			"inventory/item-1":          models.StockItem{Name: "A"},
			"inventory/item-1/quantity": 3.0,
		})
		assert.ErrorIs(t, err, ErrInvalidPath)
	})
}

func TestStore_SubscribeDeliversInitialAndUpdates(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		sub, err := s.Subscribe(ctx, models.CollectionInventory)
		require.NoError(t, err)
		defer sub.Close()

		assert.True(t, nextSnapshot(t, sub).Empty(), "empty collection delivers a nil snapshot")

		seedItem(t, s, "item-1", 2)
		assert.Equal(t, []string{"item-1"}, nextSnapshot(t, sub).Keys())

		// a rejected patch publishes nothing
		assert.Error(t, s.ApplyPatch(ctx, Patch{"inventory/item-1/quantity": Inc(-3)}))
		select {
		case <-sub.C:
			t.Fatal("failed patch must not publish")
		case <-time.After(50 * time.Millisecond):
		}

		require.NoError(t, s.ApplyPatch(ctx, Patch{"inventory/item-1": nil}))
		assert.True(t, nextSnapshot(t, sub).Empty())
	})
}

func TestStore_SlowSubscriberSeesLatest(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		seedItem(t, s, "item-1", 0)

		sub, err := s.Subscribe(ctx, models.CollectionInventory)
		require.NoError(t, err)
		defer sub.Close()

		for i := 1; i <= 5; i++ {
			require.NoError(t, s.ApplyPatch(ctx, Patch{"inventory/item-1/quantity": Inc(1)}))
		}

		snap := nextSnapshot(t, sub)
		assert.Equal(t, 5.0, decodeItem(t, snap.Records["item-1"]).Quantity)
		select {
		case <-sub.C:
			t.Fatal("stale snapshots should have been dropped")
		default:
		}
	})
}

func TestModels_NoColumnDefaults(t *testing.T) {
	cache := &sync.Map{}
	for _, m := range Models() {
		sch, err := schema.Parse(m, cache, schema.NamingStrategy{})
		require.NoError(t, err)
		for _, f := range sch.Fields {
			assert.Emptyf(t, f.DefaultValue, "%s.%s has a column default; zero values would be dropped on insert", sch.Name, f.Name)
		}
	}
}
