// Package live keeps the latest delivered snapshot of every collection in
// decoded form. Views and the stock mutator read from it; nothing here is
// ever written back to the store.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/xelth-com/stockmaster/internal/models"
	"github.com/xelth-com/stockmaster/internal/store"
	"go.uber.org/zap"
)

// Mirror holds decoded snapshots. A collection that has not delivered yet is
// "not loaded", which is different from loaded-and-empty.
type Mirror struct {
	mu         sync.RWMutex
	warehouses []models.Warehouse
	items      []models.StockItem
	history    []models.StockTransaction
	customers  []models.Customer
	chat       []models.ChatMessage
	loaded     map[string]bool
	ready      chan struct{}
	log        *zap.SugaredLogger
}

// NewMirror creates a mirror with nothing loaded
func NewMirror() *Mirror {
	return &Mirror{
		loaded: make(map[string]bool),
		ready:  make(chan struct{}),
		log:    zap.S().Named("live"),
	}
}

// Run subscribes to every public collection and applies snapshots until ctx
// is cancelled.
func (m *Mirror) Run(ctx context.Context, s store.Store) error {
	subs := make([]*store.Subscription, 0, len(models.Collections))
	for _, collection := range models.Collections {
		sub, err := s.Subscribe(ctx, collection)
		if err != nil {
			for _, open := range subs {
				open.Close()
			}
			return fmt.Errorf("subscribe %s: %w", collection, err)
		}
		subs = append(subs, sub)
	}

	for _, sub := range subs {
		go m.consume(ctx, sub)
	}
	return nil
}

func (m *Mirror) consume(ctx context.Context, sub *store.Subscription) {
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-sub.C:
			if !ok {
				return
			}
			if err := m.Apply(snap); err != nil {
				m.log.Errorw("dropping undecodable snapshot", "collection", snap.Collection, "error", err)
			}
		}
	}
}

// Apply replaces the decoded view of one collection. Applying the same
// snapshot twice leaves the mirror unchanged.
func (m *Mirror) Apply(snap store.Snapshot) error {
	var err error
	switch snap.Collection {
	case models.CollectionWarehouses:
		var rows []models.Warehouse
		if rows, err = decodeAll[models.Warehouse](snap); err == nil {
			m.set(snap.Collection, func() { m.warehouses = rows })
		}
	case models.CollectionInventory:
		var rows []models.StockItem
		if rows, err = decodeAll[models.StockItem](snap); err == nil {
			m.set(snap.Collection, func() { m.items = rows })
		}
	case models.CollectionHistory:
		var rows []models.StockTransaction
		if rows, err = decodeAll[models.StockTransaction](snap); err == nil {
			m.set(snap.Collection, func() { m.history = rows })
		}
	case models.CollectionCustomers:
		var rows []models.Customer
		if rows, err = decodeAll[models.Customer](snap); err == nil {
			m.set(snap.Collection, func() { m.customers = rows })
		}
	case models.CollectionTeamChat:
		var rows []models.ChatMessage
		if rows, err = decodeAll[models.ChatMessage](snap); err == nil {
			sort.SliceStable(rows, func(i, j int) bool { return rows[i].Timestamp < rows[j].Timestamp })
			m.set(snap.Collection, func() { m.chat = rows })
		}
	default:
		return fmt.Errorf("unknown collection %q", snap.Collection)
	}
	return err
}

func (m *Mirror) set(collection string, assign func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	assign()
	m.loaded[collection] = true
	if m.allLoadedLocked() {
		select {
		case <-m.ready:
		default:
			close(m.ready)
		}
	}
}

func (m *Mirror) allLoadedLocked() bool {
	for _, c := range models.Collections {
		if !m.loaded[c] {
			return false
		}
	}
	return true
}

// Loaded reports whether a collection has delivered at least one snapshot
func (m *Mirror) Loaded(collection string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded[collection]
}

// Ready reports whether every collection has been loaded
func (m *Mirror) Ready() bool {
	select {
	case <-m.ready:
		return true
	default:
		return false
	}
}

// WaitLoaded blocks until every collection has delivered a snapshot
func (m *Mirror) WaitLoaded(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Items returns all stock items in key order
func (m *Mirror) Items() []models.StockItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.StockItem(nil), m.items...)
}

// Item looks up one stock item
func (m *Mirror) Item(id string) (models.StockItem, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, item := range m.items {
		if item.ID == id {
			return item, true
		}
	}
	return models.StockItem{}, false
}

// Transactions returns the ledger in key order
func (m *Mirror) Transactions() []models.StockTransaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.StockTransaction(nil), m.history...)
}

// Warehouses returns all warehouses
func (m *Mirror) Warehouses() []models.Warehouse {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Warehouse(nil), m.warehouses...)
}

// Warehouse looks up one warehouse
func (m *Mirror) Warehouse(id string) (models.Warehouse, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, w := range m.warehouses {
		if w.ID == id {
			return w, true
		}
	}
	return models.Warehouse{}, false
}

// Customer finds a party record by id
func (m *Mirror) Customer(id string) (models.Customer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.customers {
		if c.ID == id {
			return c, true
		}
	}
	return models.Customer{}, false
}

// Customers returns all party records
func (m *Mirror) Customers() []models.Customer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Customer(nil), m.customers...)
}

// Chat returns team chat ordered by timestamp
func (m *Mirror) Chat() []models.ChatMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.ChatMessage(nil), m.chat...)
}

func decodeAll[T any](snap store.Snapshot) ([]T, error) {
	if snap.Empty() {
		return []T{}, nil
	}
	out := make([]T, 0, len(snap.Records))
	for _, key := range snap.Keys() {
		var row T
		if err := json.Unmarshal(snap.Records[key], &row); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", snap.Collection, key, err)
		}
		out = append(out, row)
	}
	return out, nil
}
