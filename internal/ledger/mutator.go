// Package ledger applies stock operations as atomic patches. Every quantity
// change is written together with exactly one ledger entry for the item in
// the same patch, so replaying the ledger reproduces current stock.
package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/xelth-com/stockmaster/internal/models"
	"github.com/xelth-com/stockmaster/internal/store"
	"go.uber.org/zap"
)

// Party names written when the caller supplies none
const (
	PartyBulkAdd     = "Bulk Add"
	PartyBulkRestock = "Bulk Restock"
	PartyStockUpdate = "Stock Update"
	PartyUnknown     = "Unknown"

	DefaultCategory      = "General"
	DefaultWarehouseType = "General"
)

// Reader is the latest known state the mutator validates against
type Reader interface {
	Item(id string) (models.StockItem, bool)
	Warehouse(id string) (models.Warehouse, bool)
	Customer(id string) (models.Customer, bool)
}

// Actor identifies the signed-in user performing an operation
type Actor struct {
	ID    string
	Email string
}

// Mailbox returns the part of the email before "@"
func (a Actor) Mailbox() string {
	name, _, _ := strings.Cut(a.Email, "@")
	return name
}

// Result lists the keys written by one operation
type Result struct {
	ItemIDs  []string  `json:"itemIds,omitempty"`
	EntryIDs []string  `json:"entryIds,omitempty"`
	At       time.Time `json:"at"`
}

// Mutator turns stock operations into store patches
type Mutator struct {
	store  store.Store
	reader Reader
	now    func() time.Time
	log    *zap.SugaredLogger
}

// Option configures a Mutator
type Option func(*Mutator)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(m *Mutator) { m.now = now }
}

// WithLocation stamps entries in the given time zone
func WithLocation(loc *time.Location) Option {
	return func(m *Mutator) {
		m.now = func() time.Time { return time.Now().In(loc) }
	}
}

// NewMutator creates a mutator writing to s and validating against r
func NewMutator(s store.Store, r Reader, opts ...Option) *Mutator {
	m := &Mutator{
		store:  s,
		reader: r,
		now:    time.Now,
		log:    zap.S().Named("ledger"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// timestamp is shared by every write of one call; invoices group on it
func (m *Mutator) timestamp() time.Time {
	return m.now().Truncate(time.Millisecond)
}

func (m *Mutator) apply(ctx context.Context, op string, patch store.Patch) error {
	if err := m.store.ApplyPatch(ctx, patch); err != nil {
		m.log.Errorw("patch rejected", "op", op, "paths", len(patch), "error", err)
		return &RemoteWriteError{Err: err}
	}
	m.log.Debugw("patch applied", "op", op, "paths", len(patch))
	return nil
}

// IntakeRow is one candidate new item. Nil Quantity or Price, or an empty
// Name, marks a row the form left incomplete.
type IntakeRow struct {
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Quantity     *float64 `json:"quantity"`
	Price        *float64 `json:"price"`
	MinThreshold *float64 `json:"minThreshold"`
	Source       string   `json:"source"`
	Description  string   `json:"description"`
}

func (r IntakeRow) complete() bool {
	return strings.TrimSpace(r.Name) != "" && r.Quantity != nil && r.Price != nil
}

// IntakeNewItems creates one item and one IN entry per complete row.
// Incomplete rows are dropped; if none remain nothing is written.
func (m *Mutator) IntakeNewItems(ctx context.Context, actor Actor, warehouseID string, rows []IntakeRow) (*Result, error) {
	return m.intake(ctx, actor, warehouseID, rows, PartyBulkAdd)
}

// AddItem is a single-row intake
func (m *Mutator) AddItem(ctx context.Context, actor Actor, warehouseID string, row IntakeRow) (*Result, error) {
	return m.intake(ctx, actor, warehouseID, []IntakeRow{row}, PartyUnknown)
}

func (m *Mutator) intake(ctx context.Context, actor Actor, warehouseID string, rows []IntakeRow, party string) (*Result, error) {
	if warehouseID == "" {
		return nil, invalid("warehouse", "select a warehouse first")
	}
	if _, ok := m.reader.Warehouse(warehouseID); !ok {
		return nil, invalid("warehouse", "unknown warehouse %q", warehouseID)
	}

	kept := make([]IntakeRow, 0, len(rows))
	for _, row := range rows {
		if !row.complete() {
			continue
		}
		if *row.Quantity <= 0 {
			return nil, invalid("quantity", "quantity for %q must be greater than zero", row.Name)
		}
		if *row.Price < 0 {
			return nil, invalid("price", "price for %q cannot be negative", row.Name)
		}
		kept = append(kept, row)
	}
	if len(kept) == 0 {
		return nil, invalid("items", "no complete rows to add")
	}

	at := m.timestamp()
	res := &Result{At: at}
	patch := store.Patch{}
	for _, row := range kept {
		itemID := m.store.NewKey(models.CollectionInventory)
		threshold := float64(models.DefaultThreshold)
		if row.MinThreshold != nil {
			threshold = *row.MinThreshold
		}
		category := strings.TrimSpace(row.Category)
		if category == "" {
			category = DefaultCategory
		}
		patch[path(models.CollectionInventory, itemID)] = models.StockItem{
			ID:           itemID,
			WarehouseID:  warehouseID,
			Name:         strings.TrimSpace(row.Name),
			Category:     category,
			Quantity:     *row.Quantity,
			Price:        *row.Price,
			MinThreshold: threshold,
			LastUpdated:  at,
			Description:  row.Description,
			Source:       row.Source,
			UserID:       actor.ID,
		}

		partyName := party
		if row.Source != "" {
			partyName = row.Source
		}
		entryID := m.entry(patch, actor, at, models.StockTransaction{
			ItemID:    itemID,
			Type:      models.TxIn,
			Quantity:  *row.Quantity,
			Price:     *row.Price,
			CostPrice: models.Float(*row.Price),
			PartyName: partyName,
		})
		res.ItemIDs = append(res.ItemIDs, itemID)
		res.EntryIDs = append(res.EntryIDs, entryID)
	}

	if err := m.apply(ctx, "intake", patch); err != nil {
		return nil, err
	}
	return res, nil
}

// RestockLine adds AddQty units to an existing item
type RestockLine struct {
	ItemID string  `json:"itemId"`
	AddQty float64 `json:"addQty"`
}

// Restock raises quantities of existing items, one IN entry per item.
// Lines with non-positive AddQty and unknown items are skipped; lines for the
// same item are merged.
func (m *Mutator) Restock(ctx context.Context, actor Actor, lines []RestockLine) (*Result, error) {
	return m.restock(ctx, actor, lines, PartyBulkRestock)
}

// AdjustExisting restocks a single item
func (m *Mutator) AdjustExisting(ctx context.Context, actor Actor, itemID string, addQty float64) (*Result, error) {
	if addQty <= 0 {
		return nil, invalid("quantity", "quantity to add must be greater than zero")
	}
	if _, ok := m.reader.Item(itemID); !ok {
		return nil, invalid("item", "unknown item %q", itemID)
	}
	return m.restock(ctx, actor, []RestockLine{{ItemID: itemID, AddQty: addQty}}, PartyStockUpdate)
}

func (m *Mutator) restock(ctx context.Context, actor Actor, lines []RestockLine, party string) (*Result, error) {
	var order []string
	added := make(map[string]float64)
	items := make(map[string]models.StockItem)
	for _, line := range lines {
		if line.AddQty <= 0 {
			continue
		}
		item, ok := m.reader.Item(line.ItemID)
		if !ok {
			continue
		}
		if _, seen := added[item.ID]; !seen {
			order = append(order, item.ID)
			items[item.ID] = item
		}
		added[item.ID] += line.AddQty
	}
	if len(order) == 0 {
		return nil, invalid("updates", "nothing to restock")
	}

	at := m.timestamp()
	res := &Result{At: at}
	patch := store.Patch{}
	for _, id := range order {
		item := items[id]
		qty := added[id]
		patch[field(id, "quantity")] = store.Inc(qty)
		patch[field(id, "lastUpdated")] = at
		entryID := m.entry(patch, actor, at, models.StockTransaction{
			ItemID:    id,
			Type:      models.TxIn,
			Quantity:  qty,
			Price:     item.Price,
			CostPrice: models.Float(item.Price),
			PartyName: party,
		})
		res.ItemIDs = append(res.ItemIDs, id)
		res.EntryIDs = append(res.EntryIDs, entryID)
	}

	if err := m.apply(ctx, "restock", patch); err != nil {
		return nil, err
	}
	return res, nil
}

// DispatchRequest sells units of one item to a named customer
type DispatchRequest struct {
	ItemID       string   `json:"itemId"`
	Quantity     float64  `json:"quantity"`
	CustomerName string   `json:"customerName"`
	SellPrice    float64  `json:"sellPrice"`
	TaxPercent   *float64 `json:"taxPercent"`
}

// Dispatch records a single-item sale
func (m *Mutator) Dispatch(ctx context.Context, actor Actor, req DispatchRequest) (*Result, error) {
	item, err := m.takeable(req.ItemID, req.Quantity)
	if err != nil {
		return nil, err
	}
	customer := strings.TrimSpace(req.CustomerName)
	if customer == "" {
		return nil, invalid("customerName", "customer name is required")
	}
	if req.SellPrice < 0 {
		return nil, invalid("sellPrice", "price cannot be negative")
	}

	at := m.timestamp()
	patch := store.Patch{
		field(item.ID, "quantity"):    store.Inc(-req.Quantity),
		field(item.ID, "lastUpdated"): at,
	}
	entryID := m.entry(patch, actor, at, models.StockTransaction{
		ItemID:     item.ID,
		Type:       models.TxOut,
		Quantity:   req.Quantity,
		Price:      req.SellPrice,
		CostPrice:  models.Float(item.Price),
		TaxPercent: req.TaxPercent,
		PartyName:  customer,
	})

	if err := m.apply(ctx, "dispatch", patch); err != nil {
		return nil, err
	}
	return &Result{ItemIDs: []string{item.ID}, EntryIDs: []string{entryID}, At: at}, nil
}

// Party is a seller or buyer block copied onto sale entries by value
type Party struct {
	Name    string `json:"name"`
	GSTIN   string `json:"gstin"`
	Address string `json:"address"`
}

// CheckoutLine is one cart row
type CheckoutLine struct {
	ItemID   string  `json:"itemId"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

// CheckoutRequest is a multi-item sale producing one invoice
type CheckoutRequest struct {
	Lines      []CheckoutLine `json:"lines"`
	Buyer      Party          `json:"buyer"`
	Seller     Party          `json:"seller"`
	TaxPercent float64        `json:"taxPercent"`
}

// Checkout sells a whole cart in one patch. If any item lacks stock for the
// summed quantity of its lines, nothing is written. Lines naming the same
// item collapse into one entry priced at their average, so line revenue is
// unchanged.
func (m *Mutator) Checkout(ctx context.Context, actor Actor, req CheckoutRequest) (*Result, error) {
	if len(req.Lines) == 0 {
		return nil, invalid("cart", "cart is empty")
	}
	buyer := req.Buyer
	buyer.Name = strings.TrimSpace(buyer.Name)
	if buyer.Name == "" {
		return nil, invalid("customerName", "customer name is required")
	}
	seller := req.Seller
	seller.Name = strings.TrimSpace(seller.Name)
	if seller.Name == "" {
		seller.Name = actor.Mailbox()
	}
	if seller.Name == "" {
		seller.Name = "Admin"
	}
	if req.TaxPercent < 0 {
		return nil, invalid("taxPercent", "tax cannot be negative")
	}

	var order []string
	taken := make(map[string]float64)
	revenue := make(map[string]float64)
	prices := make(map[string]float64)
	mixed := make(map[string]bool)
	items := make(map[string]models.StockItem)
	for _, line := range req.Lines {
		if line.Quantity <= 0 {
			return nil, invalid("quantity", "quantity must be greater than zero")
		}
		if line.Price < 0 {
			return nil, invalid("price", "price cannot be negative")
		}
		item, ok := m.reader.Item(line.ItemID)
		if !ok {
			return nil, invalid("item", "unknown item %q", line.ItemID)
		}
		if _, seen := taken[item.ID]; !seen {
			order = append(order, item.ID)
			items[item.ID] = item
			prices[item.ID] = line.Price
		} else if prices[item.ID] != line.Price {
			mixed[item.ID] = true
		}
		taken[item.ID] += line.Quantity
		revenue[item.ID] += line.Quantity * line.Price
	}
	for _, id := range order {
		if item := items[id]; taken[id] > item.Quantity {
			return nil, invalid("quantity", "only %s of %q in stock", formatQty(item.Quantity), item.Name)
		}
	}

	at := m.timestamp()
	res := &Result{At: at, ItemIDs: order}
	patch := store.Patch{}
	for _, id := range order {
		item := items[id]
		price := prices[id]
		if mixed[id] {
			price = revenue[id] / taken[id]
		}
		patch[field(id, "quantity")] = store.Inc(-taken[id])
		patch[field(id, "lastUpdated")] = at
		entryID := m.entry(patch, actor, at, models.StockTransaction{
			ItemID:          item.ID,
			Type:            models.TxOut,
			Quantity:        taken[id],
			Price:           price,
			CostPrice:       models.Float(item.Price),
			TaxPercent:      models.Float(req.TaxPercent),
			PartyName:       buyer.Name,
			SellerName:      seller.Name,
			SellerGSTIN:     seller.GSTIN,
			SellerAddress:   seller.Address,
			CustomerGSTIN:   buyer.GSTIN,
			CustomerAddress: buyer.Address,
		})
		res.EntryIDs = append(res.EntryIDs, entryID)
	}

	if err := m.apply(ctx, "checkout", patch); err != nil {
		return nil, err
	}
	return res, nil
}

// DamageRequest writes off units of one item
type DamageRequest struct {
	ItemID   string  `json:"itemId"`
	Quantity float64 `json:"quantity"`
	Reason   string  `json:"reason"`
}

// ReportDamage records a loss valued at the item's cost price
func (m *Mutator) ReportDamage(ctx context.Context, actor Actor, req DamageRequest) (*Result, error) {
	item, err := m.takeable(req.ItemID, req.Quantity)
	if err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, invalid("reason", "reason is required")
	}

	at := m.timestamp()
	patch := store.Patch{
		field(item.ID, "quantity"):    store.Inc(-req.Quantity),
		field(item.ID, "lastUpdated"): at,
	}
	entryID := m.entry(patch, actor, at, models.StockTransaction{
		ItemID:    item.ID,
		Type:      models.TxDamage,
		Quantity:  req.Quantity,
		Price:     item.Price,
		CostPrice: models.Float(item.Price),
		PartyName: reason,
	})

	if err := m.apply(ctx, "damage", patch); err != nil {
		return nil, err
	}
	return &Result{ItemIDs: []string{item.ID}, EntryIDs: []string{entryID}, At: at}, nil
}

// takeable checks 0 < qty <= current stock
func (m *Mutator) takeable(itemID string, qty float64) (models.StockItem, error) {
	item, ok := m.reader.Item(itemID)
	if !ok {
		return models.StockItem{}, invalid("item", "unknown item %q", itemID)
	}
	if qty <= 0 {
		return models.StockItem{}, invalid("quantity", "quantity must be greater than zero")
	}
	if qty > item.Quantity {
		return models.StockItem{}, invalid("quantity", "only %s in stock", formatQty(item.Quantity))
	}
	return item, nil
}

// entry adds a ledger entry to patch and returns its key
func (m *Mutator) entry(patch store.Patch, actor Actor, at time.Time, tx models.StockTransaction) string {
	key := m.store.NewKey(models.CollectionHistory)
	tx.ID = key
	tx.Date = at
	tx.UserEmail = actor.Email
	patch[path(models.CollectionHistory, key)] = tx
	return key
}

func path(collection, key string) string {
	return collection + "/" + key
}

func field(itemID, name string) string {
	return models.CollectionInventory + "/" + itemID + "/" + name
}
