package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/xelth-com/stockmaster/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm stores the tree in PostgreSQL, one table per collection.
// A patch runs inside one database transaction; snapshots of the touched
// collections are published after commit.
type Gorm struct {
	db     *gorm.DB
	broker *Broker
	log    *zap.SugaredLogger

	// serializes commit and publish so subscribers never see an older
	// snapshot after a newer one
	mu sync.Mutex
}

// NewGorm wraps an open gorm connection
func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{
		db:     db,
		broker: NewBroker(),
		log:    zap.S().Named("store"),
	}
}

// Models lists every table managed by the store, for AutoMigrate
func Models() []interface{} {
	return []interface{}{
		&models.Warehouse{},
		&models.StockItem{},
		&models.StockTransaction{},
		&models.Customer{},
		&models.ChatMessage{},
		&models.UserAuth{},
	}
}

func (g *Gorm) NewKey(collection string) string {
	return keyGen()
}

// ApplyPatch applies all paths in one transaction
func (g *Gorm) ApplyPatch(ctx context.Context, patch Patch) error {
	paths, err := parsePatch(patch)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	touched := make(map[string]bool)
	err = g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range paths {
			touched[p.Collection] = true
			value := rawValue(patch, p)
			if p.Field == "" {
				if err := g.setRecord(tx, p, value); err != nil {
					return err
				}
				continue
			}
			if err := g.setField(tx, p, value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for collection := range touched {
		snap, err := g.snapshot(ctx, collection)
		if err != nil {
			// the write is committed; subscribers catch up on the next patch
			g.log.Errorw("snapshot after commit failed", "collection", collection, "error", err)
			continue
		}
		g.broker.Publish(snap)
	}
	return nil
}

func (g *Gorm) setRecord(tx *gorm.DB, p Path, value any) error {
	if p.Collection == models.CollectionHistory {
		exists, err := g.exists(tx, p)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s", ErrImmutable, p.String())
		}
	}

	if value == nil {
		rec, _ := models.NewRecord(p.Collection)
		return tx.Where("id = ?", p.Key).Delete(rec).Error
	}

	rec, err := decodeRecord(p, value)
	if err != nil {
		return err
	}
	if p.Collection == models.CollectionHistory {
		return tx.Create(rec).Error
	}
	return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(rec).Error
}

func (g *Gorm) setField(tx *gorm.DB, p Path, value any) error {
	f, err := lookupField(p)
	if err != nil {
		return err
	}
	rec, _ := models.NewRecord(p.Collection)

	var res *gorm.DB
	switch v := value.(type) {
	case Increment:
		if !f.Numeric {
			return fmt.Errorf("%w: increment on non-numeric %s", ErrInvalidPath, p.String())
		}
		res = tx.Model(rec).
			Where("id = ?", p.Key).
			Where(f.Column+" + ? >= 0", v.Delta).
			Update(f.Column, gorm.Expr(f.Column+" + ?", v.Delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			exists, err := g.exists(tx, p)
			if err != nil {
				return err
			}
			if exists {
				return fmt.Errorf("%w: %s", ErrNegativeQuantity, p.String())
			}
			return fmt.Errorf("%w: %s", ErrNotFound, p.String())
		}
		return nil
	default:
		if f.Numeric {
			if _, isNum := value.(float64); !isNum {
				normalized, err := normalize(value)
				if err != nil {
					return fmt.Errorf("%s: %w", p.String(), err)
				}
				if _, isNum := normalized.(float64); !isNum {
					return fmt.Errorf("%w: %s expects a number", ErrInvalidPath, p.String())
				}
			}
		}
		res = tx.Model(rec).Where("id = ?", p.Key).Update(f.Column, value)
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, p.String())
	}
	return nil
}

func (g *Gorm) exists(tx *gorm.DB, p Path) (bool, error) {
	rec, _ := models.NewRecord(p.Collection)
	var count int64
	if err := tx.Model(rec).Where("id = ?", p.Key).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Get returns one record as JSON
func (g *Gorm) Get(ctx context.Context, collection, key string) (json.RawMessage, error) {
	rec, ok := models.NewRecord(collection)
	if !ok {
		return nil, fmt.Errorf("%w: unknown collection %q", ErrInvalidPath, collection)
	}
	err := g.db.WithContext(ctx).Where("id = ?", key).First(rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, key)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(rec)
}

// Subscribe delivers the current snapshot and all later ones
func (g *Gorm) Subscribe(ctx context.Context, collection string) (*Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	snap, err := g.snapshot(ctx, collection)
	if err != nil {
		return nil, err
	}
	return g.broker.Subscribe(snap), nil
}

func (g *Gorm) snapshot(ctx context.Context, collection string) (Snapshot, error) {
	db := g.db.WithContext(ctx).Order("id")
	var (
		recs []models.Record
		err  error
	)
	switch collection {
	case models.CollectionWarehouses:
		recs, err = findAll[models.Warehouse](db)
	case models.CollectionInventory:
		recs, err = findAll[models.StockItem](db)
	case models.CollectionHistory:
		recs, err = findAll[models.StockTransaction](db)
	case models.CollectionCustomers:
		recs, err = findAll[models.Customer](db)
	case models.CollectionTeamChat:
		recs, err = findAll[models.ChatMessage](db)
	case models.CollectionUsers:
		recs, err = findAll[models.UserAuth](db)
	default:
		return Snapshot{}, fmt.Errorf("%w: unknown collection %q", ErrInvalidPath, collection)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load %s: %w", collection, err)
	}

	snap := Snapshot{Collection: collection}
	if len(recs) == 0 {
		return snap, nil
	}
	snap.Records = make(map[string]json.RawMessage, len(recs))
	for _, rec := range recs {
		data, err := json.Marshal(rec)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Records[rec.GetEntityID()] = data
	}
	return snap, nil
}

func findAll[T any, P interface {
	*T
	models.Record
}](db *gorm.DB) ([]models.Record, error) {
	var rows []T
	if err := db.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Record, len(rows))
	for i := range rows {
		out[i] = P(&rows[i])
	}
	return out, nil
}
