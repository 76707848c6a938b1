package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xelth-com/stockmaster/internal/models"
)

type record = map[string]any

// Memory is an in-process Store. Patches are staged copy-on-write and
// swapped in only when every path applied cleanly.
type Memory struct {
	mu     sync.Mutex
	tree   map[string]map[string]record
	broker *Broker
	newKey func() string
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		tree:   make(map[string]map[string]record),
		broker: NewBroker(),
		newKey: keyGen,
	}
}

func (m *Memory) NewKey(collection string) string {
	return m.newKey()
}

// ApplyPatch applies all paths or none
func (m *Memory) ApplyPatch(ctx context.Context, patch Patch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	paths, err := parsePatch(patch)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	staged := make(map[string]map[string]record)
	stage := func(collection string) map[string]record {
		if s, ok := staged[collection]; ok {
			return s
		}
		s := make(map[string]record, len(m.tree[collection]))
		for k, v := range m.tree[collection] {
			s[k] = v
		}
		staged[collection] = s
		return s
	}

	for _, p := range paths {
		value := rawValue(patch, p)
		coll := stage(p.Collection)
		if p.Field == "" {
			if err := m.setRecord(coll, p, value); err != nil {
				return err
			}
			continue
		}
		if err := m.setField(coll, p, value); err != nil {
			return err
		}
	}

	for collection, coll := range staged {
		if len(coll) == 0 {
			delete(m.tree, collection)
		} else {
			m.tree[collection] = coll
		}
		m.broker.Publish(m.snapshotLocked(collection))
	}
	return nil
}

func (m *Memory) setRecord(coll map[string]record, p Path, value any) error {
	_, exists := coll[p.Key]
	if value == nil {
		if p.Collection == models.CollectionHistory && exists {
			return fmt.Errorf("%w: %s", ErrImmutable, p.String())
		}
		delete(coll, p.Key)
		return nil
	}
	if p.Collection == models.CollectionHistory && exists {
		return fmt.Errorf("%w: %s", ErrImmutable, p.String())
	}
	rec, err := decodeRecord(p, value)
	if err != nil {
		return err
	}
	normalized, err := toRecord(rec)
	if err != nil {
		return err
	}
	coll[p.Key] = normalized
	return nil
}

func (m *Memory) setField(coll map[string]record, p Path, value any) error {
	f, err := lookupField(p)
	if err != nil {
		return err
	}
	current, ok := coll[p.Key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, p.String())
	}
	next := make(record, len(current))
	for k, v := range current {
		next[k] = v
	}

	switch v := value.(type) {
	case Increment:
		if !f.Numeric {
			return fmt.Errorf("%w: increment on non-numeric %s", ErrInvalidPath, p.String())
		}
		base, _ := next[p.Field].(float64)
		if base+v.Delta < 0 {
			return fmt.Errorf("%w: %s", ErrNegativeQuantity, p.String())
		}
		next[p.Field] = base + v.Delta
	default:
		normalized, err := normalize(value)
		if err != nil {
			return fmt.Errorf("%s: %w", p.String(), err)
		}
		if _, isNum := normalized.(float64); f.Numeric && !isNum {
			return fmt.Errorf("%w: %s expects a number", ErrInvalidPath, p.String())
		}
		next[p.Field] = normalized
	}
	coll[p.Key] = next
	return nil
}

// Get returns one record as JSON
func (m *Memory) Get(ctx context.Context, collection, key string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.tree[collection][key]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, key)
	}
	return json.Marshal(rec)
}

// Subscribe delivers the current snapshot and all later ones
func (m *Memory) Subscribe(ctx context.Context, collection string) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.broker.Subscribe(m.snapshotLocked(collection)), nil
}

// Snapshot returns the current content of a collection
func (m *Memory) Snapshot(collection string) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(collection)
}

func (m *Memory) snapshotLocked(collection string) Snapshot {
	snap := Snapshot{Collection: collection}
	coll := m.tree[collection]
	if len(coll) == 0 {
		return snap
	}
	snap.Records = make(map[string]json.RawMessage, len(coll))
	for k, rec := range coll {
		// records are normalized JSON values, marshalling cannot fail
		data, _ := json.Marshal(rec)
		snap.Records[k] = data
	}
	return snap
}

func toRecord(v any) (record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out record
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Subscribers returns the number of open subscriptions to a collection
func (m *Memory) Subscribers(collection string) int {
	return m.broker.Count(collection)
}
