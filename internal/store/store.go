// Package store is the persistence boundary: a key/value tree of collections
// written through atomic multi-path patches and read through snapshot
// subscriptions.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/xelth-com/stockmaster/internal/models"
)

var (
	ErrInvalidPath      = errors.New("invalid patch path")
	ErrImmutable        = errors.New("ledger entries are immutable")
	ErrNotFound         = errors.New("record not found")
	ErrNegativeQuantity = errors.New("increment would make value negative")
)

// Patch maps absolute paths to new values.
// A path is either "collection/key" (whole record, nil removes it) or
// "collection/key/field" (single field).
type Patch map[string]any

// Increment is a patch value applied as an atomic delta by the store
type Increment struct {
	Delta float64
}

// Inc builds an Increment value
func Inc(delta float64) Increment {
	return Increment{Delta: delta}
}

// Snapshot is the full content of one collection at a point in time.
// Nil Records means the collection is currently empty.
type Snapshot struct {
	Collection string                     `json:"collection"`
	Records    map[string]json.RawMessage `json:"data"`
}

// Empty reports whether the collection held no records
func (s Snapshot) Empty() bool {
	return len(s.Records) == 0
}

// Keys returns record keys in ascending order
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.Records))
	for k := range s.Records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Store is the realtime tree consumed by the core
type Store interface {
	NewKey(collection string) string
	ApplyPatch(ctx context.Context, patch Patch) error
	Get(ctx context.Context, collection, key string) (json.RawMessage, error)
	Subscribe(ctx context.Context, collection string) (*Subscription, error)
}

// Path is a parsed patch path
type Path struct {
	Collection string
	Key        string
	Field      string
}

func (p Path) String() string {
	if p.Field == "" {
		return p.Collection + "/" + p.Key
	}
	return p.Collection + "/" + p.Key + "/" + p.Field
}

// ParsePath validates and splits an absolute path
func ParsePath(raw string) (Path, error) {
	parts := strings.Split(strings.Trim(raw, "/"), "/")
	if len(parts) < 2 || len(parts) > 3 {
		return Path{}, fmt.Errorf("%w: %q", ErrInvalidPath, raw)
	}
	for _, part := range parts {
		if part == "" {
			return Path{}, fmt.Errorf("%w: %q", ErrInvalidPath, raw)
		}
	}
	if _, ok := models.NewRecord(parts[0]); !ok {
		return Path{}, fmt.Errorf("%w: unknown collection %q", ErrInvalidPath, parts[0])
	}
	p := Path{Collection: parts[0], Key: parts[1]}
	if len(parts) == 3 {
		p.Field = parts[2]
	}
	return p, nil
}

// parsePatch parses all paths, sorted, and rejects overlapping ones
func parsePatch(patch Patch) ([]Path, error) {
	if len(patch) == 0 {
		return nil, fmt.Errorf("%w: empty patch", ErrInvalidPath)
	}
	paths := make([]Path, 0, len(patch))
	records := make(map[string]bool)
	for raw := range patch {
		p, err := ParsePath(raw)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
		if p.Field == "" {
			records[p.Collection+"/"+p.Key] = true
		}
	}
	for _, p := range paths {
		if p.Field != "" && records[p.Collection+"/"+p.Key] {
			return nil, fmt.Errorf("%w: %q overlaps a record write", ErrInvalidPath, p.String())
		}
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i].String() < paths[j].String() })
	return paths, nil
}

// rawValue finds the value of a parsed path in the patch
func rawValue(patch Patch, p Path) any {
	if v, ok := patch[p.String()]; ok {
		return v
	}
	// callers may have written a leading slash
	return patch["/"+p.String()]
}

// field describes a writable record field
type field struct {
	Column  string
	Numeric bool
}

// writableFields lists the fields a patch may set individually.
// stock_history and team_chat have none.
var writableFields = map[string]map[string]field{
	models.CollectionInventory: {
		"quantity":     {Column: "quantity", Numeric: true},
		"price":        {Column: "price", Numeric: true},
		"minThreshold": {Column: "min_threshold", Numeric: true},
		"lastUpdated":  {Column: "last_updated"},
		"name":         {Column: "name"},
		"category":     {Column: "category"},
		"description":  {Column: "description"},
		"source":       {Column: "source"},
	},
	models.CollectionWarehouses: {
		"name":     {Column: "name"},
		"location": {Column: "location"},
		"type":     {Column: "type"},
	},
	models.CollectionCustomers: {
		"name":    {Column: "name"},
		"gstin":   {Column: "gstin"},
		"address": {Column: "address"},
		"mobile":  {Column: "mobile"},
		"email":   {Column: "email"},
	},
	models.CollectionUsers: {
		"lastLogin": {Column: "last_login"},
		"password":  {Column: "password"},
		"name":      {Column: "name"},
	},
}

func lookupField(p Path) (field, error) {
	f, ok := writableFields[p.Collection][p.Field]
	if !ok {
		if p.Collection == models.CollectionHistory {
			return field{}, fmt.Errorf("%w: %s", ErrImmutable, p.String())
		}
		return field{}, fmt.Errorf("%w: field %q is not writable", ErrInvalidPath, p.String())
	}
	return f, nil
}

// decodeRecord converts a patch value into the typed record for p
func decodeRecord(p Path, value any) (models.Record, error) {
	rec, _ := models.NewRecord(p.Collection)
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", p.String(), err)
	}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", p.String(), err)
	}
	rec.SetEntityID(p.Key)
	return rec, nil
}

// keyGen produces time-ordered keys so ascending key order follows insertion
func keyGen() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
