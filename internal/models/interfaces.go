package models

// Collection names of the realtime tree.
const (
	CollectionWarehouses = "warehouses"
	CollectionInventory  = "inventory"
	CollectionHistory    = "stock_history"
	CollectionCustomers  = "customers"
	CollectionTeamChat   = "team_chat"
)

// Collections lists every top-level collection in subscription order.
var Collections = []string{
	CollectionWarehouses,
	CollectionInventory,
	CollectionHistory,
	CollectionCustomers,
	CollectionTeamChat,
}

// Record is implemented by every model stored under a collection key
type Record interface {
	GetEntityID() string
	SetEntityID(id string)
	GetCollection() string
}

// NewRecord returns an empty record for the given collection
func NewRecord(collection string) (Record, bool) {
	switch collection {
	case CollectionWarehouses:
		return &Warehouse{}, true
	case CollectionInventory:
		return &StockItem{}, true
	case CollectionHistory:
		return &StockTransaction{}, true
	case CollectionCustomers:
		return &Customer{}, true
	case CollectionTeamChat:
		return &ChatMessage{}, true
	case CollectionUsers:
		return &UserAuth{}, true
	}
	return nil, false
}

// IsPublic reports whether clients may subscribe to the collection
func IsPublic(collection string) bool {
	for _, c := range Collections {
		if c == collection {
			return true
		}
	}
	return false
}
