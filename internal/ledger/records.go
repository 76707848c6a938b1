package ledger

import (
	"context"
	"strconv"
	"strings"

	"github.com/xelth-com/stockmaster/internal/models"
	"github.com/xelth-com/stockmaster/internal/store"
)

// NoticeSender signs chat messages posted by the service itself
const NoticeSender = "StockMaster"

// CreateWarehouse adds a warehouse and returns its key
func (m *Mutator) CreateWarehouse(ctx context.Context, name, location string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("name", "warehouse name is required")
	}
	key := m.store.NewKey(models.CollectionWarehouses)
	patch := store.Patch{
		path(models.CollectionWarehouses, key): models.Warehouse{
			ID:       key,
			Name:     name,
			Location: strings.TrimSpace(location),
			Type:     DefaultWarehouseType,
		},
	}
	if err := m.apply(ctx, "create warehouse", patch); err != nil {
		return "", err
	}
	return key, nil
}

// DeleteWarehouse removes a warehouse. Its items are left in place.
func (m *Mutator) DeleteWarehouse(ctx context.Context, id string) error {
	if _, ok := m.reader.Warehouse(id); !ok {
		return invalid("warehouse", "unknown warehouse %q", id)
	}
	return m.apply(ctx, "delete warehouse", store.Patch{path(models.CollectionWarehouses, id): nil})
}

// CreateCustomer adds a party record; name and GSTIN are required
func (m *Mutator) CreateCustomer(ctx context.Context, c models.Customer) (string, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.GSTIN = strings.ToUpper(strings.TrimSpace(c.GSTIN))
	if c.Name == "" {
		return "", invalid("name", "name and GSTIN are required")
	}
	if c.GSTIN == "" {
		return "", invalid("gstin", "name and GSTIN are required")
	}
	c.ID = m.store.NewKey(models.CollectionCustomers)
	if err := m.apply(ctx, "create customer", store.Patch{path(models.CollectionCustomers, c.ID): c}); err != nil {
		return "", err
	}
	return c.ID, nil
}

// DeleteCustomer removes a party record. Past sale entries keep their copies.
func (m *Mutator) DeleteCustomer(ctx context.Context, id string) error {
	if _, ok := m.reader.Customer(id); !ok {
		return invalid("customer", "unknown customer %q", id)
	}
	return m.apply(ctx, "delete customer", store.Patch{path(models.CollectionCustomers, id): nil})
}

// DeleteItem hard-removes an item. Its ledger entries stay.
func (m *Mutator) DeleteItem(ctx context.Context, id string) error {
	if _, ok := m.reader.Item(id); !ok {
		return invalid("item", "unknown item %q", id)
	}
	return m.apply(ctx, "delete item", store.Patch{path(models.CollectionInventory, id): nil})
}

// PostTeamMessage appends a user message to team chat
func (m *Mutator) PostTeamMessage(ctx context.Context, actor Actor, text string) (string, error) {
	sender := actor.Email
	if sender == "" {
		sender = "User"
	}
	return m.postChat(ctx, sender, models.RoleUser, text)
}

// PostNotice appends a system message to team chat
func (m *Mutator) PostNotice(ctx context.Context, text string) (string, error) {
	return m.postChat(ctx, NoticeSender, models.RoleSystem, text)
}

func (m *Mutator) postChat(ctx context.Context, sender string, role models.ChatRole, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", invalid("content", "message is empty")
	}
	key := m.store.NewKey(models.CollectionTeamChat)
	msg := models.ChatMessage{
		ID:        key,
		Sender:    sender,
		Role:      role,
		Content:   text,
		Timestamp: m.timestamp().UnixMilli(),
	}
	if err := m.apply(ctx, "team chat", store.Patch{path(models.CollectionTeamChat, key): msg}); err != nil {
		return "", err
	}
	return key, nil
}

func formatQty(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
