package models

// Customer is a party record used as either seller or buyer profile.
// Ledger entries copy its fields by value, never by reference.
type Customer struct {
	ID      string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name    string `gorm:"not null;index" json:"name"`
	GSTIN   string `gorm:"column:gstin" json:"gstin"`
	Address string `json:"address"`
	Mobile  string `json:"mobile"`
	Email   string `json:"email,omitempty"`
}

// TableName specifies the table name for Customer model
func (Customer) TableName() string {
	return "customers"
}

func (c *Customer) GetEntityID() string   { return c.ID }
func (c *Customer) SetEntityID(id string) { c.ID = id }
func (c *Customer) GetCollection() string { return CollectionCustomers }
