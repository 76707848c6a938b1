package models

// Warehouse represents a physical stock location
type Warehouse struct {
	ID       string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name     string `gorm:"not null" json:"name"`
	Location string `json:"location"`
	Type     string `json:"type"`
}

// TableName specifies the table name for Warehouse model
func (Warehouse) TableName() string {
	return "warehouses"
}

func (w *Warehouse) GetEntityID() string   { return w.ID }
func (w *Warehouse) SetEntityID(id string) { w.ID = id }
func (w *Warehouse) GetCollection() string { return CollectionWarehouses }
