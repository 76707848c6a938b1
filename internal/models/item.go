package models

import (
	"time"
)

// DefaultThreshold is the low-stock threshold applied when none is supplied
const DefaultThreshold = 5

// StockItem represents one stocked product inside a warehouse.
// Quantity is never negative; callers validate before patching.
type StockItem struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	WarehouseID  string    `gorm:"type:varchar(64);index" json:"warehouseId"`
	Name         string    `gorm:"not null" json:"name"`
	Category     string    `gorm:"index" json:"category"`
	Quantity     float64   `gorm:"not null" json:"quantity"`
	Price        float64   `gorm:"not null" json:"price"`
	MinThreshold float64   `gorm:"not null" json:"minThreshold"`
	LastUpdated  time.Time `json:"lastUpdated"`
	Description  string    `json:"description,omitempty"`
	Source       string    `json:"source,omitempty"`
	UserID       string    `gorm:"type:varchar(64)" json:"userId,omitempty"`
}

// TableName specifies the table name for StockItem model
func (StockItem) TableName() string {
	return "inventory"
}

func (i *StockItem) GetEntityID() string   { return i.ID }
func (i *StockItem) SetEntityID(id string) { i.ID = id }
func (i *StockItem) GetCollection() string { return CollectionInventory }

// Value is the current inventory worth of the item at cost
func (i StockItem) Value() float64 {
	return i.Quantity * i.Price
}

// IsLow reports whether the item sits at or below its threshold
func (i StockItem) IsLow() bool {
	return i.Quantity <= i.MinThreshold
}
