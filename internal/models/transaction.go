package models

import (
	"time"
)

// TxType is the direction of a ledger entry
type TxType string

const (
	TxIn     TxType = "IN"
	TxOut    TxType = "OUT"
	TxDamage TxType = "DAMAGE"
)

// Valid reports whether t is a known ledger kind
func (t TxType) Valid() bool {
	switch t {
	case TxIn, TxOut, TxDamage:
		return true
	}
	return false
}

// StockTransaction is one immutable ledger entry.
// Quantity is always a positive magnitude; Type carries the direction.
// Price is the selling price for OUT and the cost basis for IN and DAMAGE.
type StockTransaction struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ItemID     string    `gorm:"type:varchar(64);index" json:"itemId"`
	Type       TxType    `gorm:"type:varchar(16);index" json:"type"`
	Quantity   float64   `gorm:"not null" json:"quantity"`
	Price      float64   `gorm:"not null" json:"price"`
	CostPrice  *float64  `json:"costPrice,omitempty"`
	TaxPercent *float64  `json:"taxPercent,omitempty"`
	Date       time.Time `gorm:"index" json:"date"`
	PartyName  string    `gorm:"index" json:"partyName"`
	UserEmail  string    `json:"userEmail"`

	// Invoice snapshots, only stamped by checkout
	SellerName      string `json:"sellerName,omitempty"`
	SellerGSTIN     string `gorm:"column:seller_gstin" json:"sellerGstin,omitempty"`
	SellerAddress   string `json:"sellerAddress,omitempty"`
	CustomerGSTIN   string `gorm:"column:customer_gstin" json:"customerGstin,omitempty"`
	CustomerAddress string `json:"customerAddress,omitempty"`
}

// TableName specifies the table name for StockTransaction model
func (StockTransaction) TableName() string {
	return "stock_history"
}

func (t *StockTransaction) GetEntityID() string   { return t.ID }
func (t *StockTransaction) SetEntityID(id string) { t.ID = id }
func (t *StockTransaction) GetCollection() string { return CollectionHistory }

// EffectiveTax returns the tax percent, zero when absent
func (t StockTransaction) EffectiveTax() float64 {
	if t.TaxPercent == nil {
		return 0
	}
	return *t.TaxPercent
}

// LineTotal is quantity times price, before tax
func (t StockTransaction) LineTotal() float64 {
	return t.Quantity * t.Price
}

// Float returns a pointer to v, for the optional price fields
func Float(v float64) *float64 {
	return &v
}
