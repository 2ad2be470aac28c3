package models

import (
	"database/sql/driver"
	"time"
)

// TransactionType represents the direction of an inventory transaction
type TransactionType string

const (
	TransactionIn  TransactionType = "in"
	TransactionOut TransactionType = "out"
)

func (t TransactionType) String() string {
	return string(t)
}

func (t *TransactionType) Scan(value interface{}) error {
	*t = TransactionType(value.(string))
	return nil
}

func (t TransactionType) Value() (driver.Value, error) {
	return string(t), nil
}

// Valid reports whether the transaction type is one of the known directions
func (t TransactionType) Valid() bool {
	return t == TransactionIn || t == TransactionOut
}

// Item represents a stocked raw material or product in the catalog.
// Quantity, Cost and CostPerUnit are derived fields: they are only ever
// written through the stock ledger, never by catalog updates.
type Item struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Name           string     `gorm:"not null;index" json:"name"`
	Category       string     `gorm:"index" json:"category"`
	Quantity       float64    `gorm:"default:0" json:"quantity"`
	Unit           string     `gorm:"default:units" json:"unit"` // units, kg, g, l, ml
	Cost           float64    `gorm:"default:0" json:"cost"`     // cost basis as of the last restock
	CostPerUnit    float64    `gorm:"column:cost_per_unit;default:0" json:"cost_per_unit"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	Location       string     `json:"location,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// InventoryTransaction is one immutable row in the append-only stock ledger.
// ChangeQuantity stores the magnitude; the sign is implied by TransactionType.
type InventoryTransaction struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	ItemID          uint            `gorm:"not null;index" json:"item_id"`
	TransactionType TransactionType `gorm:"not null" json:"transaction_type"`
	ChangeQuantity  float64         `gorm:"not null" json:"change_quantity"`
	TransactionDate time.Time       `json:"transaction_date"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`

	// Relations
	Item *Item `gorm:"foreignKey:ItemID" json:"item,omitempty"`
}

// SignedQuantity returns the quantity with the sign implied by the type
func (t InventoryTransaction) SignedQuantity() float64 {
	if t.TransactionType == TransactionOut {
		return -t.ChangeQuantity
	}
	return t.ChangeQuantity
}

// TableName specifies the table name for Item
func (Item) TableName() string {
	return "items"
}

// TableName specifies the table name for InventoryTransaction
func (InventoryTransaction) TableName() string {
	return "inventory_transactions"
}
