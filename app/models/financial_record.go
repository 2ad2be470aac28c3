package models

import (
	"database/sql/driver"
	"time"
)

// RecordType classifies a financial record as income or expense
type RecordType string

const (
	RecordIncome  RecordType = "income"
	RecordExpense RecordType = "expense"
)

func (r RecordType) String() string {
	return string(r)
}

func (r *RecordType) Scan(value interface{}) error {
	*r = RecordType(value.(string))
	return nil
}

func (r RecordType) Value() (driver.Value, error) {
	return string(r), nil
}

// Valid reports whether the record type is one of the known kinds
func (r RecordType) Valid() bool {
	return r == RecordIncome || r == RecordExpense
}

// FinancialRecord is one immutable row in the append-only financial ledger.
// Order placement posts exactly one income record per order; manual entries
// carry no recipe link. Corrections are new offsetting entries, never edits.
type FinancialRecord struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	RecordType  RecordType `gorm:"not null;index" json:"record_type"`
	Amount      float64    `gorm:"not null" json:"amount"`
	RecordDate  time.Time  `gorm:"index" json:"record_date"`
	Description string     `json:"description,omitempty"`
	RecipeID    *uint      `gorm:"index" json:"recipe_id,omitempty"` // weak reference for reporting
	Quantity    *int       `json:"quantity,omitempty"`               // units sold, income records only
	CreatedAt   time.Time  `json:"created_at"`

	// Relations
	Recipe *Recipe `gorm:"foreignKey:RecipeID" json:"recipe,omitempty"`
}

// TableName specifies the table name for FinancialRecord
func (FinancialRecord) TableName() string {
	return "financial_records"
}
