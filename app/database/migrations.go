package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// SchemaMigration marks one applied migration version
type SchemaMigration struct {
	Version     int       `gorm:"primaryKey"`
	Description string    `gorm:"not null"`
	AppliedAt   time.Time `gorm:"not null"`
}

// TableName specifies the table name for SchemaMigration
func (SchemaMigration) TableName() string {
	return "schema_migrations"
}

// migration is one step in the ordered schema sequence. Statements must stay
// idempotent (IF NOT EXISTS) so a crash between apply and marker insert is
// safe to replay. The %s placeholder expands to the dialect's auto-increment
// primary key column.
type migration struct {
	Version     int
	Description string
	Statements  []string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "create inventory, recipe and financial tables",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS items (
				%s,
				name VARCHAR NOT NULL,
				category VARCHAR,
				quantity REAL NOT NULL DEFAULT 0,
				unit VARCHAR DEFAULT 'units',
				cost REAL NOT NULL DEFAULT 0,
				cost_per_unit REAL NOT NULL DEFAULT 0,
				expiration_date TIMESTAMP,
				location VARCHAR,
				created_at TIMESTAMP,
				updated_at TIMESTAMP
			)`,
			`CREATE TABLE IF NOT EXISTS inventory_transactions (
				%s,
				item_id INTEGER NOT NULL,
				transaction_type VARCHAR NOT NULL,
				change_quantity REAL NOT NULL,
				transaction_date TIMESTAMP,
				notes TEXT,
				created_at TIMESTAMP
			)`,
			`CREATE TABLE IF NOT EXISTS recipes (
				%s,
				name VARCHAR NOT NULL,
				description TEXT,
				recipe_cost REAL NOT NULL DEFAULT 0,
				selling_price REAL NOT NULL DEFAULT 0,
				profit REAL NOT NULL DEFAULT 0,
				profit_margin REAL NOT NULL DEFAULT 0,
				image VARCHAR,
				created_at TIMESTAMP,
				updated_at TIMESTAMP
			)`,
			`CREATE TABLE IF NOT EXISTS recipe_ingredients (
				%s,
				recipe_id INTEGER NOT NULL,
				item_id INTEGER NOT NULL,
				quantity REAL NOT NULL,
				unit VARCHAR,
				created_at TIMESTAMP,
				updated_at TIMESTAMP
			)`,
			`CREATE TABLE IF NOT EXISTS financial_records (
				%s,
				record_type VARCHAR NOT NULL,
				amount REAL NOT NULL,
				record_date TIMESTAMP,
				description TEXT,
				recipe_id INTEGER,
				quantity INTEGER,
				created_at TIMESTAMP
			)`,
		},
	},
	{
		Version:     2,
		Description: "create order tables",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS orders (
				%s,
				order_date TIMESTAMP,
				total_amount REAL NOT NULL DEFAULT 0,
				customer_info VARCHAR,
				notes TEXT,
				created_at TIMESTAMP,
				updated_at TIMESTAMP
			)`,
			`CREATE TABLE IF NOT EXISTS order_items (
				%s,
				order_id INTEGER NOT NULL,
				recipe_id INTEGER NOT NULL,
				quantity INTEGER NOT NULL,
				price REAL NOT NULL,
				created_at TIMESTAMP
			)`,
		},
	},
	{
		Version:     3,
		Description: "create lookup indexes",
		Statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_items_name ON items(name)`,
			`CREATE INDEX IF NOT EXISTS idx_items_category ON items(category)`,
			`CREATE INDEX IF NOT EXISTS idx_inventory_transactions_item_id ON inventory_transactions(item_id)`,
			`CREATE INDEX IF NOT EXISTS idx_recipe_ingredients_recipe_id ON recipe_ingredients(recipe_id)`,
			`CREATE INDEX IF NOT EXISTS idx_recipe_ingredients_item_id ON recipe_ingredients(item_id)`,
			`CREATE INDEX IF NOT EXISTS idx_orders_order_date ON orders(order_date)`,
			`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id)`,
			`CREATE INDEX IF NOT EXISTS idx_financial_records_record_date ON financial_records(record_date)`,
			`CREATE INDEX IF NOT EXISTS idx_financial_records_record_type ON financial_records(record_type)`,
		},
	},
}

// autoIncrementPK returns the dialect's spelling of an auto-increment
// integer primary key column
func autoIncrementPK(db *gorm.DB) string {
	if db.Dialector.Name() == "postgres" {
		return "id BIGSERIAL PRIMARY KEY"
	}
	return "id INTEGER PRIMARY KEY AUTOINCREMENT"
}

// Migrate applies every pending migration in version order, exactly once,
// tracked through the schema_migrations marker table. Each migration runs in
// its own transaction together with its marker insert.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&SchemaMigration{}); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	pk := autoIncrementPK(db)

	for _, m := range migrations {
		var count int64
		if err := db.Model(&SchemaMigration{}).Where("version = ?", m.Version).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			for _, stmt := range m.Statements {
				sql := stmt
				if needsPK(stmt) {
					sql = fmt.Sprintf(stmt, pk)
				}
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return tx.Create(&SchemaMigration{
				Version:     m.Version,
				Description: m.Description,
				AppliedAt:   time.Now().UTC(),
			}).Error
		})
		if err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, err)
		}
	}

	return nil
}

// needsPK reports whether the statement carries the primary key placeholder
func needsPK(stmt string) bool {
	for i := 0; i+1 < len(stmt); i++ {
		if stmt[i] == '%' && stmt[i+1] == 's' {
			return true
		}
	}
	return false
}

// SchemaVersion returns the highest applied migration version
func SchemaVersion(db *gorm.DB) (int, error) {
	var version *int
	err := db.Model(&SchemaMigration{}).Select("MAX(version)").Scan(&version).Error
	if err != nil {
		return 0, err
	}
	if version == nil {
		return 0, nil
	}
	return *version, nil
}
