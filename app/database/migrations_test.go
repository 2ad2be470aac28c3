package database

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	return db
}

func TestMigrateCreatesAllTables(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	tables := []string{
		"items",
		"inventory_transactions",
		"recipes",
		"recipe_ingredients",
		"orders",
		"order_items",
		"financial_records",
		"schema_migrations",
	}
	for _, table := range tables {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}
}

func TestMigrateMarksVersions(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	version, err := SchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), version)

	var applied []SchemaMigration
	require.NoError(t, db.Order("version ASC").Find(&applied).Error)
	require.Len(t, applied, len(migrations))
	for i, m := range applied {
		assert.Equal(t, i+1, m.Version)
		assert.NotEmpty(t, m.Description)
		assert.False(t, m.AppliedAt.IsZero())
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	// Data written between runs must survive a re-apply
	require.NoError(t, db.Exec(`INSERT INTO items (name, quantity) VALUES ('Flour', 5)`).Error)

	require.NoError(t, Migrate(db))

	var count int64
	require.NoError(t, db.Table("items").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var markers int64
	require.NoError(t, db.Table("schema_migrations").Count(&markers).Error)
	assert.Equal(t, int64(len(migrations)), markers)
}

func TestSchemaVersionEmpty(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.AutoMigrate(&SchemaMigration{}))

	version, err := SchemaVersion(db)
	require.NoError(t, err)
	assert.Zero(t, version)
}

func TestAutoIncrementPKDialects(t *testing.T) {
	db := openTestDB(t)
	assert.Equal(t, "id INTEGER PRIMARY KEY AUTOINCREMENT", autoIncrementPK(db))
}
