package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"InventoryApp/app/config"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return db
}

// buildPostgresDSN constructs the PostgreSQL connection string.
// Priority: DATABASE_URL > config.json values.
func buildPostgresDSN(cfg *config.AppConfig) string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}

	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Database,
		cfg.Database.SSLMode,
	)
}

// sqlitePath resolves the SQLite database file location.
// Priority: INVENTORY_DB_PATH > config.json path > app data dir default.
func sqlitePath(cfg *config.AppConfig) (string, error) {
	if p := os.Getenv("INVENTORY_DB_PATH"); p != "" {
		return p, nil
	}
	if cfg != nil && cfg.Database.Path != "" {
		return cfg.Database.Path, nil
	}

	dataDir, err := config.GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "inventory.db"), nil
}

// InitializeWithConfig opens the configured database and runs migrations.
// SQLite is the default engine; PostgreSQL is used when configured, for
// installations that share one database between several terminals.
func InitializeWithConfig(cfg *config.AppConfig) error {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var err error
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err = gorm.Open(postgres.Open(buildPostgresDSN(cfg)), gormConfig)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		sqlDB, dbErr := db.DB()
		if dbErr != nil {
			return fmt.Errorf("failed to get database instance: %w", dbErr)
		}
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)

	default: // sqlite
		path, pathErr := sqlitePath(cfg)
		if pathErr != nil {
			return pathErr
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
		db, err = gorm.Open(sqlite.Open(path), gormConfig)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
	}

	if err := Migrate(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection
func Close() error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
