package database

import (
	"fmt"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"              // SQLite driver
)

// Open connects to the order database. driver is "sqlite3" or "postgres".
// An in-memory SQLite database is pinned to one connection so every query
// sees the same tables.
func Open(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case "sqlite3", "postgres":
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	if dsn == "" {
		return nil, fmt.Errorf("database dsn is required for driver %s", driver)
	}

	db, err := gorm.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == "sqlite3" && (dsn == ":memory:" || dsn == "file::memory:") {
		db.DB().SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate creates or updates the tables for models
func Migrate(db *gorm.DB, models ...interface{}) error {
	if err := db.AutoMigrate(models...).Error; err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Close closes the database connection
func Close(db *gorm.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}
