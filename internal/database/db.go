// Package database keeps assistant sessions in a SQL database through gorm,
// so sessions survive a restart of the service.
package database

import (
	"fmt"
	"strings"

	"github.com/jinzhu/gorm"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Open connects to the database and migrates the session table.
// driver is "sqlite3" or "postgres".
func Open(driver, dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	if driver == "sqlite3" {
		// sqlite allows one writer; an in-memory database also exists
		// per connection.
		db.DB().SetMaxOpenConns(1)
		if strings.Contains(dsn, ":memory:") {
			db.DB().SetMaxIdleConns(1)
		}
	}

	if err := db.AutoMigrate(&SessionRecord{}).Error; err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate sessions table: %w", err)
	}
	return db, nil
}
