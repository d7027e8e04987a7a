// internal/storage/database.go
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // Driver registration

	"github.com/tabula-io/tabula-backend/config"
	"github.com/tabula-io/tabula-backend/internal/logger"
)

var customLog = logger.NewLogger()

// Connect initializes the application database connection pool and ensures
// the permissions table exists. The data tables themselves are owned by the
// external platform and are never created or altered here.
func Connect(cfg *config.Config) (*sql.DB, error) {
	dbDir := filepath.Dir(cfg.DatabasePath)
	if err := os.MkdirAll(dbDir, 0750); err != nil {
		customLog.Printf("Storage: Error creating data directory '%s': %v", dbDir, err)
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DatabasePath+"?_foreign_keys=on")
	if err != nil {
		customLog.Printf("Storage: Failed to open database '%s': %v", cfg.DatabasePath, err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		customLog.Printf("Storage: Failed to ping database '%s': %v", cfg.DatabasePath, err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	customLog.Println("Storage: Database connection successful.")

	if err := EnsurePermissionsTable(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// EnsurePermissionsTable creates the permission lookup table when missing.
// One row per (group, table) with four independent action levels.
func EnsurePermissionsTable(db *sql.DB) error {
	createPermissionsTableSQL := `
	CREATE TABLE IF NOT EXISTS permissions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		group_id TEXT NOT NULL,
		table_name TEXT NOT NULL,
		action_view INTEGER NOT NULL DEFAULT 0,
		action_create INTEGER NOT NULL DEFAULT 0,
		action_edit INTEGER NOT NULL DEFAULT 0,
		action_delete INTEGER NOT NULL DEFAULT 0,
		UNIQUE (group_id, table_name)
	);`
	if _, err := db.Exec(createPermissionsTableSQL); err != nil {
		customLog.Printf("Storage: Failed to create permissions table: %v", err)
		return fmt.Errorf("failed to ensure permissions table: %w", err)
	}
	customLog.Println("Storage: Permissions table ensured.")
	return nil
}
