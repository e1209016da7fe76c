package test_utils

import (
	"database/sql"
	"testing"

	"github.com/sequenceit/proposaldesk/internal/database"
	_ "modernc.org/sqlite"
)

// SetupTestDB returns a fresh in-memory SQLite database with all migrations
// applied. Every call yields an isolated database.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		db.Close()
	})

	if err := database.MigrateSQLite(db); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}
	return db
}
