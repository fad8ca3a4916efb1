// Package testing provides testing utilities and helpers for the ratechart project.
package testing

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/aristath/ratechart/internal/database"
)

// NewTestDB creates a temporary SQLite database for testing with automatic schema migration.
// Returns the database instance and a cleanup function that closes the connection.
// The cleanup function is idempotent and is also registered with t.Cleanup.
//
// Supported schema names:
//   - "cache" - applies cache_schema.sql
//   - Unknown names - creates empty database (no schema applied)
func NewTestDB(t *testing.T, name string) (*database.DB, func()) {
	t.Helper()

	path := filepath.Join(t.TempDir(), fmt.Sprintf("test_%s.db", name))
	db, err := database.New(database.Config{
		Path:    path,
		Profile: database.ProfileCache,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	closed := false
	cleanup := func() {
		if closed {
			return
		}
		closed = true
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
	}
	t.Cleanup(cleanup)

	return db, cleanup
}
