package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// NewTestDB crea una base SQLite nueva en un directorio temporal con el esquema aplicado.
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	if err := EnsureSchema(db); err != nil {
		db.Close()
		t.Fatalf("creating test database schema: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
