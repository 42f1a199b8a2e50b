package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"hifztracker/internal/store"
)

// SetupTestDB opens a fresh SQLite database in a temp dir with the full
// schema applied. It is closed when the test ends.
func SetupTestDB(t *testing.T) *store.DB {
	t.Helper()

	ctx := context.Background()
	db, err := store.Open(ctx, store.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return db
}

// InsertStudent adds a student directly and returns its id.
func InsertStudent(t *testing.T, db *store.DB, name string) int64 {
	t.Helper()

	res, err := db.Client.Exec(`INSERT INTO students (name) VALUES (?)`, name)
	if err != nil {
		t.Fatalf("Failed to create test student: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("Failed to read student id: %v", err)
	}
	return id
}

// CountLogs returns the number of daily_logs rows, optionally for one date.
func CountLogs(t *testing.T, db *store.DB, logDate string) int {
	t.Helper()

	query := `SELECT COUNT(*) FROM daily_logs`
	var args []any
	if logDate != "" {
		query += ` WHERE log_date = ?`
		args = append(args, logDate)
	}
	var n int
	if err := db.Client.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("Failed to count logs: %v", err)
	}
	return n
}
