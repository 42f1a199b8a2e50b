package store_test

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hifztracker/internal/store"
)

func openTestDB(t *testing.T) *store.DB {
	t.Helper()
	ctx := context.Background()
	db, err := store.Open(ctx, store.DriverSQLite, filepath.Join(t.TempDir(), "nested", "hifz.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))
	return db
}

func TestRebind(t *testing.T) {
	pg := &store.DB{Driver: store.DriverPostgres}
	lite := &store.DB{Driver: store.DriverSQLite}
	q := `SELECT id FROM daily_logs WHERE log_date BETWEEN ? AND ? AND student_id IN (?, ?)`

	assert.Equal(t, `SELECT id FROM daily_logs WHERE log_date BETWEEN $1 AND $2 AND student_id IN ($3, $4)`, pg.Rebind(q))
	assert.Equal(t, q, lite.Rebind(q))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", store.Placeholders(0))
	assert.Equal(t, "?", store.Placeholders(1))
	assert.Equal(t, "?, ?, ?", store.Placeholders(3))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := store.Open(context.Background(), "mysql", "whatever")
	assert.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Migrate(context.Background()))
	require.NoError(t, db.Ping(context.Background()))
}

func TestForeignKeysCascade(t *testing.T) {
	db := openTestDB(t)

	res, err := db.Client.Exec(`INSERT INTO students (name) VALUES ('Amina')`)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)

	_, err = db.Client.Exec(`INSERT INTO daily_logs (log_date, student_id, surah, start_ayah, end_ayah, num_lines, pass_fail)
		VALUES ('2024-05-01', ?, 'Al-Fatiha', 1, 7, 7, 'Pass')`, id)
	require.NoError(t, err)

	_, err = db.Client.Exec(`DELETE FROM students WHERE id = ?`, id)
	require.NoError(t, err)

	var n int
	require.NoError(t, db.Client.QueryRow(`SELECT COUNT(*) FROM daily_logs`).Scan(&n))
	assert.Zero(t, n)
}

func TestConstraintErrorsAreRecognised(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Client.Exec(`INSERT INTO students (name) VALUES ('Yusuf')`)
	require.NoError(t, err)
	_, err = db.Client.Exec(`INSERT INTO students (name) VALUES ('Yusuf')`)
	require.Error(t, err)
	assert.True(t, store.IsConstraintViolation(err))

	_, err = db.Client.Exec(`INSERT INTO daily_logs (log_date, student_id, surah, start_ayah, end_ayah, num_lines, pass_fail)
		VALUES ('2024-05-01', 999, 'Al-Fatiha', 1, 7, 7, 'Pass')`)
	require.Error(t, err)
	assert.True(t, store.IsConstraintViolation(err))

	_, err = db.Client.Exec(`INSERT INTO daily_logs (log_date, student_id, surah, start_ayah, end_ayah, num_lines, pass_fail)
		VALUES ('2024-05-01', 1, 'Al-Fatiha', 1, 7, 7, 'Maybe')`)
	require.Error(t, err)
	assert.True(t, store.IsConstraintViolation(err))

	assert.False(t, store.IsConstraintViolation(sql.ErrNoRows))
	assert.False(t, store.IsWriteConflict(sql.ErrNoRows))
}

func TestWriteConflictsAreRecognised(t *testing.T) {
	conflicts := []error{
		sqlite3.Error{Code: sqlite3.ErrBusy},
		fmt.Errorf("begin: %w", sqlite3.Error{Code: sqlite3.ErrLocked}),
		&pgconn.PgError{Code: "40001"},
		fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40P01"}),
	}
	for _, err := range conflicts {
		assert.True(t, store.IsWriteConflict(err), "%v", err)
		assert.False(t, store.IsConstraintViolation(err), "%v", err)
	}

	assert.True(t, store.IsConstraintViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, store.IsWriteConflict(&pgconn.PgError{Code: "23505"}))
	assert.False(t, store.IsWriteConflict(sqlite3.Error{Code: sqlite3.ErrConstraint}))
}

func TestBusyDatabaseIsWriteConflict(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "busy.db")
	holder, err := store.Open(ctx, store.DriverSQLite, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = holder.Close() })
	other, err := store.Open(ctx, store.DriverSQLite, path+"?_busy_timeout=50")
	require.NoError(t, err)
	t.Cleanup(func() { _ = other.Close() })

	tx, err := holder.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = other.BeginTx(ctx)
	require.Error(t, err)
	assert.True(t, store.IsWriteConflict(err))
}

func TestCreatedAtDefaultsToNow(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Client.Exec(`INSERT INTO students (name) VALUES ('Amina')`)
	require.NoError(t, err)
	_, err = db.Client.Exec(`INSERT INTO daily_logs (log_date, student_id, surah, start_ayah, end_ayah, num_lines, pass_fail)
		VALUES ('2024-05-01', 1, 'Al-Fatiha', 1, 7, 7, 'Pass')`)
	require.NoError(t, err)

	var createdAt string
	require.NoError(t, db.Client.QueryRow(`SELECT created_at FROM daily_logs`).Scan(&createdAt))
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`, createdAt)
}
