package store

import (
	"context"
	"fmt"
)

// Migrate creates the students and daily_logs tables. Safe to call multiple
// times - every statement uses IF NOT EXISTS.
func (d *DB) Migrate(ctx context.Context) error {
	statements := sqliteSchema
	if d.Driver == DriverPostgres {
		statements = postgresSchema
	}
	for _, stmt := range statements {
		if _, err := d.Client.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS students (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	);`,
	`CREATE TABLE IF NOT EXISTS daily_logs (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		log_date   TEXT NOT NULL,
		student_id INTEGER NOT NULL,
		surah      TEXT NOT NULL,
		start_ayah INTEGER NOT NULL,
		end_ayah   INTEGER NOT NULL,
		num_lines  INTEGER NOT NULL,
		pass_fail  TEXT NOT NULL CHECK (pass_fail IN ('Pass', 'Fail')),
		created_at TEXT DEFAULT (datetime('now')),
		UNIQUE (log_date, student_id),
		FOREIGN KEY (student_id) REFERENCES students(id) ON DELETE CASCADE
	);`,
	`CREATE INDEX IF NOT EXISTS idx_daily_logs_student ON daily_logs(student_id);`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS students (
		id   BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	);`,
	`CREATE TABLE IF NOT EXISTS daily_logs (
		id         BIGSERIAL PRIMARY KEY,
		log_date   TEXT NOT NULL,
		student_id BIGINT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
		surah      TEXT NOT NULL,
		start_ayah INTEGER NOT NULL,
		end_ayah   INTEGER NOT NULL,
		num_lines  INTEGER NOT NULL,
		pass_fail  TEXT NOT NULL CHECK (pass_fail IN ('Pass', 'Fail')),
		created_at TEXT DEFAULT to_char(now() AT TIME ZONE 'UTC', 'YYYY-MM-DD HH24:MI:SS'),
		UNIQUE (log_date, student_id)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_daily_logs_student ON daily_logs(student_id);`,
}
