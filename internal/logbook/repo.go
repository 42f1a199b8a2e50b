package logbook

import (
	"context"
	"database/sql"
	"fmt"

	"hifztracker/internal/apperr"
	"hifztracker/internal/store"
)

// Repository persists daily logs.
type Repository struct {
	db *store.DB
}

// NewRepository creates a repo.
func NewRepository(db *store.DB) *Repository {
	return &Repository{db: db}
}

// SubmitDailyBatch stores rows for logDate in a single transaction and
// returns how many were written. The batch is rejected whole if any row is
// invalid, names an unknown student, or if logDate already has any log.
func (r *Repository) SubmitDailyBatch(ctx context.Context, logDate string, rows []Row) (int, error) {
	if err := ValidateBatch(logDate, rows); err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return 0, r.conflict(logDate, fmt.Errorf("begin: %w", err))
	}
	defer tx.Rollback()

	var existing int
	if err := tx.QueryRowContext(ctx, r.db.Rebind(`SELECT COUNT(*) FROM daily_logs WHERE log_date = ?`), logDate).Scan(&existing); err != nil {
		return 0, r.conflict(logDate, fmt.Errorf("count logs: %w", err))
	}
	if existing > 0 {
		return 0, apperr.DateAlreadyLogged(logDate)
	}

	if err := r.checkStudents(ctx, tx, rows); err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, r.db.Rebind(`
		INSERT INTO daily_logs (log_date, student_id, surah, start_ayah, end_ayah, num_lines, pass_fail)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, logDate, row.StudentID, row.Surah, row.StartAyah, row.EndAyah, row.NumLines, string(row.PassFail)); err != nil {
			return 0, r.conflict(logDate, fmt.Errorf("insert row %d: %w", i, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, r.conflict(logDate, fmt.Errorf("commit: %w", err))
	}
	return len(rows), nil
}

// checkStudents fails with a reference error naming every row whose student
// does not exist.
func (r *Repository) checkStudents(ctx context.Context, tx *sql.Tx, rows []Row) error {
	args := make([]any, 0, len(rows))
	for _, row := range rows {
		args = append(args, row.StudentID)
	}
	query := r.db.Rebind(`SELECT id FROM students WHERE id IN (` + store.Placeholders(len(args)) + `)`)
	res, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return r.conflict("", fmt.Errorf("check students: %w", err))
	}
	defer res.Close()

	known := make(map[int64]bool, len(rows))
	for res.Next() {
		var id int64
		if err := res.Scan(&id); err != nil {
			return err
		}
		known[id] = true
	}
	if err := res.Err(); err != nil {
		return err
	}

	var problems []apperr.Problem
	for i, row := range rows {
		if !known[row.StudentID] {
			problems = append(problems, apperr.Problem{
				Row:     i,
				Field:   "student_id",
				Message: fmt.Sprintf("student %d does not exist", row.StudentID),
			})
		}
	}
	if len(problems) > 0 {
		return apperr.Reference("unknown students", problems...)
	}
	return nil
}

// conflict turns storage constraint and lock failures into a
// ConstraintViolation; other errors pass through unchanged.
func (r *Repository) conflict(logDate string, err error) error {
	if store.IsConstraintViolation(err) || store.IsWriteConflict(err) {
		msg := "concurrent submission rejected"
		if logDate != "" {
			msg = fmt.Sprintf("concurrent submission for %s rejected", logDate)
		}
		return apperr.ConstraintViolation(msg, err)
	}
	return err
}

const entryColumns = `
	dl.id, dl.log_date, dl.student_id, s.name, dl.surah, dl.start_ayah, dl.end_ayah,
	dl.num_lines, dl.pass_fail, COALESCE(dl.created_at, '')
`

// GetLogsForDate returns the logs for one date ordered by student name.
func (r *Repository) GetLogsForDate(ctx context.Context, logDate string) ([]Entry, error) {
	if err := ValidateDate("log_date", logDate); err != nil {
		return nil, err
	}
	return r.queryEntries(ctx, `
		SELECT `+entryColumns+`
		FROM daily_logs dl
		JOIN students s ON s.id = dl.student_id
		WHERE dl.log_date = ?
		ORDER BY s.name ASC
	`, logDate)
}

// GetLogsByDateRange returns logs with start <= log_date <= end, newest date
// first and by student name within a date.
func (r *Repository) GetLogsByDateRange(ctx context.Context, start, end string) ([]Entry, error) {
	if err := ValidateRange(start, end); err != nil {
		return nil, err
	}
	return r.queryEntries(ctx, `
		SELECT `+entryColumns+`
		FROM daily_logs dl
		JOIN students s ON s.id = dl.student_id
		WHERE dl.log_date BETWEEN ? AND ?
		ORDER BY dl.log_date DESC, s.name ASC
	`, start, end)
}

// DateClosed reports whether logDate already has logs.
func (r *Repository) DateClosed(ctx context.Context, logDate string) (bool, error) {
	if err := ValidateDate("log_date", logDate); err != nil {
		return false, err
	}
	var n int
	err := r.db.Client.QueryRowContext(ctx, r.db.Rebind(`SELECT COUNT(*) FROM daily_logs WHERE log_date = ?`), logDate).Scan(&n)
	return n > 0, err
}

func (r *Repository) queryEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := r.db.Client.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var result string
		if err := rows.Scan(&e.ID, &e.LogDate, &e.StudentID, &e.Student, &e.Surah, &e.StartAyah, &e.EndAyah, &e.NumLines, &result, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.PassFail = Result(result)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
