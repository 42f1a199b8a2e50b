// Package roster owns the set of students. Names are unique and
// case-sensitive; deleting a student cascades to their daily logs.
package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"hifztracker/internal/apperr"
	"hifztracker/internal/store"
)

// Student is a registered student.
type Student struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Repository persists students.
type Repository struct {
	db *store.DB
}

// NewRepository creates a repo.
func NewRepository(db *store.DB) *Repository {
	return &Repository{db: db}
}

// AddStudent inserts name unless a student with that exact name exists.
// Adding an existing name is not an error; the stored student is returned
// with created set to false.
func (r *Repository) AddStudent(ctx context.Context, name string) (Student, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Student{}, false, apperr.Validation("student name required",
			apperr.Problem{Row: -1, Field: "name", Message: "must not be empty"})
	}

	// default isolation; ON CONFLICT keeps concurrent adds of one name idempotent
	tx, err := r.db.Client.BeginTx(ctx, nil)
	if err != nil {
		return Student{}, false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO students (name)
		VALUES (?)
		ON CONFLICT (name) DO NOTHING
	`), name)
	if err != nil {
		return Student{}, false, fmt.Errorf("insert student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Student{}, false, err
	}

	var st Student
	row := tx.QueryRowContext(ctx, r.db.Rebind(`SELECT id, name FROM students WHERE name = ?`), name)
	if err := row.Scan(&st.ID, &st.Name); err != nil {
		return Student{}, false, fmt.Errorf("load student: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Student{}, false, fmt.Errorf("commit: %w", err)
	}
	return st, affected > 0, nil
}

// ListStudents returns all students ordered by name. The result is empty,
// not nil, when there are none.
func (r *Repository) ListStudents(ctx context.Context) ([]Student, error) {
	rows, err := r.db.Client.QueryContext(ctx, `SELECT id, name FROM students ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := []Student{}
	for rows.Next() {
		var st Student
		if err := rows.Scan(&st.ID, &st.Name); err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

// GetStudent returns a single student, or nil when id is unknown.
func (r *Repository) GetStudent(ctx context.Context, id int64) (*Student, error) {
	var st Student
	row := r.db.Client.QueryRowContext(ctx, r.db.Rebind(`SELECT id, name FROM students WHERE id = ?`), id)
	if err := row.Scan(&st.ID, &st.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &st, nil
}

// DeleteStudent removes the student and all of their logs. Deleting an
// unknown id is a no-op.
func (r *Repository) DeleteStudent(ctx context.Context, id int64) error {
	_, err := r.db.Client.ExecContext(ctx, r.db.Rebind(`DELETE FROM students WHERE id = ?`), id)
	return err
}
