package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"classattend/internal/model"
)

// ErrDuplicateAdmission is returned when a student with the same admission
// number already exists.
var ErrDuplicateAdmission = errors.New("admission number already registered")

// CreateStudent inserts a new student, assigning its id and timestamp.
func (s *Store) CreateStudent(ctx context.Context, st *model.Student) error {
	st.ID = uuid.New().String()
	st.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO students (id, name, admission_number, created_at) VALUES (?, ?, ?, ?)`,
		st.ID, st.Name, st.AdmissionNumber, st.CreatedAt,
	)
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) && sqlErr.Code == sqlite3.ErrConstraint {
		return ErrDuplicateAdmission
	}
	return err
}

// ListStudents returns all students, newest first.
func (s *Store) ListStudents(ctx context.Context) ([]model.Student, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, admission_number, created_at FROM students ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var st model.Student
		if err := rows.Scan(&st.ID, &st.Name, &st.AdmissionNumber, &st.CreatedAt); err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

// GetStudent returns a student by id, or nil when not found.
func (s *Store) GetStudent(ctx context.Context, id string) (*model.Student, error) {
	var st model.Student
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, admission_number, created_at FROM students WHERE id = ?`, id,
	).Scan(&st.ID, &st.Name, &st.AdmissionNumber, &st.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return &st, err
}

// GetStudentByAdmission returns a student by admission number, or nil when not found.
func (s *Store) GetStudentByAdmission(ctx context.Context, admission string) (*model.Student, error) {
	var st model.Student
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, admission_number, created_at FROM students WHERE admission_number = ?`, admission,
	).Scan(&st.ID, &st.Name, &st.AdmissionNumber, &st.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return &st, err
}

// DeleteStudent removes a student; attendance rows cascade.
func (s *Store) DeleteStudent(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM students WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
