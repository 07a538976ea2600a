package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"classattend/internal/model"
)

// InsertPending creates a pending attendance row for one student.
func (s *Store) InsertPending(ctx context.Context, rec *model.AttendanceRecord) error {
	rec.ID = uuid.New().String()
	rec.Status = model.StatusPending
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attendance (id, lesson_id, student_id, code, status) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.LessonID, rec.StudentID, rec.Code, rec.Status,
	)
	return err
}

// InsertPendingBatch creates pending rows for a whole roster in one transaction.
func (s *Store) InsertPendingBatch(ctx context.Context, recs []model.AttendanceRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO attendance (id, lesson_id, student_id, code, status) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range recs {
		recs[i].ID = uuid.New().String()
		recs[i].Status = model.StatusPending
		if _, err := stmt.ExecContext(ctx,
			recs[i].ID, recs[i].LessonID, recs[i].StudentID, recs[i].Code, recs[i].Status); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetRecord returns the attendance row for (lesson, student), or nil when absent.
func (s *Store) GetRecord(ctx context.Context, lessonID, studentID string) (*model.AttendanceRecord, error) {
	var rec model.AttendanceRecord
	var markedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, lesson_id, student_id, code, status, marked_at
		FROM attendance WHERE lesson_id = ? AND student_id = ?`,
		lessonID, studentID,
	).Scan(&rec.ID, &rec.LessonID, &rec.StudentID, &rec.Code, &rec.Status, &markedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if markedAt.Valid {
		t := markedAt.Time
		rec.MarkedAt = &t
	}
	return &rec, nil
}

// MarkPresent transitions one row pending->present. The status guard in the
// WHERE clause makes present terminal: a second call affects zero rows.
func (s *Store) MarkPresent(ctx context.Context, recordID string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE attendance SET status = ?, marked_at = ?
		WHERE id = ? AND status = ?`,
		model.StatusPresent, at, recordID, model.StatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SweepAbsent flips every remaining pending row of a lesson to absent and
// returns how many rows changed.
func (s *Store) SweepAbsent(ctx context.Context, lessonID string, at time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE attendance SET status = ?, marked_at = ?
		WHERE lesson_id = ? AND status = ?`,
		model.StatusAbsent, at, lessonID, model.StatusPending)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ClearLesson deletes every attendance row of a lesson (session restart).
func (s *Store) ClearLesson(ctx context.Context, lessonID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM attendance WHERE lesson_id = ?`, lessonID)
	return err
}

// ListByLesson returns a lesson's roster with student details joined.
func (s *Store) ListByLesson(ctx context.Context, lessonID string) ([]model.AttendanceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.lesson_id, a.student_id, s.name, s.admission_number, a.code, a.status, a.marked_at
		FROM attendance a JOIN students s ON s.id = a.student_id
		WHERE a.lesson_id = ?
		ORDER BY s.admission_number`, lessonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

// StudentHistory returns a student's attendance rows across lessons, newest first.
func (s *Store) StudentHistory(ctx context.Context, studentID string) ([]model.AttendanceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.lesson_id, a.student_id, s.name, s.admission_number, a.code, a.status, a.marked_at
		FROM attendance a
		JOIN students s ON s.id = a.student_id
		JOIN lessons  l ON l.id = a.lesson_id
		WHERE a.student_id = ?
		ORDER BY l.created_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func collectRecords(rows *sql.Rows) ([]model.AttendanceRecord, error) {
	var recs []model.AttendanceRecord
	for rows.Next() {
		var rec model.AttendanceRecord
		var markedAt sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.LessonID, &rec.StudentID, &rec.StudentName,
			&rec.AdmissionNumber, &rec.Code, &rec.Status, &markedAt); err != nil {
			return nil, err
		}
		if markedAt.Valid {
			t := markedAt.Time
			rec.MarkedAt = &t
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
