package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"classattend/internal/model"
)

const lessonCols = `l.id, l.unit_id, u.name, l.venue, l.duration_min, l.scheduled_start,
	l.scheduled_end, l.start_time, l.end_time, l.lecturer_otp, l.lecturer_present,
	l.otp_enabled, l.created_at`

func scanLesson(row interface{ Scan(...any) error }) (*model.Lesson, error) {
	var l model.Lesson
	var endTime sql.NullTime
	err := row.Scan(&l.ID, &l.UnitID, &l.UnitName, &l.Venue, &l.DurationMin,
		&l.ScheduledStart, &l.ScheduledEnd, &l.StartTime, &endTime,
		&l.LecturerOTP, &l.LecturerPresent, &l.OTPEnabled, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	if endTime.Valid {
		t := endTime.Time
		l.EndTime = &t
	}
	return &l, nil
}

// CreateLesson inserts a new lesson, assigning its id and timestamps.
func (s *Store) CreateLesson(ctx context.Context, l *model.Lesson) error {
	l.ID = uuid.New().String()
	now := time.Now().UTC()
	if l.StartTime.IsZero() {
		l.StartTime = now
	}
	l.CreatedAt = now
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lessons (id, unit_id, venue, duration_min, scheduled_start, scheduled_end,
			start_time, lecturer_otp, lecturer_present, otp_enabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?)`,
		l.ID, l.UnitID, l.Venue, l.DurationMin, l.ScheduledStart, l.ScheduledEnd,
		l.StartTime, l.LecturerOTP, l.CreatedAt,
	)
	return err
}

// ActiveLesson returns the most recently created lesson with created_at on or
// after since, or nil when none qualifies. Recency is the only liveness
// signal; there is no closed state.
func (s *Store) ActiveLesson(ctx context.Context, since time.Time) (*model.Lesson, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+lessonCols+`
		FROM lessons l JOIN units u ON u.id = l.unit_id
		WHERE l.created_at >= ?
		ORDER BY l.created_at DESC
		LIMIT 1`, since)
	l, err := scanLesson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return l, err
}

// ListLessons returns lessons for a unit (or all when unitID is empty), newest first.
func (s *Store) ListLessons(ctx context.Context, unitID string) ([]model.Lesson, error) {
	query := `SELECT ` + lessonCols + ` FROM lessons l JOIN units u ON u.id = l.unit_id`
	args := []any{}
	if unitID != "" {
		query += ` WHERE l.unit_id = ?`
		args = append(args, unitID)
	}
	query += ` ORDER BY l.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lessons []model.Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, *l)
	}
	return lessons, rows.Err()
}

// EnableOTP flips otp_enabled on. The flip is one-way for the life of the lesson.
func (s *Store) EnableOTP(ctx context.Context, lessonID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE lessons SET otp_enabled = 1 WHERE id = ?`, lessonID)
	return err
}

// SetLecturerPresent records a successful lecturer verification.
func (s *Store) SetLecturerPresent(ctx context.Context, lessonID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE lessons SET lecturer_present = 1 WHERE id = ?`, lessonID)
	return err
}

// SetEndTime stamps the lesson's actual end, once.
func (s *Store) SetEndTime(ctx context.Context, lessonID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE lessons SET end_time = ? WHERE id = ? AND end_time IS NULL`, at, lessonID)
	return err
}

// ResetLesson rewinds a lesson for a restart: new lecturer OTP, fresh start
// time, lecturer and end-time state cleared. otp_enabled is left as is.
func (s *Store) ResetLesson(ctx context.Context, lessonID, lecturerOTP string, start time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE lessons
		SET lecturer_otp = ?, start_time = ?, end_time = NULL, lecturer_present = 0
		WHERE id = ?`, lecturerOTP, start, lessonID)
	return err
}
