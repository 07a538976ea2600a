package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the embedded SQLite database.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the database at dbPath and runs migrations.
// Foreign keys are enabled so deletes cascade through lessons and attendance.
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS students (
		id                TEXT PRIMARY KEY,
		name              TEXT NOT NULL,
		admission_number  TEXT UNIQUE NOT NULL,
		created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS units (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		lecturer    TEXT NOT NULL DEFAULT '',
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS lessons (
		id                TEXT PRIMARY KEY,
		unit_id           TEXT NOT NULL REFERENCES units(id) ON DELETE CASCADE,
		venue             TEXT NOT NULL DEFAULT '',
		duration_min      INTEGER NOT NULL DEFAULT 0,
		scheduled_start   TEXT NOT NULL DEFAULT '',
		scheduled_end     TEXT NOT NULL DEFAULT '',
		start_time        DATETIME NOT NULL,
		end_time          DATETIME,
		lecturer_otp      TEXT NOT NULL,
		lecturer_present  INTEGER NOT NULL DEFAULT 0,
		otp_enabled       INTEGER NOT NULL DEFAULT 0,
		created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS attendance (
		id          TEXT PRIMARY KEY,
		lesson_id   TEXT NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
		student_id  TEXT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
		code        TEXT NOT NULL,
		status      TEXT NOT NULL DEFAULT 'pending',
		marked_at   DATETIME,
		UNIQUE(lesson_id, student_id)
	);

	CREATE TABLE IF NOT EXISTS settings (
		key    TEXT PRIMARY KEY,
		value  TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_lessons_created     ON lessons(created_at);
	CREATE INDEX IF NOT EXISTS idx_attendance_lesson   ON attendance(lesson_id);
	CREATE INDEX IF NOT EXISTS idx_attendance_student  ON attendance(student_id);
	`
	_, err := db.Exec(schema)
	return err
}

// Close closes the underlying connection.
func (s *Store) Close() error { return s.db.Close() }
