package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"classattend/internal/model"
)

// CreateUnit inserts a new unit, assigning its id and timestamp.
func (s *Store) CreateUnit(ctx context.Context, u *model.Unit) error {
	u.ID = uuid.New().String()
	u.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO units (id, name, lecturer, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Name, u.Lecturer, u.CreatedAt,
	)
	return err
}

// ListUnits returns all units, newest first.
func (s *Store) ListUnits(ctx context.Context) ([]model.Unit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, lecturer, created_at FROM units ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []model.Unit
	for rows.Next() {
		var u model.Unit
		if err := rows.Scan(&u.ID, &u.Name, &u.Lecturer, &u.CreatedAt); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// GetUnit returns a unit by id, or nil when not found.
func (s *Store) GetUnit(ctx context.Context, id string) (*model.Unit, error) {
	var u model.Unit
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, lecturer, created_at FROM units WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &u.Lecturer, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return &u, err
}

// DeleteUnit removes a unit; its lessons and their attendance rows cascade.
func (s *Store) DeleteUnit(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM units WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
