package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/adelpech/villa-roster/pkg/core/model"
)

// GetUser retrieves one directory user by primary key, or nil when absent.
func (d *DB) GetUser(ctx context.Context, id string) (*model.User, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, villa_id, active FROM users WHERE id = $1
	`, id)

	var u model.User
	var villaID *string
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &villaID, &u.Active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	if villaID != nil {
		u.VillaID = *villaID
	}
	return &u, nil
}

// GetVilla retrieves one villa by primary key, or nil when absent.
func (d *DB) GetVilla(ctx context.Context, id string) (*model.Villa, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT id, name FROM villas WHERE id = $1
	`, id)

	var v model.Villa
	if err := row.Scan(&v.ID, &v.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan villa: %w", err)
	}
	return &v, nil
}
