package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/adelpech/villa-roster/pkg/core/model"
)

const absenceColumns = `id, user_id, leave_type_id, status, start_at, end_at, comment`

// GetAbsence retrieves one absence by primary key, or nil when absent.
func (d *DB) GetAbsence(ctx context.Context, id string) (*model.Absence, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT `+absenceColumns+` FROM absences WHERE id = $1
	`, id)

	var a model.Absence
	if err := row.Scan(&a.ID, &a.UserID, &a.LeaveTypeID, &a.Status, &a.Start, &a.End, &a.Comment); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan absence: %w", err)
	}
	return &a, nil
}

// CreateAbsence inserts a new absence record.
func (d *DB) CreateAbsence(ctx context.Context, a *model.Absence) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO absences (id, user_id, leave_type_id, status, start_at, end_at, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, a.ID, a.UserID, a.LeaveTypeID, a.Status, a.Start, a.End, a.Comment)
	if err != nil {
		return fmt.Errorf("failed to insert absence: %w", err)
	}
	return nil
}

// GetApprovedAbsences retrieves the user's approved absences overlapping
// [from, to), half-open.
func (d *DB) GetApprovedAbsences(ctx context.Context, userID string, from, to time.Time) ([]model.Absence, error) {
	return d.queryAbsences(ctx, `
		SELECT `+absenceColumns+` FROM absences
		WHERE user_id = $1 AND status = 'approved' AND start_at < $3 AND end_at > $2
		ORDER BY start_at
	`, userID, from, to)
}

// GetBlockingAbsences retrieves the user's pending and approved absences
// overlapping [from, to), half-open.
func (d *DB) GetBlockingAbsences(ctx context.Context, userID string, from, to time.Time) ([]model.Absence, error) {
	return d.queryAbsences(ctx, `
		SELECT `+absenceColumns+` FROM absences
		WHERE user_id = $1 AND status IN ('pending', 'approved') AND start_at < $3 AND end_at > $2
		ORDER BY start_at
	`, userID, from, to)
}

func (d *DB) queryAbsences(ctx context.Context, sql string, args ...any) ([]model.Absence, error) {
	rows, err := d.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query absences: %w", err)
	}
	defer rows.Close()

	var absences []model.Absence
	for rows.Next() {
		var a model.Absence
		if err := rows.Scan(&a.ID, &a.UserID, &a.LeaveTypeID, &a.Status, &a.Start, &a.End, &a.Comment); err != nil {
			return nil, fmt.Errorf("failed to scan absence: %w", err)
		}
		absences = append(absences, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating absences: %w", err)
	}
	return absences, nil
}
