package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/adelpech/villa-roster/pkg/core/model"
	"github.com/adelpech/villa-roster/pkg/db"
)

// GetLeaveType retrieves one leave type by primary key, or nil when absent.
func (d *DB) GetLeaveType(ctx context.Context, id string) (*model.LeaveType, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT id, code, label, deducts, color FROM leave_types WHERE id = $1
	`, id)

	var lt model.LeaveType
	if err := row.Scan(&lt.ID, &lt.Code, &lt.Label, &lt.Deducts, &lt.Color); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan leave type: %w", err)
	}
	return &lt, nil
}

// GetCounter retrieves one leave counter, or a zero-balance counter when the
// key has not been provisioned yet.
func (d *DB) GetCounter(ctx context.Context, userID, leaveTypeID string, year int) (*model.LeaveCounter, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT user_id, leave_type_id, year, earned, taken
		FROM leave_counters
		WHERE user_id = $1 AND leave_type_id = $2 AND year = $3
	`, userID, leaveTypeID, year)

	var c model.LeaveCounter
	if err := row.Scan(&c.UserID, &c.LeaveTypeID, &c.Year, &c.Earned, &c.Taken); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.LeaveCounter{UserID: userID, LeaveTypeID: leaveTypeID, Year: year}, nil
		}
		return nil, fmt.Errorf("failed to scan leave counter: %w", err)
	}
	return &c, nil
}

// ApplyAbsenceTransition applies an absence status change and its counter
// deltas in one transaction. A retried call after a failure can never debit
// twice because nothing is visible until commit.
func (d *DB) ApplyAbsenceTransition(ctx context.Context, t db.AbsenceTransition) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE absences SET status = $2 WHERE id = $1
	`, t.AbsenceID, t.NewStatus)
	if err != nil {
		return fmt.Errorf("failed to update absence status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("absence %s not found", t.AbsenceID)
	}

	for _, delta := range t.Counters {
		if _, err := tx.Exec(ctx, `
			INSERT INTO leave_counters (user_id, leave_type_id, year, taken)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, leave_type_id, year)
			DO UPDATE SET taken = leave_counters.taken + EXCLUDED.taken
		`, delta.UserID, delta.LeaveTypeID, delta.Year, delta.TakenDelta); err != nil {
			return fmt.Errorf("failed to apply leave counter delta: %w", err)
		}
	}

	for _, delta := range t.Payroll {
		if _, err := tx.Exec(ctx, `
			INSERT INTO payroll_leave_counters (user_id, year, taken)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, year)
			DO UPDATE SET taken = payroll_leave_counters.taken + EXCLUDED.taken
		`, delta.UserID, delta.Year, delta.TakenDelta); err != nil {
			return fmt.Errorf("failed to apply payroll counter delta: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
