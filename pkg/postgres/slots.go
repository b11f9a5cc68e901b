package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/adelpech/villa-roster/pkg/core/model"
)

const slotColumns = `id, month_id, villa_id, user_id, kind, status, start_at, end_at, from_skeleton, worked_days`

// GetSlot retrieves one shift slot by primary key, or nil when absent.
func (d *DB) GetSlot(ctx context.Context, id string) (*model.ShiftSlot, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT `+slotColumns+` FROM shift_slots WHERE id = $1
	`, id)

	s, err := scanSlot(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func scanSlot(row pgx.Row) (*model.ShiftSlot, error) {
	var s model.ShiftSlot
	var villaID, userID *string
	if err := row.Scan(&s.ID, &s.MonthID, &villaID, &userID, &s.Kind, &s.Status, &s.Start, &s.End, &s.FromSkeleton, &s.WorkedDays); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan shift slot: %w", err)
	}
	if villaID != nil {
		s.VillaID = *villaID
	}
	if userID != nil {
		s.UserID = *userID
	}
	return &s, nil
}

// UpdateSlot rewrites every mutable column of a slot inside a transaction
// that bumps the owning month's version, so a concurrent write to the same
// month surfaces as model.ErrVersionConflict instead of a silent overwrite.
func (d *DB) UpdateSlot(ctx context.Context, slot *model.ShiftSlot, expectedVersion int) error {
	var villaID, userID *string
	if slot.VillaID != "" {
		villaID = &slot.VillaID
	}
	if slot.UserID != "" {
		userID = &slot.UserID
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := bumpVersion(ctx, tx, slot.MonthID, expectedVersion); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE shift_slots
		SET villa_id = $2, user_id = $3, kind = $4, status = $5,
		    start_at = $6, end_at = $7, worked_days = $8
		WHERE id = $1
	`, slot.ID, villaID, userID, slot.Kind, slot.Status, slot.Start, slot.End, slot.WorkedDays)
	if err != nil {
		return fmt.Errorf("failed to update shift slot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit slot update: %w", err)
	}
	return nil
}

// GetSlotsByMonth retrieves every slot of a planning month ordered by start.
func (d *DB) GetSlotsByMonth(ctx context.Context, monthID string) ([]model.ShiftSlot, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+slotColumns+` FROM shift_slots
		WHERE month_id = $1
		ORDER BY start_at, id
	`, monthID)
	if err != nil {
		return nil, fmt.Errorf("failed to query month slots: %w", err)
	}
	return collectSlots(rows)
}

// GetUserSlots retrieves the user's slots overlapping [from, to), half-open,
// across all months.
func (d *DB) GetUserSlots(ctx context.Context, userID string, from, to time.Time) ([]model.ShiftSlot, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+slotColumns+` FROM shift_slots
		WHERE user_id = $1 AND start_at < $3 AND end_at > $2
		ORDER BY start_at, id
	`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query user slots: %w", err)
	}
	return collectSlots(rows)
}

// GetSlotsInWindow retrieves every slot overlapping [from, to), half-open.
func (d *DB) GetSlotsInWindow(ctx context.Context, from, to time.Time) ([]model.ShiftSlot, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+slotColumns+` FROM shift_slots
		WHERE start_at < $2 AND end_at > $1
		ORDER BY start_at, id
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query window slots: %w", err)
	}
	return collectSlots(rows)
}

func collectSlots(rows pgx.Rows) ([]model.ShiftSlot, error) {
	defer rows.Close()

	var slots []model.ShiftSlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shift slots: %w", err)
	}
	return slots, nil
}
