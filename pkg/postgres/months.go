package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/adelpech/villa-roster/pkg/core/model"
)

// GetMonth retrieves the planning month for a villa/year/month key, or nil
// when none exists.
func (d *DB) GetMonth(ctx context.Context, villaID string, year int, month time.Month) (*model.PlanningMonth, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT id, villa_id, year, month, status, validated_by, validated_at, version
		FROM planning_months
		WHERE villa_id = $1 AND year = $2 AND month = $3
	`, villaID, year, int(month))

	return scanMonth(row)
}

// GetMonthByID retrieves a planning month by primary key, or nil when absent.
func (d *DB) GetMonthByID(ctx context.Context, id string) (*model.PlanningMonth, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT id, villa_id, year, month, status, validated_by, validated_at, version
		FROM planning_months
		WHERE id = $1
	`, id)

	return scanMonth(row)
}

func scanMonth(row pgx.Row) (*model.PlanningMonth, error) {
	var m model.PlanningMonth
	var monthNum int
	var validatedBy *string
	if err := row.Scan(&m.ID, &m.VillaID, &m.Year, &monthNum, &m.Status, &validatedBy, &m.ValidatedAt, &m.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan planning month: %w", err)
	}
	m.Month = time.Month(monthNum)
	if validatedBy != nil {
		m.ValidatedBy = *validatedBy
	}
	return &m, nil
}

// CreateMonth inserts a new planning month.
func (d *DB) CreateMonth(ctx context.Context, m *model.PlanningMonth) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO planning_months (id, villa_id, year, month, status, version)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, m.ID, m.VillaID, m.Year, int(m.Month), m.Status, m.Version)
	if err != nil {
		return fmt.Errorf("failed to insert planning month: %w", err)
	}
	return nil
}

// bumpVersion increments the month's version inside tx, guarding against
// concurrent writers. Zero rows affected means the caller's read is stale.
func bumpVersion(ctx context.Context, tx pgx.Tx, monthID string, expectedVersion int) error {
	tag, err := tx.Exec(ctx, `
		UPDATE planning_months SET version = version + 1
		WHERE id = $1 AND version = $2
	`, monthID, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to bump month version: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrVersionConflict
	}
	return nil
}

// ReplaceSkeletonSlots deletes every skeleton-origin slot of the month and
// inserts the given slots, all in one transaction.
func (d *DB) ReplaceSkeletonSlots(ctx context.Context, monthID string, expectedVersion int, slots []model.ShiftSlot) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := bumpVersion(ctx, tx, monthID, expectedVersion); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM shift_slots WHERE month_id = $1 AND from_skeleton = TRUE
	`, monthID); err != nil {
		return fmt.Errorf("failed to delete skeleton slots: %w", err)
	}

	if err := insertSlotsTx(ctx, tx, slots); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// InsertSlots appends slots to the month in one transaction.
func (d *DB) InsertSlots(ctx context.Context, monthID string, expectedVersion int, slots []model.ShiftSlot) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := bumpVersion(ctx, tx, monthID, expectedVersion); err != nil {
		return err
	}

	if err := insertSlotsTx(ctx, tx, slots); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertSlotsTx(ctx context.Context, tx pgx.Tx, slots []model.ShiftSlot) error {
	for i := range slots {
		s := &slots[i]
		var villaID, userID *string
		if s.VillaID != "" {
			villaID = &s.VillaID
		}
		if s.UserID != "" {
			userID = &s.UserID
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO shift_slots (id, month_id, villa_id, user_id, kind, status, start_at, end_at, from_skeleton, worked_days)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, s.ID, s.MonthID, villaID, userID, s.Kind, s.Status, s.Start, s.End, s.FromSkeleton, s.WorkedDays)
		if err != nil {
			return fmt.Errorf("failed to insert slot %s: %w", s.ID, err)
		}
	}
	return nil
}

// LockMonth transitions the month to validated and promotes its draft slots
// in the same transaction.
func (d *DB) LockMonth(ctx context.Context, monthID, validatedBy string, at time.Time, expectedVersion int) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := bumpVersion(ctx, tx, monthID, expectedVersion); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE planning_months
		SET status = $2, validated_by = $3, validated_at = $4
		WHERE id = $1
	`, monthID, model.MonthValidated, validatedBy, at.UTC()); err != nil {
		return fmt.Errorf("failed to validate planning month: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE shift_slots SET status = $2
		WHERE month_id = $1 AND status = $3
	`, monthID, model.SlotValidated, model.SlotDraft); err != nil {
		return fmt.Errorf("failed to promote draft slots: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
