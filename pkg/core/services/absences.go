package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/adelpech/villa-roster/internal/config"
	"github.com/adelpech/villa-roster/pkg/core/model"
	"github.com/adelpech/villa-roster/pkg/core/worktime"
	"github.com/adelpech/villa-roster/pkg/db"
)

// AbsenceServiceStore is the persistence surface of the absence lifecycle and
// its counter synchronizer.
type AbsenceServiceStore interface {
	GetAbsence(ctx context.Context, id string) (*model.Absence, error)
	CreateAbsence(ctx context.Context, a *model.Absence) error
	GetBlockingAbsences(ctx context.Context, userID string, from, to time.Time) ([]model.Absence, error)
	GetLeaveType(ctx context.Context, id string) (*model.LeaveType, error)
	GetCounter(ctx context.Context, userID, leaveTypeID string, year int) (*model.LeaveCounter, error)
	ApplyAbsenceTransition(ctx context.Context, t db.AbsenceTransition) error
}

// CreateAbsence records a pending absence request. Creation is refused when
// the dates are out of order, when another pending or approved absence
// overlaps the window, or when a deducting leave type has insufficient
// remaining balance for the requested working days.
func CreateAbsence(ctx context.Context, store AbsenceServiceStore, logger *zap.Logger, userID, leaveTypeID string, start, end time.Time, comment string) (*model.Absence, error) {
	if !start.Before(end) {
		return nil, model.Refuse("absence start must be before absence end")
	}

	overlapping, err := store.GetBlockingAbsences(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to check overlapping absences: %w", err)
	}
	if len(overlapping) > 0 {
		return nil, model.Refuse("an absence request already covers part of this window")
	}

	leaveType, err := store.GetLeaveType(ctx, leaveTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leave type: %w", err)
	}
	if leaveType == nil {
		return nil, model.Refuse("unknown leave type")
	}

	if leaveType.Deducts {
		for year, days := range workingDaysByYear(start, end) {
			counter, err := store.GetCounter(ctx, userID, leaveTypeID, year)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch leave counter: %w", err)
			}
			if counter.Remaining().LessThan(decimal.NewFromInt(int64(days))) {
				return nil, model.Refuse(fmt.Sprintf(
					"insufficient %s balance for %d: %s days remaining, %d requested",
					leaveType.Label, year, counter.Remaining(), days))
			}
		}
	}

	absence := &model.Absence{
		ID:          uuid.New().String(),
		UserID:      userID,
		LeaveTypeID: leaveTypeID,
		Status:      model.AbsencePending,
		Start:       start,
		End:         end,
		Comment:     comment,
	}
	if err := store.CreateAbsence(ctx, absence); err != nil {
		return nil, fmt.Errorf("failed to create absence: %w", err)
	}

	logger.Info("Absence created",
		zap.String("absence_id", absence.ID),
		zap.String("user_id", userID),
		zap.String("leave_type", leaveType.Code))

	return absence, nil
}

// ApproveAbsence transitions a pending absence to approved and debits the
// leave counters. The counter update rides the same store transaction as the
// status change so a retry can never debit twice. A balance that goes
// negative is logged, not blocked: refusing a validated absence after the
// fact would be worse than a visible negative balance.
func ApproveAbsence(ctx context.Context, store AbsenceServiceStore, cfg *config.Config, logger *zap.Logger, absenceID string) error {
	absence, leaveType, err := loadAbsenceWithType(ctx, store, absenceID)
	if err != nil {
		return err
	}
	if absence.Status != model.AbsencePending {
		return model.Refuse(fmt.Sprintf("only pending absences can be approved, this one is %s", absence.Status))
	}

	transition := db.AbsenceTransition{
		AbsenceID: absence.ID,
		NewStatus: model.AbsenceApproved,
	}
	if leaveType.Deducts {
		transition.Counters, transition.Payroll = counterDeltas(absence, leaveType, cfg, false)
	}

	if err := store.ApplyAbsenceTransition(ctx, transition); err != nil {
		return fmt.Errorf("failed to approve absence: %w", err)
	}

	logger.Info("Absence approved",
		zap.String("absence_id", absence.ID),
		zap.String("user_id", absence.UserID),
		zap.Int("counter_deltas", len(transition.Counters)))

	for _, delta := range transition.Counters {
		counter, err := store.GetCounter(ctx, delta.UserID, delta.LeaveTypeID, delta.Year)
		if err != nil {
			return fmt.Errorf("failed to re-read leave counter: %w", err)
		}
		if counter.Remaining().IsNegative() {
			logger.Warn("Leave counter went negative",
				zap.String("user_id", delta.UserID),
				zap.String("leave_type_id", delta.LeaveTypeID),
				zap.Int("year", delta.Year),
				zap.String("remaining", counter.Remaining().String()))
		}
	}

	return nil
}

// CancelAbsence cancels an absence. Cancelling a previously approved absence
// credits every debited counter back symmetrically, including the payroll
// mirror, in the same transaction as the status change.
func CancelAbsence(ctx context.Context, store AbsenceServiceStore, cfg *config.Config, logger *zap.Logger, absenceID string) error {
	absence, leaveType, err := loadAbsenceWithType(ctx, store, absenceID)
	if err != nil {
		return err
	}
	switch absence.Status {
	case model.AbsencePending, model.AbsenceApproved:
	default:
		return model.Refuse(fmt.Sprintf("a %s absence cannot be cancelled", absence.Status))
	}

	transition := db.AbsenceTransition{
		AbsenceID: absence.ID,
		NewStatus: model.AbsenceCancelled,
	}
	if absence.Status == model.AbsenceApproved && leaveType.Deducts {
		transition.Counters, transition.Payroll = counterDeltas(absence, leaveType, cfg, true)
	}

	if err := store.ApplyAbsenceTransition(ctx, transition); err != nil {
		return fmt.Errorf("failed to cancel absence: %w", err)
	}

	logger.Info("Absence cancelled",
		zap.String("absence_id", absence.ID),
		zap.String("user_id", absence.UserID),
		zap.Int("counter_deltas", len(transition.Counters)))

	return nil
}

// RejectAbsence transitions a pending absence to rejected. Counters are never
// touched: nothing was debited at request time.
func RejectAbsence(ctx context.Context, store AbsenceServiceStore, logger *zap.Logger, absenceID string) error {
	absence, _, err := loadAbsenceWithType(ctx, store, absenceID)
	if err != nil {
		return err
	}
	if absence.Status != model.AbsencePending {
		return model.Refuse(fmt.Sprintf("only pending absences can be rejected, this one is %s", absence.Status))
	}

	if err := store.ApplyAbsenceTransition(ctx, db.AbsenceTransition{
		AbsenceID: absence.ID,
		NewStatus: model.AbsenceRejected,
	}); err != nil {
		return fmt.Errorf("failed to reject absence: %w", err)
	}

	logger.Info("Absence rejected", zap.String("absence_id", absence.ID))
	return nil
}

func loadAbsenceWithType(ctx context.Context, store AbsenceServiceStore, absenceID string) (*model.Absence, *model.LeaveType, error) {
	absence, err := store.GetAbsence(ctx, absenceID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch absence: %w", err)
	}
	if absence == nil {
		return nil, nil, model.Refuse("absence not found")
	}

	leaveType, err := store.GetLeaveType(ctx, absence.LeaveTypeID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch leave type: %w", err)
	}
	if leaveType == nil {
		return nil, nil, model.Refuse("unknown leave type")
	}

	return absence, leaveType, nil
}

// counterDeltas computes the per-year counter adjustments for an absence.
// Order of magnitude: one delta per calendar year the window touches. The
// payroll mirror is only produced for the designated paid-leave code.
func counterDeltas(absence *model.Absence, leaveType *model.LeaveType, cfg *config.Config, credit bool) ([]db.CounterDelta, []db.PayrollDelta) {
	var counters []db.CounterDelta
	var payroll []db.PayrollDelta

	for year, days := range workingDaysByYear(absence.Start, absence.End) {
		delta := decimal.NewFromInt(int64(days))
		if credit {
			delta = delta.Neg()
		}
		counters = append(counters, db.CounterDelta{
			UserID:      absence.UserID,
			LeaveTypeID: absence.LeaveTypeID,
			Year:        year,
			TakenDelta:  delta,
		})
		if leaveType.Code == cfg.Policy.PaidLeaveCode {
			payroll = append(payroll, db.PayrollDelta{
				UserID:     absence.UserID,
				Year:       year,
				TakenDelta: delta,
			})
		}
	}

	return counters, payroll
}

// workingDaysByYear splits an absence window's working-day count per calendar
// year, so multi-year absences debit each year's counter for its own share.
func workingDaysByYear(start, end time.Time) map[int]int {
	result := make(map[int]int)
	for year := start.Year(); year <= end.Year(); year++ {
		from := start
		to := end
		yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		yearEnd := yearStart.AddDate(1, 0, 0)
		if from.Before(yearStart) {
			from = yearStart
		}
		if to.After(yearEnd) {
			to = yearEnd
		}
		if days := worktime.CountWorkingDays(from, to); days > 0 {
			result[year] = days
		}
	}
	return result
}
