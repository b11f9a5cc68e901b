package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/adelpech/villa-roster/internal/config"
	"github.com/adelpech/villa-roster/pkg/core/model"
)

// Error codes produced by the validation engine.
const (
	ErrCoverageGap     = "coverage-gap"
	ErrDoubleBooking   = "double-booking"
	ErrConflictPending = "conflict-pending"
	ErrAnnualCeiling   = "annual-ceiling-exceeded"
)

// MonthValidation is the structured result of a whole-month sweep.
type MonthValidation struct {
	Valid    bool
	Errors   []Warning
	Warnings []Warning
}

// ValidateMonthStore is the read surface of the validation engine.
type ValidateMonthStore interface {
	AvailabilityStore
	GetMonthByID(ctx context.Context, id string) (*model.PlanningMonth, error)
	GetSlotsByMonth(ctx context.Context, monthID string) ([]model.ShiftSlot, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
}

// ValidateMonth runs the plan-wide checks required before a month can be
// locked: coverage continuity per villa, cross-villa double-booking, pending
// replacement conflicts, the annual worked-day ceiling, and aggregated
// absence/appointment overlap warnings.
func ValidateMonth(ctx context.Context, store ValidateMonthStore, cfg *config.Config, logger *zap.Logger, monthID string) (*MonthValidation, error) {
	planning, err := store.GetMonthByID(ctx, monthID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch planning month: %w", err)
	}
	if planning == nil {
		return nil, model.Refuse("planning month not found")
	}

	slots, err := store.GetSlotsByMonth(ctx, monthID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch month slots: %w", err)
	}

	result := &MonthValidation{}

	result.Errors = append(result.Errors, coverageGaps(planning, slots)...)
	result.Errors = append(result.Errors, doubleBookings(slots)...)
	result.Errors = append(result.Errors, pendingConflicts(slots)...)

	ceilingIssues, err := annualCeilingIssues(ctx, store, cfg, planning, slots)
	if err != nil {
		return nil, err
	}
	for _, issue := range ceilingIssues {
		if issue.Code == ErrAnnualCeiling {
			result.Errors = append(result.Errors, issue)
		} else {
			result.Warnings = append(result.Warnings, issue)
		}
	}

	overlapWarnings, err := overlapAggregation(ctx, store, logger, slots)
	if err != nil {
		return nil, err
	}
	result.Warnings = append(result.Warnings, overlapWarnings...)

	result.Valid = len(result.Errors) == 0

	logger.Info("Month validated",
		zap.String("month_id", monthID),
		zap.Bool("valid", result.Valid),
		zap.Int("errors", len(result.Errors)),
		zap.Int("warnings", len(result.Warnings)))

	return result, nil
}

// LockMonthStore adds the mutation needed to lock a validated month.
type LockMonthStore interface {
	ValidateMonthStore
	LockMonth(ctx context.Context, monthID, validatedBy string, at time.Time, expectedVersion int) error
}

// LockMonth validates the month and, when clean, transitions it to validated
// with the validator's identity and timestamp. The store promotes the month's
// draft slots in the same transaction.
func LockMonth(ctx context.Context, store LockMonthStore, cfg *config.Config, logger *zap.Logger, monthID, validatedBy string) (*MonthValidation, error) {
	planning, err := store.GetMonthByID(ctx, monthID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch planning month: %w", err)
	}
	if planning == nil {
		return nil, model.Refuse("planning month not found")
	}
	if planning.Status == model.MonthValidated {
		return nil, model.Refuse("planning month is already validated")
	}

	result, err := ValidateMonth(ctx, store, cfg, logger, monthID)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return result, model.Refuse(fmt.Sprintf("month has %d blocking errors and cannot be locked", len(result.Errors)))
	}

	if err := store.LockMonth(ctx, monthID, validatedBy, time.Now().UTC(), planning.Version); err != nil {
		return nil, fmt.Errorf("failed to lock month: %w", err)
	}

	logger.Info("Month locked",
		zap.String("month_id", monthID),
		zap.String("validated_by", validatedBy))

	return result, nil
}

// interval is a clamped slot window used for gap detection.
type interval struct {
	start, end time.Time
}

// coverageGaps flags every moment of the month where a villa has no active,
// assigned, non-reinforcement coverage. Slot windows are clamped to the month
// and merged; whatever the union misses is a gap.
func coverageGaps(planning *model.PlanningMonth, slots []model.ShiftSlot) []Warning {
	monthStart, monthEnd := planning.Start(), planning.End()

	byVilla := make(map[string][]interval)
	for i := range slots {
		slot := &slots[i]
		if !slot.Kind.IsMain() || slot.UserID == "" || slot.Status.IsConflict() {
			continue
		}
		iv := interval{start: slot.Start, end: slot.End}
		if iv.start.Before(monthStart) {
			iv.start = monthStart
		}
		if iv.end.After(monthEnd) {
			iv.end = monthEnd
		}
		if !iv.start.Before(iv.end) {
			continue
		}
		byVilla[slot.VillaID] = append(byVilla[slot.VillaID], iv)
	}

	villaIDs := make([]string, 0, len(byVilla))
	for id := range byVilla {
		villaIDs = append(villaIDs, id)
	}
	sort.Strings(villaIDs)

	var issues []Warning
	if len(byVilla) == 0 {
		return []Warning{{
			Code:    ErrCoverageGap,
			Message: fmt.Sprintf("villa %s has no assigned main-shift coverage for the whole month", planning.VillaID),
		}}
	}

	for _, villaID := range villaIDs {
		for _, gap := range gapsIn(byVilla[villaID], monthStart, monthEnd) {
			issues = append(issues, Warning{
				Code: ErrCoverageGap,
				Message: fmt.Sprintf("villa %s is uncovered from %s to %s",
					villaID, gap.start.Format(time.RFC3339), gap.end.Format(time.RFC3339)),
			})
		}
	}
	return issues
}

// gapsIn merges intervals and returns the uncovered stretches of [from, to).
func gapsIn(intervals []interval, from, to time.Time) []interval {
	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].start.Before(intervals[j].start)
	})

	var gaps []interval
	cursor := from
	for _, iv := range intervals {
		if iv.start.After(cursor) {
			gaps = append(gaps, interval{start: cursor, end: iv.start})
		}
		if iv.end.After(cursor) {
			cursor = iv.end
		}
	}
	if cursor.Before(to) {
		gaps = append(gaps, interval{start: cursor, end: to})
	}
	return gaps
}

// doubleBookings flags every pair of overlapping main-shift slots assigned to
// the same user. Reinforcements are exempt: they run concurrently with a main
// shift, not instead of it.
func doubleBookings(slots []model.ShiftSlot) []Warning {
	byUser := make(map[string][]*model.ShiftSlot)
	for i := range slots {
		if slots[i].UserID != "" {
			byUser[slots[i].UserID] = append(byUser[slots[i].UserID], &slots[i])
		}
	}

	userIDs := make([]string, 0, len(byUser))
	for id := range byUser {
		userIDs = append(userIDs, id)
	}
	sort.Strings(userIDs)

	var issues []Warning
	for _, userID := range userIDs {
		userSlots := byUser[userID]
		for i := 0; i < len(userSlots); i++ {
			for j := i + 1; j < len(userSlots); j++ {
				a, b := userSlots[i], userSlots[j]
				if a.Kind == model.KindReinforcement || b.Kind == model.KindReinforcement {
					continue
				}
				if a.Overlaps(b.Start, b.End) {
					issues = append(issues, Warning{
						Code: ErrDoubleBooking,
						Message: fmt.Sprintf("user %s is booked on two overlapping main shifts (%s and %s)",
							userID, a.ID, b.ID),
					})
				}
			}
		}
	}
	return issues
}

// pendingConflicts flags slots still awaiting replacement; a month cannot be
// locked while any remain.
func pendingConflicts(slots []model.ShiftSlot) []Warning {
	var issues []Warning
	for i := range slots {
		if slots[i].Status.IsConflict() {
			issues = append(issues, Warning{
				Code: ErrConflictPending,
				Message: fmt.Sprintf("slot %s is awaiting replacement (%s)",
					slots[i].ID, slots[i].Status),
			})
		}
	}
	return issues
}

// annualCeilingIssues checks each staffed user's worked-day total for the
// calendar year against the policy ceiling. Banding: a warning from the
// configured warning threshold, an error above the ceiling itself.
func annualCeilingIssues(ctx context.Context, store ValidateMonthStore, cfg *config.Config, planning *model.PlanningMonth, slots []model.ShiftSlot) ([]Warning, error) {
	users := make(map[string]bool)
	for i := range slots {
		if slots[i].UserID != "" {
			users[slots[i].UserID] = true
		}
	}

	userIDs := make([]string, 0, len(users))
	for id := range users {
		userIDs = append(userIDs, id)
	}
	sort.Strings(userIDs)

	yearStart := time.Date(planning.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := yearStart.AddDate(1, 0, 0)

	var issues []Warning
	for _, userID := range userIDs {
		yearSlots, err := store.GetUserSlots(ctx, userID, yearStart, yearEnd)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch user slots for year: %w", err)
		}

		total := 0
		for i := range yearSlots {
			if !yearSlots[i].Status.IsConflict() {
				total += yearSlots[i].WorkedDays
			}
		}

		switch {
		case total > cfg.Policy.AnnualDayCeiling:
			issues = append(issues, Warning{
				Code: ErrAnnualCeiling,
				Message: fmt.Sprintf("user %s reaches %d worked days in %d, over the %d day ceiling",
					userID, total, planning.Year, cfg.Policy.AnnualDayCeiling),
			})
		case total >= cfg.Policy.AnnualDayWarning:
			issues = append(issues, Warning{
				Code: WarnAnnualCeiling,
				Message: fmt.Sprintf("user %s reaches %d worked days in %d, approaching the %d day ceiling",
					userID, total, planning.Year, cfg.Policy.AnnualDayCeiling),
			})
		}
	}
	return issues, nil
}

// overlapAggregation surfaces every absence or appointment standing against
// an assigned slot as a warning naming the user, the label and the window.
func overlapAggregation(ctx context.Context, store ValidateMonthStore, logger *zap.Logger, slots []model.ShiftSlot) ([]Warning, error) {
	var warnings []Warning
	userNames := make(map[string]string)

	for i := range slots {
		slot := &slots[i]
		if slot.UserID == "" {
			continue
		}

		availability, err := ResolveAvailability(ctx, store, logger, slot.UserID, slot.Start, slot.End)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve availability for slot %s: %w", slot.ID, err)
		}
		if !availability.HasConflicts() {
			continue
		}

		name, ok := userNames[slot.UserID]
		if !ok {
			user, err := store.GetUser(ctx, slot.UserID)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch user: %w", err)
			}
			name = slot.UserID
			if user != nil {
				name = user.FullName()
			}
			userNames[slot.UserID] = name
		}

		for _, item := range availability.Absences {
			warnings = append(warnings, Warning{
				Code: WarnAbsenceOverlap,
				Message: fmt.Sprintf("%s: %s from %s to %s overlaps slot %s",
					name, item.Label, item.Start.Format(time.RFC3339), item.End.Format(time.RFC3339), slot.ID),
			})
		}
		for _, item := range availability.Appointments {
			warnings = append(warnings, Warning{
				Code: WarnAppointmentOverlap,
				Message: fmt.Sprintf("%s: appointment %q from %s to %s overlaps slot %s",
					name, item.Label, item.Start.Format(time.RFC3339), item.End.Format(time.RFC3339), slot.ID),
			})
		}
	}
	return warnings, nil
}
