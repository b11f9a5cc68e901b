package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/adelpech/villa-roster/internal/config"
	"github.com/adelpech/villa-roster/pkg/core/model"
	"github.com/adelpech/villa-roster/pkg/core/worktime"
)

// Warning is a non-blocking notice returned as data alongside a successful
// result. It is never raised as an error.
type Warning struct {
	Code    string
	Message string
}

// Warning codes produced by the assignment service and validation engine.
const (
	WarnAbsenceOverlap     = "absence-overlap"
	WarnAppointmentOverlap = "appointment-overlap"
	WarnDurationShort      = "duration-short"
	WarnDurationLong       = "duration-long"
	WarnAnnualCeiling      = "annual-ceiling"
)

// AssignStore is the persistence surface of the assignment service.
type AssignStore interface {
	AvailabilityStore
	GetSlot(ctx context.Context, id string) (*model.ShiftSlot, error)
	GetMonthByID(ctx context.Context, id string) (*model.PlanningMonth, error)
	UpdateSlot(ctx context.Context, slot *model.ShiftSlot, expectedVersion int) error
}

// AssignSlot binds a user to a shift slot, re-runs conflict detection and
// persists the slot. The returned warnings list every overlapping absence or
// appointment plus duration outliers; they inform the caller but never block
// the assignment. The hard status decision is the conflict detector's alone.
func AssignSlot(ctx context.Context, store AssignStore, cfg *config.Config, logger *zap.Logger, slotID, userID string) ([]Warning, error) {
	if userID == "" {
		return nil, model.Refuse("user is required")
	}

	slot, err := store.GetSlot(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch slot: %w", err)
	}
	if slot == nil {
		return nil, model.Refuse("slot not found")
	}

	planning, err := store.GetMonthByID(ctx, slot.MonthID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch planning month: %w", err)
	}
	if planning == nil {
		return nil, model.Refuse("planning month not found")
	}
	if planning.Status == model.MonthValidated {
		return nil, model.Refuse("planning month is validated and can no longer be modified")
	}

	slot.UserID = userID

	if _, err := DetectConflicts(ctx, store, logger, slot); err != nil {
		return nil, fmt.Errorf("conflict check failed: %w", err)
	}

	// Warnings come first so a read failure here leaves the slot untouched.
	warnings, err := assignmentWarnings(ctx, store, cfg, logger, slot)
	if err != nil {
		return nil, err
	}

	if err := store.UpdateSlot(ctx, slot, planning.Version); err != nil {
		return nil, fmt.Errorf("failed to persist slot: %w", err)
	}

	logger.Info("Slot assigned",
		zap.String("slot_id", slot.ID),
		zap.String("user_id", userID),
		zap.String("status", string(slot.Status)),
		zap.Int("warnings", len(warnings)))

	return warnings, nil
}

// ResizeSlot rewrites a slot's window and refreshes its cached worked-day
// value. When a user is already assigned the conflict detector runs again on
// the new window.
func ResizeSlot(ctx context.Context, store AssignStore, logger *zap.Logger, slotID string, newStart, newEnd time.Time) error {
	if !newStart.Before(newEnd) {
		return model.Refuse("slot start must be before slot end")
	}

	slot, err := store.GetSlot(ctx, slotID)
	if err != nil {
		return fmt.Errorf("failed to fetch slot: %w", err)
	}
	if slot == nil {
		return model.Refuse("slot not found")
	}

	planning, err := store.GetMonthByID(ctx, slot.MonthID)
	if err != nil {
		return fmt.Errorf("failed to fetch planning month: %w", err)
	}
	if planning == nil {
		return model.Refuse("planning month not found")
	}
	if planning.Status == model.MonthValidated {
		return model.Refuse("planning month is validated and can no longer be modified")
	}

	slot.Start = newStart
	slot.End = newEnd
	slot.WorkedDays = worktime.Days(newStart, newEnd)

	if slot.UserID != "" {
		if _, err := DetectConflicts(ctx, store, logger, slot); err != nil {
			return fmt.Errorf("conflict check failed: %w", err)
		}
	}

	if err := store.UpdateSlot(ctx, slot, planning.Version); err != nil {
		return fmt.Errorf("failed to persist slot: %w", err)
	}

	logger.Info("Slot resized",
		zap.String("slot_id", slot.ID),
		zap.Time("start", newStart),
		zap.Time("end", newEnd))

	return nil
}

// assignmentWarnings reports overlap and duration notices for a freshly
// assigned slot. Overlaps come from the availability resolver independently
// of the state-machine outcome, so the caller sees every hit even when only
// the absence decided the status.
func assignmentWarnings(ctx context.Context, store AvailabilityStore, cfg *config.Config, logger *zap.Logger, slot *model.ShiftSlot) ([]Warning, error) {
	availability, err := ResolveAvailability(ctx, store, logger, slot.UserID, slot.Start, slot.End)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve availability: %w", err)
	}

	var warnings []Warning
	for _, item := range availability.Absences {
		warnings = append(warnings, Warning{
			Code: WarnAbsenceOverlap,
			Message: fmt.Sprintf("%s from %s to %s overlaps this slot",
				item.Label, item.Start.Format(time.RFC3339), item.End.Format(time.RFC3339)),
		})
	}
	for _, item := range availability.Appointments {
		warnings = append(warnings, Warning{
			Code: WarnAppointmentOverlap,
			Message: fmt.Sprintf("appointment %q from %s to %s overlaps this slot",
				item.Label, item.Start.Format(time.RFC3339), item.End.Format(time.RFC3339)),
		})
	}

	hours := slot.Duration().Hours()
	if hours < float64(cfg.Policy.ShortSlotHours) {
		warnings = append(warnings, Warning{
			Code:    WarnDurationShort,
			Message: fmt.Sprintf("slot lasts %.1fh, under the %dh minimum for a counted day", hours, cfg.Policy.ShortSlotHours),
		})
	} else if hours > float64(cfg.Policy.LongSlotHours) {
		warnings = append(warnings, Warning{
			Code:    WarnDurationLong,
			Message: fmt.Sprintf("slot lasts %.1fh, unusually long (over %dh)", hours, cfg.Policy.LongSlotHours),
		})
	}

	return warnings, nil
}
