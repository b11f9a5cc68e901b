package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/adelpech/villa-roster/pkg/core/model"
)

// ConflictStore is the read surface needed by the conflict detector.
type ConflictStore interface {
	GetApprovedAbsences(ctx context.Context, userID string, from, to time.Time) ([]model.Absence, error)
	GetImpactingAppointments(ctx context.Context, userID string, from, to time.Time) ([]model.Appointment, error)
}

// DetectConflicts re-evaluates a slot's status against the assigned user's
// approved absences and shift-impacting appointments. The slot is mutated in
// place; persisting it is the caller's job.
//
// Absence conflicts take strict priority over appointment conflicts. When a
// previous conflict has cleared, only slots still in a conflict status drop
// back to draft: a validated slot is never silently re-validated after a
// conflict, nor demoted when no conflict exists.
func DetectConflicts(ctx context.Context, store ConflictStore, logger *zap.Logger, slot *model.ShiftSlot) (model.ConflictOutcome, error) {
	if slot.UserID == "" {
		return model.OutcomeNone, nil
	}

	outcome := model.OutcomeNone

	absences, err := store.GetApprovedAbsences(ctx, slot.UserID, slot.Start, slot.End)
	if err != nil {
		return model.OutcomeNone, fmt.Errorf("failed to fetch absences: %w", err)
	}

	if len(absences) > 0 {
		outcome = model.OutcomeAbsence
	} else {
		appointments, err := store.GetImpactingAppointments(ctx, slot.UserID, slot.Start, slot.End)
		if err != nil {
			return model.OutcomeNone, fmt.Errorf("failed to fetch appointments: %w", err)
		}
		if len(appointments) > 0 {
			outcome = model.OutcomeAppointment
		}
	}

	previous := slot.Status
	slot.Status = model.NextSlotStatus(slot.Status, outcome)

	if slot.Status != previous {
		logger.Info("Slot status rewritten by conflict check",
			zap.String("slot_id", slot.ID),
			zap.String("user_id", slot.UserID),
			zap.String("from", string(previous)),
			zap.String("to", string(slot.Status)))
	}

	return outcome, nil
}
