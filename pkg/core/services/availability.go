package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/adelpech/villa-roster/pkg/core/model"
)

// Calendar rendering colors per availability category. Presentation hints
// only, never part of a business decision.
const (
	colorAbsence     = "#e74c3c"
	colorAppointment = "#f39c12"
)

// AvailabilityItem is one absence or appointment hit, annotated for calendar
// display.
type AvailabilityItem struct {
	Severity string // always "warning"
	Label    string
	Color    string
	Start    time.Time
	End      time.Time
}

// Availability is everything standing against a user over a time window.
type Availability struct {
	Absences     []AvailabilityItem
	Appointments []AvailabilityItem
	// Slots are the user's own shift slots overlapping the window, returned
	// for display; they play no part in conflict priority.
	Slots []model.ShiftSlot
}

// HasConflicts reports whether any absence or appointment overlaps the window.
func (a *Availability) HasConflicts() bool {
	return len(a.Absences) > 0 || len(a.Appointments) > 0
}

// AvailabilityStore is the read surface needed to resolve a user's
// availability. All window queries follow the half-open interval rule
// (existing.start < window.end && existing.end > window.start).
type AvailabilityStore interface {
	GetApprovedAbsences(ctx context.Context, userID string, from, to time.Time) ([]model.Absence, error)
	GetImpactingAppointments(ctx context.Context, userID string, from, to time.Time) ([]model.Appointment, error)
	GetUserSlots(ctx context.Context, userID string, from, to time.Time) ([]model.ShiftSlot, error)
	GetLeaveType(ctx context.Context, id string) (*model.LeaveType, error)
}

// ResolveAvailability collects the approved absences, shift-impacting
// appointments and existing slots of a user over [from, to).
func ResolveAvailability(ctx context.Context, store AvailabilityStore, logger *zap.Logger, userID string, from, to time.Time) (*Availability, error) {
	logger.Debug("Resolving availability",
		zap.String("user_id", userID),
		zap.Time("from", from),
		zap.Time("to", to))

	absences, err := store.GetApprovedAbsences(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch absences: %w", err)
	}

	appointments, err := store.GetImpactingAppointments(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch appointments: %w", err)
	}

	slots, err := store.GetUserSlots(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user slots: %w", err)
	}

	result := &Availability{Slots: slots}

	for _, a := range absences {
		label := "Absence"
		color := colorAbsence
		leaveType, err := store.GetLeaveType(ctx, a.LeaveTypeID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch leave type: %w", err)
		}
		if leaveType != nil {
			label = leaveType.Label
			if leaveType.Color != "" {
				color = leaveType.Color
			}
		}
		result.Absences = append(result.Absences, AvailabilityItem{
			Severity: "warning",
			Label:    label,
			Color:    color,
			Start:    a.Start,
			End:      a.End,
		})
	}

	for _, r := range appointments {
		result.Appointments = append(result.Appointments, AvailabilityItem{
			Severity: "warning",
			Label:    r.Title,
			Color:    colorAppointment,
			Start:    r.Start,
			End:      r.End,
		})
	}

	logger.Debug("Availability resolved",
		zap.Int("absences", len(result.Absences)),
		zap.Int("appointments", len(result.Appointments)),
		zap.Int("slots", len(result.Slots)))

	return result, nil
}
