package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adelpech/villa-roster/pkg/core/model"
)

func day(d, h int) time.Time {
	return time.Date(2025, time.March, d, h, 0, 0, 0, time.UTC)
}

func TestDetectConflicts_AbsenceTakesPriorityOverAppointment(t *testing.T) {
	store := newMockStore()
	store.leaveTypes["lt-cp"] = &model.LeaveType{ID: "lt-cp", Code: "CP", Label: "Conges payes", Deducts: true}
	store.absences["abs-1"] = &model.Absence{
		ID: "abs-1", UserID: "u1", LeaveTypeID: "lt-cp",
		Status: model.AbsenceApproved, Start: day(3, 0), End: day(6, 0),
	}
	store.appointments = append(store.appointments, model.Appointment{
		ID: "rdv-1", Title: "Formation", ImpactsShift: true,
		Start: day(3, 0), End: day(6, 0), ParticipantIDs: []string{"u1"},
	})

	slot := &model.ShiftSlot{ID: "s1", UserID: "u1", Status: model.SlotDraft, Start: day(3, 7), End: day(5, 7)}

	outcome, err := DetectConflicts(context.Background(), store, zap.NewNop(), slot)
	require.NoError(t, err)

	assert.Equal(t, model.OutcomeAbsence, outcome)
	assert.Equal(t, model.SlotReplaceAbsence, slot.Status)
}

func TestDetectConflicts_AppointmentWhenNoAbsence(t *testing.T) {
	store := newMockStore()
	store.appointments = append(store.appointments, model.Appointment{
		ID: "rdv-1", Title: "Supervision", ImpactsShift: true,
		Start: day(3, 10), End: day(3, 12), ParticipantIDs: []string{"u1"},
	})

	slot := &model.ShiftSlot{ID: "s1", UserID: "u1", Status: model.SlotDraft, Start: day(3, 7), End: day(4, 7)}

	outcome, err := DetectConflicts(context.Background(), store, zap.NewNop(), slot)
	require.NoError(t, err)

	assert.Equal(t, model.OutcomeAppointment, outcome)
	assert.Equal(t, model.SlotReplaceAppointment, slot.Status)
}

func TestDetectConflicts_IgnoresNonImpactingAndCancelledAppointments(t *testing.T) {
	store := newMockStore()
	store.appointments = append(store.appointments,
		model.Appointment{ID: "rdv-1", Title: "Pot de depart", ImpactsShift: false,
			Start: day(3, 10), End: day(3, 12), ParticipantIDs: []string{"u1"}},
		model.Appointment{ID: "rdv-2", Title: "Formation", ImpactsShift: true, Cancelled: true,
			Start: day(3, 10), End: day(3, 12), ParticipantIDs: []string{"u1"}},
	)

	slot := &model.ShiftSlot{ID: "s1", UserID: "u1", Status: model.SlotDraft, Start: day(3, 7), End: day(4, 7)}

	outcome, err := DetectConflicts(context.Background(), store, zap.NewNop(), slot)
	require.NoError(t, err)

	assert.Equal(t, model.OutcomeNone, outcome)
	assert.Equal(t, model.SlotDraft, slot.Status)
}

func TestDetectConflicts_ResolutionResetsOnlyConflictStates(t *testing.T) {
	tests := []struct {
		name     string
		current  model.SlotStatus
		expected model.SlotStatus
	}{
		{"conflicted slot drops back to draft", model.SlotReplaceAppointment, model.SlotDraft},
		{"absence-conflicted slot drops back to draft", model.SlotReplaceAbsence, model.SlotDraft},
		{"validated slot is never touched", model.SlotValidated, model.SlotValidated},
		{"draft slot stays draft", model.SlotDraft, model.SlotDraft},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStore() // no absences, no appointments
			slot := &model.ShiftSlot{ID: "s1", UserID: "u1", Status: tt.current, Start: day(3, 7), End: day(4, 7)}

			outcome, err := DetectConflicts(context.Background(), store, zap.NewNop(), slot)
			require.NoError(t, err)

			assert.Equal(t, model.OutcomeNone, outcome)
			assert.Equal(t, tt.expected, slot.Status)
		})
	}
}

func TestDetectConflicts_UnassignedSlotIsNoOp(t *testing.T) {
	store := newMockStore()
	slot := &model.ShiftSlot{ID: "s1", Status: model.SlotReplaceAbsence, Start: day(3, 7), End: day(4, 7)}

	outcome, err := DetectConflicts(context.Background(), store, zap.NewNop(), slot)
	require.NoError(t, err)

	assert.Equal(t, model.OutcomeNone, outcome)
	assert.Equal(t, model.SlotReplaceAbsence, slot.Status, "unassigned slots are left alone")
}
