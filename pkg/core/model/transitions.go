package model

// ConflictOutcome is the result of re-evaluating a slot against the assigned
// user's absences and appointments.
type ConflictOutcome int

const (
	// OutcomeNone means no absence or appointment overlaps the slot window.
	OutcomeNone ConflictOutcome = iota
	// OutcomeAbsence means at least one approved absence overlaps. Absence
	// conflicts take strict priority over appointment conflicts.
	OutcomeAbsence
	// OutcomeAppointment means at least one shift-impacting, non-cancelled
	// appointment overlaps and no absence does.
	OutcomeAppointment
)

// slotTransitions is the exhaustive status transition table for conflict
// detection. A missing entry means the status is left untouched: resolving a
// conflict never silently re-validates a slot, so a validated slot stays
// validated when OutcomeNone is observed.
var slotTransitions = map[SlotStatus]map[ConflictOutcome]SlotStatus{
	SlotDraft: {
		OutcomeAbsence:     SlotReplaceAbsence,
		OutcomeAppointment: SlotReplaceAppointment,
	},
	SlotValidated: {
		OutcomeAbsence:     SlotReplaceAbsence,
		OutcomeAppointment: SlotReplaceAppointment,
	},
	SlotReplaceAbsence: {
		OutcomeAbsence:     SlotReplaceAbsence,
		OutcomeAppointment: SlotReplaceAppointment,
		OutcomeNone:        SlotDraft,
	},
	SlotReplaceAppointment: {
		OutcomeAbsence:     SlotReplaceAbsence,
		OutcomeAppointment: SlotReplaceAppointment,
		OutcomeNone:        SlotDraft,
	},
}

// NextSlotStatus resolves the status a slot should carry after a conflict
// check. It returns the current status unchanged when the table has no entry.
func NextSlotStatus(current SlotStatus, outcome ConflictOutcome) SlotStatus {
	if byOutcome, ok := slotTransitions[current]; ok {
		if next, ok := byOutcome[outcome]; ok {
			return next
		}
	}
	return current
}
