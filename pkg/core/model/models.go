package model

import "time"

// SlotKind identifies the coverage category of a shift slot.
type SlotKind string

const (
	KindMain24        SlotKind = "main-24h"
	KindMain48        SlotKind = "main-48h"
	KindReinforcement SlotKind = "reinforcement"
)

func (k SlotKind) IsValid() bool {
	return k == KindMain24 || k == KindMain48 || k == KindReinforcement
}

// IsMain reports whether the kind is one of the two primary coverage kinds,
// which must always be tied to a villa.
func (k SlotKind) IsMain() bool {
	return k == KindMain24 || k == KindMain48
}

// NominalHours returns the expected duration for the declared kind, or 0 when
// the kind has no nominal duration (reinforcements are free-form).
func (k SlotKind) NominalHours() int {
	switch k {
	case KindMain24:
		return 24
	case KindMain48:
		return 48
	default:
		return 0
	}
}

// SlotStatus is the lifecycle state of a shift slot.
type SlotStatus string

const (
	SlotDraft              SlotStatus = "draft"
	SlotValidated          SlotStatus = "validated"
	SlotReplaceAbsence     SlotStatus = "to-replace-absence"
	SlotReplaceAppointment SlotStatus = "to-replace-appointment"
)

func (s SlotStatus) IsValid() bool {
	switch s {
	case SlotDraft, SlotValidated, SlotReplaceAbsence, SlotReplaceAppointment:
		return true
	}
	return false
}

// IsConflict reports whether the status marks an unresolved staffing conflict.
func (s SlotStatus) IsConflict() bool {
	return s == SlotReplaceAbsence || s == SlotReplaceAppointment
}

// MonthStatus is the lifecycle state of a planning month.
type MonthStatus string

const (
	MonthDraft     MonthStatus = "draft"
	MonthValidated MonthStatus = "validated"
)

func (s MonthStatus) IsValid() bool {
	return s == MonthDraft || s == MonthValidated
}

// AbsenceStatus is the lifecycle state of an absence request.
type AbsenceStatus string

const (
	AbsencePending   AbsenceStatus = "pending"
	AbsenceApproved  AbsenceStatus = "approved"
	AbsenceRejected  AbsenceStatus = "rejected"
	AbsenceCancelled AbsenceStatus = "cancelled"
)

func (s AbsenceStatus) IsValid() bool {
	switch s {
	case AbsencePending, AbsenceApproved, AbsenceRejected, AbsenceCancelled:
		return true
	}
	return false
}

// PlanningMonth identifies one villa/year/month roster and owns its slots.
type PlanningMonth struct {
	ID          string
	VillaID     string
	Year        int
	Month       time.Month
	Status      MonthStatus
	ValidatedBy string // empty until validated
	ValidatedAt *time.Time
	Version     int // bumped on every mutating transaction
}

// Start returns the first instant of the month in UTC.
func (m *PlanningMonth) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first instant of the following month in UTC.
func (m *PlanningMonth) End() time.Time {
	return m.Start().AddDate(0, 1, 0)
}

// ShiftSlot is one scheduled coverage window, optionally assigned to a user.
type ShiftSlot struct {
	ID           string
	MonthID      string
	VillaID      string // required for main kinds, optional for reinforcements
	UserID       string // empty when unassigned
	Kind         SlotKind
	Status       SlotStatus
	Start        time.Time
	End          time.Time
	FromSkeleton bool
	WorkedDays   int // cached, see worktime.Days
}

// Duration returns the slot's length.
func (s *ShiftSlot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Overlaps applies the half-open interval rule against [start, end).
func (s *ShiftSlot) Overlaps(start, end time.Time) bool {
	return s.Start.Before(end) && s.End.After(start)
}

// LeaveType categorizes absences. Deducts marks types whose approved days are
// debited from the yearly leave counter.
type LeaveType struct {
	ID      string
	Code    string
	Label   string
	Deducts bool
	Color   string // calendar rendering hint
}

// Absence is a user's leave request over [Start, End).
type Absence struct {
	ID          string
	UserID      string
	LeaveTypeID string
	Status      AbsenceStatus
	Start       time.Time
	End         time.Time
	Comment     string
}

func (a *Absence) Overlaps(start, end time.Time) bool {
	return a.Start.Before(end) && a.End.After(start)
}

// Appointment is a calendar event with one or more participants. Only
// appointments with ImpactsShift set participate in conflict detection.
type Appointment struct {
	ID             string
	Title          string
	Start          time.Time
	End            time.Time
	ImpactsShift   bool
	Cancelled      bool
	ParticipantIDs []string
}

func (r *Appointment) Overlaps(start, end time.Time) bool {
	return r.Start.Before(end) && r.End.After(start)
}

// HasParticipant reports whether the user is among the appointment's participants.
func (r *Appointment) HasParticipant(userID string) bool {
	for _, id := range r.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// User is a directory record for an educator.
type User struct {
	ID        string
	FirstName string
	LastName  string
	VillaID   string
	Active    bool
}

// FullName returns the display name used in reports and warnings.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Villa is a housing-unit directory record.
type Villa struct {
	ID   string
	Name string
}
