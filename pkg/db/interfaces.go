// Package db defines the persistence contracts consumed by the core
// services. Services declare the narrow slice of methods they need; the
// combined Store interface is what a backend such as pkg/postgres implements.
package db

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/adelpech/villa-roster/pkg/core/model"
	"github.com/adelpech/villa-roster/pkg/core/pattern"
)

// PlanningStore covers planning-month lifecycle operations. Mutating methods
// take the version the caller read; implementations must fail with
// model.ErrVersionConflict when the stored version differs.
type PlanningStore interface {
	// GetMonth returns the month for a villa/year/month key, or nil when none exists.
	GetMonth(ctx context.Context, villaID string, year int, month time.Month) (*model.PlanningMonth, error)
	GetMonthByID(ctx context.Context, id string) (*model.PlanningMonth, error)
	CreateMonth(ctx context.Context, m *model.PlanningMonth) error

	// ReplaceSkeletonSlots deletes every skeleton-origin slot of the month and
	// inserts the given slots in a single transaction, bumping the version.
	ReplaceSkeletonSlots(ctx context.Context, monthID string, expectedVersion int, slots []model.ShiftSlot) error

	// InsertSlots appends slots to the month in a single transaction, bumping
	// the version.
	InsertSlots(ctx context.Context, monthID string, expectedVersion int, slots []model.ShiftSlot) error

	// LockMonth transitions the month to validated, records the validator and
	// timestamp, and promotes the month's draft slots to validated, all in one
	// transaction.
	LockMonth(ctx context.Context, monthID, validatedBy string, at time.Time, expectedVersion int) error
}

// SlotStore covers individual shift-slot reads and writes.
type SlotStore interface {
	GetSlot(ctx context.Context, id string) (*model.ShiftSlot, error)

	// UpdateSlot rewrites one slot and bumps its month's version, failing
	// with model.ErrVersionConflict when the stored version differs from
	// expectedVersion. Two concurrent assignments to the same slot therefore
	// cannot both succeed.
	UpdateSlot(ctx context.Context, slot *model.ShiftSlot, expectedVersion int) error
	GetSlotsByMonth(ctx context.Context, monthID string) ([]model.ShiftSlot, error)

	// GetUserSlots returns the user's slots overlapping [from, to) across all
	// months, using the half-open interval rule.
	GetUserSlots(ctx context.Context, userID string, from, to time.Time) ([]model.ShiftSlot, error)

	// GetSlotsInWindow returns every slot overlapping [from, to) regardless of
	// user or villa.
	GetSlotsInWindow(ctx context.Context, from, to time.Time) ([]model.ShiftSlot, error)
}

// AbsenceStore covers absence reads and creation. Status transitions go
// through CounterStore.ApplyAbsenceTransition so counters stay consistent.
type AbsenceStore interface {
	GetAbsence(ctx context.Context, id string) (*model.Absence, error)
	CreateAbsence(ctx context.Context, a *model.Absence) error

	// GetApprovedAbsences returns the user's approved absences overlapping
	// [from, to), half-open.
	GetApprovedAbsences(ctx context.Context, userID string, from, to time.Time) ([]model.Absence, error)

	// GetBlockingAbsences returns the user's pending and approved absences
	// overlapping [from, to), used to refuse overlapping requests.
	GetBlockingAbsences(ctx context.Context, userID string, from, to time.Time) ([]model.Absence, error)
}

// AppointmentStore covers appointment reads.
type AppointmentStore interface {
	// GetImpactingAppointments returns non-cancelled, shift-impacting
	// appointments where the user participates, overlapping [from, to).
	GetImpactingAppointments(ctx context.Context, userID string, from, to time.Time) ([]model.Appointment, error)
}

// CounterDelta adjusts one (user, leave-type, year) counter's taken total.
type CounterDelta struct {
	UserID      string
	LeaveTypeID string
	Year        int
	TakenDelta  decimal.Decimal
}

// PayrollDelta adjusts one user's payroll paid-leave counter for a year.
type PayrollDelta struct {
	UserID     string
	Year       int
	TakenDelta decimal.Decimal
}

// AbsenceTransition bundles an absence status change with the counter
// adjustments it triggers. Implementations apply everything in a single
// transaction to avoid double-crediting or debiting.
type AbsenceTransition struct {
	AbsenceID string
	NewStatus model.AbsenceStatus
	Counters  []CounterDelta
	Payroll   []PayrollDelta
}

// CounterStore covers leave-counter state and the atomic absence transition.
type CounterStore interface {
	GetLeaveType(ctx context.Context, id string) (*model.LeaveType, error)

	// GetCounter returns the counter for the key, or a zero-balance counter
	// when none has been provisioned yet.
	GetCounter(ctx context.Context, userID, leaveTypeID string, year int) (*model.LeaveCounter, error)

	ApplyAbsenceTransition(ctx context.Context, t AbsenceTransition) error
}

// PatternStore covers reusable-pattern CRUD.
type PatternStore interface {
	GetPattern(ctx context.Context, id string) (*pattern.Pattern, error)
	// GetPatternByName matches names case-sensitively; returns nil when absent.
	GetPatternByName(ctx context.Context, name string) (*pattern.Pattern, error)
	ListPatterns(ctx context.Context) ([]pattern.Pattern, error)
	CreatePattern(ctx context.Context, p *pattern.Pattern) error
	UpdatePattern(ctx context.Context, p *pattern.Pattern) error
	DeletePattern(ctx context.Context, id string) error
	IncrementPatternUsage(ctx context.Context, id string) error
}

// DirectoryStore covers the read-only user and villa directories.
type DirectoryStore interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetVilla(ctx context.Context, id string) (*model.Villa, error)
}

// Store is the full persistence surface implemented by a backend.
type Store interface {
	PlanningStore
	SlotStore
	AbsenceStore
	AppointmentStore
	CounterStore
	PatternStore
	DirectoryStore
}
