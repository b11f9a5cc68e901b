package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/adelpech/villa-roster/pkg/core/model"
	"github.com/adelpech/villa-roster/pkg/core/pattern"
	"github.com/adelpech/villa-roster/pkg/db"
)

// mockStore is an in-memory test double implementing every store interface
// the services need, with half-open window semantics matching the contracts
// in pkg/db.
type mockStore struct {
	months       map[string]*model.PlanningMonth
	slots        map[string]*model.ShiftSlot
	absences     map[string]*model.Absence
	appointments []model.Appointment
	leaveTypes   map[string]*model.LeaveType
	counters     map[string]*model.LeaveCounter
	payroll      map[string]*model.PayrollLeaveCounter
	patterns     map[string]*pattern.Pattern
	users        map[string]*model.User

	replaceErr   error
	insertErr    error
	userSlotsErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		months:     make(map[string]*model.PlanningMonth),
		slots:      make(map[string]*model.ShiftSlot),
		absences:   make(map[string]*model.Absence),
		leaveTypes: make(map[string]*model.LeaveType),
		counters:   make(map[string]*model.LeaveCounter),
		payroll:    make(map[string]*model.PayrollLeaveCounter),
		patterns:   make(map[string]*pattern.Pattern),
		users:      make(map[string]*model.User),
	}
}

func counterKey(userID, leaveTypeID string, year int) string {
	return fmt.Sprintf("%s|%s|%d", userID, leaveTypeID, year)
}

// --- PlanningStore ---

func (m *mockStore) GetMonth(_ context.Context, villaID string, year int, month time.Month) (*model.PlanningMonth, error) {
	for _, pm := range m.months {
		if pm.VillaID == villaID && pm.Year == year && pm.Month == month {
			out := *pm
			return &out, nil
		}
	}
	return nil, nil
}

func (m *mockStore) GetMonthByID(_ context.Context, id string) (*model.PlanningMonth, error) {
	pm, ok := m.months[id]
	if !ok {
		return nil, nil
	}
	out := *pm
	return &out, nil
}

func (m *mockStore) CreateMonth(_ context.Context, pm *model.PlanningMonth) error {
	out := *pm
	m.months[pm.ID] = &out
	return nil
}

func (m *mockStore) ReplaceSkeletonSlots(_ context.Context, monthID string, expectedVersion int, slots []model.ShiftSlot) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	pm, ok := m.months[monthID]
	if !ok {
		return fmt.Errorf("month %s not found", monthID)
	}
	if pm.Version != expectedVersion {
		return model.ErrVersionConflict
	}
	for id, slot := range m.slots {
		if slot.MonthID == monthID && slot.FromSkeleton {
			delete(m.slots, id)
		}
	}
	for i := range slots {
		out := slots[i]
		m.slots[out.ID] = &out
	}
	pm.Version++
	return nil
}

func (m *mockStore) InsertSlots(_ context.Context, monthID string, expectedVersion int, slots []model.ShiftSlot) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	pm, ok := m.months[monthID]
	if !ok {
		return fmt.Errorf("month %s not found", monthID)
	}
	if pm.Version != expectedVersion {
		return model.ErrVersionConflict
	}
	for i := range slots {
		out := slots[i]
		m.slots[out.ID] = &out
	}
	pm.Version++
	return nil
}

func (m *mockStore) LockMonth(_ context.Context, monthID, validatedBy string, at time.Time, expectedVersion int) error {
	pm, ok := m.months[monthID]
	if !ok {
		return fmt.Errorf("month %s not found", monthID)
	}
	if pm.Version != expectedVersion {
		return model.ErrVersionConflict
	}
	pm.Status = model.MonthValidated
	pm.ValidatedBy = validatedBy
	pm.ValidatedAt = &at
	pm.Version++
	for _, slot := range m.slots {
		if slot.MonthID == monthID && slot.Status == model.SlotDraft {
			slot.Status = model.SlotValidated
		}
	}
	return nil
}

// --- SlotStore ---

func (m *mockStore) GetSlot(_ context.Context, id string) (*model.ShiftSlot, error) {
	slot, ok := m.slots[id]
	if !ok {
		return nil, nil
	}
	out := *slot
	return &out, nil
}

func (m *mockStore) UpdateSlot(_ context.Context, slot *model.ShiftSlot, expectedVersion int) error {
	pm, ok := m.months[slot.MonthID]
	if !ok {
		return fmt.Errorf("month %s not found", slot.MonthID)
	}
	if pm.Version != expectedVersion {
		return model.ErrVersionConflict
	}
	out := *slot
	m.slots[slot.ID] = &out
	pm.Version++
	return nil
}

func (m *mockStore) GetSlotsByMonth(_ context.Context, monthID string) ([]model.ShiftSlot, error) {
	var result []model.ShiftSlot
	for _, slot := range m.slots {
		if slot.MonthID == monthID {
			result = append(result, *slot)
		}
	}
	sortSlots(result)
	return result, nil
}

func (m *mockStore) GetUserSlots(_ context.Context, userID string, from, to time.Time) ([]model.ShiftSlot, error) {
	if m.userSlotsErr != nil {
		return nil, m.userSlotsErr
	}
	var result []model.ShiftSlot
	for _, slot := range m.slots {
		if slot.UserID == userID && slot.Overlaps(from, to) {
			result = append(result, *slot)
		}
	}
	sortSlots(result)
	return result, nil
}

func (m *mockStore) GetSlotsInWindow(_ context.Context, from, to time.Time) ([]model.ShiftSlot, error) {
	var result []model.ShiftSlot
	for _, slot := range m.slots {
		if slot.Overlaps(from, to) {
			result = append(result, *slot)
		}
	}
	sortSlots(result)
	return result, nil
}

func sortSlots(slots []model.ShiftSlot) {
	sort.Slice(slots, func(i, j int) bool {
		if !slots[i].Start.Equal(slots[j].Start) {
			return slots[i].Start.Before(slots[j].Start)
		}
		return slots[i].ID < slots[j].ID
	})
}

// --- AbsenceStore ---

func (m *mockStore) GetAbsence(_ context.Context, id string) (*model.Absence, error) {
	a, ok := m.absences[id]
	if !ok {
		return nil, nil
	}
	out := *a
	return &out, nil
}

func (m *mockStore) CreateAbsence(_ context.Context, a *model.Absence) error {
	out := *a
	m.absences[a.ID] = &out
	return nil
}

func (m *mockStore) GetApprovedAbsences(_ context.Context, userID string, from, to time.Time) ([]model.Absence, error) {
	var result []model.Absence
	for _, a := range m.absences {
		if a.UserID == userID && a.Status == model.AbsenceApproved && a.Overlaps(from, to) {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockStore) GetBlockingAbsences(_ context.Context, userID string, from, to time.Time) ([]model.Absence, error) {
	var result []model.Absence
	for _, a := range m.absences {
		if a.UserID != userID || !a.Overlaps(from, to) {
			continue
		}
		if a.Status == model.AbsencePending || a.Status == model.AbsenceApproved {
			result = append(result, *a)
		}
	}
	return result, nil
}

// --- AppointmentStore ---

func (m *mockStore) GetImpactingAppointments(_ context.Context, userID string, from, to time.Time) ([]model.Appointment, error) {
	var result []model.Appointment
	for _, r := range m.appointments {
		if r.ImpactsShift && !r.Cancelled && r.HasParticipant(userID) && r.Overlaps(from, to) {
			result = append(result, r)
		}
	}
	return result, nil
}

// --- CounterStore ---

func (m *mockStore) GetLeaveType(_ context.Context, id string) (*model.LeaveType, error) {
	lt, ok := m.leaveTypes[id]
	if !ok {
		return nil, nil
	}
	out := *lt
	return &out, nil
}

func (m *mockStore) GetCounter(_ context.Context, userID, leaveTypeID string, year int) (*model.LeaveCounter, error) {
	if c, ok := m.counters[counterKey(userID, leaveTypeID, year)]; ok {
		out := *c
		return &out, nil
	}
	return &model.LeaveCounter{UserID: userID, LeaveTypeID: leaveTypeID, Year: year}, nil
}

func (m *mockStore) ApplyAbsenceTransition(_ context.Context, t db.AbsenceTransition) error {
	a, ok := m.absences[t.AbsenceID]
	if !ok {
		return fmt.Errorf("absence %s not found", t.AbsenceID)
	}
	a.Status = t.NewStatus
	for _, delta := range t.Counters {
		key := counterKey(delta.UserID, delta.LeaveTypeID, delta.Year)
		c, ok := m.counters[key]
		if !ok {
			c = &model.LeaveCounter{UserID: delta.UserID, LeaveTypeID: delta.LeaveTypeID, Year: delta.Year}
			m.counters[key] = c
		}
		c.Taken = c.Taken.Add(delta.TakenDelta)
	}
	for _, delta := range t.Payroll {
		key := fmt.Sprintf("%s|%d", delta.UserID, delta.Year)
		p, ok := m.payroll[key]
		if !ok {
			p = &model.PayrollLeaveCounter{UserID: delta.UserID, Year: delta.Year}
			m.payroll[key] = p
		}
		p.Taken = p.Taken.Add(delta.TakenDelta)
	}
	return nil
}

// setCounter seeds an earned balance for tests.
func (m *mockStore) setCounter(userID, leaveTypeID string, year int, earned int64) {
	m.counters[counterKey(userID, leaveTypeID, year)] = &model.LeaveCounter{
		UserID:      userID,
		LeaveTypeID: leaveTypeID,
		Year:        year,
		Earned:      decimal.NewFromInt(earned),
	}
}

// --- PatternStore ---

func (m *mockStore) GetPattern(_ context.Context, id string) (*pattern.Pattern, error) {
	p, ok := m.patterns[id]
	if !ok {
		return nil, nil
	}
	out := *p
	return &out, nil
}

func (m *mockStore) GetPatternByName(_ context.Context, name string) (*pattern.Pattern, error) {
	for _, p := range m.patterns {
		if p.Name == name {
			out := *p
			return &out, nil
		}
	}
	return nil, nil
}

func (m *mockStore) ListPatterns(_ context.Context) ([]pattern.Pattern, error) {
	var result []pattern.Pattern
	for _, p := range m.patterns {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockStore) CreatePattern(_ context.Context, p *pattern.Pattern) error {
	out := *p
	m.patterns[p.ID] = &out
	return nil
}

func (m *mockStore) UpdatePattern(_ context.Context, p *pattern.Pattern) error {
	out := *p
	m.patterns[p.ID] = &out
	return nil
}

func (m *mockStore) DeletePattern(_ context.Context, id string) error {
	delete(m.patterns, id)
	return nil
}

func (m *mockStore) IncrementPatternUsage(_ context.Context, id string) error {
	p, ok := m.patterns[id]
	if !ok {
		return fmt.Errorf("pattern %s not found", id)
	}
	p.UsageCount++
	return nil
}

// --- DirectoryStore ---

func (m *mockStore) GetUser(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (m *mockStore) GetVilla(_ context.Context, id string) (*model.Villa, error) {
	return &model.Villa{ID: id, Name: "Villa " + id}, nil
}
