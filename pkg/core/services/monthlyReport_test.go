package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adelpech/villa-roster/pkg/core/model"
	"github.com/adelpech/villa-roster/pkg/core/worktime"
)

func seedCountedSlot(store *mockStore, id, userID string, kind model.SlotKind, start, end time.Time) {
	store.slots[id] = &model.ShiftSlot{
		ID: id, MonthID: "m1", VillaID: "villa-1", UserID: userID,
		Kind: kind, Status: model.SlotValidated,
		Start: start, End: end,
		WorkedDays: worktime.Days(start, end),
	}
}

func TestCalculateWorkedDays_BucketsByKind(t *testing.T) {
	store := newMockStore()
	seedCountedSlot(store, "s1", "u1", model.KindMain48, day(3, 7), day(5, 7))
	seedCountedSlot(store, "s2", "u1", model.KindMain24, day(5, 7), day(6, 7))
	seedCountedSlot(store, "s3", "u1", model.KindReinforcement, day(8, 10), day(8, 18))

	summary, err := CalculateWorkedDays(context.Background(), store, "u1",
		day(1, 0), time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 3, summary.MainShift.Days)
	assert.Equal(t, 72, summary.MainShift.Hours)
	assert.Equal(t, 1, summary.Reinforcement.Days)
	assert.Equal(t, 8, summary.Reinforcement.Hours)
	assert.Equal(t, 4, summary.Total().Days)
	assert.Equal(t, 80, summary.Total().Hours)
}

func TestMonthlyReport_SortedRowsAndGrandTotals(t *testing.T) {
	store := newMockStore()
	store.users["u1"] = &model.User{ID: "u1", FirstName: "Zoe", LastName: "Petit"}
	store.users["u2"] = &model.User{ID: "u2", FirstName: "Anna", LastName: "Morel"}
	seedCountedSlot(store, "s1", "u1", model.KindMain48, day(3, 7), day(5, 7))
	seedCountedSlot(store, "s2", "u2", model.KindMain24, day(5, 7), day(6, 7))
	seedCountedSlot(store, "s3", "u2", model.KindReinforcement, day(8, 10), day(8, 18))

	report, err := MonthlyReport(context.Background(), store, zap.NewNop(), 2025, time.March)
	require.NoError(t, err)

	require.Len(t, report.Rows, 2)
	assert.Equal(t, "Anna Morel", report.Rows[0].UserName)
	assert.Equal(t, "Zoe Petit", report.Rows[1].UserName)

	assert.Equal(t, 1, report.Rows[0].Summary.MainShift.Days)
	assert.Equal(t, 1, report.Rows[0].Summary.Reinforcement.Days)
	assert.Equal(t, 2, report.Rows[1].Summary.MainShift.Days)

	assert.Equal(t, 3, report.Totals.MainShift.Days)
	assert.Equal(t, 72, report.Totals.MainShift.Hours)
	assert.Equal(t, 1, report.Totals.Reinforcement.Days)
}

func TestMonthlyReport_SkipsDraftAndConflictSlots(t *testing.T) {
	store := newMockStore()
	seedCountedSlot(store, "s1", "u1", model.KindMain24, day(5, 7), day(6, 7))
	store.slots["s2"] = &model.ShiftSlot{
		ID: "s2", MonthID: "m1", UserID: "u1", Kind: model.KindMain24,
		Status: model.SlotDraft, Start: day(10, 7), End: day(11, 7), WorkedDays: 1,
	}
	store.slots["s3"] = &model.ShiftSlot{
		ID: "s3", MonthID: "m1", UserID: "u1", Kind: model.KindMain24,
		Status: model.SlotReplaceAbsence, Start: day(12, 7), End: day(13, 7), WorkedDays: 1,
	}

	report, err := MonthlyReport(context.Background(), store, zap.NewNop(), 2025, time.March)
	require.NoError(t, err)

	require.Len(t, report.Rows, 1)
	assert.Equal(t, 1, report.Rows[0].Summary.MainShift.Days)
	assert.Equal(t, "u1", report.Rows[0].UserName, "falls back to the id when the user is unknown")
}

func TestMonthlyReport_EmptyMonth(t *testing.T) {
	store := newMockStore()

	report, err := MonthlyReport(context.Background(), store, zap.NewNop(), 2025, time.March)
	require.NoError(t, err)

	assert.Empty(t, report.Rows)
	assert.Equal(t, 0, report.Totals.Total().Days)
}
