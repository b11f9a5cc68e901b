package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/adelpech/villa-roster/pkg/core/model"
	"github.com/adelpech/villa-roster/pkg/core/worktime"
)

// Handover hours of the built-in weekly cycle. Weekend mornings hand over an
// hour later than weekdays.
const (
	weekdayStartHour = 7
	weekendStartHour = 8
)

// SkeletonStore is the persistence surface of the skeleton generator.
type SkeletonStore interface {
	GetMonth(ctx context.Context, villaID string, year int, month time.Month) (*model.PlanningMonth, error)
	CreateMonth(ctx context.Context, m *model.PlanningMonth) error
	GetSlotsByMonth(ctx context.Context, monthID string) ([]model.ShiftSlot, error)
	ReplaceSkeletonSlots(ctx context.Context, monthID string, expectedVersion int, slots []model.ShiftSlot) error
}

// GenerateSkeleton builds the baseline roster for one villa month from the
// fixed weekly cycle. Existing skeleton-origin slots are replaced; manually
// created slots are never touched. The deletion and insertion happen in one
// store transaction, so regeneration either fully applies or not at all.
//
// Regeneration discards any assignments previously made on skeleton-origin
// slots. Callers are expected to warn before re-running it on a staffed month.
func GenerateSkeleton(ctx context.Context, store SkeletonStore, logger *zap.Logger, villaID string, year int, month time.Month) (*model.PlanningMonth, []model.ShiftSlot, error) {
	logger.Info("Generating skeleton",
		zap.String("villa_id", villaID),
		zap.Int("year", year),
		zap.Int("month", int(month)))

	planning, err := store.GetMonth(ctx, villaID, year, month)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch planning month: %w", err)
	}

	if planning == nil {
		planning = &model.PlanningMonth{
			ID:      uuid.New().String(),
			VillaID: villaID,
			Year:    year,
			Month:   month,
			Status:  model.MonthDraft,
		}
		if err := store.CreateMonth(ctx, planning); err != nil {
			return nil, nil, fmt.Errorf("failed to create planning month: %w", err)
		}
		logger.Info("Created planning month", zap.String("month_id", planning.ID))
	}

	if planning.Status == model.MonthValidated {
		return nil, nil, model.Refuse("planning month is validated and can no longer be regenerated")
	}

	slots, err := buildCycleSlots(planning)
	if err != nil {
		return nil, nil, err
	}

	if err := store.ReplaceSkeletonSlots(ctx, planning.ID, planning.Version, slots); err != nil {
		return nil, nil, fmt.Errorf("failed to replace skeleton slots: %w", err)
	}

	logger.Info("Skeleton generated",
		zap.String("month_id", planning.ID),
		zap.Int("slot_count", len(slots)))

	all, err := store.GetSlotsByMonth(ctx, planning.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch month slots: %w", err)
	}

	return planning, all, nil
}

// startHourFor returns the cycle handover hour for a weekday.
func startHourFor(day time.Weekday) int {
	if day == time.Saturday || day == time.Sunday {
		return weekendStartHour
	}
	return weekdayStartHour
}

// buildCycleSlots walks every occurrence of the cycle days in the month and
// opens the corresponding slots, all skeleton-origin, draft and unassigned.
func buildCycleSlots(planning *model.PlanningMonth) ([]model.ShiftSlot, error) {
	var slots []model.ShiftSlot

	add := func(kind model.SlotKind, start, end time.Time) {
		slots = append(slots, model.ShiftSlot{
			ID:           uuid.New().String(),
			MonthID:      planning.ID,
			VillaID:      planning.VillaID,
			Kind:         kind,
			Status:       model.SlotDraft,
			Start:        start,
			End:          end,
			FromSkeleton: true,
			WorkedDays:   worktime.Days(start, end),
		})
	}

	mondays, err := cycleDayOccurrences(planning, rrule.MO)
	if err != nil {
		return nil, err
	}
	for _, day := range mondays {
		// Monday 07:00 to Wednesday 07:00.
		start := day.Add(weekdayStartHour * time.Hour)
		add(model.KindMain48, start, start.AddDate(0, 0, 2))
	}

	wednesdays, err := cycleDayOccurrences(planning, rrule.WE)
	if err != nil {
		return nil, err
	}
	for _, day := range wednesdays {
		// Wednesday 07:00 to Thursday 07:00, plus an 11:00-19:00 reinforcement.
		start := day.Add(weekdayStartHour * time.Hour)
		add(model.KindMain24, start, start.AddDate(0, 0, 1))
		add(model.KindReinforcement, day.Add(11*time.Hour), day.Add(19*time.Hour))
	}

	thursdays, err := cycleDayOccurrences(planning, rrule.TH)
	if err != nil {
		return nil, err
	}
	for _, day := range thursdays {
		// Thursday 07:00 to Saturday, handing over at the later weekend hour.
		start := day.Add(weekdayStartHour * time.Hour)
		end := day.AddDate(0, 0, 2).Add(weekendStartHour * time.Hour)
		add(model.KindMain48, start, end)
	}

	saturdays, err := cycleDayOccurrences(planning, rrule.SA)
	if err != nil {
		return nil, err
	}
	for _, day := range saturdays {
		// Saturday 08:00 to Monday, handing back at the weekday hour, plus a
		// 10:00-18:00 reinforcement.
		start := day.Add(weekendStartHour * time.Hour)
		end := day.AddDate(0, 0, 2).Add(weekdayStartHour * time.Hour)
		add(model.KindMain48, start, end)
		add(model.KindReinforcement, day.Add(10*time.Hour), day.Add(18*time.Hour))
	}

	return slots, nil
}

// cycleDayOccurrences enumerates every midnight occurrence of a weekday
// within the planning month.
func cycleDayOccurrences(planning *model.PlanningMonth, day rrule.Weekday) ([]time.Time, error) {
	start := planning.Start()
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{day},
		Dtstart:   start,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build recurrence rule: %w", err)
	}

	// Between is inclusive of both bounds, so stop one second short of the
	// next month's first midnight.
	return r.Between(start, planning.End().Add(-time.Second), true), nil
}
