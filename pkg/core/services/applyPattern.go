package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adelpech/villa-roster/pkg/core/model"
	"github.com/adelpech/villa-roster/pkg/core/pattern"
	"github.com/adelpech/villa-roster/pkg/core/worktime"
)

// ApplyResult reports what a pattern application created.
type ApplyResult struct {
	CreatedCount int
	Slots        []model.ShiftSlot
}

// ApplyPatternStore is the persistence surface of the pattern applicator.
type ApplyPatternStore interface {
	GetPattern(ctx context.Context, id string) (*pattern.Pattern, error)
	GetMonthByID(ctx context.Context, id string) (*model.PlanningMonth, error)
	InsertSlots(ctx context.Context, monthID string, expectedVersion int, slots []model.ShiftSlot) error
	IncrementPatternUsage(ctx context.Context, id string) error
}

// ApplyPattern instantiates a stored weekly pattern into a planning month.
// Concrete dates are computed from the pattern's day/hour offsets relative to
// the first Monday on or after the month's first day, repeated weekly for as
// long as the resulting slot start still falls inside the month. Created
// slots are tagged skeleton-origin so a later regeneration replaces them, and
// the pattern's usage counter is incremented.
func ApplyPattern(ctx context.Context, store ApplyPatternStore, logger *zap.Logger, patternID, monthID string) (*ApplyResult, error) {
	p, err := store.GetPattern(ctx, patternID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pattern: %w", err)
	}
	if p == nil {
		return nil, model.Refuse("pattern not found")
	}

	if errs, _ := pattern.Validate(p.Config); len(errs) > 0 {
		return nil, errs
	}

	planning, err := store.GetMonthByID(ctx, monthID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch planning month: %w", err)
	}
	if planning == nil {
		return nil, model.Refuse("planning month not found")
	}
	if planning.Status == model.MonthValidated {
		return nil, model.Refuse("planning month is validated and can no longer be modified")
	}

	logger.Info("Applying pattern",
		zap.String("pattern_id", p.ID),
		zap.String("pattern_name", p.Name),
		zap.String("month_id", planning.ID))

	slots := instantiatePattern(p.Config, planning)

	if err := store.InsertSlots(ctx, planning.ID, planning.Version, slots); err != nil {
		return nil, fmt.Errorf("failed to insert pattern slots: %w", err)
	}

	if err := store.IncrementPatternUsage(ctx, p.ID); err != nil {
		return nil, fmt.Errorf("failed to increment pattern usage: %w", err)
	}

	logger.Info("Pattern applied",
		zap.String("pattern_id", p.ID),
		zap.Int("created", len(slots)))

	return &ApplyResult{CreatedCount: len(slots), Slots: slots}, nil
}

// instantiatePattern expands the weekly definitions into concrete slots for
// every week anchored on the month's first Monday.
func instantiatePattern(cfg pattern.Config, planning *model.PlanningMonth) []model.ShiftSlot {
	monthStart := planning.Start()
	monthEnd := planning.End()
	anchor := firstMondayOnOrAfter(monthStart)

	var slots []model.ShiftSlot
	add := func(kind model.SlotKind, start, end time.Time) {
		if start.Before(monthStart) || !start.Before(monthEnd) {
			return
		}
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

	for week := anchor; week.Before(monthEnd); week = week.AddDate(0, 0, 7) {
		for _, g := range cfg.Garde {
			day := week.AddDate(0, 0, g.StartDay-1)
			start := day.Add(time.Duration(g.StartHour) * time.Hour)
			end := start.Add(time.Duration(g.DurationHours) * time.Hour)
			add(mainKindFor(g), start, end)
		}
		for _, r := range cfg.Renfort {
			day := week.AddDate(0, 0, r.Day-1)
			add(model.KindReinforcement,
				day.Add(time.Duration(r.StartHour)*time.Hour),
				day.Add(time.Duration(r.EndHour)*time.Hour))
		}
	}

	return slots
}

// mainKindFor maps a main-shift definition to its slot kind. Entries without
// an explicit kind are classified by duration, splitting at 36 hours.
func mainKindFor(g pattern.MainSlotDef) model.SlotKind {
	switch g.Kind {
	case string(model.KindMain24):
		return model.KindMain24
	case string(model.KindMain48):
		return model.KindMain48
	}
	if g.DurationHours > 36 {
		return model.KindMain48
	}
	return model.KindMain24
}

// firstMondayOnOrAfter returns the date itself when it is a Monday, otherwise
// the following Monday.
func firstMondayOnOrAfter(from time.Time) time.Time {
	normalized := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(time.Monday) - int(normalized.Weekday()) + 7) % 7
	return normalized.AddDate(0, 0, offset)
}
