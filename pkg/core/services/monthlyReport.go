package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/adelpech/villa-roster/pkg/core/model"
	"github.com/adelpech/villa-roster/pkg/core/worktime"
)

// ReportStore is the read surface of the payroll reporting service.
type ReportStore interface {
	GetUserSlots(ctx context.Context, userID string, from, to time.Time) ([]model.ShiftSlot, error)
	GetSlotsInWindow(ctx context.Context, from, to time.Time) ([]model.ShiftSlot, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
}

// CalculateWorkedDays aggregates one user's counted slots over [from, to)
// into main-shift and reinforcement day/hour buckets.
func CalculateWorkedDays(ctx context.Context, store ReportStore, userID string, from, to time.Time) (worktime.Summary, error) {
	slots, err := store.GetUserSlots(ctx, userID, from, to)
	if err != nil {
		return worktime.Summary{}, fmt.Errorf("failed to fetch user slots: %w", err)
	}
	return worktime.Summarize(slots), nil
}

// ReportRow is one user's line in the monthly report.
type ReportRow struct {
	UserID   string
	UserName string
	Summary  worktime.Summary
}

// Report is the per-user and aggregate worked-time breakdown for one month,
// consumed by payroll export.
type Report struct {
	Year   int
	Month  time.Month
	Rows   []ReportRow
	Totals worktime.Summary
}

// MonthlyReport builds the report over every user with at least one counted
// slot in the month, sorted by user name.
func MonthlyReport(ctx context.Context, store ReportStore, logger *zap.Logger, year int, month time.Month) (*Report, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	slots, err := store.GetSlotsInWindow(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch month slots: %w", err)
	}

	byUser := make(map[string][]model.ShiftSlot)
	for i := range slots {
		if slots[i].UserID == "" || !worktime.Counted(slots[i].Status) {
			continue
		}
		byUser[slots[i].UserID] = append(byUser[slots[i].UserID], slots[i])
	}

	report := &Report{Year: year, Month: month}
	for userID, userSlots := range byUser {
		summary := worktime.Summarize(userSlots)

		name := userID
		user, err := store.GetUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch user: %w", err)
		}
		if user != nil {
			name = user.FullName()
		}

		report.Rows = append(report.Rows, ReportRow{UserID: userID, UserName: name, Summary: summary})
		report.Totals.MainShift.Days += summary.MainShift.Days
		report.Totals.MainShift.Hours += summary.MainShift.Hours
		report.Totals.Reinforcement.Days += summary.Reinforcement.Days
		report.Totals.Reinforcement.Hours += summary.Reinforcement.Hours
	}

	sort.Slice(report.Rows, func(i, j int) bool {
		if report.Rows[i].UserName != report.Rows[j].UserName {
			return report.Rows[i].UserName < report.Rows[j].UserName
		}
		return report.Rows[i].UserID < report.Rows[j].UserID
	})

	logger.Info("Monthly report generated",
		zap.Int("year", year),
		zap.Int("month", int(month)),
		zap.Int("users", len(report.Rows)),
		zap.Int("total_days", report.Totals.Total().Days))

	return report, nil
}
