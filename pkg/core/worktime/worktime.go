// Package worktime converts shift-slot windows into the worked-day and
// worked-hour tallies consumed by payroll.
package worktime

import (
	"math"
	"time"

	"github.com/adelpech/villa-roster/pkg/core/model"
)

// MinCountableHours is the duration floor below which a slot contributes no
// worked days.
const MinCountableHours = 7.0

// Days converts a slot window into a worked-day count. Durations under seven
// hours contribute nothing; above that, any started 24-hour block counts as a
// full day.
func Days(start, end time.Time) int {
	hours := end.Sub(start).Hours()
	if hours < MinCountableHours {
		return 0
	}
	return int(math.Ceil(hours / 24))
}

// Hours converts a slot window into whole worked hours, rounding to the
// nearest hour.
func Hours(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Seconds() / 3600))
}

// Bucket accumulates day and hour totals for one shift category.
type Bucket struct {
	Days  int
	Hours int
}

func (b Bucket) add(slot *model.ShiftSlot) Bucket {
	return Bucket{
		Days:  b.Days + Days(slot.Start, slot.End),
		Hours: b.Hours + Hours(slot.Start, slot.End),
	}
}

// Summary partitions a user's worked time into main-shift and reinforcement
// buckets, plus the combined total.
type Summary struct {
	MainShift     Bucket
	Reinforcement Bucket
}

// Total returns the combined bucket.
func (s Summary) Total() Bucket {
	return Bucket{
		Days:  s.MainShift.Days + s.Reinforcement.Days,
		Hours: s.MainShift.Hours + s.Reinforcement.Hours,
	}
}

// Counted reports whether a slot's status puts it in the payroll-relevant set.
// Draft and conflicted slots are provisional and excluded.
func Counted(status model.SlotStatus) bool {
	return status == model.SlotValidated
}

// Summarize aggregates the counted slots of one user into a Summary.
func Summarize(slots []model.ShiftSlot) Summary {
	var s Summary
	for i := range slots {
		slot := &slots[i]
		if !Counted(slot.Status) {
			continue
		}
		if slot.Kind.IsMain() {
			s.MainShift = s.MainShift.add(slot)
		} else {
			s.Reinforcement = s.Reinforcement.add(slot)
		}
	}
	return s
}
