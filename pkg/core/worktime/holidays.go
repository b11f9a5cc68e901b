package worktime

import "time"

// EasterSunday computes Easter for a year using the Meeus/Jones/Butcher
// algorithm (Gregorian calendar).
func EasterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// IsPublicHoliday reports whether the date falls on a French public holiday.
// Fixed dates plus the three Easter-relative holidays (Easter Monday,
// Ascension Thursday, Whit Monday).
func IsPublicHoliday(date time.Time) bool {
	switch {
	case date.Month() == time.January && date.Day() == 1:
		return true
	case date.Month() == time.May && date.Day() == 1:
		return true
	case date.Month() == time.May && date.Day() == 8:
		return true
	case date.Month() == time.July && date.Day() == 14:
		return true
	case date.Month() == time.August && date.Day() == 15:
		return true
	case date.Month() == time.November && date.Day() == 1:
		return true
	case date.Month() == time.November && date.Day() == 11:
		return true
	case date.Month() == time.December && date.Day() == 25:
		return true
	}

	easter := EasterSunday(date.Year())
	for _, offset := range []int{1, 39, 50} { // Easter Monday, Ascension, Whit Monday
		h := easter.AddDate(0, 0, offset)
		if date.Month() == h.Month() && date.Day() == h.Day() {
			return true
		}
	}
	return false
}

// IsWorkingDay reports whether the date is neither a weekend day nor a public
// holiday.
func IsWorkingDay(date time.Time) bool {
	if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
		return false
	}
	return !IsPublicHoliday(date)
}

// CountWorkingDays counts the working days in the half-open window
// [start, end), truncating both bounds to midnight. A window ending at
// midnight does not include its end date.
func CountWorkingDays(start, end time.Time) int {
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	limit := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	// An end falling mid-day still covers that date.
	if end.After(limit) {
		limit = limit.AddDate(0, 0, 1)
	}

	count := 0
	for day.Before(limit) {
		if IsWorkingDay(day) {
			count++
		}
		day = day.AddDate(0, 0, 1)
	}
	return count
}
