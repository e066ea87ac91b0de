package calendar

import "time"

// MonthBounds are the fetch boundaries derived from "now": the first
// instant of the current month, the first instant of the next month,
// and the last second of the next month. Recomputed on every call,
// never cached.
type MonthBounds struct {
	StartOfCurrentMonth time.Time
	StartOfNextMonth    time.Time
	EndOfNextMonth      time.Time
}

// BoundsOf computes month boundaries in now's time zone, handling the
// December rollover into the next year.
func BoundsOf(now time.Time) MonthBounds {
	loc := now.Location()

	nextYear, nextMonth := now.Year(), now.Month()+1
	if now.Month() == time.December {
		nextYear, nextMonth = now.Year()+1, time.January
	}

	return MonthBounds{
		StartOfCurrentMonth: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc),
		StartOfNextMonth:    time.Date(nextYear, nextMonth, 1, 0, 0, 0, 0, loc),
		EndOfNextMonth:      time.Date(nextYear, nextMonth, daysIn(nextYear, nextMonth, loc), 23, 59, 59, 0, loc),
	}
}

// daysIn returns the number of days in a month. Day zero of the
// following month normalizes to the last day of this one, which gets
// leap years right without a table.
func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
