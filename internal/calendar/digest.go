package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ScheduleDigest renders a multi-day natural-language summary of the
// given events, used as prompt context for plan generation. Events
// starting outside [now, now+days] or without a derivable start are
// dropped; the rest are grouped by start date, ordered chronologically
// within each day, and capped at maxPerDay entries. Timed events render
// as "HH:MM-HH:MM title", all-day events as "All-day title"; a location
// is appended with "@".
func ScheduleDigest(events []SimplifiedEvent, now time.Time, days, maxPerDay int) string {
	limit := now.AddDate(0, 0, days)

	byDate := make(map[string][]SimplifiedEvent)
	for _, ev := range events {
		if !ev.hasStart || ev.StartDate == nil {
			continue
		}
		if ev.startAt.Before(now) || ev.startAt.After(limit) {
			continue
		}
		byDate[*ev.StartDate] = append(byDate[*ev.StartDate], ev)
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	lines := []string{fmt.Sprintf("User schedule for the next %d days (from calendar):", days)}
	for _, date := range dates {
		day := byDate[date]
		sort.SliceStable(day, func(i, j int) bool {
			return day[i].startAt.Before(day[j].startAt)
		})
		if maxPerDay > 0 && len(day) > maxPerDay {
			day = day[:maxPerDay]
		}

		slots := make([]string, 0, len(day))
		for _, ev := range day {
			slots = append(slots, formatSlot(ev))
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", date, strings.Join(slots, "; ")))
	}
	lines = append(lines, "Adapt around busy slots; use short sessions on packed days and longer sessions when free.")
	return strings.Join(lines, "\n")
}

// formatSlot renders one event entry. Midnight starts are treated as
// all-day, which is exactly how all-day events normalize.
func formatSlot(ev SimplifiedEvent) string {
	var slot string
	if ev.hasStart && ev.hasEnd && !isMidnight(ev.startAt) {
		slot = fmt.Sprintf("%s-%s %s", ev.startAt.Format("15:04"), ev.endAt.Format("15:04"), ev.Summary)
	} else {
		slot = "All-day " + ev.Summary
	}
	if ev.Location != "" {
		slot += " @ " + ev.Location
	}
	return slot
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0
}
