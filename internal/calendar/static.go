package calendar

import (
	"context"
	"sort"
	"time"
)

// StaticProvider serves a fixed set of events with no network. It backs
// the demo configuration and the test double the adapter variants call
// for. Events whose start parses are filtered to the query window and
// ordered by start time, like the real provider; events with an
// unparseable start pass through so normalizer skipping is exercised.
type StaticProvider struct {
	Events []RawEvent
}

func (p *StaticProvider) ListEvents(_ context.Context, q Query) (Page, error) {
	var items []RawEvent
	for _, ev := range p.Events {
		if start, ok := instantOf(ev.Start); ok {
			if start.Before(q.TimeMin) || start.After(q.TimeMax) {
				continue
			}
		}
		items = append(items, ev)
	}

	sort.SliceStable(items, func(i, j int) bool {
		si, iok := instantOf(items[i].Start)
		sj, jok := instantOf(items[j].Start)
		if !iok || !jok {
			return jok
		}
		return si.Before(sj)
	})

	return Page{Items: items}, nil
}

// NewDemoProvider seeds a StaticProvider with a small schedule around
// now, so the daemon is usable without Google credentials.
func NewDemoProvider(now time.Time) *StaticProvider {
	at := func(d time.Duration) string {
		return now.Add(d).Truncate(time.Minute).Format(time.RFC3339)
	}
	return &StaticProvider{Events: []RawEvent{
		{
			Summary:  "Team sync",
			Location: "Meeting room 2",
			Start:    EventTime{DateTime: at(time.Hour)},
			End:      EventTime{DateTime: at(2 * time.Hour)},
		},
		{
			Summary: "Gym session",
			Start:   EventTime{DateTime: at(26 * time.Hour)},
			End:     EventTime{DateTime: at(27 * time.Hour)},
		},
		{
			Summary: "Trip planning",
			Start:   EventTime{Date: now.AddDate(0, 0, 6).Format(dateLayout)},
			End:     EventTime{Date: now.AddDate(0, 0, 7).Format(dateLayout)},
		},
	}}
}
