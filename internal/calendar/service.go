package calendar

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

const (
	// monthSplitCap bounds the single fetch behind MonthSplit.
	monthSplitCap = 1000

	// currentWindow is how far around "now" CurrentEvent looks.
	currentWindow = 24 * time.Hour
)

// MonthSplit is the partition of a fetched window into past events of
// the current month and future events of the next month.
type MonthSplit struct {
	PastCurrentMonth []SimplifiedEvent `json:"past_current_month"`
	FutureNextMonth  []SimplifiedEvent `json:"future_next_month"`
}

// NowAndUpcoming pairs the event happening right now (if any) with the
// ordered future events through the end of next month. Current never
// appears inside Upcoming.
type NowAndUpcoming struct {
	Current  *SimplifiedEvent  `json:"current"`
	Upcoming []SimplifiedEvent `json:"upcoming"`
}

// Service implements the calendar read operations over an optional
// Provider. A nil provider degrades every operation to empty results,
// so the rest of the daemon can run without calendar integration.
type Service struct {
	provider Provider
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService creates a calendar service. provider may be nil.
func NewService(provider Provider, logger zerolog.Logger) *Service {
	return &Service{
		provider: provider,
		logger:   logger.With().Str("component", "calendar").Logger(),
		now:      time.Now,
	}
}

// Available reports whether a provider is configured.
func (s *Service) Available() bool {
	return s.provider != nil
}

// MonthSplit fetches [start of current month, end of next month] once
// and classifies each event by its normalized start instant. Events
// without a derivable start are skipped. Future events still inside the
// current month land in neither bucket; that gap is the documented
// "past of this month, future of next month" semantics. limitPast keeps
// the most recent N past events, limitFuture the soonest N future
// events; a limit <= 0 disables truncation for that bucket.
func (s *Service) MonthSplit(ctx context.Context, limitPast, limitFuture int) (MonthSplit, error) {
	split := MonthSplit{
		PastCurrentMonth: []SimplifiedEvent{},
		FutureNextMonth:  []SimplifiedEvent{},
	}
	if s.provider == nil {
		return split, nil
	}

	now := s.now()
	bounds := BoundsOf(now)

	raw, err := fetchWindow(ctx, s.provider, bounds.StartOfCurrentMonth, bounds.EndOfNextMonth, monthSplitCap)
	if err != nil {
		return split, err
	}

	for _, ev := range raw {
		start, ok := instantOf(ev.Start)
		if !ok {
			continue
		}
		switch {
		case !start.Before(bounds.StartOfCurrentMonth) && start.Before(now):
			split.PastCurrentMonth = append(split.PastCurrentMonth, Simplify(ev))
		case !start.Before(bounds.StartOfNextMonth):
			split.FutureNextMonth = append(split.FutureNextMonth, Simplify(ev))
		}
	}

	sortByStartText(split.PastCurrentMonth)
	sortByStartText(split.FutureNextMonth)

	split.PastCurrentMonth = keepLast(split.PastCurrentMonth, limitPast)
	split.FutureNextMonth = keepFirst(split.FutureNextMonth, limitFuture)

	s.logger.Debug().
		Int("past", len(split.PastCurrentMonth)).
		Int("future", len(split.FutureNextMonth)).
		Msg("month split computed")

	return split, nil
}

// CurrentEvent returns the event happening right now, or nil. It fetches
// a single page over [now-1d, now+1d] and returns the first event whose
// start <= now < end; when several overlap, provider ordering wins.
func (s *Service) CurrentEvent(ctx context.Context) (*SimplifiedEvent, error) {
	if s.provider == nil {
		return nil, nil
	}

	now := s.now()
	page, err := s.provider.ListEvents(ctx, Query{
		TimeMin:  now.Add(-currentWindow),
		TimeMax:  now.Add(currentWindow),
		PageSize: pageSize,
	})
	if err != nil {
		return nil, err
	}

	for _, ev := range page.Items {
		start, okStart := instantOf(ev.Start)
		end, okEnd := instantOf(ev.End)
		if !okStart || !okEnd {
			continue
		}
		if !start.After(now) && now.Before(end) {
			se := Simplify(ev)
			return &se, nil
		}
	}
	return nil, nil
}

// FutureEvents returns events from now through the end of next month,
// truncated to the first limit entries.
func (s *Service) FutureEvents(ctx context.Context, limit int) ([]SimplifiedEvent, error) {
	if s.provider == nil {
		return []SimplifiedEvent{}, nil
	}

	now := s.now()
	bounds := BoundsOf(now)

	fetchCap := pageSize
	if limit > fetchCap {
		fetchCap = limit
	}
	raw, err := fetchWindow(ctx, s.provider, now, bounds.EndOfNextMonth, fetchCap)
	if err != nil {
		return nil, err
	}

	events := make([]SimplifiedEvent, 0, len(raw))
	for _, ev := range raw {
		events = append(events, Simplify(ev))
	}
	return keepFirst(events, limit), nil
}

// NowAndUpcoming composes CurrentEvent and FutureEvents. The query
// windows overlap, so the current event is removed from the upcoming
// list by (summary, start, end) equality.
func (s *Service) NowAndUpcoming(ctx context.Context, limitUpcoming int) (NowAndUpcoming, error) {
	current, err := s.CurrentEvent(ctx)
	if err != nil {
		return NowAndUpcoming{}, err
	}
	upcoming, err := s.FutureEvents(ctx, limitUpcoming)
	if err != nil {
		return NowAndUpcoming{}, err
	}

	if current != nil {
		kept := make([]SimplifiedEvent, 0, len(upcoming))
		for _, ev := range upcoming {
			if sameEvent(ev, *current) {
				continue
			}
			kept = append(kept, ev)
		}
		upcoming = kept
	}
	return NowAndUpcoming{Current: current, Upcoming: upcoming}, nil
}

// UpcomingEvents is the flattened view of NowAndUpcoming: the current
// event first (if any), then the upcoming ones, capped at maxResults.
func (s *Service) UpcomingEvents(ctx context.Context, maxResults int) ([]SimplifiedEvent, error) {
	data, err := s.NowAndUpcoming(ctx, maxResults)
	if err != nil {
		return nil, err
	}
	return ComposeUpcoming(data, maxResults), nil
}

// ComposeUpcoming flattens a NowAndUpcoming result into a single capped
// list, current event first.
func ComposeUpcoming(data NowAndUpcoming, maxResults int) []SimplifiedEvent {
	out := make([]SimplifiedEvent, 0, len(data.Upcoming)+1)
	if data.Current != nil {
		out = append(out, *data.Current)
	}
	for _, ev := range data.Upcoming {
		if maxResults > 0 && len(out) >= maxResults {
			break
		}
		out = append(out, ev)
	}
	return out
}

// sortByStartText orders events ascending by the textual start value,
// matching the serialized ordering the HTTP layer exposes.
func sortByStartText(events []SimplifiedEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start < events[j].Start
	})
}

func keepFirst(events []SimplifiedEvent, limit int) []SimplifiedEvent {
	if limit > 0 && len(events) > limit {
		return events[:limit]
	}
	return events
}

func keepLast(events []SimplifiedEvent, limit int) []SimplifiedEvent {
	if limit > 0 && len(events) > limit {
		return events[len(events)-limit:]
	}
	return events
}
