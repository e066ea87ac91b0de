package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/vita-ai/vita/internal/metrics"
)

// pageSize bounds a single page request against the provider.
const pageSize = 250

// Query bounds one page request.
type Query struct {
	TimeMin   time.Time
	TimeMax   time.Time
	PageToken string
	PageSize  int64
}

// Page is one provider response page.
type Page struct {
	Items         []RawEvent
	NextPageToken string
}

// Provider lists raw calendar events in a time window, ordered by start
// time. Implementations honor PageToken continuation; authentication
// happens out of band.
type Provider interface {
	ListEvents(ctx context.Context, q Query) (Page, error)
}

// fetchWindow retrieves every event in [timeMin, timeMax], paging
// sequentially until the provider runs out of pages or limit events have
// accumulated. A provider error aborts the whole fetch; pages are not
// retried.
func fetchWindow(ctx context.Context, p Provider, timeMin, timeMax time.Time, limit int) ([]RawEvent, error) {
	var (
		events []RawEvent
		token  string
	)
	for {
		page, err := p.ListEvents(ctx, Query{
			TimeMin:   timeMin,
			TimeMax:   timeMax,
			PageToken: token,
			PageSize:  pageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
		metrics.ProviderPages.Inc()

		events = append(events, page.Items...)
		if len(events) >= limit {
			break
		}
		token = page.NextPageToken
		if token == "" {
			break
		}
	}
	return events, nil
}
