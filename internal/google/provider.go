// Package google implements the calendar Provider against the Google
// Calendar REST API, plus the OAuth2 plumbing required to reach it.
package google

import (
	"context"
	"fmt"
	"net/http"
	"time"

	calendarapi "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/vita-ai/vita/internal/calendar"
	"github.com/vita-ai/vita/internal/metrics"
)

// Provider fetches raw events from one Google calendar. It implements
// calendar.Provider; each ListEvents call is a single page round-trip.
type Provider struct {
	svc        *calendarapi.Service
	calendarID string
}

// NewProvider wraps an authenticated HTTP client. calendarID is usually
// "primary".
func NewProvider(httpClient *http.Client, calendarID string) (*Provider, error) {
	svc, err := calendarapi.NewService(context.Background(), option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &Provider{svc: svc, calendarID: calendarID}, nil
}

func (p *Provider) ListEvents(ctx context.Context, q calendar.Query) (calendar.Page, error) {
	call := p.svc.Events.List(p.calendarID).
		SingleEvents(true).
		OrderBy("startTime").
		TimeMin(q.TimeMin.Format(time.RFC3339)).
		TimeMax(q.TimeMax.Format(time.RFC3339)).
		Context(ctx)

	if q.PageSize > 0 {
		call = call.MaxResults(q.PageSize)
	}
	if q.PageToken != "" {
		call = call.PageToken(q.PageToken)
	}

	resp, err := call.Do()
	if err != nil {
		metrics.ProviderErrors.Inc()
		return calendar.Page{}, fmt.Errorf("google: list events: %w", err)
	}

	page := calendar.Page{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		page.Items = append(page.Items, mapItem(item))
	}
	return page, nil
}

// mapItem keeps the provider's textual start/end untouched; all parsing
// happens in the calendar package.
func mapItem(item *calendarapi.Event) calendar.RawEvent {
	ev := calendar.RawEvent{
		Summary:  item.Summary,
		Location: item.Location,
	}
	if item.Start != nil {
		ev.Start = calendar.EventTime{DateTime: item.Start.DateTime, Date: item.Start.Date}
	}
	if item.End != nil {
		ev.End = calendar.EventTime{DateTime: item.End.DateTime, Date: item.End.Date}
	}
	return ev
}
