package calendar

import (
	"context"
	"fmt"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// GoogleBackend implements Backend against the Google Calendar API.
type GoogleBackend struct {
	srv        *gcal.Service
	calendarID string
	timezone   string
}

// NewGoogleBackend creates a Backend using service-account credentials.
func NewGoogleBackend(ctx context.Context, credentialsFile, calendarID, timezone string) (*GoogleBackend, error) {
	srv, err := gcal.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gcal.CalendarScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	return &GoogleBackend{srv: srv, calendarID: calendarID, timezone: timezone}, nil
}

// Insert creates an event.
func (g *GoogleBackend) Insert(ctx context.Context, ev Event) (Event, error) {
	created, err := g.srv.Events.Insert(g.calendarID, g.toGoogle(ev)).Context(ctx).Do()
	if err != nil {
		return Event{}, err
	}
	return g.fromGoogle(created), nil
}

// Upcoming lists events starting from now, ordered by start time.
func (g *GoogleBackend) Upcoming(ctx context.Context, max int64) ([]Event, error) {
	resp, err := g.srv.Events.List(g.calendarID).
		TimeMin(time.Now().Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(max).
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		events = append(events, g.fromGoogle(item))
	}
	return events, nil
}

// Get fetches one event by id.
func (g *GoogleBackend) Get(ctx context.Context, id string) (Event, error) {
	item, err := g.srv.Events.Get(g.calendarID, id).Context(ctx).Do()
	if err != nil {
		return Event{}, err
	}
	return g.fromGoogle(item), nil
}

// Update overwrites an event in place.
func (g *GoogleBackend) Update(ctx context.Context, ev Event) (Event, error) {
	body := g.toGoogle(ev)
	updated, err := g.srv.Events.Update(g.calendarID, ev.ID, body).Context(ctx).Do()
	if err != nil {
		return Event{}, err
	}
	return g.fromGoogle(updated), nil
}

// Delete removes an event by id.
func (g *GoogleBackend) Delete(ctx context.Context, id string) error {
	return g.srv.Events.Delete(g.calendarID, id).Context(ctx).Do()
}

func (g *GoogleBackend) toGoogle(ev Event) *gcal.Event {
	return &gcal.Event{
		Summary: ev.Summary,
		Start: &gcal.EventDateTime{
			DateTime: ev.Start.Format("2006-01-02T15:04:05"),
			TimeZone: g.timezone,
		},
		End: &gcal.EventDateTime{
			DateTime: ev.End.Format("2006-01-02T15:04:05"),
			TimeZone: g.timezone,
		},
	}
}

func (g *GoogleBackend) fromGoogle(item *gcal.Event) Event {
	return Event{
		ID:       item.Id,
		Summary:  item.Summary,
		Start:    parseEventTime(item.Start),
		End:      parseEventTime(item.End),
		HTMLLink: item.HtmlLink,
	}
}

func parseEventTime(edt *gcal.EventDateTime) time.Time {
	if edt == nil {
		return time.Time{}
	}
	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			return t
		}
	}
	if edt.Date != "" {
		if t, err := time.Parse("2006-01-02", edt.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}
