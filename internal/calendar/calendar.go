// Package calendar provides the calendar collaborator used by the event tools.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const startLayout = "2006-01-02 15:04"

// defaultDuration is used when an event is created without one.
const defaultDuration = 60 * time.Minute

// ErrBadTime reports a start time that does not match "YYYY-MM-DD HH:MM".
var ErrBadTime = errors.New("invalid time format")

// Event is a calendar entry keyed by an opaque identifier.
type Event struct {
	ID       string
	Summary  string
	Start    time.Time
	End      time.Time
	HTMLLink string
}

// Backend is the minimal surface of the calendar service.
type Backend interface {
	Insert(ctx context.Context, ev Event) (Event, error)
	Upcoming(ctx context.Context, max int64) ([]Event, error)
	Get(ctx context.Context, id string) (Event, error)
	Update(ctx context.Context, ev Event) (Event, error)
	Delete(ctx context.Context, id string) error
}

// EventPatch holds the fields to change on an existing event. Zero values
// mean "not provided".
type EventPatch struct {
	Summary         string
	Start           string // "YYYY-MM-DD HH:MM"
	DurationMinutes int
}

// Service implements event operations in the configured timezone.
type Service struct {
	backend Backend
	loc     *time.Location
}

// NewService creates a calendar service. tz must name an IANA timezone.
func NewService(backend Backend, tz string) (*Service, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	return &Service{backend: backend, loc: loc}, nil
}

// Create inserts a new event starting at startStr ("YYYY-MM-DD HH:MM") with
// the given duration in minutes (default 60).
func (s *Service) Create(ctx context.Context, summary, startStr string, durationMinutes int) (Event, error) {
	start, err := time.ParseInLocation(startLayout, startStr, s.loc)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %q", ErrBadTime, startStr)
	}

	duration := defaultDuration
	if durationMinutes > 0 {
		duration = time.Duration(durationMinutes) * time.Minute
	}

	ev := Event{
		Summary: summary,
		Start:   start,
		End:     start.Add(duration),
	}
	created, err := s.backend.Insert(ctx, ev)
	if err != nil {
		return Event{}, fmt.Errorf("insert event: %w", err)
	}
	return created, nil
}

// List returns up to max upcoming events ordered by start time (default 10).
func (s *Service) List(ctx context.Context, max int) ([]Event, error) {
	if max <= 0 {
		max = 10
	}
	events, err := s.backend.Upcoming(ctx, int64(max))
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Update partially modifies an event. Unspecified fields keep their prior
// value; changing the start without a duration keeps the event's length.
func (s *Service) Update(ctx context.Context, eventID string, patch EventPatch) (Event, error) {
	ev, err := s.backend.Get(ctx, eventID)
	if err != nil {
		return Event{}, fmt.Errorf("get event: %w", err)
	}

	if patch.Summary != "" {
		ev.Summary = patch.Summary
	}

	duration := ev.End.Sub(ev.Start)
	if duration <= 0 {
		duration = defaultDuration
	}
	if patch.DurationMinutes > 0 {
		duration = time.Duration(patch.DurationMinutes) * time.Minute
	}

	if patch.Start != "" {
		start, err := time.ParseInLocation(startLayout, patch.Start, s.loc)
		if err != nil {
			return Event{}, fmt.Errorf("%w: %q", ErrBadTime, patch.Start)
		}
		ev.Start = start
	}
	ev.End = ev.Start.Add(duration)

	updated, err := s.backend.Update(ctx, ev)
	if err != nil {
		return Event{}, fmt.Errorf("update event: %w", err)
	}
	return updated, nil
}

// Delete removes an event.
func (s *Service) Delete(ctx context.Context, eventID string) error {
	if err := s.backend.Delete(ctx, eventID); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// FormatStart renders an event start for display in the service timezone.
func (s *Service) FormatStart(ev Event) string {
	if ev.Start.IsZero() {
		return "unknown"
	}
	return ev.Start.In(s.loc).Format(startLayout)
}
