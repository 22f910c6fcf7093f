package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/finassist/finance-assistant/internal/calendar"
)

// calendarTools implements the calendar tool handlers.
type calendarTools struct {
	calendar *calendar.Service
}

func (t *calendarTools) createEvent(ctx context.Context, args json.RawMessage) (string, error) {
	var p struct {
		Summary         string `json:"summary"`
		StartTimeStr    string `json:"start_time_str"`
		DurationMinutes int    `json:"duration_minutes"`
	}
	if err := json.Unmarshal(args, &p); err != nil {
		return "", fmt.Errorf("decode arguments: %w", err)
	}
	if p.Summary == "" {
		return "", errors.New("missing required argument: summary")
	}
	if p.StartTimeStr == "" {
		return "", errors.New("missing required argument: start_time_str")
	}

	ev, err := t.calendar.Create(ctx, p.Summary, p.StartTimeStr, p.DurationMinutes)
	if errors.Is(err, calendar.ErrBadTime) {
		return "❌ Invalid time format. Please use 'YYYY-MM-DD HH:MM' format.", nil
	}
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("📅 Schedule created: '%s' \nTime: %s\nLink: %s", p.Summary, p.StartTimeStr, ev.HTMLLink), nil
}

func (t *calendarTools) listEvents(ctx context.Context, args json.RawMessage) (string, error) {
	var p struct {
		MaxResults int `json:"max_results"`
	}
	if err := json.Unmarshal(args, &p); err != nil {
		return "", fmt.Errorf("decode arguments: %w", err)
	}

	events, err := t.calendar.List(ctx, p.MaxResults)
	if err != nil {
		return "", err
	}
	if len(events) == 0 {
		return "No upcoming events found.", nil
	}

	lines := make([]string, 0, len(events)+1)
	lines = append(lines, "Upcoming events:")
	for _, ev := range events {
		lines = append(lines, fmt.Sprintf("- ID: %s | %s | %s", ev.ID, t.calendar.FormatStart(ev), ev.Summary))
	}
	return strings.Join(lines, "\n"), nil
}

func (t *calendarTools) updateEvent(ctx context.Context, args json.RawMessage) (string, error) {
	var p struct {
		EventID         string `json:"event_id"`
		Summary         string `json:"summary"`
		StartTimeStr    string `json:"start_time_str"`
		DurationMinutes int    `json:"duration_minutes"`
	}
	if err := json.Unmarshal(args, &p); err != nil {
		return "", fmt.Errorf("decode arguments: %w", err)
	}
	if p.EventID == "" {
		return "", errors.New("missing required argument: event_id")
	}

	ev, err := t.calendar.Update(ctx, p.EventID, calendar.EventPatch{
		Summary:         p.Summary,
		Start:           p.StartTimeStr,
		DurationMinutes: p.DurationMinutes,
	})
	if errors.Is(err, calendar.ErrBadTime) {
		return "❌ Invalid time format. Please use 'YYYY-MM-DD HH:MM' format.", nil
	}
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("✅ Updated event '%s' (ID: %s).", ev.Summary, ev.ID), nil
}

func (t *calendarTools) deleteEvent(ctx context.Context, args json.RawMessage) (string, error) {
	var p struct {
		EventID string `json:"event_id"`
	}
	if err := json.Unmarshal(args, &p); err != nil {
		return "", fmt.Errorf("decode arguments: %w", err)
	}
	if p.EventID == "" {
		return "", errors.New("missing required argument: event_id")
	}

	if err := t.calendar.Delete(ctx, p.EventID); err != nil {
		return "", err
	}
	return fmt.Sprintf("🗑️ Deleted event %s.", p.EventID), nil
}
