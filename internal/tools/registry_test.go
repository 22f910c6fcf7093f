package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finassist/finance-assistant/internal/calendar"
	"github.com/finassist/finance-assistant/internal/ledger"
)

// fakeSheet is an in-memory ledger.Sheet.
type fakeSheet struct {
	rows [][]string
}

func (f *fakeSheet) AllValues(ctx context.Context) ([][]string, error) {
	out := make([][]string, len(f.rows))
	for i, r := range f.rows {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

func (f *fakeSheet) Row(ctx context.Context, n int) ([]string, error) {
	if n < 1 || n > len(f.rows) {
		return nil, nil
	}
	return append([]string(nil), f.rows[n-1]...), nil
}

func (f *fakeSheet) SetRow(ctx context.Context, n int, values []string) error {
	f.rows[n-1] = append([]string(nil), values...)
	return nil
}

func (f *fakeSheet) AppendRow(ctx context.Context, values []string) error {
	f.rows = append(f.rows, append([]string(nil), values...))
	return nil
}

func (f *fakeSheet) DeleteRow(ctx context.Context, n int) error {
	f.rows = append(f.rows[:n-1], f.rows[n:]...)
	return nil
}

func (f *fakeSheet) URL() string {
	return "https://docs.google.com/spreadsheets/d/test-sheet"
}

// fakeCalendar is an in-memory calendar.Backend.
type fakeCalendar struct {
	events []calendar.Event
}

func (f *fakeCalendar) Insert(ctx context.Context, ev calendar.Event) (calendar.Event, error) {
	ev.ID = "ev1"
	ev.HTMLLink = "https://calendar.example/ev1"
	f.events = append(f.events, ev)
	return ev, nil
}

func (f *fakeCalendar) Upcoming(ctx context.Context, max int64) ([]calendar.Event, error) {
	return f.events, nil
}

func (f *fakeCalendar) Get(ctx context.Context, id string) (calendar.Event, error) {
	for _, ev := range f.events {
		if ev.ID == id {
			return ev, nil
		}
	}
	return calendar.Event{}, errors.New("event not found")
}

func (f *fakeCalendar) Update(ctx context.Context, ev calendar.Event) (calendar.Event, error) {
	for i := range f.events {
		if f.events[i].ID == ev.ID {
			f.events[i] = ev
			return ev, nil
		}
	}
	return calendar.Event{}, errors.New("event not found")
}

func (f *fakeCalendar) Delete(ctx context.Context, id string) error {
	for i := range f.events {
		if f.events[i].ID == id {
			f.events = append(f.events[:i], f.events[i+1:]...)
			return nil
		}
	}
	return errors.New("event not found")
}

func newTestRegistry(t *testing.T, sheet *fakeSheet) *Registry {
	t.Helper()
	mgr := ledger.NewManager(sheet, "€")
	svc, err := calendar.NewService(&fakeCalendar{}, "UTC")
	require.NoError(t, err)

	r, err := New(mgr, svc)
	require.NoError(t, err)
	return r
}

func TestEverySchemaHasHandler(t *testing.T) {
	r := newTestRegistry(t, &fakeSheet{})

	schemas := r.Schemas()
	require.Len(t, schemas, 10)
	for _, tool := range schemas {
		_, ok := r.Resolve(tool.Function.Name)
		assert.True(t, ok, "no handler for %s", tool.Function.Name)
	}
}

func TestResolveUnknown(t *testing.T) {
	r := newTestRegistry(t, &fakeSheet{})

	_, ok := r.Resolve("make_coffee")
	assert.False(t, ok)
}

func TestGetSheetURL(t *testing.T) {
	r := newTestRegistry(t, &fakeSheet{})
	h, _ := r.Resolve("get_sheet_url")

	out, err := h(context.Background(), json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/test-sheet", out)
}

func TestAppendToSheetResult(t *testing.T) {
	sheet := &fakeSheet{rows: [][]string{{"Date", "Item", "Amount", "Category", "Note"}}}
	r := newTestRegistry(t, sheet)
	h, _ := r.Resolve("append_to_sheet")

	out, err := h(context.Background(), json.RawMessage(
		`{"item_name":"Lunch","amount":25,"category":"Food","date":"2026-01-21"}`))
	require.NoError(t, err)
	assert.Equal(t, "Saved: 2026-01-21 #2 Lunch 25€ (Food)", out)
	require.Len(t, sheet.rows, 2)
}

func TestAppendToSheetMissingRequired(t *testing.T) {
	r := newTestRegistry(t, &fakeSheet{})
	h, _ := r.Resolve("append_to_sheet")

	_, err := h(context.Background(), json.RawMessage(`{"amount":25,"category":"Food"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item_name")

	_, err = h(context.Background(), json.RawMessage(`{"item_name":"Lunch","category":"Food"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount")
}

func TestDeleteSpecificRowOutOfRange(t *testing.T) {
	sheet := &fakeSheet{rows: [][]string{{"a"}, {"b"}}}
	r := newTestRegistry(t, sheet)
	h, _ := r.Resolve("delete_specific_row")

	out, err := h(context.Background(), json.RawMessage(`{"row_id":99}`))
	require.NoError(t, err)
	assert.Equal(t, "⚠️ Invalid Row ID: 99. (Max is 2)", out)
}

func TestDeleteSpecificRow(t *testing.T) {
	sheet := &fakeSheet{rows: [][]string{{"a"}, {"b"}}}
	r := newTestRegistry(t, sheet)
	h, _ := r.Resolve("delete_specific_row")

	out, err := h(context.Background(), json.RawMessage(`{"row_id":2}`))
	require.NoError(t, err)
	assert.Equal(t, "✅ Deleted record #2.", out)
	assert.Len(t, sheet.rows, 1)
}

func TestDeleteLastRowEmptySheet(t *testing.T) {
	r := newTestRegistry(t, &fakeSheet{rows: [][]string{{"Date", "Item", "Amount"}}})
	h, _ := r.Resolve("delete_last_row")

	out, err := h(context.Background(), json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "⚠️ The sheet seems empty (or only has headers).", out)
}

func TestUpdateSpecificRowPartial(t *testing.T) {
	sheet := &fakeSheet{rows: [][]string{
		{"2026-01-05 09:00:00", "Coffee", "3.50€", "Drinks", ""},
	}}
	r := newTestRegistry(t, sheet)
	h, _ := r.Resolve("update_specific_row")

	out, err := h(context.Background(), json.RawMessage(`{"row_id":1,"category":"Travel"}`))
	require.NoError(t, err)
	assert.Equal(t, "✅ Updated record #1: Coffee 3.50€ (Travel)", out)
}

func TestCalculateTotal(t *testing.T) {
	sheet := &fakeSheet{rows: [][]string{
		{"2026-01-05", "Coffee", "3.50€", "Drinks", ""},
		{"2026-02-01", "Rent", "800€", "Others", ""},
	}}
	r := newTestRegistry(t, sheet)
	h, _ := r.Resolve("calculate_total")

	out, err := h(context.Background(), json.RawMessage(`{"start_date":"2026-01-01","end_date":"2026-01-31"}`))
	require.NoError(t, err)
	assert.Equal(t, "3.50", out)
}

func TestCreateCalendarEventBadTime(t *testing.T) {
	r := newTestRegistry(t, &fakeSheet{})
	h, _ := r.Resolve("create_calendar_event")

	out, err := h(context.Background(), json.RawMessage(`{"summary":"Dentist","start_time_str":"tomorrow at noon"}`))
	require.NoError(t, err)
	assert.Equal(t, "❌ Invalid time format. Please use 'YYYY-MM-DD HH:MM' format.", out)
}

func TestCalendarEventLifecycle(t *testing.T) {
	r := newTestRegistry(t, &fakeSheet{})

	create, _ := r.Resolve("create_calendar_event")
	out, err := create(context.Background(), json.RawMessage(`{"summary":"Dentist","start_time_str":"2026-03-01 14:00"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "📅 Schedule created: 'Dentist'")
	assert.Contains(t, out, "https://calendar.example/ev1")

	list, _ := r.Resolve("list_calendar_events")
	out, err = list(context.Background(), json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Contains(t, out, "- ID: ev1 | 2026-03-01 14:00 | Dentist")

	update, _ := r.Resolve("update_calendar_event")
	out, err = update(context.Background(), json.RawMessage(`{"event_id":"ev1","summary":"Dentist visit"}`))
	require.NoError(t, err)
	assert.Equal(t, "✅ Updated event 'Dentist visit' (ID: ev1).", out)

	del, _ := r.Resolve("delete_calendar_event")
	out, err = del(context.Background(), json.RawMessage(`{"event_id":"ev1"}`))
	require.NoError(t, err)
	assert.Equal(t, "🗑️ Deleted event ev1.", out)

	out, err = list(context.Background(), json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "No upcoming events found.", out)
}

func TestListCalendarEventsEmpty(t *testing.T) {
	r := newTestRegistry(t, &fakeSheet{})
	h, _ := r.Resolve("list_calendar_events")

	out, err := h(context.Background(), json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "No upcoming events found.", out)
}

func TestMissingEventID(t *testing.T) {
	r := newTestRegistry(t, &fakeSheet{})

	for _, name := range []string{"update_calendar_event", "delete_calendar_event"} {
		h, _ := r.Resolve(name)
		_, err := h(context.Background(), json.RawMessage(`{}`))
		require.Error(t, err, name)
		assert.Contains(t, err.Error(), "event_id")
	}
}

// Calendar times returned by the fake are what the service stored; make sure
// FormatStart renders them in the service timezone used by list output.
func TestListFormatsStartInServiceZone(t *testing.T) {
	backend := &fakeCalendar{}
	svc, err := calendar.NewService(backend, "UTC")
	require.NoError(t, err)

	start := time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)
	backend.events = append(backend.events, calendar.Event{ID: "x", Summary: "S", Start: start, End: start.Add(time.Hour)})

	mgr := ledger.NewManager(&fakeSheet{}, "€")
	r, err := New(mgr, svc)
	require.NoError(t, err)

	h, _ := r.Resolve("list_calendar_events")
	out, err := h(context.Background(), json.RawMessage(`{"max_results":5}`))
	require.NoError(t, err)
	assert.Contains(t, out, "- ID: x | 2026-03-01 14:00 | S")
}
