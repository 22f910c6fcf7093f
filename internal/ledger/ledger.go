// Package ledger implements the row-indexed expense ledger.
//
// Rows are addressed by their 1-based position in the backing table. The
// position is not a stable key: deleting a row shifts every later index down
// by one, and holders of old indices must re-read the table before reusing
// them. The manager keeps this contract explicit rather than hiding it.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// deleteSlack tolerates small index discrepancies left by the append race
// window instead of hard-failing the delete.
const deleteSlack = 5

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
	clockLayout     = "15:04:05"
)

// Sheet is the minimal surface of the tabular backend. Rows are 1-based and
// hold up to five columns: timestamp, item, amount, category, note.
type Sheet interface {
	AllValues(ctx context.Context) ([][]string, error)
	Row(ctx context.Context, n int) ([]string, error)
	SetRow(ctx context.Context, n int, values []string) error
	AppendRow(ctx context.Context, values []string) error
	DeleteRow(ctx context.Context, n int) error
	URL() string
}

// ErrSheetEmpty reports a sheet with no data rows (at most a header).
var ErrSheetEmpty = errors.New("sheet is empty")

// ErrRowEmpty reports a row read that came back blank.
var ErrRowEmpty = errors.New("row is empty or invalid")

// RowRangeError reports a row index outside the valid range.
type RowRangeError struct {
	RowID int
	Max   int
}

func (e *RowRangeError) Error() string {
	return fmt.Sprintf("row id %d out of range (max is %d)", e.RowID, e.Max)
}

// Entry is one expense to append.
type Entry struct {
	ItemName string
	Amount   float64
	Category string
	Date     string // optional, "YYYY-MM-DD"
	Currency string // optional, defaults to the manager's currency
	Note     string
}

// Patch holds the fields to overlay on an existing row. Zero values mean
// "not provided" and leave the prior value intact; callers must omit rather
// than blank a field they do not want changed.
type Patch struct {
	ItemName string
	Amount   *float64
	Category string
	Date     string
	Currency string
	Note     string
}

// AppendResult reports where an appended entry landed.
type AppendResult struct {
	RowID         int
	Date          string // "YYYY-MM-DD"
	AmountDisplay string // value concatenated with currency symbol
}

// Manager implements the ledger operations on top of a Sheet.
//
// Append assigns the new row's index by reading the current row count first;
// a writer interleaving between the read and the append would make the
// reported index wrong. Accepted for this single-caller system.
type Manager struct {
	sheet    Sheet
	currency string
	now      func() time.Time
}

// NewManager creates a ledger manager. currency is the symbol used when an
// amount arrives without one.
func NewManager(sheet Sheet, currency string) *Manager {
	if currency == "" {
		currency = "€"
	}
	return &Manager{sheet: sheet, currency: currency, now: time.Now}
}

// URL returns the ledger location reference.
func (m *Manager) URL() string {
	return m.sheet.URL()
}

// Append records an entry as a new final row and reports its assigned index.
func (m *Manager) Append(ctx context.Context, e Entry) (*AppendResult, error) {
	now := m.now()

	var timestamp string
	if e.Date != "" {
		timestamp = e.Date + " " + now.Format(clockLayout)
	} else {
		timestamp = now.Format(timestampLayout)
	}

	amountDisplay := m.renderAmount(e.Amount, e.Currency)
	row := []string{timestamp, e.ItemName, amountDisplay, e.Category, e.Note}

	// Read-then-append: the backend does not report the index of an
	// appended row, so derive it from the current count.
	existing, err := m.sheet.AllValues(ctx)
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	rowID := len(existing) + 1

	if err := m.sheet.AppendRow(ctx, row); err != nil {
		return nil, fmt.Errorf("append row: %w", err)
	}

	date, _, _ := strings.Cut(timestamp, " ")
	return &AppendResult{RowID: rowID, Date: date, AmountDisplay: amountDisplay}, nil
}

// Update overlays the provided fields onto the row at rowID, preserving
// everything else, and returns the merged row.
func (m *Manager) Update(ctx context.Context, rowID int, p Patch) ([]string, error) {
	row, err := m.sheet.Row(ctx, rowID)
	if err != nil {
		return nil, fmt.Errorf("read row %d: %w", rowID, err)
	}
	if len(row) == 0 {
		return nil, ErrRowEmpty
	}

	// Pad missing trailing columns.
	for len(row) < 5 {
		row = append(row, "")
	}

	if p.Date != "" {
		row[0] = p.Date + " " + m.now().Format(clockLayout)
	}
	if p.ItemName != "" {
		row[1] = p.ItemName
	}
	if p.Amount != nil {
		// A new amount is always re-rendered with its currency; the row's
		// previous currency is discarded.
		row[2] = m.renderAmount(*p.Amount, p.Currency)
	}
	if p.Category != "" {
		row[3] = p.Category
	}
	if p.Note != "" {
		row[4] = p.Note
	}

	if err := m.sheet.SetRow(ctx, rowID, row); err != nil {
		return nil, fmt.Errorf("write row %d: %w", rowID, err)
	}
	return row, nil
}

// Delete removes the row at rowID. All later indices shift down by one; the
// manager does not renumber or notify holders of now-stale indices.
func (m *Manager) Delete(ctx context.Context, rowID int) error {
	all, err := m.sheet.AllValues(ctx)
	if err != nil {
		return fmt.Errorf("read sheet: %w", err)
	}

	if rowID < 1 || rowID > len(all)+deleteSlack {
		return &RowRangeError{RowID: rowID, Max: len(all)}
	}

	if err := m.sheet.DeleteRow(ctx, rowID); err != nil {
		return fmt.Errorf("delete row %d: %w", rowID, err)
	}
	return nil
}

// DeleteLast removes the table's current final row and reports its index.
func (m *Manager) DeleteLast(ctx context.Context) (int, error) {
	all, err := m.sheet.AllValues(ctx)
	if err != nil {
		return 0, fmt.Errorf("read sheet: %w", err)
	}
	if len(all) <= 1 {
		return 0, ErrSheetEmpty
	}

	last := len(all)
	if err := m.sheet.DeleteRow(ctx, last); err != nil {
		return 0, fmt.Errorf("delete row %d: %w", last, err)
	}
	return last, nil
}

var amountClean = regexp.MustCompile(`[^0-9.,\-]`)

// Total sums the amounts of rows whose date falls inside the inclusive
// [start, end] range (open-ended where a bound is empty). Rows whose date or
// amount fail to parse are skipped silently; that is how header rows are
// tolerated without explicit header detection. Returns the sum formatted to
// two fractional digits.
func (m *Manager) Total(ctx context.Context, start, end string) (string, error) {
	all, err := m.sheet.AllValues(ctx)
	if err != nil {
		return "", fmt.Errorf("read sheet: %w", err)
	}
	if len(all) <= 1 {
		return "0.00 (Sheet empty)", nil
	}

	var startT, endT time.Time
	var hasStart, hasEnd bool
	if start != "" {
		startT, err = time.Parse(dateLayout, start)
		if err != nil {
			return "", fmt.Errorf("invalid start date %q: %w", start, err)
		}
		hasStart = true
	}
	if end != "" {
		endT, err = time.Parse(dateLayout, end)
		if err != nil {
			return "", fmt.Errorf("invalid end date %q: %w", end, err)
		}
		// Inclusive upper bound: end of that day.
		endT = endT.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
		hasEnd = true
	}

	total := 0.0
	for _, row := range all {
		if len(row) < 3 {
			continue
		}

		dateStr := row[0]
		if len(dateStr) > len(dateLayout) {
			dateStr = dateStr[:len(dateLayout)]
		}
		rowDate, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			continue
		}
		if hasStart && rowDate.Before(startT) {
			continue
		}
		if hasEnd && rowDate.After(endT) {
			continue
		}

		clean := amountClean.ReplaceAllString(row[2], "")
		clean = strings.ReplaceAll(clean, ",", ".")
		val, err := strconv.ParseFloat(clean, 64)
		if err != nil {
			continue
		}
		total += val
	}

	return fmt.Sprintf("%.2f", total), nil
}

func (m *Manager) renderAmount(amount float64, currency string) string {
	if currency == "" {
		currency = m.currency
	}
	return strconv.FormatFloat(amount, 'f', -1, 64) + currency
}
