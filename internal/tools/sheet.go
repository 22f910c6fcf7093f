package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/finassist/finance-assistant/internal/ledger"
)

// sheetTools implements the ledger tool handlers and formats their
// user-facing result strings.
type sheetTools struct {
	ledger *ledger.Manager
}

func (t *sheetTools) getSheetURL(ctx context.Context, _ json.RawMessage) (string, error) {
	return t.ledger.URL(), nil
}

func (t *sheetTools) appendToSheet(ctx context.Context, args json.RawMessage) (string, error) {
	var p struct {
		ItemName string   `json:"item_name"`
		Amount   *float64 `json:"amount"`
		Category string   `json:"category"`
		Date     string   `json:"date"`
		Currency string   `json:"currency"`
		Note     string   `json:"note"`
	}
	if err := json.Unmarshal(args, &p); err != nil {
		return "", fmt.Errorf("decode arguments: %w", err)
	}
	if p.ItemName == "" {
		return "", errors.New("missing required argument: item_name")
	}
	if p.Amount == nil {
		return "", errors.New("missing required argument: amount")
	}
	if p.Category == "" {
		return "", errors.New("missing required argument: category")
	}

	res, err := t.ledger.Append(ctx, ledger.Entry{
		ItemName: p.ItemName,
		Amount:   *p.Amount,
		Category: p.Category,
		Date:     p.Date,
		Currency: p.Currency,
		Note:     p.Note,
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Saved: %s #%d %s %s (%s)", res.Date, res.RowID, p.ItemName, res.AmountDisplay, p.Category), nil
}

func (t *sheetTools) updateSpecificRow(ctx context.Context, args json.RawMessage) (string, error) {
	var p struct {
		RowID    *int     `json:"row_id"`
		ItemName string   `json:"item_name"`
		Amount   *float64 `json:"amount"`
		Category string   `json:"category"`
		Date     string   `json:"date"`
		Currency string   `json:"currency"`
		Note     string   `json:"note"`
	}
	if err := json.Unmarshal(args, &p); err != nil {
		return "", fmt.Errorf("decode arguments: %w", err)
	}
	if p.RowID == nil {
		return "", errors.New("missing required argument: row_id")
	}

	row, err := t.ledger.Update(ctx, *p.RowID, ledger.Patch{
		ItemName: p.ItemName,
		Amount:   p.Amount,
		Category: p.Category,
		Date:     p.Date,
		Currency: p.Currency,
		Note:     p.Note,
	})
	if errors.Is(err, ledger.ErrRowEmpty) {
		return fmt.Sprintf("⚠️ Row %d seems empty or invalid.", *p.RowID), nil
	}
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("✅ Updated record #%d: %s %s (%s)", *p.RowID, row[1], row[2], row[3]), nil
}

func (t *sheetTools) deleteSpecificRow(ctx context.Context, args json.RawMessage) (string, error) {
	var p struct {
		RowID *int `json:"row_id"`
	}
	if err := json.Unmarshal(args, &p); err != nil {
		return "", fmt.Errorf("decode arguments: %w", err)
	}
	if p.RowID == nil {
		return "", errors.New("missing required argument: row_id")
	}

	err := t.ledger.Delete(ctx, *p.RowID)
	var rangeErr *ledger.RowRangeError
	if errors.As(err, &rangeErr) {
		return fmt.Sprintf("⚠️ Invalid Row ID: %d. (Max is %d)", rangeErr.RowID, rangeErr.Max), nil
	}
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("✅ Deleted record #%d.", *p.RowID), nil
}

func (t *sheetTools) deleteLastRow(ctx context.Context, _ json.RawMessage) (string, error) {
	last, err := t.ledger.DeleteLast(ctx)
	if errors.Is(err, ledger.ErrSheetEmpty) {
		return "⚠️ The sheet seems empty (or only has headers).", nil
	}
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("✅ Deleted the last record (Row %d).", last), nil
}

func (t *sheetTools) calculateTotal(ctx context.Context, args json.RawMessage) (string, error) {
	var p struct {
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}
	if err := json.Unmarshal(args, &p); err != nil {
		return "", fmt.Errorf("decode arguments: %w", err)
	}

	// An omitted bound leaves that side of the range open.
	return t.ledger.Total(ctx, p.StartDate, p.EndDate)
}
