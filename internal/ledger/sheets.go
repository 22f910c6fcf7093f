package ledger

import (
	"context"
	"fmt"
	"strconv"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// rowRange covers the five ledger columns.
const rowRange = "A:E"

// GoogleSheet implements Sheet against the first worksheet of a Google
// Sheets spreadsheet.
type GoogleSheet struct {
	srv     *sheets.Service
	sheetID string
	gridID  int64
}

// NewGoogleSheet creates a Sheet backed by the Google Sheets API using
// service-account credentials.
func NewGoogleSheet(ctx context.Context, credentialsFile, sheetID string) (*GoogleSheet, error) {
	srv, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return newGoogleSheet(ctx, srv, sheetID)
}

// newGoogleSheet resolves the first worksheet's grid id from spreadsheet
// metadata. Row deletion addresses worksheets by grid id, which is not
// guaranteed to be 0.
func newGoogleSheet(ctx context.Context, srv *sheets.Service, sheetID string) (*GoogleSheet, error) {
	meta, err := srv.Spreadsheets.Get(sheetID).
		Fields("sheets.properties.sheetId").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet metadata: %w", err)
	}
	if len(meta.Sheets) == 0 || meta.Sheets[0].Properties == nil {
		return nil, fmt.Errorf("spreadsheet %s has no worksheets", sheetID)
	}

	return &GoogleSheet{
		srv:     srv,
		sheetID: sheetID,
		gridID:  meta.Sheets[0].Properties.SheetId,
	}, nil
}

// AllValues reads the whole table.
func (g *GoogleSheet) AllValues(ctx context.Context) ([][]string, error) {
	resp, err := g.srv.Spreadsheets.Values.Get(g.sheetID, rowRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get values: %w", err)
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		rows[i] = cellsToStrings(row)
	}
	return rows, nil
}

// Row reads the single row at n (1-based). A blank row returns nil.
func (g *GoogleSheet) Row(ctx context.Context, n int) ([]string, error) {
	rng := fmt.Sprintf("A%d:E%d", n, n)
	resp, err := g.srv.Spreadsheets.Values.Get(g.sheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get row: %w", err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	return cellsToStrings(resp.Values[0]), nil
}

// SetRow overwrites the row at n.
func (g *GoogleSheet) SetRow(ctx context.Context, n int, values []string) error {
	rng := fmt.Sprintf("A%d:E%d", n, n)
	vr := &sheets.ValueRange{Values: [][]interface{}{stringsToCells(values)}}

	_, err := g.srv.Spreadsheets.Values.Update(g.sheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update row: %w", err)
	}
	return nil
}

// AppendRow adds a row after the table's last row.
func (g *GoogleSheet) AppendRow(ctx context.Context, values []string) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{stringsToCells(values)}}

	_, err := g.srv.Spreadsheets.Values.Append(g.sheetID, rowRange, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return nil
}

// DeleteRow removes the row at n (1-based) from the first worksheet.
func (g *GoogleSheet) DeleteRow(ctx context.Context, n int) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    g.gridID,
					Dimension:  "ROWS",
					StartIndex: int64(n - 1),
					EndIndex:   int64(n),
					// A grid id of 0 is valid and must still be sent.
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}

	_, err := g.srv.Spreadsheets.BatchUpdate(g.sheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("delete row: %w", err)
	}
	return nil
}

// URL returns the spreadsheet's browser URL.
func (g *GoogleSheet) URL() string {
	return "https://docs.google.com/spreadsheets/d/" + g.sheetID
}

func cellsToStrings(cells []interface{}) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		switch v := c.(type) {
		case string:
			out[i] = v
		case float64:
			out[i] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}

func stringsToCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
