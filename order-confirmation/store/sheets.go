package store

import (
	"context"
	"fmt"
	"strings"

	"go.temporal.io/sdk/log"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"voice-order-confirm/order-confirmation/types"
)

// Sheets reads and writes the order table in a Google Sheets worksheet laid out
// as a header row followed by one row per order, columns A through G.
type Sheets struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
	sheetName     string
	logger        log.Logger
}

// NewSheets authenticates with a service account file and opens sheetName in spreadsheetID
func NewSheets(ctx context.Context, credentialsFile, spreadsheetID, sheetName string, logger log.Logger) (*Sheets, error) {
	if spreadsheetID == "" {
		return nil, &types.ValidationError{Msg: "spreadsheet id is required"}
	}
	if sheetName == "" {
		sheetName = "Sheet1"
	}
	srv, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	return &Sheets{
		values:        srv.Spreadsheets.Values,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger,
	}, nil
}

// columnLetter returns the A1 column letter for col
func columnLetter(col Column) (string, bool) {
	for i, c := range Columns {
		if c == col {
			return string(rune('A' + i)), true
		}
	}
	return "", false
}

func (s *Sheets) cell(row Row, col Column) (string, error) {
	letter, ok := columnLetter(col)
	if !ok {
		return "", unknownColumn(col)
	}
	return fmt.Sprintf("%s!%s%d", s.sheetName, letter, row), nil
}

func (s *Sheets) FindRow(ctx context.Context, orderID string) (Row, error) {
	resp, err := s.values.Get(s.spreadsheetID, s.sheetName+"!A:A").Context(ctx).Do()
	if err != nil {
		return 0, &types.TransportError{Op: "sheets find row", Err: err}
	}
	id := strings.TrimSpace(orderID)
	for i, r := range resp.Values {
		if i == 0 || len(r) == 0 {
			continue
		}
		if cellString(r[0]) == id {
			return Row(i + 1), nil
		}
	}
	return 0, &types.NotFoundError{OrderID: orderID}
}

func (s *Sheets) ReadField(ctx context.Context, row Row, col Column) (string, error) {
	rng, err := s.cell(row, col)
	if err != nil {
		return "", err
	}
	resp, err := s.values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", &types.TransportError{Op: "sheets read " + rng, Err: err}
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		return "", nil
	}
	return cellString(resp.Values[0][0]), nil
}

func (s *Sheets) WriteField(ctx context.Context, row Row, col Column, value string) error {
	rng, err := s.cell(row, col)
	if err != nil {
		return err
	}
	_, err = s.values.Update(s.spreadsheetID, rng, &sheets.ValueRange{
		Values: [][]interface{}{{value}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return &types.TransportError{Op: "sheets write " + rng, Err: err}
	}
	return nil
}

func (s *Sheets) WriteFields(ctx context.Context, row Row, fields []Field) error {
	data := make([]*sheets.ValueRange, 0, len(fields))
	for _, f := range fields {
		rng, err := s.cell(row, f.Column)
		if err != nil {
			return err
		}
		data = append(data, &sheets.ValueRange{Range: rng, Values: [][]interface{}{{f.Value}}})
	}
	_, err := s.values.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return &types.TransportError{Op: fmt.Sprintf("sheets batch write row %d", row), Err: err}
	}
	return nil
}

func (s *Sheets) ReadAllRows(ctx context.Context) ([]types.OrderRecord, error) {
	resp, err := s.values.Get(s.spreadsheetID, s.sheetName+"!A:G").Context(ctx).Do()
	if err != nil {
		return nil, &types.TransportError{Op: "sheets read all", Err: err}
	}
	records, missing := recordsFromValues(resp.Values)
	for _, col := range missing {
		s.logger.Warn("Worksheet header is missing a column", "column", string(col), "sheet", s.sheetName)
	}
	return records, nil
}

// recordsFromValues converts a header row plus data rows into records, padding
// short rows. It also reports expected columns absent from the header.
func recordsFromValues(values [][]interface{}) ([]types.OrderRecord, []Column) {
	if len(values) == 0 {
		return nil, nil
	}

	header := make(map[string]bool, len(values[0]))
	for _, h := range values[0] {
		header[cellString(h)] = true
	}
	var missing []Column
	for _, col := range Columns {
		if !header[string(col)] {
			missing = append(missing, col)
		}
	}

	records := make([]types.OrderRecord, 0, len(values)-1)
	for i, r := range values[1:] {
		rec := types.OrderRecord{Row: i + 2}
		for j, col := range Columns {
			v := ""
			if j < len(r) {
				v = cellString(r[j])
			}
			setField(&rec, col, v)
		}
		records = append(records, rec)
	}
	return records, missing
}

func cellString(v interface{}) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
