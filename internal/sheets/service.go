package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
	"salesrecon/internal/logger"
	"salesrecon/internal/tables"
)

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// Service reads source tables from and writes report tables to one
// Google spreadsheet.
type Service struct {
	sheetsService *sheets.Service
	spreadsheetID string
	log           zerolog.Logger
}

// NewSheetsService creates a new Google Sheets service
func NewSheetsService(ctx context.Context, sheetURL string) (*Service, error) {
	const op = "NewSheetsService"

	log := logger.WithComponent("sheets")

	spreadsheetID, err := extractSpreadsheetID(sheetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to extract spreadsheet ID: %w", op, err)
	}

	log.Debug().Str("spreadsheet_id", spreadsheetID).Msg("Extracted spreadsheet ID")

	var creds []byte
	if credsFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credsFile != "" {
		creds, err = os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read credentials file: %w", op, err)
		}
	} else if credsJSON := os.Getenv("GOOGLE_CREDENTIALS"); credsJSON != "" {
		creds = []byte(credsJSON)
	} else {
		return nil, fmt.Errorf("%s: neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set", op)
	}

	config, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse credentials: %w", op, err)
	}

	client := config.Client(ctx)
	sheetsService, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}

	return newService(sheetsService, spreadsheetID), nil
}

func newService(sheetsService *sheets.Service, spreadsheetID string) *Service {
	return &Service{
		sheetsService: sheetsService,
		spreadsheetID: spreadsheetID,
		log:           logger.WithComponent("sheets"),
	}
}

// extractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL
func extractSpreadsheetID(url string) (string, error) {
	matches := spreadsheetIDPattern.FindStringSubmatch(url)
	if len(matches) < 2 {
		return "", fmt.Errorf("invalid Google Sheets URL format")
	}
	return matches[1], nil
}

// ReadTable reads a whole sheet as a table. The first non-empty row is the
// header. A missing or empty sheet yields an empty table.
func (s *Service) ReadTable(ctx context.Context, sheetName string) (*tables.Table, error) {
	const op = "ReadTable"

	_, exists, err := s.lookupSheet(ctx, sheetName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		s.log.Warn().Str("sheet", sheetName).Msg("Sheet does not exist, reading it as empty")
		return tables.New(sheetName, nil, nil), nil
	}

	values, err := s.ReadRange(ctx, quoteSheet(sheetName))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(values) == 0 {
		s.log.Warn().Str("sheet", sheetName).Msg("Sheet is empty")
		return tables.New(sheetName, nil, nil), nil
	}

	t, err := tables.FromValues(sheetName, values)
	if errors.Is(err, tables.ErrNoHeader) {
		return tables.New(sheetName, nil, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info().
		Str("sheet", sheetName).
		Int("rows", t.Len()).
		Msg("Sheet read successfully")

	return t, nil
}

// WriteTable replaces the content of the named sheet with the table, creating
// the sheet when needed.
func (s *Service) WriteTable(ctx context.Context, table tables.Sheet) error {
	const op = "WriteTable"

	sheetID, err := s.ensureSheet(ctx, table.Name)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.sheetsService.Spreadsheets.Values.Clear(
		s.spreadsheetID,
		quoteSheet(table.Name),
		&sheets.ClearValuesRequest{},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to clear sheet %s: %w", op, table.Name, err)
	}

	valueRange := &sheets.ValueRange{Values: table.Values()}
	_, err = s.sheetsService.Spreadsheets.Values.Update(
		s.spreadsheetID,
		quoteSheet(table.Name)+"!A1",
		valueRange,
	).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to write sheet %s: %w", op, table.Name, err)
	}

	if err := s.formatHeaders(ctx, sheetID, int64(len(table.Header))); err != nil {
		s.log.Warn().Err(err).Msg("Failed to format headers, continuing anyway")
	}

	s.log.Info().
		Str("sheet", table.Name).
		Int("rows_written", len(table.Rows)).
		Msg("Successfully wrote table to Google Sheet")

	return nil
}

// ensureSheet returns the id of the named sheet, creating it if it does not exist.
func (s *Service) ensureSheet(ctx context.Context, sheetName string) (int64, error) {
	const op = "ensureSheet"

	sheetID, exists, err := s.lookupSheet(ctx, sheetName)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return sheetID, nil
	}

	s.log.Info().Str("sheet", sheetName).Msg("Creating new sheet")

	batchUpdateReq := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: sheetName},
			}},
		},
	}

	resp, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, batchUpdateReq).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to create sheet: %w", op, err)
	}

	return resp.Replies[0].AddSheet.Properties.SheetId, nil
}

// lookupSheet returns the id of the named sheet and whether it exists.
func (s *Service) lookupSheet(ctx context.Context, sheetName string) (int64, bool, error) {
	const op = "lookupSheet"

	spreadsheet, err := s.sheetsService.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, false, fmt.Errorf("%s: failed to get spreadsheet: %w", op, err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == sheetName {
			return sheet.Properties.SheetId, true, nil
		}
	}
	return 0, false, nil
}

// formatHeaders makes the header row bold and applies basic formatting
func (s *Service) formatHeaders(ctx context.Context, sheetID, columns int64) error {
	const op = "formatHeaders"

	if columns == 0 {
		return nil
	}

	requests := []*sheets.Request{
		// Make header row bold
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   columns,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{
							Bold: true,
						},
						BackgroundColor: &sheets.Color{
							Red:   0.9,
							Green: 0.9,
							Blue:  0.9,
						},
					},
				},
				Fields: "userEnteredFormat(textFormat,backgroundColor)",
			},
		},
		// Auto-resize columns
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   columns,
				},
			},
		},
	}

	batchUpdateReq := &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}
	_, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, batchUpdateReq).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to format headers: %w", op, err)
	}

	return nil
}

// ReadRange reads values from a specified range in the spreadsheet
func (s *Service) ReadRange(ctx context.Context, rangeSpec string) ([][]interface{}, error) {
	const op = "ReadRange"

	s.log.Debug().
		Str("range", rangeSpec).
		Msg("Reading range from spreadsheet")

	resp, err := s.sheetsService.Spreadsheets.Values.Get(s.spreadsheetID, rangeSpec).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read range %s: %w", op, rangeSpec, err)
	}

	s.log.Debug().
		Int("rows", len(resp.Values)).
		Str("range", rangeSpec).
		Msg("Successfully read range from spreadsheet")

	return resp.Values, nil
}

// quoteSheet quotes a sheet title for use in A1 notation. Quotes inside the
// title are doubled.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
