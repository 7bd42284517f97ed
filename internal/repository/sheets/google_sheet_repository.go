package sheets

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	driveapi "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/sandwiches/internal/config"
)

// Repository defines the row store operations the market workflow relies on.
// Columns are 1-based and values are returned oldest first, header included.
type Repository interface {
	AppendRow(ctx context.Context, sheet string, row []int) error
	ReadAllRows(ctx context.Context, sheet string) ([][]string, error)
	ReadColumn(ctx context.Context, sheet string, column int) ([]string, error)
}

// Scopes requested for the service account.
var Scopes = []string{
	sheetsapi.SpreadsheetsScope,
	driveapi.DriveFileScope,
	driveapi.DriveScope,
}

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// GoogleSheetRepository implements Repository using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
// When no spreadsheet ID is configured the document is looked up by name.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []option.ClientOption{
		option.WithCredentialsFile(cfg.CredentialsPath),
		option.WithScopes(Scopes...),
	}

	service, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: initialize sheets client: %w", ErrUnauthorized, err)
	}

	spreadsheetID := cfg.SpreadsheetID
	if spreadsheetID == "" {
		spreadsheetID, err = lookupSpreadsheetID(ctx, cfg.SpreadsheetName, opts)
		if err != nil {
			return nil, err
		}
		logger.Info("spreadsheet resolved by name",
			zap.String("name", cfg.SpreadsheetName),
			zap.String("spreadsheet_id", spreadsheetID))
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: spreadsheetID,
		logger:        logger,
	}, nil
}

func lookupSpreadsheetID(ctx context.Context, name string, opts []option.ClientOption) (string, error) {
	if name == "" {
		return "", errors.New("spreadsheet name must not be empty")
	}

	drive, err := driveapi.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: initialize drive client: %w", ErrUnauthorized, err)
	}

	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		strings.ReplaceAll(name, "'", `\'`), spreadsheetMimeType)

	list, err := drive.Files.List().Q(query).Fields("files(id, name)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("find spreadsheet %q: %w", name, classify(err))
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("%w: spreadsheet %q", ErrNotFound, name)
	}

	return list.Files[0].Id, nil
}

// AppendRow appends the provided values after the last row of the sheet.
func (r *GoogleSheetRepository) AppendRow(ctx context.Context, sheet string, row []int) error {
	if sheet == "" {
		return fmt.Errorf("sheet must not be empty")
	}

	values := make([]interface{}, len(row))
	for i, v := range row {
		values[i] = v
	}
	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, quoteSheet(sheet), payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append row into sheet %s: %w", sheet, classify(err))
	}

	r.logger.Debug("row appended to sheet", zap.String("sheet", sheet), zap.Ints("row", row))
	return nil
}

// ReadAllRows fetches every populated row of the sheet.
func (r *GoogleSheetRepository) ReadAllRows(ctx context.Context, sheet string) ([][]string, error) {
	if sheet == "" {
		return nil, fmt.Errorf("sheet must not be empty")
	}

	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, quoteSheet(sheet)).
		ValueRenderOption(valueRender).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, classify(err))
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		rows = append(rows, stringify(raw))
	}
	return rows, nil
}

// ReadColumn fetches every populated cell of one column.
func (r *GoogleSheetRepository) ReadColumn(ctx context.Context, sheet string, column int) ([]string, error) {
	if sheet == "" {
		return nil, fmt.Errorf("sheet must not be empty")
	}

	letter, err := excelize.ColumnNumberToName(column)
	if err != nil {
		return nil, fmt.Errorf("column %d: %w", column, err)
	}

	sheetRange := fmt.Sprintf("%s!%s:%s", quoteSheet(sheet), letter, letter)
	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange).
		MajorDimension("COLUMNS").
		ValueRenderOption(valueRender).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, classify(err))
	}

	if len(resp.Values) == 0 {
		return []string{}, nil
	}
	return stringify(resp.Values[0]), nil
}

// valueRender asks for raw cell values, so numbers arrive unformatted by the
// sheet's locale or number format.
const valueRender = "UNFORMATTED_VALUE"

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func stringify(values []interface{}) []string {
	out := make([]string, len(values))
	for i, v := range values {
		switch n := v.(type) {
		case float64:
			out[i] = strconv.FormatFloat(n, 'f', -1, 64)
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}
