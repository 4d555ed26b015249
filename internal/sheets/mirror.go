package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/deal-flow/internal/common"
	"github.com/Veraticus/deal-flow/internal/model"
	"github.com/Veraticus/deal-flow/internal/service"
)

// maxTabTitle is the longest sheet title the API accepts.
const maxTabTitle = 100

// spreadsheetAPI is the subset of the Sheets API the mirror drives.
type spreadsheetAPI interface {
	Create(ctx context.Context, s *sheets.Spreadsheet) (*sheets.Spreadsheet, error)
	Get(ctx context.Context, id string) (*sheets.Spreadsheet, error)
	BatchUpdate(ctx context.Context, id string, req *sheets.BatchUpdateSpreadsheetRequest) (*sheets.BatchUpdateSpreadsheetResponse, error)
	UpdateValues(ctx context.Context, id, rng string, vr *sheets.ValueRange) error
	ClearValues(ctx context.Context, id, rng string) error
}

// Mirror copies report workbooks into Google Sheets.
type Mirror struct {
	api    spreadsheetAPI
	logger *slog.Logger
	config Config
}

var _ service.Mirror = (*Mirror)(nil)

// NewMirror creates a Google Sheets mirror.
func NewMirror(ctx context.Context, config Config, logger *slog.Logger) (*Mirror, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	srv, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return newMirror(serviceAPI{srv: srv}, config, logger), nil
}

func newMirror(api spreadsheetAPI, config Config, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mirror{api: api, config: config, logger: logger}
}

// Mirror writes every sheet of the workbook to its own tab.
func (m *Mirror) Mirror(ctx context.Context, wb service.Workbook) error {
	label := strings.TrimSuffix(wb.FileName, filepath.Ext(wb.FileName))
	m.logger.Info("mirroring workbook", "workbook", label, "sheets", len(wb.Sheets))

	titles := make([]string, len(wb.Sheets))
	for i, t := range wb.Sheets {
		titles[i] = m.tabTitle(label, t.Name)
	}

	retryOpts := m.retryOptions()

	var spreadsheetID string
	var tabIDs map[string]int64
	err := common.WithRetry(ctx, func() error {
		var err error
		spreadsheetID, tabIDs, err = m.prepareTabs(ctx, label, titles)
		return classify(err)
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to prepare spreadsheet: %w", err)
	}

	for i, t := range wb.Sheets {
		values := tableValues(t)
		title := titles[i]

		err := common.WithRetry(ctx, func() error {
			return classify(m.writeData(ctx, spreadsheetID, title, values))
		}, retryOpts)
		if err != nil {
			return fmt.Errorf("failed to write tab %q: %w", title, err)
		}

		if m.config.EnableFormatting && len(t.Columns) > 0 {
			err = common.WithRetry(ctx, func() error {
				return classify(m.applyFormatting(ctx, spreadsheetID, tabIDs[title], len(t.Columns)))
			}, retryOpts)
			if err != nil {
				m.logger.Warn("failed to apply formatting", "tab", title, "error", err)
			}
		}
	}

	m.logger.Info("workbook mirrored", "workbook", label, "spreadsheet_id", spreadsheetID)
	return nil
}

func (m *Mirror) retryOptions() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  m.config.RetryAttempts,
		InitialDelay: m.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// tabTitle names a tab. A shared spreadsheet holds many workbooks, so the
// workbook label prefixes each of its sheet names there.
func (m *Mirror) tabTitle(label, sheet string) string {
	if m.config.SpreadsheetID == "" {
		return sheet
	}
	title := label + " " + sheet
	if r := []rune(title); len(r) > maxTabTitle {
		title = string(r[len(r)-maxTabTitle:])
	}
	return title
}

// prepareTabs returns a spreadsheet holding an empty tab for every title.
func (m *Mirror) prepareTabs(ctx context.Context, label string, titles []string) (string, map[string]int64, error) {
	if m.config.SpreadsheetID == "" {
		return m.createSpreadsheet(ctx, label, titles)
	}

	existing, err := m.api.Get(ctx, m.config.SpreadsheetID)
	if err != nil {
		return "", nil, fmt.Errorf("unable to access spreadsheet %s: %w", m.config.SpreadsheetID, err)
	}
	ids := sheetIDs(existing)

	var add []*sheets.Request
	for _, title := range titles {
		if _, ok := ids[title]; ok {
			if err := m.api.ClearValues(ctx, m.config.SpreadsheetID, quoteTitle(title)); err != nil {
				return "", nil, fmt.Errorf("unable to clear tab %q: %w", title, err)
			}
			continue
		}
		add = append(add, &sheets.Request{
			AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: title}},
		})
	}

	if len(add) > 0 {
		resp, err := m.api.BatchUpdate(ctx, m.config.SpreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: add})
		if err != nil {
			return "", nil, fmt.Errorf("unable to add tabs: %w", err)
		}
		for _, r := range resp.Replies {
			if r.AddSheet != nil && r.AddSheet.Properties != nil {
				ids[r.AddSheet.Properties.Title] = r.AddSheet.Properties.SheetId
			}
		}
	}

	return m.config.SpreadsheetID, ids, nil
}

func (m *Mirror) createSpreadsheet(ctx context.Context, label string, titles []string) (string, map[string]int64, error) {
	title := label
	if m.config.SpreadsheetName != "" {
		title = m.config.SpreadsheetName + ": " + label
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    title,
			TimeZone: m.config.TimeZone,
		},
	}
	for _, t := range titles {
		spreadsheet.Sheets = append(spreadsheet.Sheets, &sheets.Sheet{
			Properties: &sheets.SheetProperties{Title: t},
		})
	}

	created, err := m.api.Create(ctx, spreadsheet)
	if err != nil {
		return "", nil, fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	m.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	return created.SpreadsheetId, sheetIDs(created), nil
}

func sheetIDs(s *sheets.Spreadsheet) map[string]int64 {
	ids := make(map[string]int64, len(s.Sheets))
	for _, sh := range s.Sheets {
		if sh.Properties != nil {
			ids[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	return ids
}

func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// tableValues flattens a table into API cell values, header first.
func tableValues(t model.Table) [][]any {
	values := make([][]any, 0, len(t.Rows)+1)
	if len(t.Columns) > 0 {
		header := make([]any, len(t.Columns))
		for i, c := range t.Columns {
			header[i] = c
		}
		values = append(values, header)
	}
	for _, row := range t.Rows {
		out := make([]any, len(row))
		for i, v := range row {
			out[i] = cellValue(v)
		}
		values = append(values, out)
	}
	return values
}

func cellValue(v any) any {
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format("2006-01-02 15:04:05")
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Sprint(x)
		}
		return x
	default:
		return v
	}
}

// writeData writes values to a tab in batches to stay under API limits.
func (m *Mirror) writeData(ctx context.Context, spreadsheetID, title string, values [][]any) error {
	batchSize := m.config.BatchSize
	if batchSize <= 0 {
		batchSize = len(values)
	}

	for i := 0; i < len(values); i += batchSize {
		end := min(i+batchSize, len(values))

		batch := values[i:end]
		rangeStr := fmt.Sprintf("%s!A%d", quoteTitle(title), i+1)
		if err := m.api.UpdateValues(ctx, spreadsheetID, rangeStr, &sheets.ValueRange{Values: batch}); err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		m.logger.Debug("wrote batch", "tab", title, "start_row", i+1, "rows", len(batch))
	}

	return nil
}

// applyFormatting bolds the header row, freezes it and sizes columns to fit.
func (m *Mirror) applyFormatting(ctx context.Context, spreadsheetID string, sheetID int64, columns int) error {
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   int64(columns),
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat:          &sheets.TextFormat{Bold: true},
						HorizontalAlignment: "CENTER",
					},
				},
				Fields: "userEnteredFormat(textFormat,horizontalAlignment)",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   int64(columns),
				},
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId: sheetID,
					GridProperties: &sheets.GridProperties{
						FrozenRowCount: 1,
					},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}

	_, err := m.api.BatchUpdate(ctx, spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: requests})
	return err
}

// classify marks client errors as final and rate limits as such for WithRetry.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case apiErr.Code >= 400 && apiErr.Code < 500:
		return &common.RetryableError{Err: err, Retryable: false}
	default:
		return err
	}
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}
		tokenSource = oauthConfig(config.ClientID, config.ClientSecret, "").TokenSource(ctx, token)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// serviceAPI adapts the generated client to spreadsheetAPI.
type serviceAPI struct {
	srv *sheets.Service
}

func (a serviceAPI) Create(ctx context.Context, s *sheets.Spreadsheet) (*sheets.Spreadsheet, error) {
	return a.srv.Spreadsheets.Create(s).Context(ctx).Do()
}

func (a serviceAPI) Get(ctx context.Context, id string) (*sheets.Spreadsheet, error) {
	return a.srv.Spreadsheets.Get(id).Context(ctx).Do()
}

func (a serviceAPI) BatchUpdate(ctx context.Context, id string, req *sheets.BatchUpdateSpreadsheetRequest) (*sheets.BatchUpdateSpreadsheetResponse, error) {
	return a.srv.Spreadsheets.BatchUpdate(id, req).Context(ctx).Do()
}

func (a serviceAPI) UpdateValues(ctx context.Context, id, rng string, vr *sheets.ValueRange) error {
	_, err := a.srv.Spreadsheets.Values.Update(id, rng, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

func (a serviceAPI) ClearValues(ctx context.Context, id, rng string) error {
	_, err := a.srv.Spreadsheets.Values.Clear(id, rng, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}
