package sheets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/deal-flow/internal/common"
	"github.com/Veraticus/deal-flow/internal/model"
	"github.com/Veraticus/deal-flow/internal/service"
)

type valuesCall struct {
	Range  string
	Values [][]any
}

// fakeAPI records requests and serves an in-memory spreadsheet.
type fakeAPI struct {
	existing      *sheets.Spreadsheet
	created       *sheets.Spreadsheet
	updateErrs    []error
	batchRequests []*sheets.Request
	updates       []valuesCall
	clears        []string
	nextSheetID   int64
	mu            sync.Mutex
}

func (f *fakeAPI) Create(_ context.Context, s *sheets.Spreadsheet) (*sheets.Spreadsheet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, sh := range s.Sheets {
		sh.Properties.SheetId = int64(100 + i)
	}
	s.SpreadsheetId = "new-id"
	f.created = s
	return s, nil
}

func (f *fakeAPI) Get(_ context.Context, id string) (*sheets.Spreadsheet, error) {
	if f.existing == nil || f.existing.SpreadsheetId != id {
		return nil, &googleapi.Error{Code: http.StatusNotFound, Message: "not found"}
	}
	return f.existing, nil
}

func (f *fakeAPI) BatchUpdate(_ context.Context, _ string, req *sheets.BatchUpdateSpreadsheetRequest) (*sheets.BatchUpdateSpreadsheetResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.batchRequests = append(f.batchRequests, req.Requests...)
	resp := &sheets.BatchUpdateSpreadsheetResponse{}
	for _, r := range req.Requests {
		reply := &sheets.Response{}
		if r.AddSheet != nil {
			f.nextSheetID++
			reply.AddSheet = &sheets.AddSheetResponse{Properties: &sheets.SheetProperties{
				Title:   r.AddSheet.Properties.Title,
				SheetId: f.nextSheetID,
			}}
		}
		resp.Replies = append(resp.Replies, reply)
	}
	return resp, nil
}

func (f *fakeAPI) UpdateValues(_ context.Context, _, rng string, vr *sheets.ValueRange) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.updateErrs) > 0 {
		err := f.updateErrs[0]
		f.updateErrs = f.updateErrs[1:]
		return err
	}
	f.updates = append(f.updates, valuesCall{Range: rng, Values: vr.Values})
	return nil
}

func (f *fakeAPI) ClearValues(_ context.Context, _, rng string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.clears = append(f.clears, rng)
	return nil
}

func testConfig() Config {
	c := DefaultConfig()
	c.ServiceAccountPath = "/keys/sa.json"
	c.RetryDelay = time.Millisecond
	return c
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testWorkbook() service.Workbook {
	return service.Workbook{
		FileName: "Kiva_report_2024-07-01_to_2024-07-07.xlsx",
		Sheets: []model.Table{
			{
				Name:    "MV_Sales",
				Columns: []string{"Order ID", "Order Time", "Gross Sales"},
				Rows: [][]any{
					{"A-1", time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC), 100.0},
					{"A-2", nil, 25.5},
				},
			},
			{
				Name:    "Summary",
				Columns: []string{"Brand", "Share"},
				Rows:    [][]any{{"Kiva", math.NaN()}},
			},
		},
	}
}

func TestMirror_CreatesSpreadsheetPerWorkbook(t *testing.T) {
	api := &fakeAPI{}
	m := newMirror(api, testConfig(), quietLogger())

	require.NoError(t, m.Mirror(context.Background(), testWorkbook()))

	require.NotNil(t, api.created)
	assert.Equal(t, "Deal Reports: Kiva_report_2024-07-01_to_2024-07-07", api.created.Properties.Title)
	require.Len(t, api.created.Sheets, 2)
	assert.Equal(t, "MV_Sales", api.created.Sheets[0].Properties.Title)
	assert.Equal(t, "Summary", api.created.Sheets[1].Properties.Title)

	require.Len(t, api.updates, 2)
	assert.Equal(t, "'MV_Sales'!A1", api.updates[0].Range)
	assert.Equal(t, [][]any{
		{"Order ID", "Order Time", "Gross Sales"},
		{"A-1", "2024-07-01 10:00:00", 100.0},
		{"A-2", "", 25.5},
	}, api.updates[0].Values)
	assert.Equal(t, [][]any{{"Brand", "Share"}, {"Kiva", "NaN"}}, api.updates[1].Values)

	var formatted []int64
	for _, r := range api.batchRequests {
		if r.RepeatCell != nil {
			formatted = append(formatted, r.RepeatCell.Range.SheetId)
		}
	}
	assert.Equal(t, []int64{100, 101}, formatted)
}

func TestMirror_SharedSpreadsheet(t *testing.T) {
	api := &fakeAPI{
		existing: &sheets.Spreadsheet{
			SpreadsheetId: "shared",
			Sheets: []*sheets.Sheet{
				{Properties: &sheets.SheetProperties{Title: "Kiva_report_2024-07-01_to_2024-07-07 Summary", SheetId: 7}},
			},
		},
	}
	config := testConfig()
	config.SpreadsheetID = "shared"
	config.EnableFormatting = false
	m := newMirror(api, config, quietLogger())

	require.NoError(t, m.Mirror(context.Background(), testWorkbook()))

	assert.Nil(t, api.created)
	assert.Equal(t, []string{"'Kiva_report_2024-07-01_to_2024-07-07 Summary'"}, api.clears)

	require.Len(t, api.batchRequests, 1)
	require.NotNil(t, api.batchRequests[0].AddSheet)
	assert.Equal(t, "Kiva_report_2024-07-01_to_2024-07-07 MV_Sales", api.batchRequests[0].AddSheet.Properties.Title)
	assert.Len(t, api.updates, 2)
}

func TestMirror_Batches(t *testing.T) {
	api := &fakeAPI{}
	config := testConfig()
	config.BatchSize = 2
	config.EnableFormatting = false
	m := newMirror(api, config, quietLogger())

	wb := testWorkbook()
	wb.Sheets = wb.Sheets[:1]
	require.NoError(t, m.Mirror(context.Background(), wb))

	require.Len(t, api.updates, 2)
	assert.Equal(t, "'MV_Sales'!A1", api.updates[0].Range)
	assert.Len(t, api.updates[0].Values, 2)
	assert.Equal(t, "'MV_Sales'!A3", api.updates[1].Range)
	assert.Len(t, api.updates[1].Values, 1)
}

func TestMirror_RetriesTransientErrors(t *testing.T) {
	api := &fakeAPI{updateErrs: []error{
		&googleapi.Error{Code: http.StatusServiceUnavailable, Message: "backend error"},
	}}
	config := testConfig()
	config.EnableFormatting = false
	m := newMirror(api, config, quietLogger())

	wb := testWorkbook()
	wb.Sheets = wb.Sheets[:1]
	require.NoError(t, m.Mirror(context.Background(), wb))
	assert.Len(t, api.updates, 1)
}

func TestMirror_ClientErrorsAreFinal(t *testing.T) {
	api := &fakeAPI{updateErrs: []error{
		&googleapi.Error{Code: http.StatusForbidden, Message: "caller lacks permission"},
		&googleapi.Error{Code: http.StatusForbidden, Message: "caller lacks permission"},
	}}
	m := newMirror(api, testConfig(), quietLogger())

	err := m.Mirror(context.Background(), testWorkbook())
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrMaxRetries)
	assert.Len(t, api.updateErrs, 1, "a forbidden write is not retried")
}

func TestMirror_MissingSharedSpreadsheet(t *testing.T) {
	config := testConfig()
	config.SpreadsheetID = "gone"
	m := newMirror(&fakeAPI{}, config, quietLogger())

	err := m.Mirror(context.Background(), testWorkbook())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to access spreadsheet gone")
}

func TestClassify(t *testing.T) {
	plain := fmt.Errorf("dial tcp: connection reset")
	assert.Nil(t, classify(nil))
	assert.Equal(t, plain, classify(plain))

	limited := classify(&googleapi.Error{Code: http.StatusTooManyRequests})
	assert.ErrorIs(t, limited, common.ErrRateLimit)
	assert.True(t, common.IsRetryable(limited))

	final := classify(&googleapi.Error{Code: http.StatusBadRequest})
	assert.False(t, common.IsRetryable(final))
}

func TestTabTitle(t *testing.T) {
	m := newMirror(&fakeAPI{}, testConfig(), nil)
	assert.Equal(t, "Summary", m.tabTitle("label", "Summary"))

	m.config.SpreadsheetID = "shared"
	assert.Equal(t, "label Summary", m.tabTitle("label", "Summary"))

	long := m.tabTitle(string(make([]rune, 120)), "Summary")
	assert.Len(t, []rune(long), maxTabTitle)
}

func TestQuoteTitle(t *testing.T) {
	assert.Equal(t, "'Big Pete''s'", quoteTitle("Big Pete's"))
}
