package spreadsheet

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/deal-flow/internal/common"
	"github.com/Veraticus/deal-flow/internal/model"
	"github.com/Veraticus/deal-flow/internal/service"
)

func testWorkbook() service.Workbook {
	return service.Workbook{
		FileName: "Kiva_report.xlsx",
		Sheets: []model.Table{
			{
				Name:    "MV_Sales",
				Columns: []string{"Order ID", "Vendor Name", "Gross Sales", "Order Time"},
				Rows: [][]any{
					{"A-1", "Kiva", 100.0, time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)},
					{"A-2", "Med For America Inc.", 25.5, nil},
				},
			},
			{
				Name:    "Summary",
				Columns: []string{"Brand"},
				Rows:    [][]any{{"Kiva"}, {}, {"Totals"}},
			},
		},
	}
}

func TestWriter_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "Kiva_report.xlsx")
	require.NoError(t, NewWriter(1).Write(context.Background(), path, testWorkbook()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"MV_Sales", "Summary"}, f.GetSheetList())

	rows, err := f.GetRows("MV_Sales")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Order ID", "Vendor Name", "Gross Sales", "Order Time"}, rows[0])
	assert.Equal(t, "Med For America Inc.", rows[2][1])

	t.Run("columns fit longest text plus padding", func(t *testing.T) {
		width, err := f.GetColWidth("MV_Sales", "B")
		require.NoError(t, err)
		assert.Equal(t, float64(len("Med For America Inc.")+1), width)

		width, err = f.GetColWidth("MV_Sales", "A")
		require.NoError(t, err)
		assert.Equal(t, float64(len("Order ID")+1), width)
	})

	t.Run("rows share one height", func(t *testing.T) {
		for row := 1; row <= 3; row++ {
			height, err := f.GetRowHeight("MV_Sales", row)
			require.NoError(t, err)
			assert.Equal(t, float64(DefaultRowHeight), height)
		}
	})

	t.Run("header is bold and centered", func(t *testing.T) {
		styleID, err := f.GetCellStyle("MV_Sales", "C1")
		require.NoError(t, err)
		style, err := f.GetStyle(styleID)
		require.NoError(t, err)
		require.NotNil(t, style.Font)
		assert.True(t, style.Font.Bold)
		require.NotNil(t, style.Alignment)
		assert.Equal(t, "center", style.Alignment.Horizontal)

		bodyID, err := f.GetCellStyle("MV_Sales", "C2")
		require.NoError(t, err)
		assert.NotEqual(t, styleID, bodyID)
	})

	t.Run("blank rows stay blank", func(t *testing.T) {
		rows, err := f.GetRows("Summary")
		require.NoError(t, err)
		require.Len(t, rows, 4)
		assert.Empty(t, rows[2])
		assert.Equal(t, []string{"Totals"}, rows[3])
	})
}

func TestWriter_ReplacesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o600))

	require.NoError(t, NewWriter(2).Write(context.Background(), path, testWorkbook()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"MV_Sales", "Summary"}, f.GetSheetList())
}

func TestWriter_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("no sheets", func(t *testing.T) {
		err := NewWriter(1).Write(context.Background(), filepath.Join(dir, "empty.xlsx"), service.Workbook{})
		assert.ErrorIs(t, err, common.ErrSinkFailure)
	})

	t.Run("unwritable destination", func(t *testing.T) {
		blocker := filepath.Join(dir, "file")
		require.NoError(t, os.WriteFile(blocker, nil, 0o600))

		err := NewWriter(1).Write(context.Background(), filepath.Join(blocker, "out.xlsx"), testWorkbook())
		assert.ErrorIs(t, err, common.ErrSinkFailure)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewWriter(1).Write(ctx, filepath.Join(dir, "canceled.xlsx"), testWorkbook())
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestColumnWidth(t *testing.T) {
	assert.Equal(t, 9.0, ColumnWidth(8, 1))
	assert.Equal(t, 10.0, ColumnWidth(8, 2))
	assert.Equal(t, 1.0, ColumnWidth(0, 0))
	assert.Equal(t, 255.0, ColumnWidth(1000, 2))
}

func TestWriter_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "round.xlsx")
	wb := service.Workbook{
		FileName: "round.xlsx",
		Sheets: []model.Table{{
			Name:    "Summary",
			Columns: []string{"Brand", "Location", "Gross Sales"},
			Rows: [][]any{
				{"Kiva", "MV", 350.0},
				{"Big Petes", "", 12.5},
			},
		}},
	}
	require.NoError(t, NewWriter(1).Write(context.Background(), path, wb))

	table, err := NewLoader(WithHeaderOffset(0)).Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, wb.Sheets[0].Columns, table.Columns)
	assert.Equal(t, [][]any{
		{"Kiva", "MV", "350"},
		{"Big Petes", "", "12.5"},
	}, table.Rows)
}
