package spreadsheet

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/deal-flow/internal/common"
	"github.com/Veraticus/deal-flow/internal/schema"
	"github.com/Veraticus/deal-flow/internal/service"
)

// Styling defaults of the generated workbooks.
const (
	DefaultRowHeight = 17
	maxColumnWidth   = 255
)

// Writer stores workbooks as xlsx files and applies the cosmetic pass:
// columns sized to their longest text plus padding, uniform row height,
// and a bold centered header row.
type Writer struct {
	widthPadding int
	rowHeight    float64
}

var _ service.SpreadsheetSink = (*Writer)(nil)

// NewWriter creates a writer padding every column by widthPadding characters.
func NewWriter(widthPadding int) *Writer {
	return &Writer{widthPadding: widthPadding, rowHeight: DefaultRowHeight}
}

// Write stores the workbook at path, replacing any existing file.
func (w *Writer) Write(ctx context.Context, path string, wb service.Workbook) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(wb.Sheets) == 0 {
		return fmt.Errorf("%w: %s has no sheets", common.ErrSinkFailure, path)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("failed to close workbook", "path", path, "error", err)
		}
	}()

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("%w: create header style: %w", common.ErrSinkFailure, err)
	}

	defaultSheet := f.GetSheetName(0)
	for i, t := range wb.Sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, t.Name); err != nil {
				return fmt.Errorf("%w: name sheet %q: %w", common.ErrSinkFailure, t.Name, err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return fmt.Errorf("%w: add sheet %q: %w", common.ErrSinkFailure, t.Name, err)
		}

		if err := w.writeSheet(f, t.Name, t.Columns, t.Rows, header); err != nil {
			return fmt.Errorf("%w: sheet %q: %w", common.ErrSinkFailure, t.Name, err)
		}
	}
	f.SetActiveSheet(0)

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("%w: create directory %s: %w", common.ErrSinkFailure, dir, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("%w: save %s: %w", common.ErrSinkFailure, path, err)
	}

	slog.Debug("wrote workbook", "path", path, "sheets", len(wb.Sheets))
	return nil
}

func (w *Writer) writeSheet(f *excelize.File, sheet string, columns []string, rows [][]any, headerStyle int) error {
	widths := make([]int, 0, len(columns))
	track := func(i int, v any) {
		for len(widths) <= i {
			widths = append(widths, 0)
		}
		if n := utf8.RuneCountInString(schema.CellText(v)); n > widths[i] {
			widths[i] = n
		}
	}

	line := 1
	if len(columns) > 0 {
		cells := make([]any, len(columns))
		for i, c := range columns {
			cells[i] = c
			track(i, c)
		}
		if err := w.setRow(f, sheet, line, cells); err != nil {
			return err
		}
		last, err := excelize.CoordinatesToCellName(len(columns), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return err
		}
		line++
	}

	for _, row := range rows {
		for i, v := range row {
			track(i, v)
		}
		if err := w.setRow(f, sheet, line, row); err != nil {
			return err
		}
		line++
	}

	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, ColumnWidth(width, w.widthPadding)); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) setRow(f *excelize.File, sheet string, line int, cells []any) error {
	if err := f.SetRowHeight(sheet, line, w.rowHeight); err != nil {
		return err
	}
	if len(cells) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, line)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &cells)
}

// ColumnWidth converts the longest text length of a column into a sheet width.
func ColumnWidth(textLen, padding int) float64 {
	w := textLen + padding
	if w > maxColumnWidth {
		w = maxColumnWidth
	}
	if w < 1 {
		w = 1
	}
	return float64(w)
}
