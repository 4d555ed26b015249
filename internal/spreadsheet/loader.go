// Package spreadsheet reads point-of-sale exports and writes styled report workbooks.
package spreadsheet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/deal-flow/internal/common"
	"github.com/Veraticus/deal-flow/internal/gcs"
	"github.com/Veraticus/deal-flow/internal/model"
	"github.com/Veraticus/deal-flow/internal/service"
)

// DefaultHeaderOffset is the number of banner rows the export places above its header.
const DefaultHeaderOffset = 4

// Loader reads the first sheet of an xlsx export into a table.
type Loader struct {
	fetcher      service.ObjectFetcher
	sheet        string
	headerOffset int
}

var _ service.TableSource = (*Loader)(nil)

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFetcher enables gs:// source paths.
func WithFetcher(f service.ObjectFetcher) LoaderOption {
	return func(l *Loader) { l.fetcher = f }
}

// WithSheet reads the named sheet instead of the first one.
func WithSheet(name string) LoaderOption {
	return func(l *Loader) { l.sheet = name }
}

// WithHeaderOffset overrides the number of rows skipped before the header.
func WithHeaderOffset(n int) LoaderOption {
	return func(l *Loader) { l.headerOffset = n }
}

// NewLoader creates a loader for exports with the default banner.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{headerOffset: DefaultHeaderOffset}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the header and data rows of the export at path.
//
// Cells are read as raw values so timestamps arrive as serial numbers. Rows above
// the header are skipped; trailing blank rows are dropped by the reader.
func (l *Loader) Load(ctx context.Context, path string) (model.Table, error) {
	f, err := l.open(ctx, path)
	if err != nil {
		return model.Table{}, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("failed to close workbook", "path", path, "error", closeErr)
		}
	}()

	sheet := l.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return model.Table{}, fmt.Errorf("%w: read sheet %q of %s: %w", common.ErrSourceUnavailable, sheet, path, err)
	}
	if len(rows) <= l.headerOffset {
		return model.Table{}, fmt.Errorf("%w: %s has no header row after %d banner rows", common.ErrSchemaMismatch, path, l.headerOffset)
	}

	header, data := rows[l.headerOffset], rows[l.headerOffset+1:]

	// The reader drops trailing empty cells, including a blank last header
	// cell, so the table is as wide as its widest row.
	width := len(header)
	for _, raw := range data {
		width = max(width, len(raw))
	}

	t := model.Table{
		Name:    path,
		Columns: make([]string, width),
		Rows:    make([][]any, 0, len(data)),
	}
	copy(t.Columns, header)
	for _, raw := range data {
		row := make([]any, width)
		for i := range row {
			row[i] = ""
		}
		for i, cell := range raw {
			row[i] = cell
		}
		t.Rows = append(t.Rows, row)
	}

	slog.Debug("loaded source", "path", path, "sheet", sheet, "rows", len(t.Rows))
	return t, nil
}

func (l *Loader) open(ctx context.Context, path string) (*excelize.File, error) {
	if gcs.IsURI(path) {
		if l.fetcher == nil {
			return nil, fmt.Errorf("%w: %s: no object fetcher configured", common.ErrSourceUnavailable, path)
		}
		data, err := l.fetcher.Fetch(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrSourceUnavailable, err)
		}
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %w", common.ErrSourceUnavailable, path, err)
		}
		return f, nil
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errSourceMissing(path)
		}
		return nil, fmt.Errorf("%w: open %s: %w", common.ErrSourceUnavailable, path, err)
	}
	return f, nil
}

func errSourceMissing(path string) error {
	return fmt.Errorf("%w: %s does not exist", common.ErrSourceUnavailable, path)
}
