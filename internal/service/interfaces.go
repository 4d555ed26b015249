// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/deal-flow/internal/model"
)

// TableSource loads a flat table from a spreadsheet export.
type TableSource interface {
	// Load returns the table at path or an error wrapping common.ErrSourceUnavailable.
	Load(ctx context.Context, path string) (model.Table, error)
}

// Workbook is a set of named tables destined for one spreadsheet file.
type Workbook struct {
	FileName string
	Sheets   []model.Table
}

// SpreadsheetSink writes workbooks and applies the cosmetic styling pass.
type SpreadsheetSink interface {
	// Write stores the workbook at path, replacing any existing file.
	Write(ctx context.Context, path string, workbook Workbook) error
}

// Publisher copies a finished artifact somewhere shareable.
type Publisher interface {
	// Publish uploads the file at localPath and returns its remote location.
	Publish(ctx context.Context, localPath string) (string, error)
}

// ObjectFetcher reads remote objects such as gs:// source exports.
type ObjectFetcher interface {
	// Fetch returns the bytes stored at uri.
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// Mirror pushes a workbook to a hosted spreadsheet in addition to the local file.
type Mirror interface {
	Mirror(ctx context.Context, workbook Workbook) error
}

// Source names one location export to read.
type Source struct {
	Location model.Location
	Path     string
}

// Artifact describes one produced report file.
type Artifact struct {
	Path      string
	RemoteURI string
	Label     string
	DateRange model.DateRange
	Rows      int
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
