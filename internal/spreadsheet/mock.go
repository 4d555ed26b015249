package spreadsheet

import (
	"context"
	"sync"

	"github.com/Veraticus/deal-flow/internal/model"
	"github.com/Veraticus/deal-flow/internal/service"
)

// MockSink is a mock implementation of SpreadsheetSink for testing.
type MockSink struct {
	WriteFunc      func(ctx context.Context, path string, wb service.Workbook) error
	WriteCalls     []WriteCall
	WriteCallCount int
	mu             sync.Mutex
}

// WriteCall represents a single call to Write.
type WriteCall struct {
	Error    error
	Path     string
	Workbook service.Workbook
}

// NewMockSink creates a new mock sink.
func NewMockSink() *MockSink {
	return &MockSink{
		WriteCalls: make([]WriteCall, 0),
	}
}

// Write implements the SpreadsheetSink interface.
func (m *MockSink) Write(ctx context.Context, path string, wb service.Workbook) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount++

	var err error
	if m.WriteFunc != nil {
		err = m.WriteFunc(ctx, path, wb)
	}

	m.WriteCalls = append(m.WriteCalls, WriteCall{
		Path:     path,
		Workbook: wb,
		Error:    err,
	})

	return err
}

// GetWriteCalls returns a copy of all write calls.
func (m *MockSink) GetWriteCalls() []WriteCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]WriteCall, len(m.WriteCalls))
	copy(calls, m.WriteCalls)
	return calls
}

// FileNames returns the workbook file names written so far, in call order.
func (m *MockSink) FileNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, len(m.WriteCalls))
	for i, c := range m.WriteCalls {
		names[i] = c.Workbook.FileName
	}
	return names
}

// SetWriteError configures the mock to fail writes whose file name matches.
// An empty name fails every write.
func (m *MockSink) SetWriteError(fileName string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteFunc = func(_ context.Context, _ string, wb service.Workbook) error {
		if fileName == "" || wb.FileName == fileName {
			return err
		}
		return nil
	}
}

// MockSource serves in-memory tables keyed by path.
type MockSource struct {
	Tables    map[string]model.Table
	Errors    map[string]error
	LoadCalls []string
	mu        sync.Mutex
}

// NewMockSource creates a new mock source.
func NewMockSource() *MockSource {
	return &MockSource{
		Tables: make(map[string]model.Table),
		Errors: make(map[string]error),
	}
}

// Load implements the TableSource interface.
func (m *MockSource) Load(_ context.Context, path string) (model.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LoadCalls = append(m.LoadCalls, path)
	if err, ok := m.Errors[path]; ok {
		return model.Table{}, err
	}
	t, ok := m.Tables[path]
	if !ok {
		return model.Table{}, errSourceMissing(path)
	}
	return t, nil
}
