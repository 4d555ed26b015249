package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/deal-flow/internal/service"
)

// MockMirror is a mock implementation of service.Mirror for testing.
type MockMirror struct {
	MirrorFunc func(ctx context.Context, wb service.Workbook) error
	Workbooks  []service.Workbook
	CallCount  int
	mu         sync.Mutex
}

// NewMockMirror creates a new mock mirror.
func NewMockMirror() *MockMirror {
	return &MockMirror{
		Workbooks: make([]service.Workbook, 0),
	}
}

// Mirror implements the service.Mirror interface.
func (m *MockMirror) Mirror(ctx context.Context, wb service.Workbook) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount++
	m.Workbooks = append(m.Workbooks, wb)

	if m.MirrorFunc != nil {
		return m.MirrorFunc(ctx, wb)
	}
	return nil
}

// FileNames returns the mirrored workbook names in call order.
func (m *MockMirror) FileNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, len(m.Workbooks))
	for i, wb := range m.Workbooks {
		names[i] = wb.FileName
	}
	return names
}

// SetMirrorError configures the mock to fail every call.
func (m *MockMirror) SetMirrorError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.MirrorFunc = func(_ context.Context, _ service.Workbook) error {
		return err
	}
}
