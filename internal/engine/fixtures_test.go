package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/Veraticus/deal-flow/internal/model"
	"github.com/Veraticus/deal-flow/internal/schema"
)

// sale describes the fields of an export row the tests care about.
type sale struct {
	time     string
	vendor   string
	product  string
	category string
	weight   float64
	units    float64
	gross    float64
	cost     float64
}

// exportTable builds a canonical 24-column table like the loader returns.
func exportTable(name string, sales ...sale) model.Table {
	cols := schema.CanonicalColumns()
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.String()
	}

	t := model.Table{Name: name, Columns: headers}
	for i, s := range sales {
		row := make([]any, schema.CanonicalWidth)
		for j := range row {
			row[j] = ""
		}
		row[schema.OrderID] = name + "-" + string(rune('A'+i))
		row[schema.OrderTime] = s.time
		row[schema.VendorName] = s.vendor
		row[schema.ProductName] = s.product
		row[schema.Category] = s.category
		row[schema.TotalWeightSold] = s.weight
		row[schema.TotalInventorySold] = s.units
		row[schema.GrossSales] = s.gross
		row[schema.InventoryCost] = s.cost
		t.Rows = append(t.Rows, row)
	}
	return t
}

// mockPublisher records published paths.
type mockPublisher struct {
	err   error
	paths []string
	mu    sync.Mutex
}

func (m *mockPublisher) Publish(_ context.Context, localPath string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.paths = append(m.paths, localPath)
	if m.err != nil {
		return "", m.err
	}
	return "gs://reports/" + localPath, nil
}

var errBoom = errors.New("boom")
