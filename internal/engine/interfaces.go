// Package engine runs the brand deal and vendor analytics pipelines.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/deal-flow/internal/common"
	"github.com/Veraticus/deal-flow/internal/model"
	"github.com/Veraticus/deal-flow/internal/schema"
	"github.com/Veraticus/deal-flow/internal/service"
)

// ProgressFunc is called after each rule or location is processed.
type ProgressFunc func(label string)

// Outputs are the collaborators every pipeline writes through.
// Publisher and Mirror are optional.
type Outputs struct {
	Sink      service.SpreadsheetSink
	Publisher service.Publisher
	Mirror    service.Mirror
	Dir       string
}

// located holds one location's normalized rows.
type located struct {
	Location model.Location
	Rows     []model.Transaction
}

// loadSources reads and normalizes every source. A missing source is logged
// and treated as empty; a malformed one aborts the run.
func loadSources(ctx context.Context, src service.TableSource, sources []service.Source, fields common.Fields) ([]located, error) {
	out := make([]located, 0, len(sources))
	for _, s := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		f := withFields(fields, common.Fields{"location": string(s.Location), "path": s.Path})

		table, err := src.Load(ctx, s.Path)
		if err != nil {
			if errors.Is(err, common.ErrSourceUnavailable) {
				common.LogWarn("source unavailable, treating as empty", withFields(f, common.Fields{"error": err.Error()}))
				out = append(out, located{Location: s.Location})
				continue
			}
			return nil, fmt.Errorf("load %s source: %w", s.Location, err)
		}

		rows, err := schema.Normalize(table)
		if err != nil {
			return nil, fmt.Errorf("normalize %s source: %w", s.Location, err)
		}

		common.LogInfo("loaded source", withFields(f, common.Fields{"rows": len(rows)}))
		out = append(out, located{Location: s.Location, Rows: rows})
	}
	return out, nil
}

func withFields(base, extra common.Fields) common.Fields {
	out := make(common.Fields, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
