package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Veraticus/deal-flow/internal/aggregate"
	"github.com/Veraticus/deal-flow/internal/common"
	"github.com/Veraticus/deal-flow/internal/model"
	"github.com/Veraticus/deal-flow/internal/pattern"
	"github.com/Veraticus/deal-flow/internal/report"
	"github.com/Veraticus/deal-flow/internal/service"
)

// VendorQuery selects the rows a vendor analytics report covers.
type VendorQuery struct {
	Vendor string
	// Weekdays defaults to the whole week when empty.
	Weekdays []model.Weekday
}

// AnalyticsPipeline produces one vendor analytics report per location.
type AnalyticsPipeline struct {
	source   service.TableSource
	outputs  Outputs
	options  aggregate.Options
	progress ProgressFunc
}

// LocationAnalytics is the analytics computed for one location.
type LocationAnalytics struct {
	Location  model.Location
	Analytics model.Analytics
}

// AnalyticsResult describes one analytics pipeline run.
type AnalyticsResult struct {
	RunID     string
	Artifacts []service.Artifact
	Reports   []LocationAnalytics
	// Skipped lists locations with no rows for the vendor.
	Skipped []model.Location
	Errors  []ArtifactError
}

// NewAnalyticsPipeline creates an analytics pipeline using opts for the report constants.
func NewAnalyticsPipeline(source service.TableSource, outputs Outputs, opts aggregate.Options) *AnalyticsPipeline {
	return &AnalyticsPipeline{source: source, outputs: outputs, options: opts}
}

// OnProgress registers a callback invoked once per location.
func (p *AnalyticsPipeline) OnProgress(fn ProgressFunc) {
	p.progress = fn
}

// Run builds the vendor report for every source independently.
func (p *AnalyticsPipeline) Run(ctx context.Context, sources []service.Source, query VendorQuery) (*AnalyticsResult, error) {
	if query.Vendor == "" {
		return nil, fmt.Errorf("%w: vendor is required", common.ErrInvalidConfig)
	}
	if len(query.Weekdays) == 0 {
		query.Weekdays = model.AllWeekdays
	}
	if err := p.options.Validate(); err != nil {
		return nil, err
	}

	result := &AnalyticsResult{RunID: uuid.NewString()}
	fields := common.Fields{"run_id": result.RunID, "pipeline": "vendor", "vendor": query.Vendor}

	data, err := loadSources(ctx, p.source, sources, fields)
	if err != nil {
		return nil, err
	}

	for _, loc := range data {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		f := withFields(fields, common.Fields{"location": string(loc.Location)})
		if err := p.runLocation(ctx, loc, query, result, f); err != nil {
			return result, err
		}
		if p.progress != nil {
			p.progress(string(loc.Location))
		}
	}

	common.LogInfo("vendor run complete", withFields(fields, common.Fields{
		"artifacts": len(result.Artifacts),
		"skipped":   len(result.Skipped),
		"failed":    len(result.Errors),
	}))
	return result, nil
}

func (p *AnalyticsPipeline) runLocation(ctx context.Context, loc located, query VendorQuery, result *AnalyticsResult, fields common.Fields) error {
	subset, err := pattern.MatchVendor(loc.Rows, query.Vendor, query.Weekdays)
	if err != nil {
		return err
	}
	if len(subset) == 0 {
		common.LogWarn("no data for vendor, skipping location", withFields(fields, common.Fields{
			"days": model.JoinWeekdays(query.Weekdays),
		}))
		result.Skipped = append(result.Skipped, loc.Location)
		return nil
	}

	sorted := aggregate.SortByWeekday(subset)
	analytics, err := aggregate.Analyze(sorted, p.options)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", loc.Location, err)
	}
	result.Reports = append(result.Reports, LocationAnalytics{Location: loc.Location, Analytics: analytics})

	wb := report.AnalyticsWorkbook(string(loc.Location), sorted, analytics)
	artifact, failed := p.outputs.emit(ctx, wb, string(loc.Location), analytics.DateRange, len(sorted), fields)
	if failed != nil {
		result.Errors = append(result.Errors, *failed)
		return nil
	}
	result.Artifacts = append(result.Artifacts, artifact)
	return nil
}

// Err reports the artifacts that failed to write, nil when all succeeded.
func (r *AnalyticsResult) Err() error {
	return joinArtifactErrors(r.Errors)
}
