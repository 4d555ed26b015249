package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/Veraticus/deal-flow/internal/aggregate"
	"github.com/Veraticus/deal-flow/internal/common"
	"github.com/Veraticus/deal-flow/internal/model"
	"github.com/Veraticus/deal-flow/internal/pattern"
	"github.com/Veraticus/deal-flow/internal/pricing"
	"github.com/Veraticus/deal-flow/internal/report"
	"github.com/Veraticus/deal-flow/internal/service"
)

// BrandPipeline produces one report per brand rule plus a consolidated summary.
type BrandPipeline struct {
	source   service.TableSource
	outputs  Outputs
	progress ProgressFunc
}

// BrandResult describes one brand pipeline run.
type BrandResult struct {
	RunID     string
	Artifacts []service.Artifact
	Summaries []model.SummaryRecord
	// Skipped lists rules that matched no rows at any location.
	Skipped []string
	Errors  []ArtifactError
}

// NewBrandPipeline creates a brand pipeline reading through source.
func NewBrandPipeline(source service.TableSource, outputs Outputs) *BrandPipeline {
	return &BrandPipeline{source: source, outputs: outputs}
}

// OnProgress registers a callback invoked once per rule.
func (p *BrandPipeline) OnProgress(fn ProgressFunc) {
	p.progress = fn
}

// Run evaluates rules in order against every source.
//
// A rule with no matching rows anywhere produces nothing. The consolidated
// workbook is written only when at least one rule had activity. Artifact write
// failures are collected in the result; the remaining artifacts still run.
func (p *BrandPipeline) Run(ctx context.Context, sources []service.Source, rules []model.Rule) (*BrandResult, error) {
	result := &BrandResult{RunID: uuid.NewString()}
	fields := common.Fields{"run_id": result.RunID, "pipeline": "brands"}

	matchers := make([]*pattern.RuleMatcher, len(rules))
	for i, rule := range rules {
		m, err := pattern.NewMatcher(rule)
		if err != nil {
			return nil, err
		}
		matchers[i] = m
	}

	data, err := loadSources(ctx, p.source, sources, fields)
	if err != nil {
		return nil, err
	}

	common.LogInfo("starting brand run", withFields(fields, common.Fields{"rules": len(rules), "sources": len(sources)}))

	var consolidatedRange model.DateRange
	for _, m := range matchers {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		rule := m.Rule()
		summaries, dateRange, ok := p.runRule(ctx, m, data, result, withFields(fields, common.Fields{"brand": rule.Name}))
		if ok {
			if len(result.Summaries) == 0 {
				consolidatedRange = dateRange
			} else {
				consolidatedRange = consolidatedRange.Union(dateRange)
			}
			result.Summaries = append(result.Summaries, summaries...)
		}
		p.report(rule.Name)
	}

	if len(result.Summaries) == 0 {
		common.LogInfo("no rule had activity, skipping consolidated report", fields)
		return result, nil
	}

	wb := report.ConsolidatedWorkbook(consolidatedRange, result.Summaries)
	artifact, failed := p.outputs.emit(ctx, wb, "consolidated", consolidatedRange, len(result.Summaries), fields)
	if failed != nil {
		result.Errors = append(result.Errors, *failed)
	} else {
		result.Artifacts = append(result.Artifacts, artifact)
	}

	common.LogInfo("brand run complete", withFields(fields, common.Fields{
		"artifacts": len(result.Artifacts),
		"skipped":   len(result.Skipped),
		"failed":    len(result.Errors),
	}))
	return result, nil
}

// runRule matches, prices and writes one rule. It reports false when the rule
// matched nothing at any location.
func (p *BrandPipeline) runRule(ctx context.Context, m *pattern.RuleMatcher, data []located, result *BrandResult, fields common.Fields) ([]model.SummaryRecord, model.DateRange, bool) {
	rule := m.Rule()

	priced := make([]report.LocationRows, len(data))
	total := 0
	for i, loc := range data {
		priced[i] = report.LocationRows{
			Location: loc.Location,
			Rows:     pricing.Apply(m.Match(loc.Rows), rule.Factors),
		}
		total += len(priced[i].Rows)
	}

	if total == 0 {
		common.LogInfo("no matching rows, skipping brand", fields)
		result.Skipped = append(result.Skipped, rule.Name)
		return nil, model.DateRange{}, false
	}

	var dateRange model.DateRange
	first := true
	summaries := make([]model.SummaryRecord, len(priced))
	for i, loc := range priced {
		summaries[i] = aggregate.Summarize(rule, loc.Location, loc.Rows)

		r, err := aggregate.DateRange(loc.Rows)
		if err != nil {
			continue
		}
		if first {
			dateRange, first = r, false
		} else {
			dateRange = dateRange.Union(r)
		}
	}

	wb := report.BrandWorkbook(rule.Name, dateRange, priced, summaries)
	artifact, failed := p.outputs.emit(ctx, wb, rule.Name, dateRange, total, fields)
	if failed != nil {
		result.Errors = append(result.Errors, *failed)
	} else {
		result.Artifacts = append(result.Artifacts, artifact)
	}

	return summaries, dateRange, true
}

func (p *BrandPipeline) report(label string) {
	if p.progress != nil {
		p.progress(label)
	}
}

// Err reports the artifacts that failed to write, nil when all succeeded.
func (r *BrandResult) Err() error {
	return joinArtifactErrors(r.Errors)
}
