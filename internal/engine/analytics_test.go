package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/deal-flow/internal/aggregate"
	"github.com/Veraticus/deal-flow/internal/common"
	"github.com/Veraticus/deal-flow/internal/model"
	"github.com/Veraticus/deal-flow/internal/report"
	"github.com/Veraticus/deal-flow/internal/spreadsheet"
)

const stiiizy = "Elevation (Stiiizy)"

func analyticsFixture() *spreadsheet.MockSource {
	src := spreadsheet.NewMockSource()
	src.Tables["salesMV.xlsx"] = exportTable("MV",
		sale{time: "2024-07-01 10:00:00", vendor: stiiizy, product: "Pod A", category: "Cartridges", weight: 1, units: 2, cost: 400},
		sale{time: "2024-07-06 10:00:00", vendor: stiiizy, product: "Disposable B", category: "Disposables", weight: 1, units: 1, cost: 350},
		sale{time: "2024-07-07 10:00:00", vendor: stiiizy, product: "Pod A", category: "Cartridges", weight: 1, units: 1, cost: 250},
		sale{time: "2024-07-03 10:00:00", vendor: "Kiva", product: "Bar", category: "Edibles", weight: 1, units: 1, cost: 10},
	)
	src.Tables["salesLM.xlsx"] = exportTable("LM",
		sale{time: "2024-07-03 10:00:00", vendor: "Kiva", product: "Bar", category: "Edibles", weight: 1, units: 1, cost: 10},
	)
	return src
}

func TestAnalyticsPipeline_Run(t *testing.T) {
	sink := spreadsheet.NewMockSink()
	p := NewAnalyticsPipeline(analyticsFixture(), Outputs{Sink: sink}, aggregate.DefaultOptions())

	result, err := p.Run(context.Background(), testSources, VendorQuery{Vendor: stiiizy})
	require.NoError(t, err)
	require.NoError(t, result.Err())

	assert.Equal(t, []string{"MV_2024-07-01_to_2024-07-07.xlsx"}, sink.FileNames())
	assert.Equal(t, []model.Location{model.LocationLM}, result.Skipped)

	require.Len(t, result.Reports, 1)
	a := result.Reports[0].Analytics
	assert.Equal(t, 1000.0, a.TotalInventoryCost)
	assert.Equal(t, 300.0, a.CostShare)
	assert.Equal(t, []model.DayCost{
		{Day: model.Sunday, Cost: 250},
		{Day: model.Monday, Cost: 400},
		{Day: model.Saturday, Cost: 350},
	}, a.DailyCost)

	wb := sink.GetWriteCalls()[0].Workbook
	require.Len(t, wb.Sheets, 2)
	data := wb.Sheets[0]
	assert.Equal(t, report.SortedDataSheet, data.Name)
	require.Len(t, data.Rows, 3)
	assert.Equal(t, "MV-C", data.Rows[0][0], "Sunday rows come first")
	assert.Equal(t, "MV-A", data.Rows[1][0])
	assert.Equal(t, "MV-B", data.Rows[2][0])
}

func TestAnalyticsPipeline_WeekdayFilter(t *testing.T) {
	sink := spreadsheet.NewMockSink()
	p := NewAnalyticsPipeline(analyticsFixture(), Outputs{Sink: sink}, aggregate.DefaultOptions())

	result, err := p.Run(context.Background(), testSources, VendorQuery{
		Vendor:   stiiizy,
		Weekdays: []model.Weekday{model.Monday},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"MV_2024-07-01_to_2024-07-01.xlsx"}, sink.FileNames())
	assert.Equal(t, 400.0, result.Reports[0].Analytics.TotalInventoryCost)
}

func TestAnalyticsPipeline_UnknownVendor(t *testing.T) {
	sink := spreadsheet.NewMockSink()
	p := NewAnalyticsPipeline(analyticsFixture(), Outputs{Sink: sink}, aggregate.DefaultOptions())

	result, err := p.Run(context.Background(), testSources, VendorQuery{Vendor: "Nobody"})
	require.NoError(t, err)

	assert.Empty(t, sink.FileNames())
	assert.Equal(t, []model.Location{model.LocationMV, model.LocationLM}, result.Skipped)
}

func TestAnalyticsPipeline_InvalidInput(t *testing.T) {
	p := NewAnalyticsPipeline(analyticsFixture(), Outputs{Sink: spreadsheet.NewMockSink()}, aggregate.DefaultOptions())
	_, err := p.Run(context.Background(), testSources, VendorQuery{})
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	opts := aggregate.DefaultOptions()
	opts.UnitCost = 0
	p = NewAnalyticsPipeline(analyticsFixture(), Outputs{Sink: spreadsheet.NewMockSink()}, opts)
	_, err = p.Run(context.Background(), testSources, VendorQuery{Vendor: stiiizy})
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestAnalyticsPipeline_SinkFailure(t *testing.T) {
	sink := spreadsheet.NewMockSink()
	sink.SetWriteError("", common.ErrSinkFailure)

	p := NewAnalyticsPipeline(analyticsFixture(), Outputs{Sink: sink}, aggregate.DefaultOptions())
	result, err := p.Run(context.Background(), testSources, VendorQuery{Vendor: stiiizy})
	require.NoError(t, err)

	assert.Empty(t, result.Artifacts)
	assert.ErrorIs(t, result.Err(), common.ErrSinkFailure)
	assert.Len(t, result.Reports, 1, "analytics are still computed")
}
