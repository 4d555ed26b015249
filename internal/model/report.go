package model

import (
	"time"
)

// SummaryRecord holds one brand's totals at one location.
type SummaryRecord struct {
	Brand          string
	Location       Location
	DaysActive     string
	GrossSales     float64
	InventoryCost  float64
	DiscountAmount float64
	KickbackAmount float64
}

// RankedItem is one entry of a top-N view.
type RankedItem struct {
	Keys            []string
	Rank            float64
	TotalWeightSold float64
	TotalUnitsSold  float64
}

// Share is one group's percentage of a total.
type Share struct {
	Key     string
	Percent float64
}

// DayCost is the inventory cost sold on one weekday.
type DayCost struct {
	Day  Weekday
	Cost float64
}

// Analytics is the single-vendor purchasing and sales report.
type Analytics struct {
	DateRange          DateRange
	DailyCost          []DayCost
	TopProducts        []RankedItem
	TopCategories      []RankedItem
	TopComboProducts   []RankedItem
	CategoryShares     []Share
	TotalInventoryCost float64
	CostShare          float64
	CostShareRate      float64
	ExpectedUnits      float64
	UnitCost           float64
}

// DateRange represents the period covered by a report.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// String renders the range for display ("2024-01-01 to 2024-01-07").
func (r DateRange) String() string {
	return r.Start.Format("2006-01-02") + " to " + r.End.Format("2006-01-02")
}

// FileLabel renders the range for file names ("2024-01-01_to_2024-01-07").
func (r DateRange) FileLabel() string {
	return r.Start.Format("2006-01-02") + "_to_" + r.End.Format("2006-01-02")
}

// Union returns the smallest range covering both r and other.
func (r DateRange) Union(other DateRange) DateRange {
	out := r
	if other.Start.Before(out.Start) {
		out.Start = other.Start
	}
	if other.End.After(out.End) {
		out.End = other.End
	}
	return out
}

// Table is a named grid of cells exchanged with spreadsheet sources and sinks.
// Cells hold string, float64, int or time.Time values; nil renders as blank.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// Width returns the number of columns the table spans.
func (t *Table) Width() int {
	w := len(t.Columns)
	for _, row := range t.Rows {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}
