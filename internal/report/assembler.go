// Package report assembles summary and ranked tables into spreadsheet workbooks.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/Veraticus/deal-flow/internal/model"
	"github.com/Veraticus/deal-flow/internal/schema"
	"github.com/Veraticus/deal-flow/internal/service"
)

// Sheet names used by the generated workbooks.
const (
	SummarySheet             = "Summary"
	ConsolidatedSummarySheet = "Consolidated_Summary"
	SortedDataSheet          = "Sorted Data"
	AnalyticsReportSheet     = "Analytics Report"
)

// SummaryColumns are the headers of brand summary tables.
var SummaryColumns = []string{
	"Gross Sales", "Inventory Cost", "Discount Amount", "Kickback Amount",
	"Location", "Brand", "Days Active",
}

// Section is one titled table inside a stacked report sheet.
type Section struct {
	Title   string
	Columns []string
	Rows    [][]any
}

// Stack lays sections out top to bottom in a single sheet.
//
// The first section's title is the sheet header. Every later section starts with
// a blank row followed by a row holding its title; each section then repeats its
// own column headers before its rows.
func Stack(name string, sections ...Section) model.Table {
	t := model.Table{Name: name}
	for i, s := range sections {
		if i == 0 {
			t.Columns = []string{s.Title}
		} else {
			t.Rows = append(t.Rows, []any{}, []any{s.Title})
		}
		t.Rows = append(t.Rows, headerRow(s.Columns))
		t.Rows = append(t.Rows, s.Rows...)
	}
	return t
}

func headerRow(columns []string) []any {
	row := make([]any, len(columns))
	for i, c := range columns {
		row[i] = c
	}
	return row
}

// SummaryTable renders summary records in the given order.
func SummaryTable(name string, records []model.SummaryRecord) model.Table {
	t := model.Table{
		Name:    name,
		Columns: SummaryColumns,
		Rows:    make([][]any, 0, len(records)),
	}
	for _, r := range records {
		t.Rows = append(t.Rows, []any{
			r.GrossSales, r.InventoryCost, r.DiscountAmount, r.KickbackAmount,
			string(r.Location), r.Brand, r.DaysActive,
		})
	}
	return t
}

// LocationRows are one location's priced rows for a brand.
type LocationRows struct {
	Location model.Location
	Rows     []model.Transaction
}

// SalesSheetName names the per-location data sheet ("MV_Sales").
func SalesSheetName(loc model.Location) string {
	return string(loc) + "_Sales"
}

// BrandWorkbook builds the per-brand artifact: one sales sheet per location plus the summary.
func BrandWorkbook(brand string, dateRange model.DateRange, locations []LocationRows, summaries []model.SummaryRecord) service.Workbook {
	wb := service.Workbook{FileName: BrandFileName(brand, dateRange)}
	for _, loc := range locations {
		wb.Sheets = append(wb.Sheets, schema.TransactionTable(SalesSheetName(loc.Location), loc.Rows, schema.BrandLayout))
	}
	wb.Sheets = append(wb.Sheets, SummaryTable(SummarySheet, summaries))
	return wb
}

// ConsolidatedWorkbook builds the cross-brand artifact from summaries in configuration order.
func ConsolidatedWorkbook(dateRange model.DateRange, summaries []model.SummaryRecord) service.Workbook {
	return service.Workbook{
		FileName: ConsolidatedFileName(dateRange),
		Sheets:   []model.Table{SummaryTable(ConsolidatedSummarySheet, summaries)},
	}
}

// AnalyticsWorkbook builds the vendor analytics artifact for one location.
func AnalyticsWorkbook(prefix string, data []model.Transaction, a model.Analytics) service.Workbook {
	return service.Workbook{
		FileName: AnalyticsFileName(prefix, a.DateRange),
		Sheets: []model.Table{
			schema.TransactionTable(SortedDataSheet, data, schema.AnalyticsLayout),
			AnalyticsTable(a),
		},
	}
}

// AnalyticsTable stacks the analytics summary and its ranked views into one sheet.
func AnalyticsTable(a model.Analytics) model.Table {
	pct := formatRate(a.CostShareRate)
	summaryCols := []string{
		"Total Inventory Cost",
		pct + " of Total Cost",
		fmt.Sprintf("Expected Units (%s / %s)", pct, formatNumber(a.UnitCost)),
		"Date Range",
	}
	summaryRow := []any{a.TotalInventoryCost, a.CostShare, a.ExpectedUnits, a.DateRange.String()}
	for _, d := range a.DailyCost {
		summaryCols = append(summaryCols, string(d.Day))
		summaryRow = append(summaryRow, d.Cost)
	}

	shares := make([][]any, len(a.CategoryShares))
	for i, s := range a.CategoryShares {
		shares[i] = []any{s.Key, percentCell(s.Percent)}
	}

	return Stack(AnalyticsReportSheet,
		Section{Title: "Summary", Columns: summaryCols, Rows: [][]any{summaryRow}},
		Section{
			Title:   "Most Sold Products",
			Columns: []string{"Product Name", "Total Weight Sold", "Total Units Sold"},
			Rows:    rankedRows(a.TopProducts),
		},
		Section{
			Title:   "Most Sold Categories",
			Columns: []string{"Category", "Total Weight Sold", "Total Units Sold"},
			Rows:    rankedRows(a.TopCategories),
		},
		Section{
			Title:   "Category Percentages",
			Columns: []string{"Category", "Percentage of Total Weight Sold"},
			Rows:    shares,
		},
		Section{
			Title:   "Most Sold Cartridges and Disposables",
			Columns: []string{"Category", "Product Name", "Total Weight Sold", "Total Units Sold"},
			Rows:    rankedRows(a.TopComboProducts),
		},
	)
}

func rankedRows(items []model.RankedItem) [][]any {
	rows := make([][]any, len(items))
	for i, it := range items {
		row := make([]any, 0, len(it.Keys)+2)
		for _, k := range it.Keys {
			row = append(row, k)
		}
		rows[i] = append(row, it.TotalWeightSold, it.TotalUnitsSold)
	}
	return rows
}

// percentCell keeps an undefined share visible instead of writing an invalid number.
func percentCell(p float64) any {
	if math.IsNaN(p) {
		return "NaN"
	}
	return p
}

func formatRate(rate float64) string {
	return formatNumber(rate*100) + "%"
}

func formatNumber(f float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.4f", f), "0"), ".")
}
