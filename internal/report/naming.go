package report

import (
	"strings"

	"github.com/Veraticus/deal-flow/internal/model"
)

var unsafeChars = strings.NewReplacer(
	"/", " ", `\`, " ", ":", " ", "*", " ", "?", " ", `"`, " ", "<", " ", ">", " ", "|", " ",
)

// SafeLabel replaces each path-unsafe character of a brand label with a single space.
func SafeLabel(label string) string {
	return strings.TrimSpace(unsafeChars.Replace(label))
}

// BrandFileName names a per-brand report ("Kiva_report_2024-07-01_to_2024-07-07.xlsx").
func BrandFileName(brand string, r model.DateRange) string {
	return SafeLabel(brand) + "_report_" + r.FileLabel() + ".xlsx"
}

// ConsolidatedFileName names the cross-brand report.
func ConsolidatedFileName(r model.DateRange) string {
	return "consolidated_brand_report_" + r.FileLabel() + ".xlsx"
}

// AnalyticsFileName names a vendor analytics report ("MV_2024-07-01_to_2024-07-07.xlsx").
func AnalyticsFileName(prefix string, r model.DateRange) string {
	return SafeLabel(prefix) + "_" + r.FileLabel() + ".xlsx"
}
