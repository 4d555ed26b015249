package schema

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/deal-flow/internal/common"
	"github.com/Veraticus/deal-flow/internal/model"
	"github.com/xuri/excelize/v2"
)

// timeLayouts are the text timestamp formats seen in point-of-sale exports.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"01/02/2006 15:04:05",
	"1/2/06 15:04",
	"2006-01-02",
	"1/2/2006",
}

// Normalize assigns the canonical schema to a loaded table and derives the weekday of every row.
//
// Header text is only trimmed and lowercased for diagnostics; fields are taken by position.
// A table whose column count is not CanonicalWidth is rejected rather than silently misaligned.
func Normalize(table model.Table) ([]model.Transaction, error) {
	if len(table.Columns) != CanonicalWidth {
		return nil, fmt.Errorf("%w: %s has %d columns, expected %d (headers: %s)",
			common.ErrSchemaMismatch, table.Name, len(table.Columns), CanonicalWidth,
			strings.Join(normalizedHeaders(table.Columns), ", "))
	}

	txns := make([]model.Transaction, 0, len(table.Rows))
	for i, row := range table.Rows {
		if isBlankRow(row) {
			continue
		}
		if len(row) > CanonicalWidth && !isBlankRow(row[CanonicalWidth:]) {
			return nil, fmt.Errorf("%w: %s row %d has %d cells, expected %d",
				common.ErrSchemaMismatch, table.Name, i+1, len(row), CanonicalWidth)
		}

		txn, err := normalizeRow(row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", table.Name, i+1, err)
		}
		txns = append(txns, txn)
	}

	slog.Debug("Normalized source table",
		"source", table.Name,
		"rows", len(table.Rows),
		"transactions", len(txns))

	return txns, nil
}

func normalizeRow(row []any) (model.Transaction, error) {
	cell := func(c Column) any {
		if int(c) < len(row) {
			return row[c]
		}
		return nil
	}
	text := func(c Column) string { return CellText(cell(c)) }

	orderTime, err := ParseTime(cell(OrderTime))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("order time: %w", err)
	}

	txn := model.Transaction{
		OrderID:           text(OrderID),
		OrderTime:         orderTime,
		BudtenderName:     text(BudtenderName),
		CustomerName:      text(CustomerName),
		CustomerType:      text(CustomerType),
		VendorName:        text(VendorName),
		ProductName:       text(ProductName),
		Category:          text(Category),
		PackageID:         text(PackageID),
		BatchID:           text(BatchID),
		ExternalPackageID: text(ExternalPackageID),
		ReturnDate:        text(ReturnDate),
		UPCGTIN:           text(UPCGTIN),
		ProvincialSKU:     text(ProvincialSKU),
		Producer:          text(Producer),
		DayOfWeek:         model.WeekdayOf(orderTime),
	}

	numbers := []struct {
		col Column
		dst *float64
	}{
		{TotalInventorySold, &txn.TotalInventorySold},
		{UnitWeightSold, &txn.UnitWeightSold},
		{TotalWeightSold, &txn.TotalWeightSold},
		{GrossSales, &txn.GrossSales},
		{InventoryCost, &txn.InventoryCost},
		{DiscountedAmount, &txn.DiscountedAmount},
		{LoyaltyAsDiscount, &txn.LoyaltyAsDiscount},
		{NetSales, &txn.NetSales},
		{OrderProfit, &txn.OrderProfit},
	}
	for _, n := range numbers {
		v, err := ParseNumber(cell(n.col))
		if err != nil {
			return model.Transaction{}, fmt.Errorf("%s: %w", n.col, err)
		}
		*n.dst = v
	}

	return txn, nil
}

// CellText renders a cell as trimmed text.
func CellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// ParseNumber parses a numeric cell. Blank cells are zero; currency symbols,
// thousands separators and accounting parentheses are accepted. NaN and
// infinities are rejected.
func ParseNumber(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, fmt.Errorf("invalid number %v", x)
		}
		return x, nil
	case int:
		return float64(x), nil
	}

	s := CellText(v)
	if s == "" || s == "-" {
		return 0, nil
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid number %q", CellText(v))
	}
	if negative {
		f = -f
	}
	return f, nil
}

// ParseTime parses an order timestamp given as an Excel serial number or text.
func ParseTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case float64:
		return excelize.ExcelDateToTime(x, false)
	}

	s := CellText(v)
	if s == "" {
		return time.Time{}, fmt.Errorf("missing timestamp")
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		return excelize.ExcelDateToTime(serial, false)
	}

	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func normalizedHeaders(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return out
}

func isBlankRow(row []any) bool {
	for _, v := range row {
		if CellText(v) != "" {
			return false
		}
	}
	return true
}
