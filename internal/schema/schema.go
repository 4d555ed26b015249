// Package schema maps point-of-sale export tables onto canonical transactions.
//
// The upstream export carries unreliable header text, so columns are assigned
// by position. The layout below is an implicit contract with the export format:
// every source table is assumed to carry exactly these 24 columns in this order.
package schema

import (
	"time"

	"github.com/Veraticus/deal-flow/internal/model"
)

// Column identifies one field of the canonical layout or a derived field.
type Column int

// Canonical positional columns, in source order.
const (
	OrderID Column = iota
	OrderTime
	BudtenderName
	CustomerName
	CustomerType
	VendorName
	ProductName
	Category
	PackageID
	BatchID
	ExternalPackageID
	TotalInventorySold
	UnitWeightSold
	TotalWeightSold
	GrossSales
	InventoryCost
	DiscountedAmount
	LoyaltyAsDiscount
	NetSales
	ReturnDate
	UPCGTIN
	ProvincialSKU
	Producer
	OrderProfit

	// Derived columns follow the positional ones.
	DayOfWeek
	DiscountAmount
	KickbackAmount
)

// CanonicalWidth is the number of positional columns every source must carry.
const CanonicalWidth = int(OrderProfit) + 1

var columnNames = [...]string{
	OrderID:            "Order ID",
	OrderTime:          "Order Time",
	BudtenderName:      "Budtender Name",
	CustomerName:       "Customer Name",
	CustomerType:       "Customer Type",
	VendorName:         "Vendor Name",
	ProductName:        "Product Name",
	Category:           "Category",
	PackageID:          "Package ID",
	BatchID:            "Batch ID",
	ExternalPackageID:  "External Package ID",
	TotalInventorySold: "Total Inventory Sold",
	UnitWeightSold:     "Unit Weight Sold",
	TotalWeightSold:    "Total Weight Sold",
	GrossSales:         "Gross Sales",
	InventoryCost:      "Inventory Cost",
	DiscountedAmount:   "Discounted Amount",
	LoyaltyAsDiscount:  "Loyalty as Discount",
	NetSales:           "Net Sales",
	ReturnDate:         "Return Date",
	UPCGTIN:            "UPC GTIN (Canada)",
	ProvincialSKU:      "Provincial SKU (Canada)",
	Producer:           "Producer",
	OrderProfit:        "Order Profit",
	DayOfWeek:          "Day of Week",
	DiscountAmount:     "Discount Amount",
	KickbackAmount:     "Kickback Amount",
}

// String returns the display header for the column.
func (c Column) String() string {
	if c < 0 || int(c) >= len(columnNames) {
		return "Unknown"
	}
	return columnNames[c]
}

// CanonicalColumns returns the 24 positional columns in source order.
func CanonicalColumns() []Column {
	cols := make([]Column, CanonicalWidth)
	for i := range cols {
		cols[i] = Column(i)
	}
	return cols
}

// AnalyticsDropped are the columns the vendor analytics pipeline leaves out of its data sheet.
var AnalyticsDropped = []Column{
	BudtenderName,
	CustomerType,
	PackageID,
	BatchID,
	ExternalPackageID,
	UnitWeightSold,
	LoyaltyAsDiscount,
	UPCGTIN,
	Producer,
}

// Layout selects and orders the columns written for a transaction sheet.
type Layout struct {
	Columns []Column
}

// Headers returns the display headers of the layout.
func (l Layout) Headers() []string {
	out := make([]string, len(l.Columns))
	for i, c := range l.Columns {
		out[i] = c.String()
	}
	return out
}

// Without returns a copy of the layout minus the given columns.
func (l Layout) Without(drop ...Column) Layout {
	skip := make(map[Column]bool, len(drop))
	for _, c := range drop {
		skip[c] = true
	}

	out := Layout{Columns: make([]Column, 0, len(l.Columns))}
	for _, c := range l.Columns {
		if !skip[c] {
			out.Columns = append(out.Columns, c)
		}
	}
	return out
}

// BrandLayout is the data sheet layout of per-brand reports.
var BrandLayout = Layout{
	Columns: append(CanonicalColumns(), DayOfWeek, DiscountAmount, KickbackAmount),
}

// AnalyticsLayout is the data sheet layout of vendor analytics reports.
var AnalyticsLayout = Layout{
	Columns: append(CanonicalColumns(), DayOfWeek),
}.Without(AnalyticsDropped...)

// Value returns the cell value of column c for txn.
func Value(txn model.Transaction, c Column) any {
	switch c {
	case OrderID:
		return txn.OrderID
	case OrderTime:
		return txn.OrderTime
	case BudtenderName:
		return txn.BudtenderName
	case CustomerName:
		return txn.CustomerName
	case CustomerType:
		return txn.CustomerType
	case VendorName:
		return txn.VendorName
	case ProductName:
		return txn.ProductName
	case Category:
		return txn.Category
	case PackageID:
		return txn.PackageID
	case BatchID:
		return txn.BatchID
	case ExternalPackageID:
		return txn.ExternalPackageID
	case TotalInventorySold:
		return txn.TotalInventorySold
	case UnitWeightSold:
		return txn.UnitWeightSold
	case TotalWeightSold:
		return txn.TotalWeightSold
	case GrossSales:
		return txn.GrossSales
	case InventoryCost:
		return txn.InventoryCost
	case DiscountedAmount:
		return txn.DiscountedAmount
	case LoyaltyAsDiscount:
		return txn.LoyaltyAsDiscount
	case NetSales:
		return txn.NetSales
	case ReturnDate:
		return txn.ReturnDate
	case UPCGTIN:
		return txn.UPCGTIN
	case ProvincialSKU:
		return txn.ProvincialSKU
	case Producer:
		return txn.Producer
	case OrderProfit:
		return txn.OrderProfit
	case DayOfWeek:
		return string(txn.DayOfWeek)
	case DiscountAmount:
		return optional(txn.DiscountAmount)
	case KickbackAmount:
		return optional(txn.KickbackAmount)
	}
	return nil
}

func optional(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// TransactionTable renders txns as a named sheet using layout.
func TransactionTable(name string, txns []model.Transaction, layout Layout) model.Table {
	t := model.Table{
		Name:    name,
		Columns: layout.Headers(),
		Rows:    make([][]any, 0, len(txns)),
	}
	for _, txn := range txns {
		row := make([]any, len(layout.Columns))
		for i, c := range layout.Columns {
			v := Value(txn, c)
			if ts, ok := v.(time.Time); ok && ts.IsZero() {
				v = nil
			}
			row[i] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
