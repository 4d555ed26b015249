package model

import (
	"time"
)

// Transaction represents a single point-of-sale line item from a location export.
type Transaction struct {
	OrderTime  time.Time
	ReturnDate string

	OrderID           string
	BudtenderName     string
	CustomerName      string
	CustomerType      string
	VendorName        string
	ProductName       string
	Category          string
	PackageID         string
	BatchID           string
	ExternalPackageID string
	UPCGTIN           string
	ProvincialSKU     string
	Producer          string

	// Derived from OrderTime during normalization
	DayOfWeek Weekday

	TotalInventorySold float64
	UnitWeightSold     float64
	TotalWeightSold    float64
	GrossSales         float64
	InventoryCost      float64
	DiscountedAmount   float64
	LoyaltyAsDiscount  float64
	NetSales           float64
	OrderProfit        float64

	// Computed per rule; nil until a discount program has been applied
	DiscountAmount *float64
	KickbackAmount *float64
}

// Location tags the physical store a source export came from.
type Location string

// Known store locations.
const (
	LocationMV Location = "MV"
	LocationLM Location = "LM"
)
