package schema

import (
	"testing"
	"time"

	"github.com/Veraticus/deal-flow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalColumns(t *testing.T) {
	cols := CanonicalColumns()
	require.Len(t, cols, 24)
	assert.Equal(t, "Order ID", cols[0].String())
	assert.Equal(t, "Vendor Name", cols[5].String())
	assert.Equal(t, "Gross Sales", cols[14].String())
	assert.Equal(t, "Inventory Cost", cols[15].String())
	assert.Equal(t, "Order Profit", cols[23].String())
	assert.Equal(t, "Unknown", Column(99).String())
}

func TestLayouts(t *testing.T) {
	assert.Len(t, BrandLayout.Columns, 27)
	assert.Equal(t, []string{"Day of Week", "Discount Amount", "Kickback Amount"}, BrandLayout.Headers()[24:])

	assert.Len(t, AnalyticsLayout.Columns, 24-9+1)
	headers := AnalyticsLayout.Headers()
	for _, dropped := range AnalyticsDropped {
		assert.NotContains(t, headers, dropped.String())
	}
	assert.Equal(t, "Day of Week", headers[len(headers)-1])
	assert.Equal(t, []string{"Order ID", "Order Time", "Customer Name", "Vendor Name"}, headers[:4])
}

func TestTransactionTable(t *testing.T) {
	discount := 50.0
	txns := []model.Transaction{
		{
			OrderID:        "A1",
			OrderTime:      time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC),
			VendorName:     "Kiva",
			GrossSales:     100,
			DayOfWeek:      model.Monday,
			DiscountAmount: &discount,
		},
	}

	table := TransactionTable("MV_Sales", txns, BrandLayout)
	assert.Equal(t, "MV_Sales", table.Name)
	require.Len(t, table.Rows, 1)

	row := table.Rows[0]
	assert.Equal(t, "A1", row[OrderID])
	assert.Equal(t, 100.0, row[GrossSales])
	assert.Equal(t, "Monday", row[24])
	assert.Equal(t, 50.0, row[25])
	assert.Nil(t, row[26], "unset kickback renders blank")
}
