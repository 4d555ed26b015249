package pattern

import (
	"math/rand"
	"testing"

	"github.com/Veraticus/deal-flow/internal/common"
	"github.com/Veraticus/deal-flow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func txn(id, vendor, product, category string, day model.Weekday) model.Transaction {
	return model.Transaction{
		OrderID:     id,
		VendorName:  vendor,
		ProductName: product,
		Category:    category,
		DayOfWeek:   day,
	}
}

func ids(txns []model.Transaction) []string {
	out := make([]string, 0, len(txns))
	for _, t := range txns {
		out = append(out, t.OrderID)
	}
	return out
}

func TestRuleMatcher_Match(t *testing.T) {
	table := []model.Transaction{
		txn("1", "KIVA / LCISM CORP", "Kiva Milk Chocolate", "Edibles", model.Monday),
		txn("2", "Vino & Cigarro, LLC", "Petra Mints", "Edibles", model.Monday),
		txn("3", "KIVA / LCISM CORP", "Big Pete's Cookies", "Edibles", model.Tuesday),
		txn("4", "KIVA / LCISM CORP", "Camino Gummies", "Edibles", model.Wednesday),
		txn("5", "Med For America Inc.", "Blue Dream 3.5g", "Eighths", model.Monday),
		txn("6", "Garden Of Weeden Inc.", "Huxley Cart", "Cartridges", model.Friday),
		txn("7", "Garden Of Weeden Inc.", "WAV Disposable", "Disposables", model.Saturday),
		txn("8", "Garden Of Weeden Inc.", "Wav Disposable", "Disposables", model.Sunday),
		txn("9", "BTC Ventures", "Live Resin", "Concentrate", model.Thursday),
		txn("10", "BTC Ventures", "Pre-Roll", "Pre-Rolls", model.Thursday),
	}

	tests := []struct {
		name    string
		rule    model.Rule
		wantIDs []string
	}{
		{
			name: "vendor set with brand substrings",
			rule: model.Rule{
				Name:            "Kiva",
				Vendors:         []string{"KIVA / LCISM CORP", "Vino & Cigarro, LLC"},
				Weekdays:        []model.Weekday{model.Monday},
				BrandSubstrings: []string{"Terra", "Petra", "Kiva", "Lost Farms", "Camino"},
			},
			wantIDs: []string{"1", "2"},
		},
		{
			name: "same vendors on another day",
			rule: model.Rule{
				Name:            "Big Petes",
				Vendors:         []string{"KIVA / LCISM CORP", "Vino & Cigarro, LLC"},
				Weekdays:        []model.Weekday{model.Tuesday},
				BrandSubstrings: []string{"Big Pete"},
			},
			wantIDs: []string{"3"},
		},
		{
			name: "rule name is the vendor",
			rule: model.Rule{
				Name:     "Med For America Inc.",
				Weekdays: []model.Weekday{model.Monday},
			},
			wantIDs: []string{"5"},
		},
		{
			name: "brand substring is case-sensitive",
			rule: model.Rule{
				Name:            "Garden Of Weeden Inc.",
				Weekdays:        []model.Weekday{model.Sunday, model.Friday, model.Saturday},
				BrandSubstrings: []string{"Huxley", "Wav"},
			},
			wantIDs: []string{"6", "8"},
		},
		{
			name: "category filter",
			rule: model.Rule{
				Name:         "BTC Ventures",
				VendorEquals: "BTC Ventures",
				Weekdays:     model.AllWeekdays,
				Categories:   []string{"Concentrate"},
			},
			wantIDs: []string{"9"},
		},
		{
			name: "vendor match is exact",
			rule: model.Rule{
				Name:         "kiva",
				VendorEquals: "kiva / lcism corp",
				Weekdays:     model.AllWeekdays,
			},
			wantIDs: []string{},
		},
		{
			name: "no rows on the weekday",
			rule: model.Rule{
				Name:     "X",
				Vendors:  []string{"X"},
				Weekdays: []model.Weekday{model.Monday},
			},
			wantIDs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMatcher(tt.rule)
			require.NoError(t, err)

			got := m.Match(table)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantIDs, ids(got))
		})
	}
}

func TestRuleMatcher_InvalidRule(t *testing.T) {
	_, err := NewMatcher(model.Rule{Name: "Kiva"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidRule)
}

func TestRuleMatcher_DoesNotAliasInput(t *testing.T) {
	table := []model.Transaction{txn("1", "Kiva", "Kiva Bar", "Edibles", model.Monday)}
	m, err := NewMatcher(model.Rule{Name: "Kiva", Weekdays: []model.Weekday{model.Monday}})
	require.NoError(t, err)

	got := m.Match(table)
	require.Len(t, got, 1)
	got[0].GrossSales = 999

	assert.Equal(t, 0.0, table[0].GrossSales)
}

func TestRuleMatcher_WeekdayOnlyIgnoresRowOrder(t *testing.T) {
	var table []model.Transaction
	for i, day := range model.AllWeekdays {
		for j := 0; j < 3; j++ {
			table = append(table, txn(string(rune('a'+i))+string(rune('0'+j)), "V", "P", "C", day))
		}
	}

	rule := model.Rule{Name: "V", Weekdays: []model.Weekday{model.Monday, model.Thursday}}
	m, err := NewMatcher(rule)
	require.NoError(t, err)

	want := map[string]bool{}
	for _, tx := range table {
		if tx.DayOfWeek == model.Monday || tx.DayOfWeek == model.Thursday {
			want[tx.OrderID] = true
		}
	}

	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 5; round++ {
		rng.Shuffle(len(table), func(i, j int) { table[i], table[j] = table[j], table[i] })

		got := m.Match(table)
		assert.Len(t, got, len(want))
		for _, tx := range got {
			assert.True(t, want[tx.OrderID], "unexpected row %s", tx.OrderID)
		}
	}
}

func TestMatchVendor(t *testing.T) {
	table := []model.Transaction{
		txn("1", "Elevation (Stiiizy)", "Pod", "Cartridges", model.Thursday),
		txn("2", "Elevation (Stiiizy)", "Pod", "Cartridges", model.Monday),
		txn("3", "Other", "Pod", "Cartridges", model.Thursday),
	}

	got, err := MatchVendor(table, "Elevation (Stiiizy)", []model.Weekday{model.Thursday})
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids(got))

	_, err = MatchVendor(table, "Elevation (Stiiizy)", nil)
	assert.ErrorIs(t, err, common.ErrInvalidRule)
}
