// Package aggregate reduces transaction subsets to report figures.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Veraticus/deal-flow/internal/common"
	"github.com/Veraticus/deal-flow/internal/model"
	"github.com/Veraticus/deal-flow/internal/schema"
	"github.com/shopspring/decimal"
)

// Order selects how grouped results are sorted.
type Order int

// Group orderings.
const (
	// ByValueDesc ranks groups by descending sum; ties keep first-appearance order.
	ByValueDesc Order = iota
	// ByKey sorts groups by key text.
	ByKey
	// ByWeekday sorts weekday groups Sunday through Saturday.
	ByWeekday
)

// Group is one key's sum.
type Group struct {
	Key string
	Sum float64
}

// number extracts a numeric field; unset or non-numeric fields count as zero.
func number(txn model.Transaction, field schema.Column) float64 {
	if f, ok := schema.Value(txn, field).(float64); ok {
		return f
	}
	return 0
}

func key(txn model.Transaction, field schema.Column) string {
	return schema.CellText(schema.Value(txn, field))
}

// SumFields sums each field over subset. An empty subset sums to zero for every field.
//
// Amounts are accumulated as decimals so long columns of cents add up exactly.
func SumFields(subset []model.Transaction, fields ...schema.Column) map[schema.Column]float64 {
	sums := make(map[schema.Column]decimal.Decimal, len(fields))
	for _, f := range fields {
		sums[f] = decimal.Zero
	}

	for _, txn := range subset {
		for _, f := range fields {
			sums[f] = sums[f].Add(decimal.NewFromFloat(number(txn, f)))
		}
	}

	out := make(map[schema.Column]float64, len(fields))
	for f, d := range sums {
		out[f] = d.InexactFloat64()
	}
	return out
}

// GroupSum sums value per distinct groupKey.
func GroupSum(subset []model.Transaction, groupKey, value schema.Column, order Order) []Group {
	index := make(map[string]int)
	var keys []string
	var sums []decimal.Decimal

	for _, txn := range subset {
		k := key(txn, groupKey)
		i, ok := index[k]
		if !ok {
			i = len(keys)
			index[k] = i
			keys = append(keys, k)
			sums = append(sums, decimal.Zero)
		}
		sums[i] = sums[i].Add(decimal.NewFromFloat(number(txn, value)))
	}

	groups := make([]Group, len(keys))
	for i, k := range keys {
		groups[i] = Group{Key: k, Sum: sums[i].InexactFloat64()}
	}

	sortGroups(groups, order)
	return groups
}

func sortGroups(groups []Group, order Order) {
	switch order {
	case ByValueDesc:
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Sum > groups[j].Sum })
	case ByKey:
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	case ByWeekday:
		sort.SliceStable(groups, func(i, j int) bool {
			return weekdayRank(groups[i].Key) < weekdayRank(groups[j].Key)
		})
	}
}

// weekdayRank places unknown labels after Saturday.
func weekdayRank(label string) int {
	if i := model.Weekday(label).Index(); i >= 0 {
		return i
	}
	return len(model.AllWeekdays)
}

// TopN groups subset by keys and returns the n groups with the largest rank sums.
//
// Groups are ordered by descending rank; equal ranks keep the order in which the
// group first appeared in subset. Fewer than n groups are returned as-is.
func TopN(subset []model.Transaction, keys []schema.Column, rank schema.Column, n int) []model.RankedItem {
	type acc struct {
		keys   []string
		rank   decimal.Decimal
		weight decimal.Decimal
		units  decimal.Decimal
	}

	index := make(map[string]int)
	var groups []*acc

	for _, txn := range subset {
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = key(txn, k)
		}
		composite := strings.Join(parts, "\x1f")

		i, ok := index[composite]
		if !ok {
			i = len(groups)
			index[composite] = i
			groups = append(groups, &acc{keys: parts})
		}
		g := groups[i]
		g.rank = g.rank.Add(decimal.NewFromFloat(number(txn, rank)))
		g.weight = g.weight.Add(decimal.NewFromFloat(txn.TotalWeightSold))
		g.units = g.units.Add(decimal.NewFromFloat(txn.TotalInventorySold))
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].rank.GreaterThan(groups[j].rank)
	})

	if n >= 0 && len(groups) > n {
		groups = groups[:n]
	}

	items := make([]model.RankedItem, len(groups))
	for i, g := range groups {
		items[i] = model.RankedItem{
			Keys:            g.keys,
			Rank:            g.rank.InexactFloat64(),
			TotalWeightSold: g.weight.InexactFloat64(),
			TotalUnitsSold:  g.units.InexactFloat64(),
		}
	}
	return items
}

// PercentageOfTotal returns each group's share of the overall value sum, 0 to 100,
// ordered by key. When the overall sum is zero every share is NaN.
func PercentageOfTotal(subset []model.Transaction, groupKey, value schema.Column) []model.Share {
	groups := GroupSum(subset, groupKey, value, ByKey)
	total := SumFields(subset, value)[value]

	shares := make([]model.Share, len(groups))
	for i, g := range groups {
		pct := math.NaN()
		if total != 0 {
			pct = 100 * g.Sum / total
		}
		shares[i] = model.Share{Key: g.Key, Percent: pct}
	}
	return shares
}

// DateRange returns the earliest and latest order times in subset.
func DateRange(subset []model.Transaction) (model.DateRange, error) {
	if len(subset) == 0 {
		return model.DateRange{}, common.ErrEmptyRange
	}

	r := model.DateRange{Start: subset[0].OrderTime, End: subset[0].OrderTime}
	for _, txn := range subset[1:] {
		if txn.OrderTime.Before(r.Start) {
			r.Start = txn.OrderTime
		}
		if txn.OrderTime.After(r.End) {
			r.End = txn.OrderTime
		}
	}
	return r, nil
}

// Summarize reduces one brand's priced rows at one location to a summary record.
func Summarize(rule model.Rule, location model.Location, subset []model.Transaction) model.SummaryRecord {
	sums := SumFields(subset, schema.GrossSales, schema.InventoryCost, schema.DiscountAmount, schema.KickbackAmount)
	return model.SummaryRecord{
		Brand:          rule.Name,
		Location:       location,
		DaysActive:     rule.DaysActive(),
		GrossSales:     sums[schema.GrossSales],
		InventoryCost:  sums[schema.InventoryCost],
		DiscountAmount: sums[schema.DiscountAmount],
		KickbackAmount: sums[schema.KickbackAmount],
	}
}

// SortByWeekday returns subset ordered Sunday through Saturday, keeping row order within a day.
func SortByWeekday(subset []model.Transaction) []model.Transaction {
	out := make([]model.Transaction, len(subset))
	copy(out, subset)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DayOfWeek.Index() < out[j].DayOfWeek.Index()
	})
	return out
}

// Options holds the business constants of the vendor analytics report.
type Options struct {
	ComboCategories []string
	CostShare       float64
	UnitCost        float64
	TopN            int
}

// DefaultOptions returns the constants the purchasing team works with.
func DefaultOptions() Options {
	return Options{
		CostShare:       0.30,
		UnitCost:        14.5,
		TopN:            10,
		ComboCategories: []string{"Cartridges", "Disposables"},
	}
}

// Validate checks the constants can produce a report.
func (o Options) Validate() error {
	if o.CostShare < 0 || o.CostShare > 1 {
		return fmt.Errorf("%w: cost share must be between 0 and 1", common.ErrInvalidConfig)
	}
	if o.UnitCost <= 0 {
		return fmt.Errorf("%w: unit cost must be positive", common.ErrInvalidConfig)
	}
	if o.TopN <= 0 {
		return fmt.Errorf("%w: top n must be positive", common.ErrInvalidConfig)
	}
	return nil
}

// Analyze builds the vendor analytics report for a non-empty subset.
func Analyze(subset []model.Transaction, opts Options) (model.Analytics, error) {
	if err := opts.Validate(); err != nil {
		return model.Analytics{}, err
	}

	dateRange, err := DateRange(subset)
	if err != nil {
		return model.Analytics{}, err
	}

	total := SumFields(subset, schema.InventoryCost)[schema.InventoryCost]
	share := decimal.NewFromFloat(total).Mul(decimal.NewFromFloat(opts.CostShare))

	daily := GroupSum(subset, schema.DayOfWeek, schema.InventoryCost, ByWeekday)
	dailyCost := make([]model.DayCost, len(daily))
	for i, g := range daily {
		dailyCost[i] = model.DayCost{Day: model.Weekday(g.Key), Cost: g.Sum}
	}

	combo := make(map[string]bool, len(opts.ComboCategories))
	for _, c := range opts.ComboCategories {
		combo[c] = true
	}
	var comboRows []model.Transaction
	for _, txn := range subset {
		if combo[txn.Category] {
			comboRows = append(comboRows, txn)
		}
	}

	return model.Analytics{
		DateRange:          dateRange,
		TotalInventoryCost: total,
		CostShareRate:      opts.CostShare,
		CostShare:          share.InexactFloat64(),
		UnitCost:           opts.UnitCost,
		ExpectedUnits:      share.InexactFloat64() / opts.UnitCost,
		DailyCost:          dailyCost,
		TopProducts:        TopN(subset, []schema.Column{schema.ProductName}, schema.TotalWeightSold, opts.TopN),
		TopCategories:      TopN(subset, []schema.Column{schema.Category}, schema.TotalWeightSold, opts.TopN),
		TopComboProducts:   TopN(comboRows, []schema.Column{schema.Category, schema.ProductName}, schema.TotalWeightSold, opts.TopN),
		CategoryShares:     PercentageOfTotal(subset, schema.Category, schema.TotalWeightSold),
	}, nil
}
