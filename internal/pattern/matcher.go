package pattern

import (
	"fmt"
	"strings"

	"github.com/Veraticus/deal-flow/internal/common"
	"github.com/Veraticus/deal-flow/internal/model"
)

// predicate reports whether a transaction satisfies one rule dimension.
type predicate func(txn *model.Transaction) bool

// RuleMatcher evaluates transactions against a single compiled rule.
type RuleMatcher struct {
	rule       model.Rule
	predicates []predicate
}

// NewMatcher validates rule and compiles the dimensions it specifies.
func NewMatcher(rule model.Rule) (*RuleMatcher, error) {
	if err := rule.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidRule, err)
	}

	m := &RuleMatcher{rule: rule}

	// Vendor and weekday are always present; the rule name stands in for a missing vendor.
	m.predicates = append(m.predicates,
		fieldIn(func(t *model.Transaction) string { return t.VendorName }, rule.VendorSet()),
		weekdayIn(rule.Weekdays),
	)

	if len(rule.Categories) > 0 {
		m.predicates = append(m.predicates,
			fieldIn(func(t *model.Transaction) string { return t.Category }, rule.Categories))
	}

	if len(rule.BrandSubstrings) > 0 {
		m.predicates = append(m.predicates, productContainsAny(rule.BrandSubstrings))
	}

	return m, nil
}

// Rule returns the rule the matcher was compiled from.
func (m *RuleMatcher) Rule() model.Rule {
	return m.rule
}

// Matches reports whether txn satisfies every specified dimension of the rule.
func (m *RuleMatcher) Matches(txn model.Transaction) bool {
	for _, p := range m.predicates {
		if !p(&txn) {
			return false
		}
	}
	return true
}

// Match returns the matching rows of txns in input order.
//
// The result never aliases the input slice, so callers may transform it freely.
// An empty result is a valid "no activity" answer, not an error.
func (m *RuleMatcher) Match(txns []model.Transaction) []model.Transaction {
	matched := make([]model.Transaction, 0)
	for _, txn := range txns {
		if m.Matches(txn) {
			matched = append(matched, txn)
		}
	}
	return matched
}

// MatchVendor selects one vendor's rows sold on the given weekdays.
func MatchVendor(txns []model.Transaction, vendor string, weekdays []model.Weekday) ([]model.Transaction, error) {
	m, err := NewMatcher(model.Rule{
		Name:         vendor,
		VendorEquals: vendor,
		Weekdays:     weekdays,
	})
	if err != nil {
		return nil, err
	}
	return m.Match(txns), nil
}

// fieldIn matches when the field equals one of values exactly (case-sensitive).
func fieldIn(field func(*model.Transaction) string, values []string) predicate {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return func(txn *model.Transaction) bool {
		_, ok := set[field(txn)]
		return ok
	}
}

func weekdayIn(days []model.Weekday) predicate {
	set := make(map[model.Weekday]struct{}, len(days))
	for _, d := range days {
		set[d] = struct{}{}
	}
	return func(txn *model.Transaction) bool {
		_, ok := set[txn.DayOfWeek]
		return ok
	}
}

// productContainsAny matches when the product name contains any substring (case-sensitive).
func productContainsAny(substrings []string) predicate {
	return func(txn *model.Transaction) bool {
		for _, s := range substrings {
			if strings.Contains(txn.ProductName, s) {
				return true
			}
		}
		return false
	}
}
