// Package pattern selects the transactions that belong to a deal program.
package pattern

import (
	"github.com/Veraticus/deal-flow/internal/model"
)

// Matcher selects the transactions satisfying a rule.
type Matcher interface {
	// Match returns the matching transactions as an independent slice.
	Match(txns []model.Transaction) []model.Transaction
	// Matches evaluates a single transaction.
	Matches(txn model.Transaction) bool
}

var _ Matcher = (*RuleMatcher)(nil)
