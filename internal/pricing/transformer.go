// Package pricing computes the per-row amounts owed under a deal program.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/Veraticus/deal-flow/internal/model"
)

// Apply returns a copy of subset with discount and kickback amounts filled in.
//
// DiscountAmount is GrossSales × DiscountRate and KickbackAmount is
// InventoryCost × KickbackRate, computed per row. The input slice is never
// modified, so the same source rows can be priced under several rules.
func Apply(subset []model.Transaction, factors model.Factors) []model.Transaction {
	out := make([]model.Transaction, len(subset))
	for i, txn := range subset {
		discount := amount(txn.GrossSales, factors.DiscountRate)
		kickback := amount(txn.InventoryCost, factors.KickbackRate)
		txn.DiscountAmount = &discount
		txn.KickbackAmount = &kickback
		out[i] = txn
	}
	return out
}

// amount multiplies in decimal so 0.3 × 0.1 is written as 0.03.
func amount(value, rate float64) float64 {
	return decimal.NewFromFloat(value).Mul(decimal.NewFromFloat(rate)).InexactFloat64()
}
