// Package model defines the core data structures for the deal-flow application.
package model

import (
	"fmt"
)

// Rule describes which transactions belong to a brand or vendor deal program.
//
// Every populated dimension must hold for a row to match; values inside one
// dimension are alternatives. VendorEquals and Vendors are mutually exclusive.
// When neither is set the rule name itself is the vendor to match.
type Rule struct {
	Name            string
	VendorEquals    string
	Vendors         []string
	Weekdays        []Weekday
	Categories      []string
	BrandSubstrings []string
	Factors         Factors
}

// Factors are the per-rule rates applied to each matched row.
type Factors struct {
	DiscountRate float64
	KickbackRate float64
}

// VendorSet returns the vendor names a row may carry to satisfy the rule.
func (r *Rule) VendorSet() []string {
	switch {
	case len(r.Vendors) > 0:
		return r.Vendors
	case r.VendorEquals != "":
		return []string{r.VendorEquals}
	default:
		return []string{r.Name}
	}
}

// DaysActive renders the rule's weekdays the way reports display them.
func (r *Rule) DaysActive() string {
	return JoinWeekdays(r.Weekdays)
}

// Validate ensures the rule can be evaluated.
func (r *Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}

	if len(r.Weekdays) == 0 {
		return fmt.Errorf("rule %q: at least one weekday is required", r.Name)
	}
	for _, d := range r.Weekdays {
		if d.Index() < 0 {
			return fmt.Errorf("rule %q: unknown weekday %q", r.Name, d)
		}
	}

	if r.VendorEquals != "" && len(r.Vendors) > 0 {
		return fmt.Errorf("rule %q: vendor and vendors are mutually exclusive", r.Name)
	}

	if r.Factors.DiscountRate < 0 || r.Factors.DiscountRate > 1 {
		return fmt.Errorf("rule %q: discount rate must be between 0 and 1", r.Name)
	}
	if r.Factors.KickbackRate < 0 || r.Factors.KickbackRate > 1 {
		return fmt.Errorf("rule %q: kickback rate must be between 0 and 1", r.Name)
	}

	return nil
}
