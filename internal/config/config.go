// Package config provides configuration utilities for the application.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/Veraticus/deal-flow/internal/aggregate"
	"github.com/Veraticus/deal-flow/internal/common"
	"github.com/Veraticus/deal-flow/internal/model"
	"github.com/Veraticus/deal-flow/internal/service"
)

// Default values of the vendor analytics report and output locations.
const (
	DefaultVendor   = "Elevation (Stiiizy)"
	DefaultBrandDir = "brand_reports"
	DefaultMVSource = "salesMV.xlsx"
	DefaultLMSource = "salesLM.xlsx"
)

// RuleConfig is one entry of the rules table as written in the config file.
type RuleConfig struct {
	Name       string   `mapstructure:"name"`
	Vendor     string   `mapstructure:"vendor"`
	Vendors    []string `mapstructure:"vendors"`
	Days       []string `mapstructure:"days"`
	Categories []string `mapstructure:"categories"`
	Brands     []string `mapstructure:"brands"`
	Discount   float64  `mapstructure:"discount"`
	Kickback   float64  `mapstructure:"kickback"`
}

// AnalyticsConfig holds the vendor analytics settings.
type AnalyticsConfig struct {
	Vendor          string   `mapstructure:"vendor"`
	Days            []string `mapstructure:"days"`
	CostShare       float64  `mapstructure:"cost_share"`
	UnitCost        float64  `mapstructure:"unit_cost"`
	TopN            int      `mapstructure:"top_n"`
	ComboCategories []string `mapstructure:"combo_categories"`
}

// Analytics is the validated vendor analytics configuration.
type Analytics struct {
	Vendor   string
	Weekdays []model.Weekday
	Options  aggregate.Options
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	opts := aggregate.DefaultOptions()

	v.SetDefault("sources.mv", DefaultMVSource)
	v.SetDefault("sources.lm", DefaultLMSource)
	v.SetDefault("output.dir", DefaultBrandDir)
	v.SetDefault("output.publish", "")
	v.SetDefault("analytics.vendor", DefaultVendor)
	v.SetDefault("analytics.cost_share", opts.CostShare)
	v.SetDefault("analytics.unit_cost", opts.UnitCost)
	v.SetDefault("analytics.top_n", opts.TopN)
	v.SetDefault("analytics.combo_categories", opts.ComboCategories)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// DefaultRules returns the deal programs the stores run out of the box.
func DefaultRules() []model.Rule {
	standard := model.Factors{DiscountRate: 0.50, KickbackRate: 0.25}
	kivaVendors := []string{"KIVA / LCISM CORP", "Vino & Cigarro, LLC"}

	return []model.Rule{
		{
			Name:     "Med For America Inc.",
			Weekdays: []model.Weekday{model.Monday},
			Factors:  standard,
		},
		{
			Name:            "Kiva",
			Vendors:         kivaVendors,
			Weekdays:        []model.Weekday{model.Monday},
			BrandSubstrings: []string{"Terra", "Petra", "Kiva", "Lost Farms", "Camino"},
			Factors:         standard,
		},
		{
			Name:            "Big Petes",
			Vendors:         kivaVendors,
			Weekdays:        []model.Weekday{model.Tuesday},
			BrandSubstrings: []string{"Big Pete"},
			Factors:         standard,
		},
		{
			Name:            "Garden Of Weeden Inc.",
			Weekdays:        []model.Weekday{model.Sunday, model.Friday, model.Saturday},
			BrandSubstrings: []string{"Huxley", "Wav"},
			Factors:         standard,
		},
	}
}

// LoadRules reads the rules table, falling back to DefaultRules when none is configured.
func LoadRules(v *viper.Viper) ([]model.Rule, error) {
	if !v.IsSet("rules") {
		return DefaultRules(), nil
	}

	var raw []RuleConfig
	if err := v.UnmarshalKey("rules", &raw); err != nil {
		return nil, fmt.Errorf("%w: rules: %w", common.ErrInvalidConfig, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: rules table is empty", common.ErrInvalidConfig)
	}

	rules := make([]model.Rule, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, rc := range raw {
		rule, err := rc.ToRule()
		if err != nil {
			return nil, fmt.Errorf("rules[%d]: %w", i, err)
		}
		if seen[rule.Name] {
			return nil, fmt.Errorf("%w: rules[%d]: duplicate rule %q", common.ErrInvalidRule, i, rule.Name)
		}
		seen[rule.Name] = true
		rules = append(rules, rule)
	}
	return rules, nil
}

// ToRule converts and validates a configured rule.
func (rc RuleConfig) ToRule() (model.Rule, error) {
	days, err := parseWeekdays(rc.Days)
	if err != nil {
		return model.Rule{}, fmt.Errorf("%w: rule %q: %w", common.ErrInvalidRule, rc.Name, err)
	}

	rule := model.Rule{
		Name:            strings.TrimSpace(rc.Name),
		VendorEquals:    strings.TrimSpace(rc.Vendor),
		Vendors:         rc.Vendors,
		Weekdays:        days,
		Categories:      rc.Categories,
		BrandSubstrings: rc.Brands,
		Factors:         model.Factors{DiscountRate: rc.Discount, KickbackRate: rc.Kickback},
	}
	if err := rule.Validate(); err != nil {
		return model.Rule{}, fmt.Errorf("%w: %w", common.ErrInvalidRule, err)
	}
	return rule, nil
}

func parseWeekdays(raw []string) ([]model.Weekday, error) {
	days := make([]model.Weekday, 0, len(raw))
	for _, s := range raw {
		d, err := model.ParseWeekday(s)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, nil
}

// LoadSources returns the configured location exports. MV and LM come first,
// other locations follow in name order.
func LoadSources(v *viper.Viper) []service.Source {
	// Keys are read one by one so file entries and defaults merge.
	var locations []string
	for _, key := range v.AllKeys() {
		if loc, ok := strings.CutPrefix(key, "sources."); ok && !strings.Contains(loc, ".") {
			locations = append(locations, loc)
		}
	}
	sort.Slice(locations, func(i, j int) bool {
		ri, rj := locationRank(locations[i]), locationRank(locations[j])
		if ri != rj {
			return ri < rj
		}
		return locations[i] < locations[j]
	})

	sources := make([]service.Source, 0, len(locations))
	for _, loc := range locations {
		path := v.GetString("sources." + loc)
		if path == "" {
			continue
		}
		sources = append(sources, service.Source{
			Location: model.Location(strings.ToUpper(loc)),
			Path:     ExpandPath(path),
		})
	}
	return sources
}

func locationRank(loc string) int {
	switch model.Location(strings.ToUpper(loc)) {
	case model.LocationMV:
		return 0
	case model.LocationLM:
		return 1
	default:
		return 2
	}
}

// LoadAnalytics reads and validates the vendor analytics settings.
func LoadAnalytics(v *viper.Viper) (Analytics, error) {
	ac := AnalyticsConfig{
		Vendor:          v.GetString("analytics.vendor"),
		Days:            v.GetStringSlice("analytics.days"),
		CostShare:       v.GetFloat64("analytics.cost_share"),
		UnitCost:        v.GetFloat64("analytics.unit_cost"),
		TopN:            v.GetInt("analytics.top_n"),
		ComboCategories: v.GetStringSlice("analytics.combo_categories"),
	}

	days, err := parseWeekdays(ac.Days)
	if err != nil {
		return Analytics{}, fmt.Errorf("%w: analytics days: %w", common.ErrInvalidConfig, err)
	}

	a := Analytics{
		Vendor:   strings.TrimSpace(ac.Vendor),
		Weekdays: days,
		Options: aggregate.Options{
			CostShare:       ac.CostShare,
			UnitCost:        ac.UnitCost,
			TopN:            ac.TopN,
			ComboCategories: ac.ComboCategories,
		},
	}
	if a.Vendor == "" {
		return Analytics{}, fmt.Errorf("%w: analytics vendor is required", common.ErrMissingConfig)
	}
	if err := a.Options.Validate(); err != nil {
		return Analytics{}, err
	}
	return a, nil
}
