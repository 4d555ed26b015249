package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/deal-flow/internal/aggregate"
	"github.com/Veraticus/deal-flow/internal/cli"
	"github.com/Veraticus/deal-flow/internal/config"
	"github.com/Veraticus/deal-flow/internal/engine"
)

func vendorCmd() *cobra.Command {
	opts := aggregate.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "vendor",
		Short: "Build vendor purchasing analytics for each store",
		Long: `Select one vendor's sales at each store, optionally limited to some
weekdays, and write a workbook with the sorted rows and an analytics sheet:
totals, expected units, daily cost and the most sold products and categories.`,
		RunE: runVendor,
	}

	cmd.Flags().String("vendor", config.DefaultVendor, "vendor name to analyze")
	cmd.Flags().StringSlice("days", nil, "weekdays to include (default: all)")
	cmd.Flags().Float64("cost-share", opts.CostShare, "share of total inventory cost used for expected units")
	cmd.Flags().Float64("unit-cost", opts.UnitCost, "cost of one unit")
	cmd.Flags().String("mv", config.DefaultMVSource, "MV sales export (path or gs:// URI)")
	cmd.Flags().String("lm", config.DefaultLMSource, "LM sales export (path or gs:// URI)")
	cmd.Flags().String("out", ".", "directory for vendor reports")
	cmd.Flags().String("publish", "", "upload reports to gs://bucket/prefix")

	return cmd
}

func runVendor(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	bindFlags(cmd, map[string]string{
		"analytics.vendor":     "vendor",
		"analytics.days":       "days",
		"analytics.cost_share": "cost-share",
		"analytics.unit_cost":  "unit-cost",
		"sources.mv":           "mv",
		"sources.lm":           "lm",
		"output.publish":       "publish",
	})

	analytics, err := config.LoadAnalytics(viper.GetViper())
	if err != nil {
		return err
	}
	sources := config.LoadSources(viper.GetViper())
	out, _ := cmd.Flags().GetString("out")

	w, err := wire(ctx, sources, out, 2, false)
	if err != nil {
		return err
	}
	defer w.Close()

	pipeline := engine.NewAnalyticsPipeline(w.loader, w.outputs, analytics.Options)
	progress := cli.NewProgress(os.Stderr, len(sources), "Analyzing "+analytics.Vendor)
	pipeline.OnProgress(progress.Step)

	result, err := pipeline.Run(ctx, sources, engine.VendorQuery{
		Vendor:   analytics.Vendor,
		Weekdays: analytics.Weekdays,
	})
	progress.Finish()
	if err != nil {
		return explain(err)
	}

	summary := cli.RunSummary{
		RunID:     result.RunID,
		Artifacts: result.Artifacts,
	}
	for _, loc := range result.Skipped {
		summary.Skipped = append(summary.Skipped, string(loc))
	}
	for _, e := range result.Errors {
		summary.Failures = append(summary.Failures, e.Error())
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderRunSummary(analytics.Vendor, summary))

	return result.Err()
}
