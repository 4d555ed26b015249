package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/deal-flow/internal/cli"
	"github.com/Veraticus/deal-flow/internal/config"
	"github.com/Veraticus/deal-flow/internal/engine"
)

func brandsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "brands",
		Short: "Build per-brand deal reports and the consolidated summary",
		Long: `Filter each store's sales by the configured deal rules, compute discount
and kickback amounts, and write one workbook per brand plus a consolidated
summary of every brand with activity.`,
		RunE: runBrands,
	}

	cmd.Flags().String("mv", config.DefaultMVSource, "MV sales export (path or gs:// URI)")
	cmd.Flags().String("lm", config.DefaultLMSource, "LM sales export (path or gs:// URI)")
	cmd.Flags().String("out", config.DefaultBrandDir, "directory for brand reports")
	cmd.Flags().String("publish", "", "upload reports to gs://bucket/prefix")
	cmd.Flags().Bool("sheets", false, "also mirror reports to Google Sheets")

	return cmd
}

func runBrands(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	bindFlags(cmd, map[string]string{
		"sources.mv":     "mv",
		"sources.lm":     "lm",
		"output.dir":     "out",
		"output.publish": "publish",
	})

	rules, err := config.LoadRules(viper.GetViper())
	if err != nil {
		return err
	}
	sources := config.LoadSources(viper.GetViper())
	mirror, _ := cmd.Flags().GetBool("sheets")

	w, err := wire(ctx, sources, viper.GetString("output.dir"), 1, mirror)
	if err != nil {
		return err
	}
	defer w.Close()

	pipeline := engine.NewBrandPipeline(w.loader, w.outputs)
	progress := cli.NewProgress(os.Stderr, len(rules), "Building brand reports")
	pipeline.OnProgress(progress.Step)

	result, err := pipeline.Run(ctx, sources, rules)
	progress.Finish()
	if err != nil {
		return explain(err)
	}

	summary := cli.RunSummary{
		RunID:     result.RunID,
		Artifacts: result.Artifacts,
		Skipped:   result.Skipped,
	}
	for _, e := range result.Errors {
		summary.Failures = append(summary.Failures, e.Error())
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderRunSummary("Brand Reports", summary))

	return result.Err()
}

// bindFlags binds command flags to viper keys when the command runs, so
// commands sharing a key do not override each other's binding.
func bindFlags(cmd *cobra.Command, keys map[string]string) {
	for key, flag := range keys {
		_ = viper.BindPFlag(key, cmd.Flags().Lookup(flag))
	}
}
