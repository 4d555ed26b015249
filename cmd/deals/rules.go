package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/deal-flow/internal/cli"
	"github.com/Veraticus/deal-flow/internal/config"
	"github.com/Veraticus/deal-flow/internal/pattern"
)

func rulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Show and validate the configured deal rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rules, err := config.LoadRules(viper.GetViper())
			if err != nil {
				return err
			}
			for _, r := range rules {
				if _, err := pattern.NewMatcher(r); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("%d deal rules", len(rules))))
			fmt.Fprintln(out, cli.RenderRules(rules))
			fmt.Fprintln(out, cli.FormatSuccess("All rules are valid"))
			return nil
		},
	}
}
