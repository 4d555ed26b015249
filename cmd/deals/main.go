package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/deal-flow/internal/cli"
	"github.com/Veraticus/deal-flow/internal/common"
	"github.com/Veraticus/deal-flow/internal/config"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "deals",
		Short: "🏷️  Dispensary deal and vendor reports",
		Long: `deal-flow: turns point-of-sale exports from each store into brand deal
reports, a consolidated summary, and vendor purchasing analytics.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/deals/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))

	config.SetDefaults(viper.GetViper())

	rootCmd.AddCommand(brandsCmd())
	rootCmd.AddCommand(vendorCmd())
	rootCmd.AddCommand(rulesCmd())
	rootCmd.AddCommand(authCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	interrupts := cli.NewInterruptHandler(os.Stderr)
	ctx := interrupts.HandleInterrupts(context.Background())

	os.Exit(exitCode(rootCmd.ExecuteContext(ctx), interrupts.WasInterrupted(), os.Stderr))
}

// exitCode reports err and maps the run outcome to a process status.
// An interrupted run exits 130 whatever error the cancellation surfaced as.
func exitCode(err error, interrupted bool, w io.Writer) int {
	if interrupted {
		return 130
	}
	if err == nil {
		return 0
	}

	var userErr *common.UserError
	if errors.As(err, &userErr) {
		fmt.Fprintln(w, cli.FormatError(userErr.UserMessage))
		slog.Debug("command failed", "error", userErr.Err)
	} else {
		fmt.Fprintln(w, cli.FormatError(err.Error()))
	}
	return 1
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		viper.AddConfigPath(fmt.Sprintf("%s/.config/deals", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("DEALS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Defaults reproduce the stores' standard setup
	}

	if err := common.SetupLogger(viper.GetString("logging.level"), viper.GetString("logging.format")); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	slog.Debug("configuration loaded", "file", viper.ConfigFileUsed())

	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "deals version %s\n", version)
		},
	}
}
