package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	env     string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "niftyjobs",
	Short: "Nifty 50 winner batch jobs",
	Long: `niftyjobs downloads Nifty 50 constituent prices, picks the best
performer per period and replaces the result tables.

Usage:
  go run ./cmd/niftyjobs [command]

Examples:
  go run ./cmd/niftyjobs yearly
  go run ./cmd/niftyjobs monthly --start 2000-01-01
  go run ./cmd/niftyjobs refresh --winners-only
  go run ./cmd/niftyjobs scheduler start
  go run ./cmd/niftyjobs api`,
	SilenceUsage: true,
}

// Execute runs the root command with SIGINT/SIGTERM cancellation.
// This is called by main.main().
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
