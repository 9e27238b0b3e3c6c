// Package cli implements salesctl, a command-line view of the sales metrics
// over the same CSV sources the dashboard serves.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
)

type options struct {
	envFile       string
	dataDir       string
	logLevel      string
	deliveredOnly bool
	noCache       bool

	cfg *config.Config
}

// NewRootCmd builds the salesctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "salesctl",
		Short: "Inspect e-commerce sales metrics from the command line",
		Long: `salesctl loads the order, item, product, customer, review and payment
CSV exports into one sales table and prints the same metrics the
dashboard shows.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.envFile)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			if !cmd.Flags().Changed("data-dir") {
				opts.dataDir = cfg.Data.Dir
			}
			if !cmd.Flags().Changed("delivered-only") {
				opts.deliveredOnly = cfg.Dashboard.DeliveredOnly
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.envFile, "env-file", ".env", "Optional .env file with configuration")
	flags.StringVar(&opts.dataDir, "data-dir", "", "Directory holding the CSV sources (default $DATA_DIR)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	flags.BoolVar(&opts.deliveredOnly, "delivered-only", true, "Only count delivered orders")
	flags.BoolVar(&opts.noCache, "no-cache", false, "Always rebuild the table from the CSV files")

	root.AddCommand(newReportCmd(opts), newYearsCmd(opts), newQualityCmd(opts))
	return root
}

// Execute runs salesctl and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// load builds the analytics service for one command invocation. Logs go to
// the command's stderr so they never mix with report output.
func (o *options) load(ctx context.Context, stderr io.Writer) (*services.Analytics, error) {
	logger := observability.NewLoggerTo(stderr, config.LoggerConfig{Level: o.logLevel, Format: "text"})

	svcOpts := services.Options{DeliveredOnly: o.deliveredOnly}
	if !o.noCache && o.cfg.Data.CacheEnabled {
		svcOpts.CacheDir = o.cfg.Data.CacheDir
	}
	analytics := services.NewAnalytics(logger, svcOpts)

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Data.LoadTimeout)
	defer cancel()

	if err := analytics.LoadFromDir(ctx, o.dataDir); err != nil {
		return nil, err
	}
	return analytics, nil
}
