package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"sales-dashboard/internal/metrics"
)

func newYearsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "years",
		Short: "List the purchase years present in the data, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			analytics, err := opts.load(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			for _, year := range metrics.Years(analytics.Table()) {
				fmt.Fprintln(cmd.OutOrStdout(), year)
			}
			return nil
		},
	}
}
