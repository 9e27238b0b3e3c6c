package cli

import (
	"fmt"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newQualityCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "quality",
		Short: "Print the data-quality report of the load",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			analytics, err := opts.load(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			report := analytics.Report()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SOURCE\tROWS\tMALFORMED")
			for _, src := range slices.Sorted(maps.Keys(report.SourceRows)) {
				fmt.Fprintf(tw, "%s\t%d\t%d\n", src, report.SourceRows[src], report.MalformedRows[src])
			}

			fmt.Fprintln(tw, "\nCOLUMN\tUNPARSEABLE DATES")
			for _, col := range slices.Sorted(maps.Keys(report.UnparseableDates)) {
				fmt.Fprintf(tw, "%s\t%d\n", col, report.UnparseableDates[col])
			}

			fmt.Fprintln(tw, "\nCHECK\tCOUNT")
			for _, row := range []struct {
				label string
				count int
			}{
				{"sales rows", report.SalesRows},
				{"malformed rows", report.Malformed()},
				{"missing categories", report.MissingCategories},
				{"missing states", report.MissingStates},
				{"duplicate reviews", report.DuplicateReviews},
				{"items without order", report.ItemsWithoutOrder},
				{"items without product", report.ItemsWithoutProduct},
				{"items without customer", report.ItemsWithoutCustomer},
				{"items without payment", report.ItemsWithoutPayment},
				{"items without review", report.ItemsWithoutReview},
				{"undated rows", report.UndatedRecords},
				{"negative deliveries", report.NegativeDeliveries},
			} {
				fmt.Fprintf(tw, "%s\t%d\n", row.label, row.count)
			}
			return tw.Flush()
		},
	}
}
