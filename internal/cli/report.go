package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sales-dashboard/internal/metrics"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
)

func newReportCmd(opts *options) *cobra.Command {
	var (
		year  int
		month int
		top   int
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print KPIs and breakdowns for a year, compared with the year before",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("year") {
				year = opts.defaultYear()
			}
			if !cmd.Flags().Changed("top") {
				top = opts.topCategories()
			}
			if month < 0 || month > 12 {
				return fmt.Errorf("--month must be between 1 and 12, got %d", month)
			}
			if top < 1 {
				return fmt.Errorf("--top must be positive, got %d", top)
			}

			analytics, err := opts.load(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			period := metrics.ForYear(year)
			if month != 0 {
				period = metrics.ForMonth(year, month)
			}
			return writeReport(cmd.OutOrStdout(), analytics, period, top)
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Year to report (default $DASHBOARD_DEFAULT_YEAR)")
	cmd.Flags().IntVar(&month, "month", 0, "Restrict breakdowns to one month (1-12)")
	cmd.Flags().IntVar(&top, "top", 0, "Number of categories to list (default $DASHBOARD_TOP_CATEGORIES)")
	return cmd
}

// writeReport prints year-level KPIs, the monthly trend and the period
// breakdowns. KPIs always cover the full year; breakdowns honour the month.
func writeReport(out io.Writer, analytics *services.Analytics, period metrics.Period, top int) error {
	table := analytics.Table()
	overview := services.BuildOverview(table, period.Year, top)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "KPIs %d vs %d\n", overview.Year, overview.ComparisonYear)
	fmt.Fprintln(tw, "METRIC\tCURRENT\tPREVIOUS\tDELTA")
	for _, k := range overview.KPIs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", k.Label, number(k.Current), number(k.Previous), delta(k))
	}
	fmt.Fprintf(tw, "Customer satisfaction\t%s\t\t\n", overview.ReviewLabel)

	fmt.Fprintf(tw, "\nMONTH\tREVENUE\tGROWTH\n")
	growth := metrics.MonthlyGrowthRates(table, period.Year)
	for i, m := range overview.Monthly {
		rate := "-"
		if i > 0 && growth[i-1].Rate != nil {
			rate = fmt.Sprintf("%+.1f%%", *growth[i-1].Rate*100)
		}
		fmt.Fprintf(tw, "%02d\t%.2f\t%s\n", m.Month, m.Revenue, rate)
	}

	categories := metrics.TopCategories(metrics.RevenueByCategory(table, period), top)
	fmt.Fprintf(tw, "\nCATEGORY (%s)\tREVENUE\t\n", period)
	for _, c := range categories {
		fmt.Fprintf(tw, "%s\t%.2f\t\n", c.Category, c.Revenue)
	}

	fmt.Fprintf(tw, "\nSTATE (%s)\tREVENUE\t\n", period)
	for _, s := range metrics.RevenueByState(table, period) {
		fmt.Fprintf(tw, "%s\t%.2f\t\n", s.State, s.Revenue)
	}

	writeDelivery(tw, metrics.DeliveryExperience(table, period))

	return tw.Flush()
}

func writeDelivery(w io.Writer, exp models.DeliveryExperience) {
	fmt.Fprintf(w, "\nDELIVERY\tORDERS\tAVG REVIEW\n")
	for _, b := range exp.Buckets {
		fmt.Fprintf(w, "%s\t%d\t%s\n", b.Label, b.Orders, number(b.AvgReviewScore))
	}
	fmt.Fprintf(w, "unscored\t%d\t\n", exp.Unscored)
}

func number(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

func delta(k services.KPI) string {
	if k.Delta == nil {
		return "n/a"
	}
	unit := k.DeltaUnit
	if unit != services.UnitPercent {
		unit = " " + unit
	}
	return strings.TrimSpace(fmt.Sprintf("%+.2f%s", *k.Delta, unit))
}
