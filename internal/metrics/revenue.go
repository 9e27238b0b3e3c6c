package metrics

import (
	"cmp"
	"slices"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/sales"
)

// TotalRevenue sums revenue over the period. It is 0 when nothing matches.
func TotalRevenue(t *sales.Table, p Period) float64 {
	total := 0.0
	for r := range rows(t, p) {
		total += r.Revenue
	}
	return total
}

// MonthlyRevenue returns revenue for each month of year, January first.
// The result always has 12 entries; months without sales are 0.
func MonthlyRevenue(t *sales.Table, year int) []models.MonthlyRevenue {
	revenue, _ := monthlyTotals(t, year)
	out := make([]models.MonthlyRevenue, 12)
	for i := range out {
		out[i] = models.MonthlyRevenue{Month: i + 1, Revenue: revenue[i]}
	}
	return out
}

// monthlyTotals returns revenue per month and the last month (1-12) that has
// any row, or 0 when the year is empty. Rows with a month outside 1-12 are
// skipped.
func monthlyTotals(t *sales.Table, year int) ([12]float64, int) {
	var revenue [12]float64
	last := 0
	for r := range rows(t, ForYear(year)) {
		if r.Month < 1 || r.Month > 12 {
			continue
		}
		revenue[r.Month-1] += r.Revenue
		last = max(last, r.Month)
	}
	return revenue, last
}

// MonthlyGrowthRates returns the month-over-month revenue growth for
// February through December of year. A rate is nil when the prior month had
// no revenue, or when the month lies after the last month with data, so a
// partial year is not read as a collapse to zero.
//
// Zero months are treated differently depending on where they fall. A zero
// month inside the year's data range yields a rate of -1 into it and a nil
// rate out of it. Zero months after the last month with data yield nil.
func MonthlyGrowthRates(t *sales.Table, year int) []models.MonthlyGrowth {
	revenue, last := monthlyTotals(t, year)
	out := make([]models.MonthlyGrowth, 0, 11)
	for m := 2; m <= 12; m++ {
		g := models.MonthlyGrowth{Month: m}
		prior := revenue[m-2]
		if prior != 0 && m <= last {
			rate := (revenue[m-1] - prior) / prior
			g.Rate = &rate
		}
		out = append(out, g)
	}
	return out
}

// AverageMonthlyGrowth averages the defined month-over-month growth rates of
// year. Pairs whose prior month had no revenue are excluded. It returns nil
// when no pair is defined.
func AverageMonthlyGrowth(t *sales.Table, year int) *float64 {
	sum, n := 0.0, 0
	for _, g := range MonthlyGrowthRates(t, year) {
		if g.Rate != nil {
			sum += *g.Rate
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

// RevenueByCategory groups revenue by product category, highest first. Ties
// are ordered by name. Truncation to a top-N is left to the caller; see
// TopCategories.
func RevenueByCategory(t *sales.Table, p Period) []models.CategoryRevenue {
	totals := make(map[string]float64)
	for r := range rows(t, p) {
		totals[r.Category] += r.Revenue
	}

	out := make([]models.CategoryRevenue, 0, len(totals))
	for category, revenue := range totals {
		out = append(out, models.CategoryRevenue{Category: category, Revenue: revenue})
	}
	slices.SortFunc(out, func(a, b models.CategoryRevenue) int {
		if c := cmp.Compare(b.Revenue, a.Revenue); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return out
}

// TopCategories returns at most n leading entries. n <= 0 keeps everything.
func TopCategories(categories []models.CategoryRevenue, n int) []models.CategoryRevenue {
	if n <= 0 || len(categories) <= n {
		return categories
	}
	return categories[:n]
}

// RevenueByState groups revenue by customer state, highest first. Only
// states with sales in the period appear; there are no zero entries, unlike
// MonthlyRevenue.
func RevenueByState(t *sales.Table, p Period) []models.StateRevenue {
	totals := make(map[string]float64)
	for r := range rows(t, p) {
		totals[r.State] += r.Revenue
	}

	out := make([]models.StateRevenue, 0, len(totals))
	for state, revenue := range totals {
		out = append(out, models.StateRevenue{State: state, Revenue: revenue})
	}
	slices.SortFunc(out, func(a, b models.StateRevenue) int {
		if c := cmp.Compare(b.Revenue, a.Revenue); c != 0 {
			return c
		}
		return cmp.Compare(a.State, b.State)
	})
	return out
}
