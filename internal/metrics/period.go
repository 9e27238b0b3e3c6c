package metrics

import (
	"fmt"
	"iter"
	"slices"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/sales"
)

// Period selects a calendar year, or one month of it when Month is 1-12.
// Month 0 means the whole year. Any other month matches nothing.
type Period struct {
	Year  int
	Month int
}

func ForYear(year int) Period {
	return Period{Year: year}
}

func ForMonth(year, month int) Period {
	return Period{Year: year, Month: month}
}

// Previous returns the same period one year earlier.
func (p Period) Previous() Period {
	return Period{Year: p.Year - 1, Month: p.Month}
}

func (p Period) String() string {
	if p.Month == 0 {
		return fmt.Sprintf("%d", p.Year)
	}
	return fmt.Sprintf("%d-%02d", p.Year, p.Month)
}

func rows(t *sales.Table, p Period) iter.Seq[models.SalesRecord] {
	if p.Month < 0 || p.Month > 12 {
		return func(func(models.SalesRecord) bool) {}
	}
	return t.InPeriod(p.Year, p.Month)
}

// orders yields the first in-scope row of each distinct order. Review and
// delivery attributes are order-level, so order-level averages use these.
func orders(t *sales.Table, p Period) iter.Seq[models.SalesRecord] {
	return func(yield func(models.SalesRecord) bool) {
		seen := make(map[string]struct{})
		for r := range rows(t, p) {
			if _, ok := seen[r.OrderID]; ok {
				continue
			}
			seen[r.OrderID] = struct{}{}
			if !yield(r) {
				return
			}
		}
	}
}

// Years lists the purchase years present in the table, newest first.
func Years(t *sales.Table) []int {
	seen := make(map[int]struct{})
	years := []int{}
	for r := range t.All() {
		if !r.HasDate {
			continue
		}
		if _, ok := seen[r.Year]; !ok {
			seen[r.Year] = struct{}{}
			years = append(years, r.Year)
		}
	}
	slices.SortFunc(years, func(a, b int) int { return b - a })
	return years
}
