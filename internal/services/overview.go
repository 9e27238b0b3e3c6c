package services

import (
	"sales-dashboard/internal/metrics"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/sales"
)

// Delta units reported on a KPI.
const (
	UnitPercent = "%"
	UnitPoints  = "pp"
	UnitDays    = "days"
	UnitScore   = "score"
)

// KPI compares one headline metric between a year and the year before.
// Current and Previous are nil when the metric is undefined for that year.
type KPI struct {
	Key       string   `json:"key"`
	Label     string   `json:"label"`
	Current   *float64 `json:"current"`
	Previous  *float64 `json:"previous"`
	Delta     *float64 `json:"delta"`
	DeltaUnit string   `json:"delta_unit"`

	// LowerIsBetter flips the colour of the delta on the dashboard.
	LowerIsBetter bool `json:"lower_is_better"`
}

// Overview is everything the dashboard shows for one year.
type Overview struct {
	Year           int                       `json:"year"`
	ComparisonYear int                       `json:"comparison_year"`
	KPIs           []KPI                     `json:"kpis"`
	Monthly        []models.MonthlyRevenue   `json:"monthly"`
	MonthlyPrior   []models.MonthlyRevenue   `json:"monthly_prior"`
	Categories     []models.CategoryRevenue  `json:"categories"`
	States         []models.StateRevenue     `json:"states"`
	Delivery       models.DeliveryExperience `json:"delivery"`
	ReviewLabel    string                    `json:"review_label"`
}

// BuildOverview issues each metric call twice, once for year and once for
// year-1, and derives the deltas. The metrics library has no notion of a
// comparison; it lives here.
func BuildOverview(t *sales.Table, year, topCategories int) Overview {
	cur, prev := metrics.ForYear(year), metrics.ForYear(year-1)

	revenue := KPI{
		Key:      "total_revenue",
		Label:    "Total Revenue",
		Current:  ptr(metrics.TotalRevenue(t, cur)),
		Previous: ptr(metrics.TotalRevenue(t, prev)),
	}
	revenue.Delta, revenue.DeltaUnit = PercentDelta(revenue.Current, revenue.Previous), UnitPercent

	growth := KPI{
		Key:      "avg_monthly_growth",
		Label:    "Avg Monthly Growth Rate",
		Current:  scale(metrics.AverageMonthlyGrowth(t, year), 100),
		Previous: scale(metrics.AverageMonthlyGrowth(t, year-1), 100),
	}
	growth.Delta, growth.DeltaUnit = Difference(growth.Current, growth.Previous), UnitPoints

	aov := KPI{
		Key:      "avg_order_value",
		Label:    "Average Order Value",
		Current:  ptr(metrics.AverageOrderValue(t, cur)),
		Previous: ptr(metrics.AverageOrderValue(t, prev)),
	}
	aov.Delta, aov.DeltaUnit = PercentDelta(aov.Current, aov.Previous), UnitPercent

	orders := KPI{
		Key:      "total_orders",
		Label:    "Total Orders",
		Current:  ptr(float64(metrics.TotalOrders(t, cur))),
		Previous: ptr(float64(metrics.TotalOrders(t, prev))),
	}
	orders.Delta, orders.DeltaUnit = PercentDelta(orders.Current, orders.Previous), UnitPercent

	delivery := KPI{
		Key:           "avg_delivery_days",
		Label:         "Average Delivery Time",
		Current:       metrics.AverageDeliveryDays(t, cur),
		Previous:      metrics.AverageDeliveryDays(t, prev),
		LowerIsBetter: true,
	}
	delivery.Delta, delivery.DeltaUnit = Difference(delivery.Current, delivery.Previous), UnitDays

	review := KPI{
		Key:      "avg_review_score",
		Label:    "Average Review Score",
		Current:  metrics.AverageReviewScore(t, cur),
		Previous: metrics.AverageReviewScore(t, prev),
	}
	review.Delta, review.DeltaUnit = Difference(review.Current, review.Previous), UnitScore

	return Overview{
		Year:           year,
		ComparisonYear: year - 1,
		KPIs:           []KPI{revenue, growth, aov, orders, delivery, review},
		Monthly:        metrics.MonthlyRevenue(t, year),
		MonthlyPrior:   metrics.MonthlyRevenue(t, year-1),
		Categories:     metrics.TopCategories(metrics.RevenueByCategory(t, cur), topCategories),
		States:         metrics.RevenueByState(t, cur),
		Delivery:       metrics.DeliveryExperience(t, cur),
		ReviewLabel:    ReviewLabel(review.Current),
	}
}

// PercentDelta is 100*(current-previous)/previous, or nil when either side
// is missing or previous is zero.
func PercentDelta(current, previous *float64) *float64 {
	if current == nil || previous == nil || *previous == 0 {
		return nil
	}
	return ptr(100 * (*current - *previous) / *previous)
}

// Difference is current-previous, or nil when either side is missing.
func Difference(current, previous *float64) *float64 {
	if current == nil || previous == nil {
		return nil
	}
	return ptr(*current - *previous)
}

// ReviewLabel describes an average review score on the 1-5 scale.
func ReviewLabel(score *float64) string {
	switch {
	case score == nil:
		return "No reviews"
	case *score >= 4.5:
		return "Excellent"
	case *score >= 4.0:
		return "Good"
	case *score >= 3.0:
		return "Average"
	default:
		return "Below Average"
	}
}

func ptr(v float64) *float64 {
	return &v
}

func scale(v *float64, factor float64) *float64 {
	if v == nil {
		return nil
	}
	return ptr(*v * factor)
}
