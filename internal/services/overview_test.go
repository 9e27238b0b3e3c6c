package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/sales"
)

func score(v int) *int { return &v }
func days(v int) *int  { return &v }

func overviewTable() *sales.Table {
	return sales.FromRecords([]models.SalesRecord{
		{OrderID: "a", HasDate: true, Year: 2023, Month: 1, Revenue: 100, Category: "toys", State: "SP", ReviewScore: score(5), DeliveryDays: days(3)},
		{OrderID: "b", HasDate: true, Year: 2023, Month: 2, Revenue: 200, Category: "books", State: "RJ", ReviewScore: score(4), DeliveryDays: days(9)},
		{OrderID: "c", HasDate: true, Year: 2022, Month: 1, Revenue: 150, Category: "toys", State: "SP", ReviewScore: score(3), DeliveryDays: days(5)},
	})
}

func kpi(t *testing.T, o Overview, key string) KPI {
	t.Helper()
	for _, k := range o.KPIs {
		if k.Key == key {
			return k
		}
	}
	t.Fatalf("kpi %q not found", key)
	return KPI{}
}

func TestBuildOverview(t *testing.T) {
	o := BuildOverview(overviewTable(), 2023, 1)

	assert.Equal(t, 2022, o.ComparisonYear)
	require.Len(t, o.KPIs, 6)

	revenue := kpi(t, o, "total_revenue")
	assert.Equal(t, 300.0, *revenue.Current)
	assert.Equal(t, 150.0, *revenue.Previous)
	assert.Equal(t, 100.0, *revenue.Delta)
	assert.Equal(t, UnitPercent, revenue.DeltaUnit)

	growth := kpi(t, o, "avg_monthly_growth")
	assert.Equal(t, 100.0, *growth.Current)
	assert.Nil(t, growth.Previous)
	assert.Nil(t, growth.Delta)

	orders := kpi(t, o, "total_orders")
	assert.Equal(t, 2.0, *orders.Current)
	assert.Equal(t, 100.0, *orders.Delta)

	delivery := kpi(t, o, "avg_delivery_days")
	assert.True(t, delivery.LowerIsBetter)
	assert.Equal(t, 6.0, *delivery.Current)
	assert.Equal(t, 1.0, *delivery.Delta)

	review := kpi(t, o, "avg_review_score")
	assert.Equal(t, 4.5, *review.Current)
	assert.Equal(t, 1.5, *review.Delta)
	assert.Equal(t, "Excellent", o.ReviewLabel)

	assert.Len(t, o.Monthly, 12)
	assert.Len(t, o.MonthlyPrior, 12)
	require.Len(t, o.Categories, 1)
	assert.Equal(t, "books", o.Categories[0].Category)
	assert.Len(t, o.States, 2)
}

func TestBuildOverview_NoData(t *testing.T) {
	o := BuildOverview(overviewTable(), 2010, 10)

	revenue := kpi(t, o, "total_revenue")
	assert.Equal(t, 0.0, *revenue.Current)
	assert.Nil(t, revenue.Delta)

	assert.Nil(t, kpi(t, o, "avg_review_score").Current)
	assert.Equal(t, "No reviews", o.ReviewLabel)
	assert.Empty(t, o.Categories)
	assert.Empty(t, o.States)
}

func TestPercentDelta(t *testing.T) {
	assert.Nil(t, PercentDelta(ptr(10), ptr(0)))
	assert.Nil(t, PercentDelta(nil, ptr(5)))
	assert.Equal(t, -50.0, *PercentDelta(ptr(5), ptr(10)))
}

func TestReviewLabel(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{4.8, "Excellent"},
		{4.5, "Excellent"},
		{4.2, "Good"},
		{3.0, "Average"},
		{2.9, "Below Average"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ReviewLabel(ptr(tt.score)))
	}
}
