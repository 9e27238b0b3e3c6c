package metrics

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/sales"
)

type recOpt func(*models.SalesRecord)

func withCategory(c string) recOpt { return func(r *models.SalesRecord) { r.Category = c } }
func withState(s string) recOpt    { return func(r *models.SalesRecord) { r.State = s } }
func withScore(s int) recOpt       { return func(r *models.SalesRecord) { r.ReviewScore = &s } }
func withDays(d int) recOpt        { return func(r *models.SalesRecord) { r.DeliveryDays = &d } }
func undated() recOpt              { return func(r *models.SalesRecord) { r.HasDate = false } }

func rec(orderID string, year, month int, revenue float64, opts ...recOpt) models.SalesRecord {
	r := models.SalesRecord{
		OrderID:  orderID,
		HasDate:  true,
		Year:     year,
		Month:    month,
		Price:    revenue,
		Revenue:  revenue,
		Category: "misc",
		State:    "SP",
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func table(records ...models.SalesRecord) *sales.Table {
	return sales.FromRecords(records)
}

func TestEmptyPeriod(t *testing.T) {
	tbl := table(rec("o1", 2023, 1, 10, withScore(5)))

	assert.Zero(t, TotalRevenue(tbl, ForYear(2019)))
	assert.Nil(t, AverageReviewScore(tbl, ForYear(2019)))
	assert.Zero(t, AverageOrderValue(tbl, ForYear(2019)))
	assert.Zero(t, TotalOrders(tbl, ForYear(2019)))
	assert.Nil(t, AverageMonthlyGrowth(tbl, 2019))
	assert.Nil(t, AverageDeliveryDays(tbl, ForYear(2019)))
	assert.Empty(t, RevenueByCategory(tbl, ForYear(2019)))
	assert.Empty(t, RevenueByState(tbl, ForYear(2019)))
	assert.NotNil(t, RevenueByState(tbl, ForYear(2019)))

	monthly := MonthlyRevenue(tbl, 2019)
	require.Len(t, monthly, 12)
	for _, m := range monthly {
		assert.Zero(t, m.Revenue)
	}
}

func TestJanuaryScenario(t *testing.T) {
	tbl := table(
		rec("o1", 2023, 1, 10),
		rec("o2", 2023, 1, 20, withScore(4)),
		rec("o3", 2023, 1, 30, withScore(5)),
	)
	jan := ForMonth(2023, 1)

	assert.Equal(t, 60.0, TotalRevenue(tbl, jan))
	require.NotNil(t, AverageReviewScore(tbl, jan))
	assert.Equal(t, 4.5, *AverageReviewScore(tbl, jan))
	assert.Equal(t, 20.0, AverageOrderValue(tbl, jan))
	assert.Equal(t, 3, TotalOrders(tbl, jan))
}

func TestMonthlyRevenue_SumsToTotal(t *testing.T) {
	tbl := table(
		rec("o1", 2023, 1, 10),
		rec("o2", 2023, 3, 15.5),
		rec("o3", 2023, 3, 4.5),
		rec("o4", 2023, 12, 100),
		rec("o5", 2022, 3, 999),
		rec("o6", 2023, 5, 7, undated()),
	)

	monthly := MonthlyRevenue(tbl, 2023)
	require.Len(t, monthly, 12)

	sum := 0.0
	for i, m := range monthly {
		assert.Equal(t, i+1, m.Month)
		assert.GreaterOrEqual(t, m.Revenue, 0.0)
		sum += m.Revenue
	}
	assert.Equal(t, TotalRevenue(tbl, ForYear(2023)), sum)
	assert.Equal(t, 20.0, monthly[2].Revenue)
	assert.Zero(t, monthly[4].Revenue)
}

func TestAverageMonthlyGrowth_ExcludesZeroPrior(t *testing.T) {
	tbl := table(
		rec("o1", 2023, 2, 100),
		rec("o2", 2023, 3, 200),
	)

	growth := AverageMonthlyGrowth(tbl, 2023)
	require.NotNil(t, growth)
	assert.Equal(t, 1.0, *growth)

	rates := MonthlyGrowthRates(tbl, 2023)
	require.Len(t, rates, 11)
	assert.Nil(t, rates[0].Rate, "Jan->Feb has zero prior revenue")
	require.NotNil(t, rates[1].Rate)
	assert.Equal(t, 3, rates[1].Month)
	for _, g := range rates[2:] {
		assert.Nil(t, g.Rate, "month %d lies after the last month with data", g.Month)
	}
}

func TestAverageMonthlyGrowth_GapInsideYear(t *testing.T) {
	tbl := table(
		rec("o1", 2023, 1, 100),
		rec("o2", 2023, 3, 200),
		rec("o3", 2023, 4, 300),
	)

	// Jan->Feb is -1, Feb->Mar is undefined, Mar->Apr is 0.5.
	growth := AverageMonthlyGrowth(tbl, 2023)
	require.NotNil(t, growth)
	assert.InDelta(t, -0.25, *growth, 1e-9)
}

func TestAverageMonthlyGrowth_SingleMonth(t *testing.T) {
	tbl := table(rec("o1", 2023, 6, 100))
	assert.Nil(t, AverageMonthlyGrowth(tbl, 2023))
}

func TestAverageOrderValue_DistinctOrders(t *testing.T) {
	tbl := table(
		rec("o1", 2023, 1, 10),
		rec("o1", 2023, 1, 30),
		rec("o2", 2023, 1, 20),
	)
	assert.Equal(t, 2, TotalOrders(tbl, ForYear(2023)))
	assert.Equal(t, 30.0, AverageOrderValue(tbl, ForYear(2023)))
}

func TestRevenueByCategory(t *testing.T) {
	tbl := table(
		rec("o1", 2023, 1, 10, withCategory("toys")),
		rec("o2", 2023, 1, 50, withCategory("books")),
		rec("o3", 2023, 2, 15, withCategory("toys")),
		rec("o4", 2023, 2, 25, withCategory("garden")),
		rec("o5", 2022, 2, 500, withCategory("garden")),
	)

	got := RevenueByCategory(tbl, ForYear(2023))
	want := []models.CategoryRevenue{
		{Category: "books", Revenue: 50},
		{Category: "garden", Revenue: 25},
		{Category: "toys", Revenue: 25},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("RevenueByCategory() mismatch (-want +got):\n%s", diff)
	}

	assert.Len(t, TopCategories(got, 2), 2)
	assert.Len(t, TopCategories(got, 0), 3)
	assert.Len(t, TopCategories(got, 10), 3)

	feb := RevenueByCategory(tbl, ForMonth(2023, 2))
	assert.Equal(t, "garden", feb[0].Category)
}

func TestRevenueByState_OnlyStatesInScope(t *testing.T) {
	tbl := table(
		rec("o1", 2023, 1, 10, withState("SP")),
		rec("o2", 2023, 1, 40, withState("RJ")),
		rec("o3", 2023, 2, 70, withState("MG")),
	)

	got := RevenueByState(tbl, ForMonth(2023, 1))
	want := []models.StateRevenue{
		{State: "RJ", Revenue: 40},
		{State: "SP", Revenue: 10},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("RevenueByState() mismatch (-want +got):\n%s", diff)
	}
}

func TestDeliveryExperience(t *testing.T) {
	tbl := table(
		rec("o1", 2023, 1, 10, withDays(2), withScore(5)),
		rec("o1", 2023, 1, 10, withDays(2), withScore(5)),
		rec("o2", 2023, 1, 10, withDays(3), withScore(4)),
		rec("o3", 2023, 1, 10, withDays(6), withScore(3)),
		rec("o4", 2023, 1, 10, withDays(20), withScore(1)),
		rec("o5", 2023, 1, 10, withDays(9)),
		rec("o6", 2023, 1, 10, withScore(2)),
	)

	exp := DeliveryExperience(tbl, ForYear(2023))
	require.Len(t, exp.Buckets, 4)
	assert.Equal(t, 2, exp.Unscored)

	labels := []string{"0-3 days", "4-7 days", "8-14 days", "15+ days"}
	for i, b := range exp.Buckets {
		assert.Equal(t, labels[i], b.Label)
	}

	require.NotNil(t, exp.Buckets[0].AvgReviewScore)
	assert.Equal(t, 4.5, *exp.Buckets[0].AvgReviewScore)
	assert.Equal(t, 2, exp.Buckets[0].Orders)
	assert.Equal(t, 3.0, *exp.Buckets[1].AvgReviewScore)
	assert.Nil(t, exp.Buckets[2].AvgReviewScore)
	assert.Equal(t, 1.0, *exp.Buckets[3].AvgReviewScore)
	assert.Equal(t, Unbounded, exp.Buckets[3].MaxDays)
}

func TestDeliveryBucket(t *testing.T) {
	tests := []struct {
		days  int
		index int
		label string
	}{
		{0, 0, "0-3 days"},
		{3, 0, "0-3 days"},
		{4, 1, "4-7 days"},
		{7, 1, "4-7 days"},
		{8, 2, "8-14 days"},
		{14, 2, "8-14 days"},
		{15, 3, "15+ days"},
		{200, 3, "15+ days"},
		{-1, -1, ""},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d days", tt.days), func(t *testing.T) {
			index, label := DeliveryBucket(tt.days)
			assert.Equal(t, tt.index, index)
			assert.Equal(t, tt.label, label)
		})
	}
}

func TestAverageDeliveryDays(t *testing.T) {
	tbl := table(
		rec("o1", 2023, 1, 10, withDays(2)),
		rec("o1", 2023, 1, 10, withDays(2)),
		rec("o2", 2023, 1, 10, withDays(6)),
		rec("o3", 2023, 1, 10),
	)
	got := AverageDeliveryDays(tbl, ForYear(2023))
	require.NotNil(t, got)
	assert.Equal(t, 4.0, *got)
}

func TestInvalidMonthMatchesNothing(t *testing.T) {
	tbl := table(rec("o1", 2023, 1, 10))
	assert.Zero(t, TotalRevenue(tbl, ForMonth(2023, 13)))
	assert.Zero(t, TotalRevenue(tbl, ForMonth(2023, -1)))
	assert.Equal(t, 10.0, TotalRevenue(tbl, ForYear(2023)))
}

func TestMonthlyRevenue_SkipsOutOfRangeMonths(t *testing.T) {
	tbl := table(
		rec("o1", 2023, 1, 10),
		rec("o2", 2023, 0, 50),
		rec("o3", 2023, 13, 70),
	)

	var monthly []models.MonthlyRevenue
	require.NotPanics(t, func() { monthly = MonthlyRevenue(tbl, 2023) })
	require.Len(t, monthly, 12)
	assert.Equal(t, 10.0, monthly[0].Revenue)
	for _, m := range monthly[1:] {
		assert.Zero(t, m.Revenue, "month %d", m.Month)
	}
	assert.NotPanics(t, func() { MonthlyGrowthRates(tbl, 2023) })
}

func TestMonthlyGrowthRates_InteriorAndTrailingZeros(t *testing.T) {
	tbl := table(
		rec("o1", 2023, 1, 100),
		rec("o2", 2023, 3, 200),
	)

	rates := MonthlyGrowthRates(tbl, 2023)
	require.NotNil(t, rates[0].Rate, "interior zero month gets a rate")
	assert.Equal(t, -1.0, *rates[0].Rate)
	assert.Nil(t, rates[1].Rate, "growth out of a zero month is undefined")
	assert.Nil(t, rates[2].Rate, "April lies after the last month with data")
}

func TestUndatedRowsExcluded(t *testing.T) {
	tbl := table(
		rec("o1", 2023, 1, 10),
		rec("o2", 2023, 1, 90, undated()),
	)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, 10.0, TotalRevenue(tbl, ForYear(2023)))
	assert.Equal(t, 1, TotalOrders(tbl, ForYear(2023)))
}

func TestYears(t *testing.T) {
	tbl := table(
		rec("o1", 2017, 1, 10),
		rec("o2", 2018, 1, 10),
		rec("o3", 2016, 1, 10),
		rec("o4", 2018, 2, 10),
		rec("o5", 1999, 1, 10, undated()),
	)
	assert.Equal(t, []int{2018, 2017, 2016}, Years(tbl))
	assert.Empty(t, Years(table()))
}

func TestPeriod(t *testing.T) {
	assert.Equal(t, "2023", ForYear(2023).String())
	assert.Equal(t, "2023-04", ForMonth(2023, 4).String())
	assert.Equal(t, ForMonth(2022, 4), ForMonth(2023, 4).Previous())
}

func TestConcurrentCallsAreIndependent(t *testing.T) {
	var records []models.SalesRecord
	for year := 2016; year <= 2018; year++ {
		for month := 1; month <= 12; month++ {
			records = append(records, rec(fmt.Sprintf("%d-%d", year, month), year, month, float64(year-2015)*float64(month)))
		}
	}
	tbl := table(records...)

	want := map[int]float64{2016: 78, 2017: 156, 2018: 234}

	var wg sync.WaitGroup
	errs := make(chan string, 300)
	for i := 0; i < 100; i++ {
		for year, total := range want {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if got := TotalRevenue(tbl, ForYear(year)); got != total {
					errs <- fmt.Sprintf("TotalRevenue(%d) = %v, want %v", year, got, total)
				}
			}()
		}
	}
	wg.Wait()
	close(errs)

	for msg := range errs {
		t.Error(msg)
	}
}

func BenchmarkTotalRevenue(b *testing.B) {
	records := make([]models.SalesRecord, 10000)
	for i := range records {
		records[i] = rec(fmt.Sprintf("o%d", i), 2016+i%3, 1+i%12, float64(i))
	}
	tbl := table(records...)

	b.ResetTimer()
	for b.Loop() {
		_ = TotalRevenue(tbl, ForYear(2017))
	}
}
