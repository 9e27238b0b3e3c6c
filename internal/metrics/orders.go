package metrics

import "sales-dashboard/internal/sales"

// TotalOrders counts distinct orders in the period.
func TotalOrders(t *sales.Table, p Period) int {
	n := 0
	for range orders(t, p) {
		n++
	}
	return n
}

// AverageOrderValue divides total revenue by the number of distinct orders.
// It is 0 when the period has no orders.
func AverageOrderValue(t *sales.Table, p Period) float64 {
	count := TotalOrders(t, p)
	if count == 0 {
		return 0
	}
	return TotalRevenue(t, p) / float64(count)
}
