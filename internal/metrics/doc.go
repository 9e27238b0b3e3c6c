// Package metrics computes business metrics over a unified sales table.
//
// Every function is pure: it reads the table, filters it to a Period and
// returns a fresh value. Nothing is cached and nothing is written, so any
// number of goroutines may call these functions against one shared table.
//
// "No data" is a normal result, not an error. Sums and counts return 0,
// averages and rates return nil, and groupings return an empty slice.
// MonthlyRevenue is the exception among groupings: it always has 12 entries.
//
// Revenue is the item price. Freight is never counted as revenue.
package metrics
