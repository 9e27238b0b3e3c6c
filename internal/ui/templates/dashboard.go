// Package templates renders the dashboard shell. The page itself carries no
// data; KPI cards and charts arrive over the /sse endpoints.
package templates

//go:generate templ generate

import "strconv"

const defaultTitle = "E-commerce Sales Dashboard"

func (p DashboardProps) title() string {
	if p.Title == "" {
		return defaultTitle
	}
	return p.Title
}

// YearLabel formats a year for display; zero means no data was loaded.
func YearLabel(year int) string {
	if year == 0 {
		return "no data"
	}
	return strconv.Itoa(year)
}

type chart struct {
	id    string
	title string
}

var charts = []chart{
	{id: "monthly-chart", title: "Monthly Revenue"},
	{id: "states-chart", title: "Revenue by State"},
	{id: "delivery-chart", title: "Review Score by Delivery Time"},
}
