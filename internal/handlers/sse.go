package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/metrics"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
)

var templateFuncs = template.FuncMap{
	"deref": func(v *float64) float64 { return *v },
	"good": func(k services.KPI) bool {
		if k.Delta == nil {
			return true
		}
		if k.LowerIsBetter {
			return *k.Delta <= 0
		}
		return *k.Delta >= 0
	},
	"inc":   func(i int) int { return i + 1 },
	"money": formatMoney,
}

// formatMoney renders 1234567.891 as $1,234,567.89.
func formatMoney(v float64) string {
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	whole := strconv.FormatFloat(v, 'f', 2, 64)
	intPart, frac := whole[:len(whole)-3], whole[len(whole)-3:]

	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return sign + "$" + b.String() + frac
}

var kpiCardsTemplate = template.Must(template.New("kpiCards").Funcs(templateFuncs).Parse(`
<div id="kpi-cards" class="kpi-grid">
{{range .KPIs}}<div class="kpi-card" data-kpi="{{.Key}}">
<div class="kpi-label">{{.Label}}</div>
<div class="kpi-value">{{if .Current}}{{if or (eq .Key "total_revenue") (eq .Key "avg_order_value")}}{{money (deref .Current)}}{{else if eq .Key "avg_monthly_growth"}}{{printf "%.1f" (deref .Current)}}%{{else if eq .Key "total_orders"}}{{printf "%.0f" (deref .Current)}}{{else}}{{printf "%.2f" (deref .Current)}}{{end}}{{else}}n/a{{end}}</div>
<div class="kpi-delta {{if good .}}positive{{else}}negative{{end}}">{{if .Delta}}{{printf "%+.1f" (deref .Delta)}} {{.DeltaUnit}} vs {{$.ComparisonYear}}{{else}}no comparison{{end}}</div>
</div>{{end}}
<div class="kpi-card review-label" data-kpi="review_label"><div class="kpi-label">Customer Satisfaction</div><div class="kpi-value">{{.ReviewLabel}}</div></div>
</div>`))

var categoryTableTemplate = template.Must(template.New("categoryTable").Funcs(templateFuncs).Parse(`
<div id="category-content">
<table class="modern-table">
<thead><tr><th>#</th><th>Category</th><th>Revenue</th></tr></thead>
<tbody>
{{range $i, $c := .}}<tr>
<td>{{inc $i}}</td>
<td><span class="category-badge">{{$c.Category}}</span></td>
<td><strong>{{money $c.Revenue}}</strong></td>
</tr>{{else}}<tr><td colspan="3">No sales in this period</td></tr>{{end}}
</tbody>
</table>
</div>`))

type SSEHandlers struct {
	analytics *services.Analytics
	dashboard config.DashboardConfig
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, dashboard config.DashboardConfig, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		dashboard: dashboard,
		logger:    logger,
	}
}

// datastarQueryKey carries the page signals on GET requests.
const datastarQueryKey = "datastar"

type dashboardSignals struct {
	Year int `json:"year"`
}

// selectedYear prefers the year query parameter, then the year signal sent by
// the page, then the configured default.
func (h *SSEHandlers) selectedYear(r *http.Request) int {
	if year, err := queryYear(r, 0); err == nil && year != 0 {
		return year
	}
	if r.URL.Query().Has(datastarQueryKey) {
		var signals dashboardSignals
		if err := datastar.ReadSignals(r, &signals); err != nil {
			h.logger.Debug("read datastar signals", "error", err)
		} else if signals.Year > 0 {
			return signals.Year
		}
	}
	return h.dashboard.DefaultYear
}

func (h *SSEHandlers) renderKPICards(o services.Overview) (string, error) {
	var buf strings.Builder
	err := kpiCardsTemplate.Execute(&buf, o)
	return buf.String(), err
}

func (h *SSEHandlers) renderCategoryTable(categories []models.CategoryRevenue) (string, error) {
	var buf strings.Builder
	err := categoryTableTemplate.Execute(&buf, categories)
	return buf.String(), err
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	year := h.selectedYear(r)
	sse := datastar.NewSSE(w, r)

	overview := services.BuildOverview(h.analytics.Table(), year, h.dashboard.TopCategories)
	html, err := h.renderKPICards(overview)
	if err != nil {
		h.logger.Error("render kpi cards", "error", err)
		return
	}
	if err := sse.PatchElements(html); err != nil {
		h.logger.Warn("patch kpi cards", "error", err)
		return
	}

	signals, err := json.Marshal(map[string]any{
		"year":           overview.Year,
		"comparisonYear": overview.ComparisonYear,
		"reviewLabel":    overview.ReviewLabel,
	})
	if err != nil {
		h.logger.Error("marshal kpi signals", "error", err)
		return
	}
	sse.PatchSignals(signals)

	flush(w)
}

func (h *SSEHandlers) HandleCharts(w http.ResponseWriter, r *http.Request) {
	year := h.selectedYear(r)
	sse := datastar.NewSSE(w, r)

	table := h.analytics.Table()
	overview := services.BuildOverview(table, year, h.dashboard.TopCategories)

	html, err := h.renderCategoryTable(overview.Categories)
	if err != nil {
		h.logger.Error("render category table", "error", err)
		return
	}
	sse.PatchElements(html)

	signals, err := json.Marshal(map[string]any{
		"monthlyData":      overview.Monthly,
		"monthlyPriorData": overview.MonthlyPrior,
		"growthData":       metrics.MonthlyGrowthRates(table, year),
		"categoriesData":   overview.Categories,
		"statesData":       overview.States,
		"deliveryData":     overview.Delivery,
	})
	if err != nil {
		h.logger.Error("marshal chart signals", "error", err)
		return
	}
	sse.PatchSignals(signals)

	flush(w)
}
