package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/metrics"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
)

var cacheHeaders = map[string]string{
	"Cache-Control": "public, max-age=300",
}

type APIHandlers struct {
	analytics *services.Analytics
	dashboard config.DashboardConfig
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, dashboard config.DashboardConfig, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		dashboard: dashboard,
		logger:    logger,
	}
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
}

func (h *APIHandlers) HandleYears(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, metrics.Years(h.analytics.Table()), cacheHeaders)
}

func (h *APIHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	year, err := queryYear(r, h.dashboard.DefaultYear)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	overview := services.BuildOverview(h.analytics.Table(), year, h.dashboard.TopCategories)
	errors.WriteSuccessWithHeaders(w, map[string]any{
		"year":            overview.Year,
		"comparison_year": overview.ComparisonYear,
		"kpis":            overview.KPIs,
		"review_label":    overview.ReviewLabel,
	}, cacheHeaders)
}

func (h *APIHandlers) HandleMonthlyRevenue(w http.ResponseWriter, r *http.Request) {
	year, err := queryYear(r, h.dashboard.DefaultYear)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	table := h.analytics.Table()
	errors.WriteSuccessWithHeaders(w, map[string]any{
		"year":           year,
		"monthly":        metrics.MonthlyRevenue(table, year),
		"growth":         metrics.MonthlyGrowthRates(table, year),
		"average_growth": metrics.AverageMonthlyGrowth(table, year),
	}, cacheHeaders)
}

func (h *APIHandlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	period, err := queryPeriod(r, h.dashboard.DefaultYear)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	top, err := queryPositive(r, "top", h.dashboard.TopCategories)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	data := metrics.TopCategories(metrics.RevenueByCategory(h.analytics.Table(), period), top)
	errors.WriteSuccessWithHeaders(w, data, cacheHeaders)
}

func (h *APIHandlers) HandleStates(w http.ResponseWriter, r *http.Request) {
	period, err := queryPeriod(r, h.dashboard.DefaultYear)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, metrics.RevenueByState(h.analytics.Table(), period), cacheHeaders)
}

func (h *APIHandlers) HandleDelivery(w http.ResponseWriter, r *http.Request) {
	period, err := queryPeriod(r, h.dashboard.DefaultYear)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	table := h.analytics.Table()
	errors.WriteSuccessWithHeaders(w, map[string]any{
		"period":               period.String(),
		"experience":           metrics.DeliveryExperience(table, period),
		"average_days":         metrics.AverageDeliveryDays(table, period),
		"average_review_score": metrics.AverageReviewScore(table, period),
	}, cacheHeaders)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if h.analytics.FullTable().Len() == 0 {
		h.fail(w, r, errors.ServiceUnavailable("no sales data loaded"))
		return
	}

	healthData := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
		"rows":      h.analytics.FullTable().Len(),
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}

// HandleReload rebuilds the table from the source files. Requests arriving
// during a rebuild wait for it and share its result.
func (h *APIHandlers) HandleReload(w http.ResponseWriter, r *http.Request) {
	if err := h.analytics.Reload(r.Context()); err != nil {
		h.fail(w, r, errors.Wrap(err, errors.CodeServiceUnavail, "reload failed"))
		return
	}

	h.logger.Info("sales table reloaded", "request_id", observability.GetRequestID(r.Context()))
	errors.WriteSuccess(w, h.analytics.Stats())
}
