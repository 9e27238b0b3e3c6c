package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/sales"
	"sales-dashboard/internal/services"
)

var testDashboard = config.DashboardConfig{
	DefaultYear:   2023,
	DeliveredOnly: true,
	TopCategories: 10,
}

func intPtr(v int) *int { return &v }

func createTestAnalytics() *services.Analytics {
	a := services.NewAnalytics(testLogger(), services.Options{DeliveredOnly: true})
	a.SetTable(sales.FromRecords([]models.SalesRecord{
		{OrderID: "o1", ItemID: 1, OrderStatus: "delivered", HasDate: true, Year: 2023, Month: 1, Category: "toys", State: "SP", Price: 100, Revenue: 100, ReviewScore: intPtr(5), DeliveryDays: intPtr(2)},
		{OrderID: "o2", ItemID: 1, OrderStatus: "delivered", HasDate: true, Year: 2023, Month: 2, Category: "books", State: "RJ", Price: 150, Revenue: 150, ReviewScore: intPtr(4), DeliveryDays: intPtr(10)},
		{OrderID: "o3", ItemID: 1, OrderStatus: "delivered", HasDate: true, Year: 2022, Month: 1, Category: "toys", State: "SP", Price: 125, Revenue: 125, ReviewScore: intPtr(3), DeliveryDays: intPtr(5)},
		{OrderID: "o4", ItemID: 1, OrderStatus: "canceled", HasDate: true, Year: 2023, Month: 1, Category: "toys", State: "MG", Price: 999, Revenue: 999},
	}), nil)
	return a
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if data != nil && env.Success {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("failed to decode data: %v", err)
		}
	}
	return env
}

func TestNewAPIHandlers(t *testing.T) {
	analytics := createTestAnalytics()
	handlers := NewAPIHandlers(analytics, testDashboard, testLogger())

	if handlers == nil {
		t.Fatal("NewAPIHandlers() returned nil")
	}
	if handlers.analytics != analytics {
		t.Error("NewAPIHandlers() should set analytics field")
	}
}

func TestAPIHandlers_HandleYears(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testDashboard, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/years", nil)
	w := httptest.NewRecorder()
	handlers.HandleYears(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=300" {
		t.Errorf("expected cache-control header, got %q", cc)
	}

	var years []int
	decode(t, w, &years)
	if len(years) != 2 || years[0] != 2023 || years[1] != 2022 {
		t.Errorf("expected [2023 2022], got %v", years)
	}
}

func TestAPIHandlers_HandleKPIs(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testDashboard, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/kpis?year=2023", nil)
	w := httptest.NewRecorder()
	handlers.HandleKPIs(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var body struct {
		Year           int            `json:"year"`
		ComparisonYear int            `json:"comparison_year"`
		KPIs           []services.KPI `json:"kpis"`
		ReviewLabel    string         `json:"review_label"`
	}
	decode(t, w, &body)

	if body.Year != 2023 || body.ComparisonYear != 2022 {
		t.Errorf("unexpected years %d/%d", body.Year, body.ComparisonYear)
	}
	if len(body.KPIs) != 6 {
		t.Fatalf("expected 6 KPIs, got %d", len(body.KPIs))
	}

	revenue := body.KPIs[0]
	if revenue.Key != "total_revenue" || revenue.Current == nil || *revenue.Current != 250 {
		t.Errorf("expected delivered revenue 250, got %+v", revenue)
	}
	if revenue.Delta == nil || *revenue.Delta != 100 {
		t.Errorf("expected +100%% revenue delta, got %v", revenue.Delta)
	}
	if body.ReviewLabel != "Excellent" {
		t.Errorf("expected Excellent, got %q", body.ReviewLabel)
	}
}

func TestAPIHandlers_BadParameters(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testDashboard, testLogger())

	tests := []struct {
		name    string
		url     string
		handler http.HandlerFunc
	}{
		{"non-numeric year", "/api/kpis?year=abc", handlers.HandleKPIs},
		{"negative year", "/api/monthly-revenue?year=-1", handlers.HandleMonthlyRevenue},
		{"month out of range", "/api/categories?year=2023&month=13", handlers.HandleCategories},
		{"month zero", "/api/states?month=0", handlers.HandleStates},
		{"bad top", "/api/categories?top=0", handlers.HandleCategories},
		{"non-numeric month", "/api/delivery?month=jan", handlers.HandleDelivery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()
			tt.handler(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
			}
			env := decode(t, w, nil)
			if env.Success || env.Error == nil || env.Error.Code != "BAD_REQUEST" {
				t.Errorf("expected BAD_REQUEST error, got %+v", env)
			}
		})
	}
}

func TestAPIHandlers_HandleMonthlyRevenue(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testDashboard, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/monthly-revenue", nil)
	w := httptest.NewRecorder()
	handlers.HandleMonthlyRevenue(w, req)

	var body struct {
		Year          int                     `json:"year"`
		Monthly       []models.MonthlyRevenue `json:"monthly"`
		Growth        []models.MonthlyGrowth  `json:"growth"`
		AverageGrowth *float64                `json:"average_growth"`
	}
	decode(t, w, &body)

	if body.Year != 2023 {
		t.Errorf("expected default year 2023, got %d", body.Year)
	}
	if len(body.Monthly) != 12 {
		t.Fatalf("expected 12 months, got %d", len(body.Monthly))
	}
	if body.Monthly[0].Revenue != 100 || body.Monthly[1].Revenue != 150 {
		t.Errorf("unexpected monthly revenue %+v", body.Monthly[:2])
	}
	if body.AverageGrowth == nil || *body.AverageGrowth != 0.5 {
		t.Errorf("expected average growth 0.5, got %v", body.AverageGrowth)
	}
}

func TestAPIHandlers_HandleCategories(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testDashboard, testLogger())

	tests := []struct {
		url       string
		wantFirst string
		wantLen   int
	}{
		{"/api/categories?year=2023", "books", 2},
		{"/api/categories?year=2023&top=1", "books", 1},
		{"/api/categories?year=2023&month=1", "toys", 1},
		{"/api/categories?year=2019", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()
			handlers.HandleCategories(w, req)

			var categories []models.CategoryRevenue
			decode(t, w, &categories)

			if len(categories) != tt.wantLen {
				t.Fatalf("expected %d categories, got %d", tt.wantLen, len(categories))
			}
			if tt.wantLen > 0 && categories[0].Category != tt.wantFirst {
				t.Errorf("expected %q first, got %q", tt.wantFirst, categories[0].Category)
			}
		})
	}
}

func TestAPIHandlers_HandleStates(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testDashboard, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/states?year=2023", nil)
	w := httptest.NewRecorder()
	handlers.HandleStates(w, req)

	var states []models.StateRevenue
	decode(t, w, &states)

	// MG only has a canceled order, outside the delivered view.
	if len(states) != 2 {
		t.Fatalf("expected 2 states, got %d: %+v", len(states), states)
	}
	for _, s := range states {
		if s.State == "MG" {
			t.Error("canceled orders should not appear in the dashboard view")
		}
	}
}

func TestAPIHandlers_HandleDelivery(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testDashboard, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/delivery?year=2023", nil)
	w := httptest.NewRecorder()
	handlers.HandleDelivery(w, req)

	var body struct {
		Period      string                    `json:"period"`
		Experience  models.DeliveryExperience `json:"experience"`
		AverageDays *float64                  `json:"average_days"`
	}
	decode(t, w, &body)

	if body.Period != "2023" {
		t.Errorf("expected period 2023, got %q", body.Period)
	}
	if body.AverageDays == nil || *body.AverageDays != 6 {
		t.Errorf("expected average 6 days, got %v", body.AverageDays)
	}
	if len(body.Experience.Buckets) != 4 {
		t.Errorf("expected 4 buckets, got %d", len(body.Experience.Buckets))
	}
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testDashboard, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handlers.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var health map[string]any
	decode(t, w, &health)

	if health["status"] != "healthy" {
		t.Errorf("expected status 'healthy', got %v", health["status"])
	}
	if health["rows"] != float64(4) {
		t.Errorf("expected 4 rows, got %v", health["rows"])
	}
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testDashboard, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	w := httptest.NewRecorder()
	handlers.HandleStats(w, req)

	var stats map[string]any
	decode(t, w, &stats)

	for _, key := range []string{"rows", "view_rows", "delivered_only", "report"} {
		if _, ok := stats[key]; !ok {
			t.Errorf("expected %q in stats", key)
		}
	}
	if stats["view_rows"] != float64(3) {
		t.Errorf("expected 3 view rows, got %v", stats["view_rows"])
	}
}

func TestAPIHandlers_HandleReload_WithoutDataDir(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testDashboard, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/admin/reload", nil).WithContext(context.Background())
	w := httptest.NewRecorder()
	handlers.HandleReload(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{12.5, "$12.50"},
		{999.999, "$1,000.00"},
		{1234567.891, "$1,234,567.89"},
		{-4200, "-$4,200.00"},
	}
	for _, tt := range tests {
		if got := formatMoney(tt.in); got != tt.want {
			t.Errorf("formatMoney(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAPIHandlers_HandleHealth_NoData(t *testing.T) {
	empty := services.NewAnalytics(testLogger(), services.Options{})
	handlers := NewAPIHandlers(empty, testDashboard, testLogger())

	w := httptest.NewRecorder()
	handlers.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}
}
