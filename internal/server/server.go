package server

import (
	"log/slog"
	"net/http"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/handlers"
	"sales-dashboard/internal/services"
)

type Server struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(analytics *services.Analytics, dashboard config.DashboardConfig, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(analytics, dashboard, logger),
		sseHandlers: handlers.NewSSEHandlers(analytics, dashboard, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard and admin
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	s.mux.HandleFunc("POST /admin/reload", s.apiHandlers.HandleReload)

	// REST API
	s.mux.HandleFunc("GET /api/years", s.apiHandlers.HandleYears)
	s.mux.HandleFunc("GET /api/kpis", s.apiHandlers.HandleKPIs)
	s.mux.HandleFunc("GET /api/monthly-revenue", s.apiHandlers.HandleMonthlyRevenue)
	s.mux.HandleFunc("GET /api/categories", s.apiHandlers.HandleCategories)
	s.mux.HandleFunc("GET /api/states", s.apiHandlers.HandleStates)
	s.mux.HandleFunc("GET /api/delivery", s.apiHandlers.HandleDelivery)

	// Datastar SSE
	s.mux.HandleFunc("GET /sse/kpis", s.sseHandlers.HandleKPIs)
	s.mux.HandleFunc("GET /sse/charts", s.sseHandlers.HandleCharts)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
