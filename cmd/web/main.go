package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"time"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/metrics"
	"sales-dashboard/internal/middleware"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/server"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

const (
	renderTimeout      = 10 * time.Second
	cacheMaxAge        = "public, max-age=300"
	limiterSweepPeriod = time.Minute
)

// dashboardHandler renders the page shell with the years present in the
// loaded data. The configured default year is preselected when available.
func dashboardHandler(analytics *services.Analytics, dashboard config.DashboardConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		years := metrics.Years(analytics.Table())
		selected := dashboard.DefaultYear
		if len(years) > 0 && !slices.Contains(years, selected) {
			selected = years[0]
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", cacheMaxAge)
		props := templates.DashboardProps{Years: years, SelectedYear: selected}
		if err := templates.Dashboard(props).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

func newHandler(cfg *config.Config, analytics *services.Analytics, limiter *middleware.RateLimiter, logger *slog.Logger) http.Handler {
	srv := server.NewServer(analytics, cfg.Dashboard, logger, &server.TemplateHandlers{
		Dashboard: dashboardHandler(analytics, cfg.Dashboard),
	})

	chain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.TrustedProxy(cfg.Security.TrustedProxies),
		middleware.RateLimit(limiter, logger),
	)
	return chain(srv)
}

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"addr", cfg.Address(),
		"data_dir", cfg.Data.Dir,
		"delivered_only", cfg.Dashboard.DeliveredOnly,
	)

	opts := services.Options{
		DeliveredOnly: cfg.Dashboard.DeliveredOnly,
		ReloadTimeout: cfg.Data.LoadTimeout,
	}
	if cfg.Data.CacheEnabled {
		opts.CacheDir = cfg.Data.CacheDir
	}
	analytics := services.NewAnalytics(logger, opts)

	loadCtx, cancel := context.WithTimeout(context.Background(), cfg.Data.LoadTimeout)
	err = analytics.LoadFromDir(loadCtx, cfg.Data.Dir)
	cancel()
	if err != nil {
		logger.Error("failed to load sales data", "error", err)
		os.Exit(1)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	limiter := middleware.NewRateLimiter(cfg.Security)
	go limiter.Run(ctx, limiterSweepPeriod)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, analytics, limiter, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)
	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		stop()
		logger.Info("shutting down analytics service", "rows", analytics.FullTable().Len())
		return nil
	})

	if err := gracefulServer.ListenAndServe(ctx); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
