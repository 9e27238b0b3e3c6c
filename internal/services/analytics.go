package services

import (
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"sales-dashboard/internal/ingest"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/sales"
)

const cacheVersion = "v2"

// Options control how the Analytics service loads and exposes the table.
type Options struct {
	// CacheDir holds gob snapshots of built tables. Empty disables caching.
	CacheDir string

	// DeliveredOnly restricts the dashboard view to delivered orders.
	DeliveredOnly bool

	// ReloadTimeout bounds a shared reload. Zero means no bound.
	ReloadTimeout time.Duration
}

type snapshot struct {
	full     *sales.Table
	view     *sales.Table
	report   *models.LoadReport
	dataDir  string
	loadedAt time.Time
	cached   bool
}

// Analytics holds the sales table for a session. The table is built once
// per load and swapped atomically; readers always see a complete table.
type Analytics struct {
	mu      sync.RWMutex
	current *snapshot
	opts    Options
	loader  *ingest.Loader
	reloads singleflight.Group
	logger  *slog.Logger
}

func NewAnalytics(logger *slog.Logger, opts Options) *Analytics {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analytics{
		current: &snapshot{report: models.NewLoadReport()},
		opts:    opts,
		loader:  ingest.NewLoader(logger),
		logger:  logger,
	}
}

// SetTable installs an already-built table, bypassing ingestion.
func (a *Analytics) SetTable(table *sales.Table, report *models.LoadReport) {
	if report == nil {
		report = models.NewLoadReport()
	}
	a.install(&snapshot{
		full:     table,
		report:   report,
		loadedAt: time.Now(),
	})
}

func (a *Analytics) install(s *snapshot) {
	s.view = s.full
	if a.opts.DeliveredOnly && s.full != nil {
		s.view = s.full.Where(models.SalesRecord.Delivered)
	}
	a.mu.Lock()
	a.current = s
	a.mu.Unlock()
}

// LoadFromDir builds the sales table from the CSV sources in dir, reusing a
// cached build when no source file changed since it was written.
func (a *Analytics) LoadFromDir(ctx context.Context, dir string) error {
	modTime, err := ingest.SourcesModTime(dir)
	if err != nil {
		return err
	}

	if cached, err := a.loadFromCache(dir, modTime); err == nil {
		a.install(cached)
		a.logger.Info("loaded sales table from cache", "data_dir", dir, "rows", cached.full.Len())
		return nil
	}

	start := time.Now()
	table, report, err := a.loader.Load(ctx, dir)
	if err != nil {
		return fmt.Errorf("load sales data: %w", err)
	}

	s := &snapshot{full: table, report: report, dataDir: dir, loadedAt: time.Now()}
	if err := a.saveToCache(s, modTime); err != nil {
		a.logger.Warn("failed to save cache", "error", err)
	}
	a.install(s)

	duration := time.Since(start)
	a.logger.Info("sales data load complete",
		"rows", table.Len(),
		"duration", duration,
		"rate", fmt.Sprintf("%.0f rows/sec", float64(table.Len())/duration.Seconds()))

	return nil
}

// Reload rebuilds the table from the directory of the last load. Concurrent
// calls share one rebuild, which is detached from the caller's cancellation
// so that one caller going away does not fail the others.
func (a *Analytics) Reload(ctx context.Context) error {
	a.mu.RLock()
	dir := a.current.dataDir
	a.mu.RUnlock()

	if dir == "" {
		return fmt.Errorf("no data directory loaded")
	}

	_, err, shared := a.reloads.Do(dir, func() (any, error) {
		loadCtx := context.WithoutCancel(ctx)
		if a.opts.ReloadTimeout > 0 {
			var cancel context.CancelFunc
			loadCtx, cancel = context.WithTimeout(loadCtx, a.opts.ReloadTimeout)
			defer cancel()
		}
		return nil, a.LoadFromDir(loadCtx, dir)
	})
	if shared {
		a.logger.Debug("reload shared with concurrent caller", "data_dir", dir)
	}
	return err
}

// Table returns the dashboard view of the sales table: delivered orders only
// when configured so. The table is immutable and safe to share.
func (a *Analytics) Table() *sales.Table {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current.view
}

// FullTable returns every order item regardless of order status.
func (a *Analytics) FullTable() *sales.Table {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current.full
}

// Report returns the data-quality report of the current load.
func (a *Analytics) Report() *models.LoadReport {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current.report
}

// Stats summarizes the loaded table for monitoring.
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s := a.current
	return map[string]any{
		"data_dir":       s.dataDir,
		"loaded_at":      s.loadedAt,
		"from_cache":     s.cached,
		"rows":           s.full.Len(),
		"view_rows":      s.view.Len(),
		"delivered_only": a.opts.DeliveredOnly,
		"report":         s.report,
	}
}

type cacheEntry struct {
	Version       string
	DataDir       string
	SourceModTime time.Time
	BuiltAt       time.Time
	Records       []cachedRecord
	Report        models.LoadReport
}

// cachedRecord is the gob form of a SalesRecord. gob drops zero values even
// behind pointers, so optional fields carry explicit presence flags.
type cachedRecord struct {
	Record models.SalesRecord

	DeliveredAt     time.Time
	HasDeliveredAt  bool
	DeliveryDays    int
	HasDeliveryDays bool
	ReviewScore     int
	HasReviewScore  bool
}

func toCached(records []models.SalesRecord) []cachedRecord {
	out := make([]cachedRecord, len(records))
	for i, r := range records {
		c := cachedRecord{Record: r}
		if r.DeliveredAt != nil {
			c.DeliveredAt, c.HasDeliveredAt = *r.DeliveredAt, true
		}
		if r.DeliveryDays != nil {
			c.DeliveryDays, c.HasDeliveryDays = *r.DeliveryDays, true
		}
		if r.ReviewScore != nil {
			c.ReviewScore, c.HasReviewScore = *r.ReviewScore, true
		}
		c.Record.DeliveredAt, c.Record.DeliveryDays, c.Record.ReviewScore = nil, nil, nil
		out[i] = c
	}
	return out
}

func fromCached(cached []cachedRecord) []models.SalesRecord {
	out := make([]models.SalesRecord, len(cached))
	for i, c := range cached {
		r := c.Record
		if c.HasDeliveredAt {
			delivered := c.DeliveredAt
			r.DeliveredAt = &delivered
		}
		if c.HasDeliveryDays {
			days := c.DeliveryDays
			r.DeliveryDays = &days
		}
		if c.HasReviewScore {
			score := c.ReviewScore
			r.ReviewScore = &score
		}
		out[i] = r
	}
	return out
}

func (a *Analytics) cacheFilename(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	key := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(abs)
	return filepath.Join(a.opts.CacheDir, fmt.Sprintf("%s_%s.gob", key, cacheVersion))
}

func (a *Analytics) saveToCache(s *snapshot, modTime time.Time) error {
	if a.opts.CacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(a.opts.CacheDir, 0o755); err != nil {
		return err
	}

	file, err := os.Create(a.cacheFilename(s.dataDir))
	if err != nil {
		return err
	}
	defer file.Close()

	entry := cacheEntry{
		Version:       cacheVersion,
		DataDir:       s.dataDir,
		SourceModTime: modTime,
		BuiltAt:       s.loadedAt,
		Records:       toCached(s.full.Records()),
		Report:        *s.report,
	}
	return gob.NewEncoder(file).Encode(entry)
}

func (a *Analytics) loadFromCache(dir string, modTime time.Time) (*snapshot, error) {
	if a.opts.CacheDir == "" {
		return nil, fmt.Errorf("cache disabled")
	}

	file, err := os.Open(a.cacheFilename(dir))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var entry cacheEntry
	if err := gob.NewDecoder(file).Decode(&entry); err != nil {
		return nil, err
	}
	if entry.Version != cacheVersion || !entry.SourceModTime.Equal(modTime) {
		return nil, fmt.Errorf("cache stale")
	}

	report := entry.Report
	restoreReportMaps(&report)
	return &snapshot{
		full:     sales.FromRecords(fromCached(entry.Records)),
		report:   &report,
		dataDir:  dir,
		loadedAt: entry.BuiltAt,
		cached:   true,
	}, nil
}

// restoreReportMaps re-creates the report maps gob leaves nil when they were
// empty at encode time.
func restoreReportMaps(r *models.LoadReport) {
	if r.SourceRows == nil {
		r.SourceRows = make(map[string]int)
	}
	if r.MalformedRows == nil {
		r.MalformedRows = make(map[string]int)
	}
	if r.UnparseableDates == nil {
		r.UnparseableDates = make(map[string]int)
	}
}
