package ingest

import (
	"context"
	"log/slog"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/sales"
)

// Loader runs the full batch load: read, normalize, join.
type Loader struct {
	logger *slog.Logger
}

func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// LoadSalesData reads the six sources under dir and returns a freshly built
// sales table together with its data-quality report. Configuration errors
// and join fan-out abort the load.
func LoadSalesData(ctx context.Context, dir string) (*sales.Table, *models.LoadReport, error) {
	return NewLoader(slog.Default()).Load(ctx, dir)
}

func (l *Loader) Load(ctx context.Context, dir string) (*sales.Table, *models.LoadReport, error) {
	ctx, span := observability.StartSpan(ctx, "ingest.load")
	span.SetTag("data_dir", dir)
	defer l.finish(span)

	raw, err := l.read(ctx, dir)
	if err != nil {
		span.SetError(err)
		return nil, nil, err
	}

	report := models.NewLoadReport()
	src, err := NewNormalizer(l.logger, report).Normalize(raw)
	if err != nil {
		span.SetError(err)
		return nil, nil, err
	}

	_, joinSpan := observability.StartSpan(ctx, "ingest.join")
	table, err := sales.Build(src, report)
	if err != nil {
		joinSpan.SetError(err)
	}
	l.finish(joinSpan)
	if err != nil {
		span.SetError(err)
		return nil, nil, err
	}

	l.logger.Info("sales table built",
		"data_dir", dir,
		"rows", table.Len(),
		"order_items", len(src.OrderItems),
		"malformed_rows", report.Malformed(),
		"undated_rows", report.UndatedRecords,
		"duplicate_reviews", report.DuplicateReviews,
		"items_without_order", report.ItemsWithoutOrder,
		"items_without_payment", report.ItemsWithoutPayment,
		"negative_deliveries", report.NegativeDeliveries,
		"join_duration", joinSpan.Elapsed(),
	)

	return table, report, nil
}

func (l *Loader) finish(span *observability.Span) {
	span.Finish()
	l.logger.Debug("span finished", span.LogAttrs()...)
}

func (l *Loader) read(ctx context.Context, dir string) (RawSources, error) {
	ctx, span := observability.StartSpan(ctx, "ingest.read")
	defer l.finish(span)

	raw, err := ReadSources(ctx, dir)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	for _, src := range Sources {
		l.logger.Debug("source read", "source", src, "path", raw[src].Path, "rows", len(raw[src].Rows))
	}
	return raw, nil
}
