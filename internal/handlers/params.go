package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/metrics"
)

// queryYear reads the year query parameter, falling back to def when absent.
func queryYear(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return def, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1 {
		return 0, errors.BadRequest(fmt.Sprintf("invalid year %q", raw))
	}
	return year, nil
}

// queryPeriod reads year and the optional month. A month outside 1-12 is
// rejected here, although the metrics would simply match no rows for it.
func queryPeriod(r *http.Request, defYear int) (metrics.Period, error) {
	year, err := queryYear(r, defYear)
	if err != nil {
		return metrics.Period{}, err
	}
	raw := r.URL.Query().Get("month")
	if raw == "" {
		return metrics.ForYear(year), nil
	}
	month, err := strconv.Atoi(raw)
	if err != nil || month < 1 || month > 12 {
		return metrics.Period{}, errors.BadRequest(fmt.Sprintf("invalid month %q", raw))
	}
	return metrics.ForMonth(year, month), nil
}

func queryPositive(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.BadRequest(fmt.Sprintf("invalid %s %q", name, raw))
	}
	return n, nil
}
