package sales

import (
	"iter"
	"slices"

	"sales-dashboard/internal/models"
)

// Table is the unified, read-only sales table: one row per order item. Every
// accessor hands out copies, so a Table can be shared across goroutines
// without locking.
type Table struct {
	records []models.SalesRecord
}

// FromRecords builds a Table from already-joined records. The slice is copied.
func FromRecords(records []models.SalesRecord) *Table {
	t := &Table{records: make([]models.SalesRecord, len(records))}
	for i, r := range records {
		t.records[i] = clone(r)
	}
	return t
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// At returns a copy of row i.
func (t *Table) At(i int) models.SalesRecord {
	return clone(t.records[i])
}

// All yields a copy of every row in table order.
func (t *Table) All() iter.Seq[models.SalesRecord] {
	return func(yield func(models.SalesRecord) bool) {
		if t == nil {
			return
		}
		for _, r := range t.records {
			if !yield(clone(r)) {
				return
			}
		}
	}
}

// InPeriod yields copies of the dated rows purchased in year, and in month
// when month is non-zero. Undated rows never match.
func (t *Table) InPeriod(year, month int) iter.Seq[models.SalesRecord] {
	return func(yield func(models.SalesRecord) bool) {
		if t == nil {
			return
		}
		for i := range t.records {
			r := &t.records[i]
			if !r.HasDate || r.Year != year {
				continue
			}
			if month != 0 && r.Month != month {
				continue
			}
			if !yield(clone(*r)) {
				return
			}
		}
	}
}

// Records returns a deep copy of all rows.
func (t *Table) Records() []models.SalesRecord {
	return slices.Collect(t.All())
}

// Where returns a new Table holding the rows keep accepts.
func (t *Table) Where(keep func(models.SalesRecord) bool) *Table {
	out := &Table{}
	for r := range t.All() {
		if keep(r) {
			out.records = append(out.records, r)
		}
	}
	return out
}

func clone(r models.SalesRecord) models.SalesRecord {
	if r.DeliveredAt != nil {
		v := *r.DeliveredAt
		r.DeliveredAt = &v
	}
	if r.DeliveryDays != nil {
		v := *r.DeliveryDays
		r.DeliveryDays = &v
	}
	if r.ReviewScore != nil {
		v := *r.ReviewScore
		r.ReviewScore = &v
	}
	return r
}
