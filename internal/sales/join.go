package sales

import (
	"fmt"
	"math"
	"time"

	apperrors "sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
)

// OrderPayment is the per-order aggregate of all payment rows.
type OrderPayment struct {
	Value        float64
	Installments int
	Payments     int
}

// AggregatePayments sums payment rows per order so that split payments are
// counted once when joined to the order's items.
func AggregatePayments(payments []models.Payment) map[string]OrderPayment {
	totals := make(map[string]OrderPayment)
	for _, p := range payments {
		agg := totals[p.OrderID]
		agg.Value += p.Value
		agg.Installments += p.Installments
		agg.Payments++
		totals[p.OrderID] = agg
	}
	return totals
}

// DedupReviews keeps one review per order: the one with the latest answer
// timestamp, falling back to the creation date. Reviews with neither lose to
// any dated review; remaining ties keep the earliest row in the file.
// It returns the number of reviews discarded.
func DedupReviews(reviews []models.Review) (map[string]models.Review, int) {
	kept := make(map[string]models.Review, len(reviews))
	discarded := 0
	for _, r := range reviews {
		current, ok := kept[r.OrderID]
		if !ok {
			kept[r.OrderID] = r
			continue
		}
		discarded++
		if reviewNewer(r, current) {
			kept[r.OrderID] = r
		}
	}
	return kept, discarded
}

func reviewNewer(candidate, current models.Review) bool {
	a, aok := reviewTime(candidate)
	b, bok := reviewTime(current)
	switch {
	case aok && !bok:
		return true
	case !aok:
		return false
	case a.Equal(b):
		return candidate.Position < current.Position
	default:
		return a.After(b)
	}
}

func reviewTime(r models.Review) (time.Time, bool) {
	if r.AnsweredAt != nil {
		return *r.AnsweredAt, true
	}
	if r.CreatedAt != nil {
		return *r.CreatedAt, true
	}
	return time.Time{}, false
}

// indexUnique maps key to row and fails on a repeated key, since a repeated
// key on the "one" side of a join would multiply rows.
func indexUnique[T any](source string, rows []T, key func(T) string) (map[string]T, error) {
	index := make(map[string]T, len(rows))
	for _, row := range rows {
		k := key(row)
		if _, dup := index[k]; dup {
			return nil, apperrors.DataIntegrity(fmt.Sprintf("%s: duplicate key %q would fan out the join", source, k))
		}
		index[k] = row
	}
	return index, nil
}

type orderGross struct {
	gross float64
	items int
}

// Build joins the normalized sources into one sales table. It left-joins
// from order items, so the table has exactly one row per item; missing
// related rows become fallbacks or nulls and are counted in report.
func Build(src models.Sources, report *models.LoadReport) (*Table, error) {
	if report == nil {
		report = models.NewLoadReport()
	}

	payments := AggregatePayments(src.Payments)

	reviews, discarded := DedupReviews(src.Reviews)
	report.DuplicateReviews += discarded

	orders, err := indexUnique("orders", src.Orders, func(o models.Order) string { return o.OrderID })
	if err != nil {
		return nil, err
	}
	customers, err := indexUnique("customers", src.Customers, func(c models.Customer) string { return c.CustomerID })
	if err != nil {
		return nil, err
	}
	products, err := indexUnique("products", src.Products, func(p models.Product) string { return p.ProductID })
	if err != nil {
		return nil, err
	}

	grossByOrder := make(map[string]orderGross)
	for _, item := range src.OrderItems {
		g := grossByOrder[item.OrderID]
		g.gross += item.Price + item.FreightValue
		g.items++
		grossByOrder[item.OrderID] = g
	}

	records := make([]models.SalesRecord, 0, len(src.OrderItems))
	for _, item := range src.OrderItems {
		rec := models.SalesRecord{
			OrderID:      item.OrderID,
			ItemID:       item.ItemID,
			ProductID:    item.ProductID,
			SellerID:     item.SellerID,
			OrderStatus:  models.UnknownStatus,
			Category:     models.UnknownCategory,
			State:        models.UnknownState,
			Price:        item.Price,
			FreightValue: item.FreightValue,
			Revenue:      item.Price,
		}

		order, ok := orders[item.OrderID]
		if ok {
			rec.CustomerID = order.CustomerID
			rec.OrderStatus = order.Status
			if order.PurchaseParsed {
				rec.PurchasedAt = order.PurchasedAt
				rec.HasDate = true
				rec.Year = order.PurchasedAt.Year()
				rec.Month = int(order.PurchasedAt.Month())
			}
			if order.DeliveredCustomer != nil {
				delivered := *order.DeliveredCustomer
				rec.DeliveredAt = &delivered
			}
		} else {
			report.ItemsWithoutOrder++
		}

		if ok {
			if customer, found := customers[order.CustomerID]; found {
				rec.State = customer.State
			} else {
				report.ItemsWithoutCustomer++
			}
		} else {
			report.ItemsWithoutCustomer++
		}

		if product, found := products[item.ProductID]; found {
			rec.Category = product.Category
		} else {
			report.ItemsWithoutProduct++
		}

		if payment, found := payments[item.OrderID]; found {
			rec.OrderPayment = payment.Value
			rec.Installments = payment.Installments
			rec.PaymentShare = paymentShare(payment.Value, item, grossByOrder[item.OrderID])
		} else {
			report.ItemsWithoutPayment++
		}

		if review, found := reviews[item.OrderID]; found {
			score := review.Score
			rec.ReviewScore = &score
		} else {
			report.ItemsWithoutReview++
		}

		if !rec.HasDate {
			report.UndatedRecords++
		} else if rec.DeliveredAt != nil {
			days, valid := DeliveryDays(rec.PurchasedAt, *rec.DeliveredAt)
			if valid {
				rec.DeliveryDays = &days
			} else {
				report.NegativeDeliveries++
			}
		}

		records = append(records, rec)
	}

	if len(records) != len(src.OrderItems) {
		return nil, apperrors.DataIntegrity(fmt.Sprintf(
			"sales table has %d rows for %d order items", len(records), len(src.OrderItems)))
	}

	report.SalesRows = len(records)
	return &Table{records: records}, nil
}

// paymentShare attributes part of an order's payment total to one item,
// proportionally to the item's price plus freight. Orders with zero gross
// split evenly.
func paymentShare(total float64, item models.OrderItem, order orderGross) float64 {
	if order.items == 0 {
		return 0
	}
	if order.gross <= 0 {
		return total / float64(order.items)
	}
	return total * (item.Price + item.FreightValue) / order.gross
}

// DeliveryDays returns the whole days between purchase and delivery, rounded
// down. valid is false when delivery precedes purchase.
func DeliveryDays(purchased, delivered time.Time) (days int, valid bool) {
	elapsed := delivered.Sub(purchased)
	if elapsed < 0 {
		return 0, false
	}
	return int(math.Floor(elapsed.Hours() / 24)), true
}
