package ingest

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"sales-dashboard/internal/models"
)

// Timestamp layouts accepted for date-like columns, tried in order. All
// values are interpreted as UTC.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses a date-like cell. present is false for an empty cell;
// err is set only when a non-empty cell matches no layout.
func ParseTimestamp(value string) (ts time.Time, present bool, err error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false, nil
	}
	for _, layout := range timestampLayouts {
		if parsed, perr := time.ParseInLocation(layout, value, time.UTC); perr == nil {
			return parsed.UTC(), true, nil
		}
	}
	return time.Time{}, true, fmt.Errorf("unrecognized timestamp %q", value)
}

// Normalizer converts raw string tables into typed, key-trimmed sources.
// Malformed rows are excluded and counted, never silently dropped.
type Normalizer struct {
	logger *slog.Logger
	report *models.LoadReport
}

func NewNormalizer(logger *slog.Logger, report *models.LoadReport) *Normalizer {
	return &Normalizer{logger: logger, report: report}
}

// Normalize converts every raw table. The raw tables must all be present.
func (n *Normalizer) Normalize(raw RawSources) (models.Sources, error) {
	for _, src := range Sources {
		if raw[src] == nil {
			return models.Sources{}, fmt.Errorf("source %s was not read", src)
		}
		n.report.SourceRows[string(src)] = len(raw[src].Rows) + raw[src].Unreadable
		if raw[src].Unreadable > 0 {
			n.report.MalformedRows[string(src)] += raw[src].Unreadable
		}
	}

	out := models.Sources{
		Orders:     n.orders(raw[SourceOrders]),
		OrderItems: n.orderItems(raw[SourceOrderItems]),
		Products:   n.products(raw[SourceProducts]),
		Customers:  n.customers(raw[SourceCustomers]),
		Reviews:    n.reviews(raw[SourceReviews]),
		Payments:   n.payments(raw[SourcePayments]),
	}

	for src, count := range n.report.MalformedRows {
		if count > 0 {
			n.logger.Warn("excluded malformed rows", "source", src, "rows", count)
		}
	}
	for col, count := range n.report.UnparseableDates {
		if count > 0 {
			n.logger.Warn("unparseable timestamps", "column", col, "rows", count)
		}
	}

	return out, nil
}

func (n *Normalizer) malformed(t *RawTable, line int, reason string) {
	n.report.MalformedRows[string(t.Source)]++
	n.logger.Debug("malformed row excluded",
		"source", t.Source,
		"line", line+2,
		"reason", reason,
	)
}

// optionalTime parses an optional timestamp column, counting unparseable
// values. Unparseable values are treated as absent.
func (n *Normalizer) optionalTime(t *RawTable, row []string, col string) *time.Time {
	ts, present, err := ParseTimestamp(t.Value(row, col))
	if !present {
		return nil
	}
	if err != nil {
		n.report.UnparseableDates[col]++
		return nil
	}
	return &ts
}

func (n *Normalizer) orders(t *RawTable) []models.Order {
	orders := make([]models.Order, 0, len(t.Rows))
	for i, row := range t.Rows {
		id := t.Value(row, colOrderID)
		if id == "" {
			n.malformed(t, i, "empty order_id")
			continue
		}

		order := models.Order{
			OrderID:           id,
			CustomerID:        t.Value(row, colCustomerID),
			Status:            strings.ToLower(t.Value(row, colOrderStatus)),
			ApprovedAt:        n.optionalTime(t, row, colApprovedAt),
			DeliveredCarrier:  n.optionalTime(t, row, colDeliveredCarrier),
			DeliveredCustomer: n.optionalTime(t, row, colDeliveredCustomer),
			EstimatedDelivery: n.optionalTime(t, row, colEstimatedDelivery),
		}
		if order.Status == "" {
			order.Status = models.UnknownStatus
		}

		// The purchase timestamp drives every year/month filter, so an empty
		// value counts as unparseable too.
		purchased, _, err := ParseTimestamp(t.Value(row, colPurchaseTimestamp))
		if err != nil || purchased.IsZero() {
			n.report.UnparseableDates[colPurchaseTimestamp]++
		} else {
			order.PurchasedAt = purchased
			order.PurchaseParsed = true
		}

		orders = append(orders, order)
	}
	return orders
}

func (n *Normalizer) orderItems(t *RawTable) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(t.Rows))
	for i, row := range t.Rows {
		orderID := t.Value(row, colOrderID)
		if orderID == "" {
			n.malformed(t, i, "empty order_id")
			continue
		}
		itemID, err := strconv.Atoi(t.Value(row, colOrderItemID))
		if err != nil {
			n.malformed(t, i, "invalid order_item_id")
			continue
		}
		price, err := strconv.ParseFloat(t.Value(row, colPrice), 64)
		if err != nil || price < 0 {
			n.malformed(t, i, "invalid price")
			continue
		}
		freight, err := strconv.ParseFloat(t.Value(row, colFreightValue), 64)
		if err != nil || freight < 0 {
			n.malformed(t, i, "invalid freight_value")
			continue
		}

		items = append(items, models.OrderItem{
			OrderID:      orderID,
			ItemID:       itemID,
			ProductID:    t.Value(row, colProductID),
			SellerID:     t.Value(row, colSellerID),
			Price:        price,
			FreightValue: freight,
		})
	}
	return items
}

func (n *Normalizer) products(t *RawTable) []models.Product {
	products := make([]models.Product, 0, len(t.Rows))
	for i, row := range t.Rows {
		id := t.Value(row, colProductID)
		if id == "" {
			n.malformed(t, i, "empty product_id")
			continue
		}
		category := t.Value(row, colCategory)
		if category == "" {
			category = models.UnknownCategory
			n.report.MissingCategories++
		}
		products = append(products, models.Product{ProductID: id, Category: category})
	}
	return products
}

func (n *Normalizer) customers(t *RawTable) []models.Customer {
	customers := make([]models.Customer, 0, len(t.Rows))
	for i, row := range t.Rows {
		id := t.Value(row, colCustomerID)
		if id == "" {
			n.malformed(t, i, "empty customer_id")
			continue
		}
		state := strings.ToUpper(t.Value(row, colCustomerState))
		if state == "" {
			state = models.UnknownState
			n.report.MissingStates++
		}
		customers = append(customers, models.Customer{CustomerID: id, State: state})
	}
	return customers
}

func (n *Normalizer) reviews(t *RawTable) []models.Review {
	reviews := make([]models.Review, 0, len(t.Rows))
	for i, row := range t.Rows {
		orderID := t.Value(row, colOrderID)
		if orderID == "" {
			n.malformed(t, i, "empty order_id")
			continue
		}
		score, err := strconv.Atoi(t.Value(row, colReviewScore))
		if err != nil || score < 1 || score > 5 {
			n.malformed(t, i, "review_score outside 1-5")
			continue
		}

		reviews = append(reviews, models.Review{
			ReviewID:   t.Value(row, colReviewID),
			OrderID:    orderID,
			Score:      score,
			CreatedAt:  n.optionalTime(t, row, colReviewCreated),
			AnsweredAt: n.optionalTime(t, row, colReviewAnswered),
			Position:   i,
		})
	}
	return reviews
}

func (n *Normalizer) payments(t *RawTable) []models.Payment {
	payments := make([]models.Payment, 0, len(t.Rows))
	for i, row := range t.Rows {
		orderID := t.Value(row, colOrderID)
		if orderID == "" {
			n.malformed(t, i, "empty order_id")
			continue
		}
		value, err := strconv.ParseFloat(t.Value(row, colPaymentValue), 64)
		if err != nil || value < 0 {
			n.malformed(t, i, "invalid payment_value")
			continue
		}
		installments, err := parseOptionalInt(t.Value(row, colInstallments))
		if err != nil {
			n.malformed(t, i, "invalid payment_installments")
			continue
		}
		sequential, err := parseOptionalInt(t.Value(row, colPaymentSequential))
		if err != nil {
			n.malformed(t, i, "invalid payment_sequential")
			continue
		}

		payments = append(payments, models.Payment{
			OrderID:      orderID,
			Sequential:   sequential,
			Type:         t.Value(row, colPaymentType),
			Installments: installments,
			Value:        value,
		})
	}
	return payments
}

func parseOptionalInt(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}
