package models

import "time"

// SalesRecord is one row of the unified sales table: a single order item
// enriched with its order, customer, product, payment and review.
//
// Revenue is the item price; freight is carried separately and never
// counted as revenue.
type SalesRecord struct {
	OrderID     string `json:"order_id"`
	ItemID      int    `json:"order_item_id"`
	ProductID   string `json:"product_id"`
	SellerID    string `json:"seller_id"`
	CustomerID  string `json:"customer_id"`
	OrderStatus string `json:"order_status"`

	// HasDate is false when the purchase timestamp was missing or
	// unparseable. Such rows never match a year/month filter.
	HasDate     bool       `json:"has_date"`
	PurchasedAt time.Time  `json:"purchased_at"`
	Year        int        `json:"year"`
	Month       int        `json:"month"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`

	Category     string  `json:"product_category"`
	State        string  `json:"customer_state"`
	Price        float64 `json:"price"`
	FreightValue float64 `json:"freight_value"`
	Revenue      float64 `json:"revenue"`
	PaymentShare float64 `json:"payment_share"`

	// OrderPayment is the order-level payment total, repeated on every item.
	OrderPayment float64 `json:"order_payment"`
	Installments int     `json:"installments"`

	DeliveryDays *int `json:"delivery_days,omitempty"`
	ReviewScore  *int `json:"review_score,omitempty"`
}

// Delivered reports whether the order reached the customer.
func (r SalesRecord) Delivered() bool {
	return r.OrderStatus == "delivered"
}

type MonthlyRevenue struct {
	Month   int     `json:"month"`
	Revenue float64 `json:"revenue"`
}

type MonthlyGrowth struct {
	Month int `json:"month"`

	// Rate is nil when the growth into Month is undefined.
	Rate *float64 `json:"rate"`
}

type CategoryRevenue struct {
	Category string  `json:"category"`
	Revenue  float64 `json:"revenue"`
}

type StateRevenue struct {
	State   string  `json:"state"`
	Revenue float64 `json:"revenue"`
}

type DeliveryBucket struct {
	Label   string `json:"label"`
	MinDays int    `json:"min_days"`

	// MaxDays is -1 for the open-ended last bucket.
	MaxDays        int      `json:"max_days"`
	Orders         int      `json:"orders"`
	AvgReviewScore *float64 `json:"avg_review_score"`
}

type DeliveryExperience struct {
	Buckets []DeliveryBucket `json:"buckets"`

	// Unscored counts in-scope orders lacking a delivery duration or a
	// review score.
	Unscored int `json:"unscored"`
}
