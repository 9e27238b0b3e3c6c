package models

import "time"

// Fallback values for categorical fields that are missing in the source data.
const (
	UnknownCategory = "unknown"
	UnknownState    = "unknown"
	UnknownStatus   = "unknown"
)

type Order struct {
	OrderID           string
	CustomerID        string
	Status            string
	PurchasedAt       time.Time
	ApprovedAt        *time.Time
	DeliveredCarrier  *time.Time
	DeliveredCustomer *time.Time
	EstimatedDelivery *time.Time

	// PurchaseParsed is false when the purchase timestamp could not be parsed.
	PurchaseParsed bool
}

type OrderItem struct {
	OrderID      string
	ItemID       int
	ProductID    string
	SellerID     string
	Price        float64
	FreightValue float64
}

type Product struct {
	ProductID string
	Category  string
}

type Customer struct {
	CustomerID string
	State      string
}

type Review struct {
	ReviewID   string
	OrderID    string
	Score      int
	CreatedAt  *time.Time
	AnsweredAt *time.Time

	// Position is the zero-based row index in the source file.
	Position int
}

type Payment struct {
	OrderID      string
	Sequential   int
	Type         string
	Installments int
	Value        float64
}

// Sources holds the six normalized tables a sales table is built from.
type Sources struct {
	Orders     []Order
	OrderItems []OrderItem
	Products   []Product
	Customers  []Customer
	Reviews    []Review
	Payments   []Payment
}
