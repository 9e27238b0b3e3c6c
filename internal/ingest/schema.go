package ingest

// Source names one of the six raw tables.
type Source string

const (
	SourceOrders     Source = "orders"
	SourceOrderItems Source = "order_items"
	SourceProducts   Source = "products"
	SourceCustomers  Source = "customers"
	SourceReviews    Source = "reviews"
	SourcePayments   Source = "payments"
)

// Sources lists every raw table in load order.
var Sources = []Source{
	SourceOrders,
	SourceOrderItems,
	SourceProducts,
	SourceCustomers,
	SourceReviews,
	SourcePayments,
}

const (
	colOrderID           = "order_id"
	colCustomerID        = "customer_id"
	colOrderStatus       = "order_status"
	colPurchaseTimestamp = "order_purchase_timestamp"
	colApprovedAt        = "order_approved_at"
	colDeliveredCarrier  = "order_delivered_carrier_date"
	colDeliveredCustomer = "order_delivered_customer_date"
	colEstimatedDelivery = "order_estimated_delivery_date"
	colOrderItemID       = "order_item_id"
	colProductID         = "product_id"
	colSellerID          = "seller_id"
	colPrice             = "price"
	colFreightValue      = "freight_value"
	colCategory          = "product_category_name"
	colCustomerState     = "customer_state"
	colReviewID          = "review_id"
	colReviewScore       = "review_score"
	colReviewCreated     = "review_creation_date"
	colReviewAnswered    = "review_answer_timestamp"
	colPaymentSequential = "payment_sequential"
	colPaymentType       = "payment_type"
	colInstallments      = "payment_installments"
	colPaymentValue      = "payment_value"
)

type sourceSchema struct {
	file     string
	required []string
}

var schemas = map[Source]sourceSchema{
	SourceOrders: {
		file: "orders_dataset.csv",
		required: []string{
			colOrderID, colCustomerID, colOrderStatus, colPurchaseTimestamp,
			colApprovedAt, colDeliveredCarrier, colDeliveredCustomer, colEstimatedDelivery,
		},
	},
	SourceOrderItems: {
		file:     "order_items_dataset.csv",
		required: []string{colOrderID, colOrderItemID, colProductID, colSellerID, colPrice, colFreightValue},
	},
	SourceProducts: {
		file:     "products_dataset.csv",
		required: []string{colProductID, colCategory},
	},
	SourceCustomers: {
		file:     "customers_dataset.csv",
		required: []string{colCustomerID, colCustomerState},
	},
	SourceReviews: {
		file:     "order_reviews_dataset.csv",
		required: []string{colReviewID, colOrderID, colReviewScore, colReviewCreated, colReviewAnswered},
	},
	SourcePayments: {
		file:     "order_payments_dataset.csv",
		required: []string{colOrderID, colPaymentSequential, colPaymentType, colInstallments, colPaymentValue},
	},
}

// FileName returns the CSV file name a source is read from.
func FileName(src Source) string {
	return schemas[src].file
}

// RequiredColumns returns the header columns a source must carry.
func RequiredColumns(src Source) []string {
	return append([]string(nil), schemas[src].required...)
}
