package models

// LoadReport records every row the loader excluded, null-filled or could not
// join, so that data-quality problems stay visible after a load.
type LoadReport struct {
	SourceRows    map[string]int `json:"source_rows"`
	MalformedRows map[string]int `json:"malformed_rows"`

	// UnparseableDates is keyed by column name.
	UnparseableDates map[string]int `json:"unparseable_dates"`

	MissingCategories int `json:"missing_categories"`
	MissingStates     int `json:"missing_states"`
	DuplicateReviews  int `json:"duplicate_reviews"`

	ItemsWithoutOrder    int `json:"items_without_order"`
	ItemsWithoutProduct  int `json:"items_without_product"`
	ItemsWithoutCustomer int `json:"items_without_customer"`
	ItemsWithoutPayment  int `json:"items_without_payment"`
	ItemsWithoutReview   int `json:"items_without_review"`

	// UndatedRecords are sales rows kept in the table but excluded from every
	// year/month computation.
	UndatedRecords     int `json:"undated_records"`
	NegativeDeliveries int `json:"negative_deliveries"`
	SalesRows          int `json:"sales_rows"`
}

func NewLoadReport() *LoadReport {
	return &LoadReport{
		SourceRows:       make(map[string]int),
		MalformedRows:    make(map[string]int),
		UnparseableDates: make(map[string]int),
	}
}

func (r *LoadReport) Malformed() int {
	total := 0
	for _, n := range r.MalformedRows {
		total += n
	}
	return total
}
