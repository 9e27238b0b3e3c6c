package metrics

import (
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/sales"
)

// Unbounded marks a delivery bucket without an upper limit.
const Unbounded = -1

type bucketRange struct {
	label    string
	min, max int
}

var deliveryBuckets = []bucketRange{
	{"0-3 days", 0, 3},
	{"4-7 days", 4, 7},
	{"8-14 days", 8, 14},
	{"15+ days", 15, Unbounded},
}

// DeliveryBucket returns the index and label of the bucket days falls in.
// Negative durations fall in no bucket and return -1.
func DeliveryBucket(days int) (int, string) {
	for i, b := range deliveryBuckets {
		if days >= b.min && (b.max == Unbounded || days <= b.max) {
			return i, b.label
		}
	}
	return -1, ""
}

// DeliveryExperience averages review scores per delivery-duration bucket,
// one observation per order. Orders lacking a delivery duration or a review
// score are counted as Unscored instead. Every bucket is always listed, in
// ascending order; an empty bucket has a nil average.
func DeliveryExperience(t *sales.Table, p Period) models.DeliveryExperience {
	sums := make([]float64, len(deliveryBuckets))
	counts := make([]int, len(deliveryBuckets))
	unscored := 0

	for r := range orders(t, p) {
		if r.DeliveryDays == nil || r.ReviewScore == nil {
			unscored++
			continue
		}
		i, _ := DeliveryBucket(*r.DeliveryDays)
		if i < 0 {
			unscored++
			continue
		}
		sums[i] += float64(*r.ReviewScore)
		counts[i]++
	}

	out := models.DeliveryExperience{
		Buckets:  make([]models.DeliveryBucket, len(deliveryBuckets)),
		Unscored: unscored,
	}
	for i, b := range deliveryBuckets {
		bucket := models.DeliveryBucket{Label: b.label, MinDays: b.min, MaxDays: b.max, Orders: counts[i]}
		if counts[i] > 0 {
			avg := sums[i] / float64(counts[i])
			bucket.AvgReviewScore = &avg
		}
		out.Buckets[i] = bucket
	}
	return out
}

// AverageDeliveryDays is the mean delivery duration per delivered order, or
// nil when no order in the period has one.
func AverageDeliveryDays(t *sales.Table, p Period) *float64 {
	sum, n := 0, 0
	for r := range orders(t, p) {
		if r.DeliveryDays != nil {
			sum += *r.DeliveryDays
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := float64(sum) / float64(n)
	return &avg
}

// AverageReviewScore is the mean review score per reviewed order. It returns
// nil, not 0, when the period has no reviews.
func AverageReviewScore(t *sales.Table, p Period) *float64 {
	sum, n := 0, 0
	for r := range orders(t, p) {
		if r.ReviewScore != nil {
			sum += *r.ReviewScore
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := float64(sum) / float64(n)
	return &avg
}
