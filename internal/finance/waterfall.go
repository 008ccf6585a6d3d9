package finance

import "math"

// Waterfall bucket names, in their fixed priority order: mora first, then
// interest, then principal.
const (
	BucketLateFee   = "late_fee"
	BucketInterest  = "interest"
	BucketPrincipal = "principal"
)

// Bucket pairs an allocation target with the amount still owed to it.
type Bucket struct {
	Name string
	Due  float64
}

// Distribution is how a payment splits across the waterfall buckets.
type Distribution struct {
	LateFee   float64 `json:"late_fee"`
	Interest  float64 `json:"interest"`
	Principal float64 `json:"principal"`
}

// Total returns the sum of the distribution components.
func (d Distribution) Total() float64 {
	return Round(d.LateFee + d.Interest + d.Principal)
}

// Negate flips every component, the shape a void applies back to the ledger.
func (d Distribution) Negate() Distribution {
	return Distribution{
		LateFee:   -d.LateFee,
		Interest:  -d.Interest,
		Principal: -d.Principal,
	}
}

// Allocate walks the buckets in order, paying each min(due, remaining), and
// returns the distribution plus whatever is left after the last bucket.
// The order is data, not control flow: callers declare the waterfall and a
// single loop consumes it, so the priority can be asserted on its own.
func Allocate(amount float64, buckets []Bucket) (Distribution, float64) {
	remaining := Round(amount)
	var dist Distribution

	for _, b := range buckets {
		if remaining <= 0 {
			break
		}
		due := Round(b.Due)
		if due <= 0 {
			continue
		}
		take := Round(math.Min(due, remaining))
		switch b.Name {
		case BucketLateFee:
			dist.LateFee = Round(dist.LateFee + take)
		case BucketInterest:
			dist.Interest = Round(dist.Interest + take)
		case BucketPrincipal:
			dist.Principal = Round(dist.Principal + take)
		}
		remaining = Round(remaining - take)
	}

	return dist, remaining
}
