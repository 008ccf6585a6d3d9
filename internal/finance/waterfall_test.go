package finance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func buckets(lateFee, interest, principal float64) []Bucket {
	return []Bucket{
		{Name: BucketLateFee, Due: lateFee},
		{Name: BucketInterest, Due: interest},
		{Name: BucketPrincipal, Due: principal},
	}
}

func TestAllocate(t *testing.T) {
	t.Run("partial payment follows priority", func(t *testing.T) {
		// 900 against mora 50, interest 800, principal 3000
		dist, leftover := Allocate(900, buckets(50, 800, 3000))
		assert.Equal(t, 50.00, dist.LateFee)
		assert.Equal(t, 800.00, dist.Interest)
		assert.Equal(t, 50.00, dist.Principal)
		assert.Equal(t, 0.0, leftover)
		assert.Equal(t, 900.00, dist.Total())
	})

	t.Run("amount below first bucket", func(t *testing.T) {
		dist, leftover := Allocate(30, buckets(50, 800, 3000))
		assert.Equal(t, 30.00, dist.LateFee)
		assert.Equal(t, 0.0, dist.Interest)
		assert.Equal(t, 0.0, dist.Principal)
		assert.Equal(t, 0.0, leftover)
	})

	t.Run("exact settlement", func(t *testing.T) {
		dist, leftover := Allocate(3850, buckets(50, 800, 3000))
		assert.Equal(t, Distribution{LateFee: 50, Interest: 800, Principal: 3000}, dist)
		assert.Equal(t, 0.0, leftover)
	})

	t.Run("excess reported as leftover", func(t *testing.T) {
		dist, leftover := Allocate(4000, buckets(50, 800, 3000))
		assert.Equal(t, 3000.00, dist.Principal)
		assert.Equal(t, 150.00, leftover)
	})

	t.Run("zero buckets are skipped", func(t *testing.T) {
		dist, leftover := Allocate(500, buckets(0, 0, 3000))
		assert.Equal(t, 0.0, dist.LateFee)
		assert.Equal(t, 500.00, dist.Principal)
		assert.Equal(t, 0.0, leftover)
	})

	t.Run("distribution always sums to the amount consumed", func(t *testing.T) {
		for _, amount := range []float64{0.01, 33.33, 849.99, 850, 850.01} {
			dist, leftover := Allocate(amount, buckets(50, 800, 3000))
			assert.Equal(t, Round(amount), Round(dist.Total()+leftover), "amount %v", amount)
		}
	})
}

func TestDistributionNegate(t *testing.T) {
	d := Distribution{LateFee: 50, Interest: 800, Principal: 50}
	n := d.Negate()
	assert.Equal(t, Distribution{LateFee: -50, Interest: -800, Principal: -50}, n)
	assert.Equal(t, d, n.Negate())
}
