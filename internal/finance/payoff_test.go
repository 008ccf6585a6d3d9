package finance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateEarlyPayoff(t *testing.T) {
	policy := EarlyPayoffPolicy{Enabled: true, DiscountPerDay: 0.1}

	t.Run("discounted settlement", func(t *testing.T) {
		// 60 days ahead of maturity: discount 15000 × 0.1% × 60 = 900
		final := date(2026, time.August, 30)
		p := CalculateEarlyPayoff(200000, 15000, 0, final, policy, date(2026, time.July, 1))
		assert.True(t, p.Permitted)
		assert.Equal(t, 60, p.DaysRemaining)
		assert.Equal(t, 900.00, p.Discount)
		assert.Equal(t, 14100.00, p.DiscountedInterest)
		assert.Equal(t, 214100.00, p.Settlement)
	})

	t.Run("mora is paid in full", func(t *testing.T) {
		final := date(2026, time.August, 30)
		p := CalculateEarlyPayoff(200000, 15000, 350, final, policy, date(2026, time.July, 1))
		assert.Equal(t, 900.00, p.Discount)
		assert.Equal(t, 214450.00, p.Settlement)
	})

	t.Run("discount capped at outstanding interest", func(t *testing.T) {
		generous := EarlyPayoffPolicy{Enabled: true, DiscountPerDay: 5}
		final := date(2026, time.August, 30)
		p := CalculateEarlyPayoff(200000, 1000, 0, final, generous, date(2026, time.July, 1))
		assert.Equal(t, 1000.00, p.Discount)
		assert.Equal(t, 0.0, p.DiscountedInterest)
		// Settlement never falls below the outstanding principal.
		assert.Equal(t, 200000.00, p.Settlement)
	})

	t.Run("not permitted at maturity", func(t *testing.T) {
		final := date(2026, time.July, 1)
		p := CalculateEarlyPayoff(200000, 15000, 0, final, policy, date(2026, time.July, 1))
		assert.False(t, p.Permitted)
		assert.NotEmpty(t, p.Reason)
	})

	t.Run("not permitted past maturity", func(t *testing.T) {
		final := date(2026, time.June, 1)
		p := CalculateEarlyPayoff(200000, 15000, 0, final, policy, date(2026, time.July, 1))
		assert.False(t, p.Permitted)
	})

	t.Run("not permitted when disabled", func(t *testing.T) {
		off := EarlyPayoffPolicy{Enabled: false, DiscountPerDay: 0.1}
		final := date(2026, time.August, 30)
		p := CalculateEarlyPayoff(200000, 15000, 0, final, off, date(2026, time.July, 1))
		assert.False(t, p.Permitted)
		assert.Equal(t, "la cancelación anticipada no está habilitada", p.Reason)
	})
}
