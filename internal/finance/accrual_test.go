package finance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeLateFee(t *testing.T) {
	policy := LateFeePolicy{Enabled: true, DailyPct: 0.5, GraceDays: 3}
	due := date(2026, time.May, 1)

	t.Run("beyond grace", func(t *testing.T) {
		// 10 days overdue, 3 of grace: 10000 × 0.5% × 7 = 350.00
		acc := ComputeLateFee(10000, due, policy, date(2026, time.May, 11))
		assert.Equal(t, 10, acc.DaysOverdue)
		assert.Equal(t, 7, acc.EffectiveDays)
		assert.Equal(t, 350.00, acc.Fee)
		assert.Equal(t, 10350.00, acc.TotalWithFee)
	})

	t.Run("inside grace", func(t *testing.T) {
		acc := ComputeLateFee(10000, due, policy, date(2026, time.May, 3))
		assert.Equal(t, 2, acc.DaysOverdue)
		assert.Equal(t, 0, acc.EffectiveDays)
		assert.Equal(t, 0.0, acc.Fee)
		assert.Equal(t, 10000.00, acc.TotalWithFee)
	})

	t.Run("not yet due", func(t *testing.T) {
		acc := ComputeLateFee(10000, due, policy, date(2026, time.April, 20))
		assert.Equal(t, 0, acc.DaysOverdue)
		assert.Equal(t, 0.0, acc.Fee)
		assert.Equal(t, 10000.00, acc.TotalWithFee)
	})

	t.Run("due today", func(t *testing.T) {
		acc := ComputeLateFee(10000, due, policy, due)
		assert.Equal(t, 0, acc.DaysOverdue)
		assert.Equal(t, 0.0, acc.Fee)
	})

	t.Run("disabled policy reports days but no fee", func(t *testing.T) {
		off := LateFeePolicy{Enabled: false, DailyPct: 0.5, GraceDays: 3}
		acc := ComputeLateFee(10000, due, off, date(2026, time.May, 11))
		assert.Equal(t, 10, acc.DaysOverdue)
		assert.Equal(t, 0.0, acc.Fee)
		assert.Equal(t, 10000.00, acc.TotalWithFee)
	})

	t.Run("accrues on current outstanding", func(t *testing.T) {
		// A partial payment shrinks the base for later accrual.
		full := ComputeLateFee(10000, due, policy, date(2026, time.May, 11))
		partial := ComputeLateFee(4000, due, policy, date(2026, time.May, 11))
		assert.Equal(t, 350.00, full.Fee)
		assert.Equal(t, 140.00, partial.Fee)
	})

	t.Run("time of day is ignored", func(t *testing.T) {
		lateEvening := time.Date(2026, time.May, 11, 23, 50, 0, 0, time.UTC)
		acc := ComputeLateFee(10000, due, policy, lateEvening)
		assert.Equal(t, 10, acc.DaysOverdue)
	})
}
