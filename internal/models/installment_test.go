package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/prestaflow/prestaflow-api/internal/finance"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestInstallmentOutstanding(t *testing.T) {
	inst := Installment{
		Principal: 3000,
		Interest:  800,
		LateFee:   50,
	}
	assert.Equal(t, 3850.00, inst.Outstanding())

	inst.ApplyDistribution(finance.Distribution{LateFee: 50, Interest: 800, Principal: 50})
	assert.Equal(t, 0.0, inst.DueLateFee())
	assert.Equal(t, 0.0, inst.DueInterest())
	assert.Equal(t, 2950.00, inst.DuePrincipal())
	assert.Equal(t, 2950.00, inst.Outstanding())
	assert.Equal(t, 900.00, inst.AmountPaid())
}

func TestInstallmentApplyDistributionIsReversible(t *testing.T) {
	inst := Installment{Principal: 3000, Interest: 800, LateFee: 50}
	d := finance.Distribution{LateFee: 50, Interest: 800, Principal: 50}

	inst.ApplyDistribution(d)
	inst.ApplyDistribution(d.Negate())

	assert.Equal(t, 0.0, inst.AmountPaid())
	assert.Equal(t, 3850.00, inst.Outstanding())
}

func TestInstallmentDueBucketsOrder(t *testing.T) {
	inst := Installment{Principal: 3000, Interest: 800, LateFee: 50}
	buckets := inst.DueBuckets()

	assert.Equal(t, finance.BucketLateFee, buckets[0].Name)
	assert.Equal(t, finance.BucketInterest, buckets[1].Name)
	assert.Equal(t, finance.BucketPrincipal, buckets[2].Name)
	assert.Equal(t, 50.00, buckets[0].Due)
	assert.Equal(t, 800.00, buckets[1].Due)
	assert.Equal(t, 3000.00, buckets[2].Due)
}

func TestInstallmentRefreshState(t *testing.T) {
	due := day(2026, time.June, 15)

	t.Run("pending before due date", func(t *testing.T) {
		inst := Installment{DueDate: due, Principal: 1000, Interest: 100}
		inst.RefreshState(day(2026, time.June, 10))
		assert.Equal(t, InstallmentStatusPending, inst.Status)
	})

	t.Run("partially paid before due date", func(t *testing.T) {
		inst := Installment{DueDate: due, Principal: 1000, Interest: 100}
		inst.ApplyDistribution(finance.Distribution{Interest: 100, Principal: 200})
		inst.RefreshState(day(2026, time.June, 10))
		assert.Equal(t, InstallmentStatusPartiallyPaid, inst.Status)
	})

	t.Run("untouched past due date becomes overdue", func(t *testing.T) {
		inst := Installment{DueDate: due, Principal: 1000, Interest: 100}
		inst.RefreshState(day(2026, time.June, 20))
		assert.Equal(t, InstallmentStatusOverdue, inst.Status)
	})

	t.Run("partially paid wins over overdue", func(t *testing.T) {
		inst := Installment{DueDate: due, Principal: 1000, Interest: 100}
		inst.ApplyDistribution(finance.Distribution{Interest: 100})
		inst.RefreshState(day(2026, time.June, 20))
		assert.Equal(t, InstallmentStatusPartiallyPaid, inst.Status)
	})

	t.Run("settled becomes paid even when late", func(t *testing.T) {
		inst := Installment{DueDate: due, Principal: 1000, Interest: 100, LateFee: 25}
		inst.ApplyDistribution(finance.Distribution{LateFee: 25, Interest: 100, Principal: 1000})
		inst.RefreshState(day(2026, time.June, 20))
		assert.Equal(t, InstallmentStatusPaid, inst.Status)
		assert.NotNil(t, inst.PaidAt)
	})

	t.Run("void reverts paid back to overdue", func(t *testing.T) {
		inst := Installment{DueDate: due, Principal: 1000, Interest: 100}
		d := finance.Distribution{Interest: 100, Principal: 1000}
		inst.ApplyDistribution(d)
		inst.RefreshState(day(2026, time.June, 20))
		assert.Equal(t, InstallmentStatusPaid, inst.Status)

		inst.ApplyDistribution(d.Negate())
		inst.RefreshState(day(2026, time.June, 20))
		assert.Equal(t, InstallmentStatusOverdue, inst.Status)
		assert.Nil(t, inst.PaidAt)
	})

	t.Run("waived is terminal", func(t *testing.T) {
		inst := Installment{DueDate: due, Principal: 1000, Status: InstallmentStatusWaived}
		inst.RefreshState(day(2026, time.June, 20))
		assert.Equal(t, InstallmentStatusWaived, inst.Status)
	})
}

func TestInstallmentOverdueDays(t *testing.T) {
	inst := Installment{DueDate: day(2026, time.June, 15), Principal: 1000}
	assert.Equal(t, 0, inst.OverdueDays(day(2026, time.June, 15)))
	assert.Equal(t, 5, inst.OverdueDays(day(2026, time.June, 20)))
}

func TestLoanGuards(t *testing.T) {
	l := Loan{Status: LoanStatusPending}
	assert.True(t, l.MayApprove())
	assert.True(t, l.MayCancel())
	assert.False(t, l.MayActivate())

	l.Status = LoanStatusApproved
	assert.True(t, l.MayActivate())
	assert.True(t, l.MayCancel())

	l.Status = LoanStatusActive
	assert.False(t, l.MayCancel())
	assert.True(t, l.MayMarkDelinquent())
	assert.True(t, l.IsCollectible())

	l.BalancePrincipal = 100
	assert.False(t, l.MayComplete())
	l.BalancePrincipal = 0
	assert.True(t, l.MayComplete())

	l.Status = LoanStatusCompleted
	assert.True(t, l.MayReopen())
	assert.True(t, l.IsTerminal())
}

func TestLoanApplyDistribution(t *testing.T) {
	l := Loan{BalancePrincipal: 3000, BalanceInterest: 800, BalanceLateFee: 50}
	d := finance.Distribution{LateFee: 50, Interest: 800, Principal: 50}

	l.ApplyDistribution(d)
	assert.Equal(t, 0.0, l.BalanceLateFee)
	assert.Equal(t, 0.0, l.BalanceInterest)
	assert.Equal(t, 2950.00, l.BalancePrincipal)
	assert.Equal(t, 2950.00, l.TotalOutstanding())

	l.ApplyDistribution(d.Negate())
	assert.Equal(t, 3850.00, l.TotalOutstanding())
}
