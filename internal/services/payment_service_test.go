package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prestaflow/prestaflow-api/internal/finance"
	"github.com/prestaflow/prestaflow-api/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func collectibleLoan() *models.Loan {
	return &models.Loan{
		ID:               1,
		Status:           models.LoanStatusActive,
		BalancePrincipal: 3000,
		BalanceInterest:  800,
		BalanceLateFee:   50,
	}
}

func openInstallment() *models.Installment {
	return &models.Installment{
		ID:        10,
		LoanID:    1,
		Sequence:  1,
		DueDate:   day(2026, time.May, 1),
		Principal: 3000,
		Interest:  800,
		LateFee:   50,
		Status:    models.InstallmentStatusOverdue,
	}
}

func TestApplyPaymentLocked_Waterfall(t *testing.T) {
	loan := collectibleLoan()
	installment := openInstallment()
	paidAt := day(2026, time.May, 10)

	// Mora disabled: the preset 50 stays as the accrued fee.
	dist, err := applyPaymentLocked(loan, installment, 900, paidAt)
	require.NoError(t, err)

	assert.Equal(t, 50.00, dist.LateFee)
	assert.Equal(t, 800.00, dist.Interest)
	assert.Equal(t, 50.00, dist.Principal)

	assert.Equal(t, 2950.00, installment.Outstanding())
	assert.Equal(t, models.InstallmentStatusPartiallyPaid, installment.Status)

	assert.Equal(t, 0.0, loan.BalanceLateFee)
	assert.Equal(t, 0.0, loan.BalanceInterest)
	assert.Equal(t, 2950.00, loan.BalancePrincipal)
}

func TestApplyPaymentLocked_SettlesInstallment(t *testing.T) {
	loan := collectibleLoan()
	installment := openInstallment()

	dist, err := applyPaymentLocked(loan, installment, 3850, day(2026, time.May, 10))
	require.NoError(t, err)

	assert.Equal(t, 3850.00, dist.Total())
	assert.Equal(t, models.InstallmentStatusPaid, installment.Status)
	assert.NotNil(t, installment.PaidAt)
	assert.Equal(t, 0.0, loan.TotalOutstanding())
	assert.True(t, loan.MayComplete())
}

func TestApplyPaymentLocked_ExcessRejected(t *testing.T) {
	loan := collectibleLoan()
	installment := openInstallment()

	_, err := applyPaymentLocked(loan, installment, 4000, day(2026, time.May, 10))
	assert.ErrorIs(t, err, ErrExcessAmount)

	// Nothing moved.
	assert.Equal(t, 0.0, installment.AmountPaid())
	assert.Equal(t, 3850.00, loan.TotalOutstanding())
}

func TestApplyPaymentLocked_Validation(t *testing.T) {
	t.Run("zero amount", func(t *testing.T) {
		_, err := applyPaymentLocked(collectibleLoan(), openInstallment(), 0, day(2026, time.May, 10))
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("negative amount", func(t *testing.T) {
		_, err := applyPaymentLocked(collectibleLoan(), openInstallment(), -50, day(2026, time.May, 10))
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("loan not collectible", func(t *testing.T) {
		loan := collectibleLoan()
		loan.Status = models.LoanStatusPending
		_, err := applyPaymentLocked(loan, openInstallment(), 100, day(2026, time.May, 10))
		assert.ErrorIs(t, err, ErrNotCollectible)
	})

	t.Run("installment already settled", func(t *testing.T) {
		installment := openInstallment()
		installment.ApplyDistribution(finance.Distribution{LateFee: 50, Interest: 800, Principal: 3000})
		_, err := applyPaymentLocked(collectibleLoan(), installment, 100, day(2026, time.May, 10))
		assert.ErrorIs(t, err, ErrAlreadySettled)
	})

	t.Run("waived installment", func(t *testing.T) {
		installment := openInstallment()
		installment.Status = models.InstallmentStatusWaived
		_, err := applyPaymentLocked(collectibleLoan(), installment, 100, day(2026, time.May, 10))
		assert.ErrorIs(t, err, ErrAlreadySettled)
	})
}

func TestApplyPaymentLocked_AccruesMoraBeforeAllocating(t *testing.T) {
	loan := &models.Loan{
		ID:               2,
		Status:           models.LoanStatusDelinquent,
		BalancePrincipal: 10000,
		LateFeeEnabled:   true,
		LateFeePct:       0.5,
		LateFeeGrace:     3,
	}
	installment := &models.Installment{
		ID:        20,
		LoanID:    2,
		DueDate:   day(2026, time.May, 1),
		Principal: 10000,
		Status:    models.InstallmentStatusOverdue,
	}

	// 10 days overdue, 3 of grace: 10000 × 0.5% × 7 = 350 accrues at payment time.
	dist, err := applyPaymentLocked(loan, installment, 10350, day(2026, time.May, 11))
	require.NoError(t, err)

	assert.Equal(t, 350.00, dist.LateFee)
	assert.Equal(t, 10000.00, dist.Principal)
	assert.Equal(t, models.InstallmentStatusPaid, installment.Status)
	assert.Equal(t, 0.0, loan.TotalOutstanding())
}

func TestRevertPaymentLocked_ExactInverse(t *testing.T) {
	loan := collectibleLoan()
	installment := openInstallment()
	paidAt := day(2026, time.May, 10)

	dist, err := applyPaymentLocked(loan, installment, 900, paidAt)
	require.NoError(t, err)

	payment := &models.Payment{
		LoanID:          loan.ID,
		InstallmentID:   installment.ID,
		Amount:          900,
		LateFeeAmount:   dist.LateFee,
		InterestAmount:  dist.Interest,
		PrincipalAmount: dist.Principal,
		Status:          models.PaymentStatusConfirmed,
	}

	revertPaymentLocked(loan, installment, payment)

	assert.Equal(t, 0.0, installment.AmountPaid())
	assert.Equal(t, 3850.00, installment.Outstanding())
	assert.Equal(t, 50.00, loan.BalanceLateFee)
	assert.Equal(t, 800.00, loan.BalanceInterest)
	assert.Equal(t, 3000.00, loan.BalancePrincipal)
}

func TestRevertPaymentLocked_ReopensSettledInstallment(t *testing.T) {
	loan := collectibleLoan()
	installment := openInstallment()

	dist, err := applyPaymentLocked(loan, installment, 3850, day(2026, time.May, 10))
	require.NoError(t, err)
	require.Equal(t, models.InstallmentStatusPaid, installment.Status)

	payment := &models.Payment{
		Amount:          3850,
		LateFeeAmount:   dist.LateFee,
		InterestAmount:  dist.Interest,
		PrincipalAmount: dist.Principal,
	}
	revertPaymentLocked(loan, installment, payment)

	assert.Equal(t, models.InstallmentStatusOverdue, installment.Status)
	assert.Nil(t, installment.PaidAt)
	assert.Equal(t, 3850.00, loan.TotalOutstanding())
	assert.False(t, loan.MayComplete())
}
