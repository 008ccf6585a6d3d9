package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prestaflow/prestaflow-api/internal/finance"
	"github.com/prestaflow/prestaflow-api/internal/models"
	"github.com/prestaflow/prestaflow-api/internal/repository"
)

// Mock LoanRepository (using embedding to avoid implementing all methods)
type mockLoanRepository struct {
	repository.LoanRepository
	mockFindByID func(ctx context.Context, financieraID, id uint) (*models.Loan, error)
	mockUpdate   func(ctx context.Context, loan *models.Loan) error
}

func (m *mockLoanRepository) FindByID(ctx context.Context, financieraID, id uint) (*models.Loan, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, financieraID, id)
	}
	return nil, ErrNotFound
}

func (m *mockLoanRepository) Update(ctx context.Context, loan *models.Loan) error {
	if m.mockUpdate != nil {
		return m.mockUpdate(ctx, loan)
	}
	return nil
}

// Mock InstallmentRepository
type mockInstallmentRepository struct {
	repository.InstallmentRepository
	mockCountByLoan func(ctx context.Context, loanID uint) (int64, error)
	mockCreateBatch func(ctx context.Context, installments []models.Installment) error
}

func (m *mockInstallmentRepository) CountByLoan(ctx context.Context, loanID uint) (int64, error) {
	if m.mockCountByLoan != nil {
		return m.mockCountByLoan(ctx, loanID)
	}
	return 0, nil
}

func (m *mockInstallmentRepository) CreateBatch(ctx context.Context, installments []models.Installment) error {
	if m.mockCreateBatch != nil {
		return m.mockCreateBatch(ctx, installments)
	}
	return nil
}

func TestLoanService_Simulate(t *testing.T) {
	svc := NewLoanService(nil, nil, nil, nil, nil, nil, nil)

	schedule, err := svc.Simulate(context.Background(), SimulateLoanInput{
		Principal:    500000,
		NominalRate:  5,
		RatePeriod:   "monthly",
		Term:         12,
		Frequency:    "monthly",
		Method:       "french",
		FirstDueDate: day(2026, time.January, 15),
	})
	require.NoError(t, err)
	require.Len(t, schedule.Lines, 12)
	assert.InDelta(t, 56412.71, schedule.Payment, 0.01)

	_, err = svc.Simulate(context.Background(), SimulateLoanInput{
		Principal: -1, NominalRate: 5, RatePeriod: "monthly",
		Term: 12, Frequency: "monthly", Method: "french",
		FirstDueDate: day(2026, time.January, 15),
	})
	assert.ErrorIs(t, err, finance.ErrInvalidPrincipal)
}

func TestLoanService_EarlyPayoff(t *testing.T) {
	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, financieraID, id uint) (*models.Loan, error) {
			return &models.Loan{
				ID:               id,
				FinancieraID:     financieraID,
				Status:           models.LoanStatusActive,
				BalancePrincipal: 200000,
				BalanceInterest:  15000,
				FinalDueDate:     day(2026, time.August, 30),
				PayoffEnabled:    true,
				PayoffPctPerDay:  0.1,
			}, nil
		},
	}
	svc := NewLoanService(nil, loanRepo, nil, nil, nil, nil, nil)

	payoff, err := svc.EarlyPayoff(context.Background(), 1, 7, day(2026, time.July, 1))
	require.NoError(t, err)
	assert.True(t, payoff.Permitted)
	assert.Equal(t, 900.00, payoff.Discount)
	assert.Equal(t, 214100.00, payoff.Settlement)
}

func TestLoanService_EarlyPayoff_NotCollectible(t *testing.T) {
	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, financieraID, id uint) (*models.Loan, error) {
			return &models.Loan{ID: id, Status: models.LoanStatusPending}, nil
		},
	}
	svc := NewLoanService(nil, loanRepo, nil, nil, nil, nil, nil)

	_, err := svc.EarlyPayoff(context.Background(), 1, 7, time.Now())
	assert.ErrorIs(t, err, ErrNotCollectible)
}

func TestLoanService_GenerateSchedule(t *testing.T) {
	loan := &models.Loan{
		ID:           5,
		FinancieraID: 1,
		Principal:    120000,
		NominalRate:  2,
		RatePeriod:   "monthly",
		Term:         6,
		Frequency:    "monthly",
		Method:       "german",
		FirstDueDate: day(2026, time.February, 10),
		Status:       models.LoanStatusPending,
	}
	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, financieraID, id uint) (*models.Loan, error) {
			return loan, nil
		},
	}

	t.Run("already scheduled", func(t *testing.T) {
		instRepo := &mockInstallmentRepository{
			mockCountByLoan: func(ctx context.Context, loanID uint) (int64, error) {
				return 6, nil
			},
		}
		svc := NewLoanService(nil, loanRepo, nil, instRepo, nil, nil, nil)

		_, err := svc.GenerateSchedule(context.Background(), 1, 5)
		assert.ErrorIs(t, err, ErrAlreadyScheduled)
	})

	t.Run("generates and persists", func(t *testing.T) {
		var created []models.Installment
		instRepo := &mockInstallmentRepository{
			mockCreateBatch: func(ctx context.Context, installments []models.Installment) error {
				created = installments
				return nil
			},
		}
		svc := NewLoanService(nil, loanRepo, nil, instRepo, nil, nil, nil)

		installments, err := svc.GenerateSchedule(context.Background(), 1, 5)
		require.NoError(t, err)
		require.Len(t, installments, 6)
		assert.Len(t, created, 6)

		var principalSum float64
		for i, inst := range installments {
			assert.Equal(t, uint(5), inst.LoanID)
			assert.Equal(t, i+1, inst.Sequence)
			assert.Equal(t, models.InstallmentStatusPending, inst.Status)
			principalSum = finance.Round(principalSum + inst.Principal)
		}
		assert.Equal(t, 120000.00, principalSum)
	})
}

func TestLoanService_Approve(t *testing.T) {
	var saved *models.Loan
	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, financieraID, id uint) (*models.Loan, error) {
			return &models.Loan{ID: id, Number: "PRE-2026-00001", Status: models.LoanStatusPending}, nil
		},
		mockUpdate: func(ctx context.Context, loan *models.Loan) error {
			saved = loan
			return nil
		},
	}
	svc := NewLoanService(nil, loanRepo, nil, nil, nil, nil, nil)

	loan, err := svc.Approve(context.Background(), 1, 3, 9)
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusApproved, loan.Status)
	assert.NotNil(t, loan.ApprovedAt)
	require.NotNil(t, saved)
	assert.Equal(t, models.LoanStatusApproved, saved.Status)
}

func TestLoanService_Approve_InvalidState(t *testing.T) {
	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, financieraID, id uint) (*models.Loan, error) {
			return &models.Loan{ID: id, Status: models.LoanStatusActive}, nil
		},
	}
	svc := NewLoanService(nil, loanRepo, nil, nil, nil, nil, nil)

	_, err := svc.Approve(context.Background(), 1, 3, 9)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestLoanService_Cancel(t *testing.T) {
	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, financieraID, id uint) (*models.Loan, error) {
			return &models.Loan{
				ID:               id,
				Status:           models.LoanStatusApproved,
				BalancePrincipal: 50000,
				BalanceInterest:  4000,
			}, nil
		},
	}
	svc := NewLoanService(nil, loanRepo, nil, nil, nil, nil, nil)

	reason := "desembolso rechazado"
	loan, err := svc.Cancel(context.Background(), 1, 3, &reason, 9)
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusCancelled, loan.Status)
	assert.NotNil(t, loan.CancelledAt)
	assert.Equal(t, 0.0, loan.TotalOutstanding())
}

func TestAccrueInstallment(t *testing.T) {
	policy := finance.LateFeePolicy{Enabled: true, DailyPct: 0.5, GraceDays: 3}

	installment := &models.Installment{
		DueDate:   day(2026, time.May, 1),
		Principal: 10000,
		Status:    models.InstallmentStatusOverdue,
	}

	delta := accrueInstallment(installment, policy, day(2026, time.May, 11))
	assert.Equal(t, 350.00, delta)
	assert.Equal(t, 350.00, installment.LateFee)

	// A second run on the same date changes nothing.
	delta = accrueInstallment(installment, policy, day(2026, time.May, 11))
	assert.Equal(t, 0.0, delta)

	// One more day adds one day of fee on the unchanged base.
	delta = accrueInstallment(installment, policy, day(2026, time.May, 12))
	assert.Equal(t, 50.00, delta)
	assert.Equal(t, 400.00, installment.LateFee)
}

func TestSequenceNumber(t *testing.T) {
	assert.Equal(t, "PRE-2026-00001", sequenceNumber("PRE", 2026, 0))
	assert.Equal(t, "PRE-2026-00124", sequenceNumber("PRE", 2026, 123))
	assert.Equal(t, "REC-2027-00001", sequenceNumber("REC", 2027, 0))
}
