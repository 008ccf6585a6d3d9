package statemachine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prestaflow/prestaflow-api/internal/models"
)

func TestLoanFSM_HappyPath(t *testing.T) {
	ctx := context.Background()
	loan := &models.Loan{Status: models.LoanStatusPending}
	m := NewLoanFSM(loan)

	require.NoError(t, m.Approve(ctx))
	assert.Equal(t, models.LoanStatusApproved, loan.Status)

	require.NoError(t, m.Activate(ctx))
	assert.Equal(t, models.LoanStatusActive, loan.Status)

	// All balances cleared, loan can complete.
	require.NoError(t, m.Complete(ctx))
	assert.Equal(t, models.LoanStatusCompleted, loan.Status)
}

func TestLoanFSM_DelinquencyCycle(t *testing.T) {
	ctx := context.Background()
	loan := &models.Loan{Status: models.LoanStatusActive}
	m := NewLoanFSM(loan)

	require.NoError(t, m.MarkDelinquent(ctx))
	assert.Equal(t, models.LoanStatusDelinquent, loan.Status)

	require.NoError(t, m.Cure(ctx))
	assert.Equal(t, models.LoanStatusActive, loan.Status)
}

func TestLoanFSM_CompleteWhileDelinquent(t *testing.T) {
	ctx := context.Background()
	loan := &models.Loan{Status: models.LoanStatusDelinquent}
	m := NewLoanFSM(loan)

	require.NoError(t, m.Complete(ctx))
	assert.Equal(t, models.LoanStatusCompleted, loan.Status)
}

func TestLoanFSM_CompleteBlockedByBalance(t *testing.T) {
	ctx := context.Background()
	loan := &models.Loan{Status: models.LoanStatusActive, BalancePrincipal: 500}
	m := NewLoanFSM(loan)

	err := m.Complete(ctx)
	assert.Error(t, err)
	assert.Equal(t, models.LoanStatusActive, loan.Status)
}

func TestLoanFSM_Reopen(t *testing.T) {
	ctx := context.Background()
	loan := &models.Loan{Status: models.LoanStatusCompleted}
	m := NewLoanFSM(loan)

	require.NoError(t, m.Reopen(ctx))
	assert.Equal(t, models.LoanStatusActive, loan.Status)
}

func TestLoanFSM_Cancel(t *testing.T) {
	ctx := context.Background()

	for _, status := range []string{models.LoanStatusPending, models.LoanStatusApproved} {
		loan := &models.Loan{Status: status}
		require.NoError(t, NewLoanFSM(loan).Cancel(ctx), "from %s", status)
		assert.Equal(t, models.LoanStatusCancelled, loan.Status)
	}

	active := &models.Loan{Status: models.LoanStatusActive}
	assert.Error(t, NewLoanFSM(active).Cancel(ctx))
	assert.Equal(t, models.LoanStatusActive, active.Status)
}

func TestLoanFSM_InvalidTransitions(t *testing.T) {
	ctx := context.Background()

	cancelled := &models.Loan{Status: models.LoanStatusCancelled}
	m := NewLoanFSM(cancelled)
	assert.Error(t, m.Approve(ctx))
	assert.Error(t, m.Activate(ctx))
	assert.Error(t, m.Reopen(ctx))
	assert.Equal(t, models.LoanStatusCancelled, cancelled.Status)

	pending := &models.Loan{Status: models.LoanStatusPending}
	assert.Error(t, NewLoanFSM(pending).Activate(ctx))
	assert.False(t, NewLoanFSM(pending).Can("activate"))
	assert.True(t, NewLoanFSM(pending).Can("approve"))
}
