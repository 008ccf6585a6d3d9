package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/prestaflow/prestaflow-api/internal/models"
)

// LoanFSM wraps a loan with its state machine
type LoanFSM struct {
	loan *models.Loan
	fsm  *fsm.FSM
}

// NewLoanFSM creates a new loan state machine
func NewLoanFSM(loan *models.Loan) *LoanFSM {
	lfsm := &LoanFSM{
		loan: loan,
	}

	lfsm.fsm = fsm.NewFSM(
		loan.Status,
		fsm.Events{
			// pending → approved
			{Name: "approve", Src: []string{models.LoanStatusPending}, Dst: models.LoanStatusApproved},

			// approved → active (disbursement)
			{Name: "activate", Src: []string{models.LoanStatusApproved}, Dst: models.LoanStatusActive},

			// active → delinquent
			{Name: "markDelinquent", Src: []string{models.LoanStatusActive}, Dst: models.LoanStatusDelinquent},

			// delinquent → active (arrears cleared)
			{Name: "cure", Src: []string{models.LoanStatusDelinquent}, Dst: models.LoanStatusActive},

			// active/delinquent → completed
			{Name: "complete", Src: []string{models.LoanStatusActive, models.LoanStatusDelinquent}, Dst: models.LoanStatusCompleted},

			// completed → active (settling payment voided)
			{Name: "reopen", Src: []string{models.LoanStatusCompleted}, Dst: models.LoanStatusActive},

			// pending/approved → cancelled
			{Name: "cancel", Src: []string{models.LoanStatusPending, models.LoanStatusApproved}, Dst: models.LoanStatusCancelled},
		},
		fsm.Callbacks{},
	)

	return lfsm
}

// Approve transitions loan to approved state
func (l *LoanFSM) Approve(ctx context.Context) error {
	if !l.loan.MayApprove() {
		return fmt.Errorf("loan cannot be approved in current state: %s", l.loan.Status)
	}

	if err := l.fsm.Event(ctx, "approve"); err != nil {
		return fmt.Errorf("failed to approve loan: %w", err)
	}

	l.loan.Status = l.fsm.Current()
	return nil
}

// Activate transitions loan to active state
func (l *LoanFSM) Activate(ctx context.Context) error {
	if !l.loan.MayActivate() {
		return fmt.Errorf("loan cannot be activated in current state: %s", l.loan.Status)
	}

	if err := l.fsm.Event(ctx, "activate"); err != nil {
		return fmt.Errorf("failed to activate loan: %w", err)
	}

	l.loan.Status = l.fsm.Current()
	return nil
}

// MarkDelinquent transitions loan to delinquent state
func (l *LoanFSM) MarkDelinquent(ctx context.Context) error {
	if !l.loan.MayMarkDelinquent() {
		return fmt.Errorf("loan cannot be marked delinquent in current state: %s", l.loan.Status)
	}

	if err := l.fsm.Event(ctx, "markDelinquent"); err != nil {
		return fmt.Errorf("failed to mark loan delinquent: %w", err)
	}

	l.loan.Status = l.fsm.Current()
	return nil
}

// Cure transitions a delinquent loan back to active
func (l *LoanFSM) Cure(ctx context.Context) error {
	if !l.loan.MayCure() {
		return fmt.Errorf("loan cannot be cured in current state: %s", l.loan.Status)
	}

	if err := l.fsm.Event(ctx, "cure"); err != nil {
		return fmt.Errorf("failed to cure loan: %w", err)
	}

	l.loan.Status = l.fsm.Current()
	return nil
}

// Complete transitions loan to completed state
func (l *LoanFSM) Complete(ctx context.Context) error {
	if !l.loan.MayComplete() {
		return fmt.Errorf("loan cannot be completed: outstanding balance must be <= 0")
	}

	if err := l.fsm.Event(ctx, "complete"); err != nil {
		return fmt.Errorf("failed to complete loan: %w", err)
	}

	l.loan.Status = l.fsm.Current()
	return nil
}

// Reopen transitions loan from completed back to active
func (l *LoanFSM) Reopen(ctx context.Context) error {
	if !l.loan.MayReopen() {
		return fmt.Errorf("loan cannot be reopened in current state: %s", l.loan.Status)
	}

	if err := l.fsm.Event(ctx, "reopen"); err != nil {
		return fmt.Errorf("failed to reopen loan: %w", err)
	}

	l.loan.Status = l.fsm.Current()
	return nil
}

// Cancel transitions loan to cancelled state
func (l *LoanFSM) Cancel(ctx context.Context) error {
	if !l.loan.MayCancel() {
		return fmt.Errorf("loan cannot be cancelled in current state: %s", l.loan.Status)
	}

	if err := l.fsm.Event(ctx, "cancel"); err != nil {
		return fmt.Errorf("failed to cancel loan: %w", err)
	}

	l.loan.Status = l.fsm.Current()
	return nil
}

// Current returns the current state
func (l *LoanFSM) Current() string {
	return l.fsm.Current()
}

// Can checks if a transition is possible
func (l *LoanFSM) Can(event string) bool {
	return l.fsm.Can(event)
}
