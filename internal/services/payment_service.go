package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/prestaflow/prestaflow-api/internal/finance"
	"github.com/prestaflow/prestaflow-api/internal/models"
	"github.com/prestaflow/prestaflow-api/internal/repository"
	"github.com/prestaflow/prestaflow-api/internal/statemachine"
)

type PaymentService struct {
	db              *gorm.DB
	repo            repository.PaymentRepository
	loanRepo        repository.LoanRepository
	installmentRepo repository.InstallmentRepository
	notificationSvc *NotificationService
	auditSvc        *AuditService
}

func NewPaymentService(
	db *gorm.DB,
	repo repository.PaymentRepository,
	loanRepo repository.LoanRepository,
	installmentRepo repository.InstallmentRepository,
	notificationSvc *NotificationService,
	auditSvc *AuditService,
) *PaymentService {
	return &PaymentService{
		db:              db,
		repo:            repo,
		loanRepo:        loanRepo,
		installmentRepo: installmentRepo,
		notificationSvc: notificationSvc,
		auditSvc:        auditSvc,
	}
}

func (s *PaymentService) FindByID(ctx context.Context, financieraID, id uint) (*models.Payment, error) {
	return s.repo.FindByID(ctx, financieraID, id)
}

func (s *PaymentService) FindByLoan(ctx context.Context, loanID uint) ([]models.Payment, error) {
	return s.repo.FindByLoan(ctx, loanID)
}

func (s *PaymentService) List(ctx context.Context, query *repository.PaymentQuery) ([]models.Payment, int64, error) {
	return s.repo.List(ctx, query)
}

func (s *PaymentService) GetDailySummary(ctx context.Context, financieraID uint, day time.Time) (*models.DailyCollectionSummary, error) {
	return s.repo.GetDailySummary(ctx, financieraID, day)
}

// UpdateVoucherPath attaches an uploaded transfer voucher to a payment
func (s *PaymentService) UpdateVoucherPath(ctx context.Context, financieraID, id uint, path string) error {
	payment, err := s.repo.FindByID(ctx, financieraID, id)
	if err != nil {
		return ErrNotFound
	}
	payment.VoucherPath = &path
	return s.repo.Update(ctx, payment)
}

// RegisterPaymentInput carries the data for registering a collection
type RegisterPaymentInput struct {
	FinancieraID  uint
	LoanID        uint
	InstallmentID uint
	Amount        float64    `json:"amount"`
	Method        string     `json:"method"`
	Reference     *string    `json:"reference"`
	Note          *string    `json:"note"`
	PaidAt        *time.Time `json:"paid_at"`
	ActorID       uint
}

// Register collects an amount against one installment. Inside a single
// transaction it locks the installment and its loan, refreshes the mora as of
// the payment date, runs the amount through the waterfall and moves every
// balance. An amount beyond the installment's outstanding is refused rather
// than spread onto other installments.
func (s *PaymentService) Register(ctx context.Context, input RegisterPaymentInput) (*models.Payment, error) {
	paidAt := time.Now()
	if input.PaidAt != nil {
		paidAt = *input.PaidAt
	}
	method := input.Method
	if method == "" {
		method = models.PaymentMethodCash
	}

	var payment *models.Payment
	loanCompleted := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock ordering is loan first, then installment, everywhere.
		var loan models.Loan
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND financiera_id = ?", input.LoanID, input.FinancieraID).
			First(&loan).Error; err != nil {
			return ErrNotFound
		}

		var installment models.Installment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND loan_id = ?", input.InstallmentID, loan.ID).
			First(&installment).Error; err != nil {
			return ErrNotFound
		}

		dist, err := applyPaymentLocked(&loan, &installment, input.Amount, paidAt)
		if err != nil {
			return err
		}

		// Cure or complete the loan depending on what remains.
		now := time.Now()
		if loan.MayComplete() {
			if err := statemachine.NewLoanFSM(&loan).Complete(ctx); err != nil {
				return err
			}
			loan.CompletedAt = &now
			loanCompleted = true
		} else if loan.Status == models.LoanStatusDelinquent {
			var overdue int64
			if err := tx.Model(&models.Installment{}).
				Where("loan_id = ? AND id <> ? AND status = ?",
					loan.ID, installment.ID, models.InstallmentStatusOverdue).
				Count(&overdue).Error; err != nil {
				return err
			}
			if overdue == 0 && installment.Status != models.InstallmentStatusOverdue {
				if err := statemachine.NewLoanFSM(&loan).Cure(ctx); err != nil {
					return err
				}
			}
		}

		receipt, err := nextReceiptNumberTx(tx, input.FinancieraID, paidAt.Year())
		if err != nil {
			return err
		}

		payment = &models.Payment{
			LoanID:          loan.ID,
			InstallmentID:   installment.ID,
			FinancieraID:    input.FinancieraID,
			ReceiptNumber:   receipt,
			Amount:          finance.Round(input.Amount),
			LateFeeAmount:   dist.LateFee,
			InterestAmount:  dist.Interest,
			PrincipalAmount: dist.Principal,
			Method:          method,
			Reference:       input.Reference,
			Note:            input.Note,
			Status:          models.PaymentStatusConfirmed,
			PaidAt:          paidAt,
			RegisteredByID:  &input.ActorID,
		}

		if err := tx.Save(&installment).Error; err != nil {
			return err
		}
		if err := tx.Save(&loan).Error; err != nil {
			return err
		}
		return tx.Create(payment).Error
	})
	if err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, input.ActorID, "CREATE", "Payment", payment.ID,
		fmt.Sprintf("Pago %s registrado por %.2f", payment.ReceiptNumber, payment.Amount), "", "")

	if loanCompleted {
		s.notifyLoanEvent(ctx, payment.LoanID, input.FinancieraID, "Préstamo completado",
			"El préstamo fue saldado en su totalidad", models.NotificationTypeLoanCompleted)
	}

	return s.repo.FindByID(ctx, input.FinancieraID, payment.ID)
}

// Void reverses a confirmed payment: the recorded distribution is applied
// back negated, so balances land exactly where they were before the payment.
// A completed loan whose settling payment is voided reopens.
func (s *PaymentService) Void(ctx context.Context, financieraID, paymentID uint, reason string, actorID uint) (*models.Payment, error) {
	var voided *models.Payment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND financiera_id = ?", paymentID, financieraID).
			First(&payment).Error; err != nil {
			return ErrNotFound
		}

		if !payment.MayVoid() {
			return ErrAlreadyVoided
		}

		var loan models.Loan
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&loan, payment.LoanID).Error; err != nil {
			return err
		}

		var installment models.Installment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&installment, payment.InstallmentID).Error; err != nil {
			return err
		}

		if loan.MayReopen() {
			if err := statemachine.NewLoanFSM(&loan).Reopen(ctx); err != nil {
				return err
			}
			loan.CompletedAt = nil
		}

		revertPaymentLocked(&loan, &installment, &payment)

		now := time.Now()
		payment.Status = models.PaymentStatusVoided
		payment.VoidedAt = &now
		payment.VoidReason = &reason
		payment.VoidedByID = &actorID

		if err := tx.Save(&installment).Error; err != nil {
			return err
		}
		if err := tx.Save(&loan).Error; err != nil {
			return err
		}
		if err := tx.Save(&payment).Error; err != nil {
			return err
		}

		voided = &payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "VOID", "Payment", voided.ID,
		fmt.Sprintf("Pago %s anulado: %s", voided.ReceiptNumber, reason), "", "")
	s.notifyLoanEvent(ctx, voided.LoanID, financieraID, "Pago anulado",
		fmt.Sprintf("El pago %s fue anulado", voided.ReceiptNumber),
		models.NotificationTypePaymentVoided)

	return s.repo.FindByID(ctx, financieraID, voided.ID)
}

// applyPaymentLocked mutates a locked loan/installment pair for one payment:
// it refreshes the mora as of the payment date, allocates the amount through
// the waterfall and applies the resulting distribution on both sides. It is
// pure over its inputs, which keeps the allocation rules testable without a
// database.
func applyPaymentLocked(loan *models.Loan, installment *models.Installment, amount float64, paidAt time.Time) (finance.Distribution, error) {
	if amount <= 0 {
		return finance.Distribution{}, ErrInvalidAmount
	}
	if !loan.IsCollectible() {
		return finance.Distribution{}, ErrNotCollectible
	}
	if installment.IsWaived() || installment.IsSettled() {
		return finance.Distribution{}, ErrAlreadySettled
	}

	// Bring the mora up to the payment date before allocating.
	if policy := loan.LateFeePolicy(); policy.Enabled {
		delta := accrueInstallment(installment, policy, paidAt)
		loan.BalanceLateFee = finance.Round(loan.BalanceLateFee + delta)
	}

	dist, leftover := finance.Allocate(amount, installment.DueBuckets())
	if leftover > 0 {
		return finance.Distribution{}, ErrExcessAmount
	}

	installment.ApplyDistribution(dist)
	loan.ApplyDistribution(dist)
	installment.RefreshState(paidAt)

	return dist, nil
}

// revertPaymentLocked applies a payment's distribution back negated, the
// exact inverse of applyPaymentLocked minus the accrual step.
func revertPaymentLocked(loan *models.Loan, installment *models.Installment, payment *models.Payment) {
	neg := payment.Distribution().Negate()
	installment.ApplyDistribution(neg)
	loan.ApplyDistribution(neg)
	installment.RefreshState(time.Now())
}

// nextReceiptNumberTx allocates a receipt number inside the transaction so
// the count and the insert see the same snapshot.
func nextReceiptNumberTx(tx *gorm.DB, financieraID uint, year int) (string, error) {
	var count int64
	err := tx.Model(&models.Payment{}).
		Where("financiera_id = ? AND receipt_number LIKE ?", financieraID, fmt.Sprintf("REC-%d-", year)+"%").
		Count(&count).Error
	if err != nil {
		return "", err
	}
	return sequenceNumber("REC", year, count), nil
}

func (s *PaymentService) notifyLoanEvent(ctx context.Context, loanID, financieraID uint, title, message, notifType string) {
	if s.notificationSvc == nil {
		return
	}
	loan, err := s.loanRepo.FindByID(ctx, financieraID, loanID)
	if err != nil || loan.CreatorID == nil {
		return
	}
	s.notificationSvc.NotifyUserAsync(*loan.CreatorID, title, message, notifType)
}
