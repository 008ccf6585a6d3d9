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
	"github.com/prestaflow/prestaflow-api/pkg/logger"
)

type LoanService struct {
	db              *gorm.DB
	repo            repository.LoanRepository
	borrowerRepo    repository.BorrowerRepository
	installmentRepo repository.InstallmentRepository
	financieraRepo  repository.FinancieraRepository
	notificationSvc *NotificationService
	auditSvc        *AuditService
}

func NewLoanService(
	db *gorm.DB,
	repo repository.LoanRepository,
	borrowerRepo repository.BorrowerRepository,
	installmentRepo repository.InstallmentRepository,
	financieraRepo repository.FinancieraRepository,
	notificationSvc *NotificationService,
	auditSvc *AuditService,
) *LoanService {
	return &LoanService{
		db:              db,
		repo:            repo,
		borrowerRepo:    borrowerRepo,
		installmentRepo: installmentRepo,
		financieraRepo:  financieraRepo,
		notificationSvc: notificationSvc,
		auditSvc:        auditSvc,
	}
}

func (s *LoanService) FindByID(ctx context.Context, financieraID, id uint) (*models.Loan, error) {
	return s.repo.FindByID(ctx, financieraID, id)
}

func (s *LoanService) FindByIDWithDetails(ctx context.Context, financieraID, id uint) (*models.Loan, error) {
	return s.repo.FindByIDWithDetails(ctx, financieraID, id)
}

func (s *LoanService) List(ctx context.Context, query *repository.LoanQuery) ([]models.Loan, int64, error) {
	return s.repo.List(ctx, query)
}

func (s *LoanService) GetStats(ctx context.Context, financieraID uint) (*repository.LoanStats, error) {
	return s.repo.GetStats(ctx, financieraID)
}

// SimulateLoanInput carries the terms for a schedule simulation
type SimulateLoanInput struct {
	Principal    float64   `json:"principal"`
	NominalRate  float64   `json:"nominal_rate"`
	RatePeriod   string    `json:"rate_period"`
	Term         int       `json:"term"`
	Frequency    string    `json:"frequency"`
	Method       string    `json:"method"`
	FirstDueDate time.Time `json:"first_due_date"`
}

func (in SimulateLoanInput) scheduleParams() finance.ScheduleParams {
	return finance.ScheduleParams{
		Principal:    in.Principal,
		NominalRate:  in.NominalRate,
		RatePeriod:   finance.RatePeriod(in.RatePeriod),
		Term:         in.Term,
		Frequency:    finance.Frequency(in.Frequency),
		Method:       finance.Method(in.Method),
		FirstDueDate: in.FirstDueDate,
	}
}

// Simulate generates an amortization schedule without persisting anything
func (s *LoanService) Simulate(ctx context.Context, input SimulateLoanInput) (*finance.Schedule, error) {
	return finance.Generate(input.scheduleParams())
}

// CreateLoanInput carries the data for loan origination
type CreateLoanInput struct {
	FinancieraID uint
	BorrowerID   uint      `json:"borrower_id"`
	Principal    float64   `json:"principal"`
	NominalRate  float64   `json:"nominal_rate"`
	RatePeriod   string    `json:"rate_period"`
	Term         int       `json:"term"`
	Frequency    string    `json:"frequency"`
	Method       string    `json:"method"`
	FirstDueDate time.Time `json:"first_due_date"`
	Note         *string   `json:"note"`

	// Optional policy overrides; financiera defaults apply when nil.
	LateFeePct      *float64 `json:"late_fee_pct"`
	LateFeeGrace    *int     `json:"late_fee_grace"`
	PayoffPctPerDay *float64 `json:"payoff_pct_per_day"`
}

// Create originates a loan: validates the borrower, generates the schedule,
// allocates a loan number and persists loan plus installments atomically.
// The loan starts in pending and accrues nothing until activated.
func (s *LoanService) Create(ctx context.Context, input CreateLoanInput, actorID uint) (*models.Loan, error) {
	borrower, err := s.borrowerRepo.FindByID(ctx, input.FinancieraID, input.BorrowerID)
	if err != nil {
		return nil, ErrNotFound
	}

	financiera, err := s.financieraRepo.FindByID(ctx, input.FinancieraID)
	if err != nil {
		return nil, ErrNotFound
	}

	schedule, err := finance.Generate(finance.ScheduleParams{
		Principal:    input.Principal,
		NominalRate:  input.NominalRate,
		RatePeriod:   finance.RatePeriod(input.RatePeriod),
		Term:         input.Term,
		Frequency:    finance.Frequency(input.Frequency),
		Method:       finance.Method(input.Method),
		FirstDueDate: input.FirstDueDate,
	})
	if err != nil {
		return nil, err
	}

	loan := &models.Loan{
		FinancieraID:      input.FinancieraID,
		BorrowerID:        borrower.ID,
		CreatorID:         &actorID,
		Principal:         finance.Round(input.Principal),
		NominalRate:       input.NominalRate,
		RatePeriod:        input.RatePeriod,
		Term:              input.Term,
		Frequency:         input.Frequency,
		Method:            input.Method,
		Currency:          financiera.Currency,
		Status:            models.LoanStatusPending,
		FirstDueDate:      input.FirstDueDate,
		FinalDueDate:      schedule.Lines[len(schedule.Lines)-1].DueDate,
		InstallmentAmount: schedule.Payment,
		TotalInterest:     schedule.TotalInterest,
		TotalPayable:      schedule.TotalPayable,
		BalancePrincipal:  finance.Round(input.Principal),
		BalanceInterest:   schedule.TotalInterest,
		Note:              input.Note,

		LateFeeEnabled:  financiera.DefaultLateFeeEnabled,
		LateFeePct:      financiera.DefaultLateFeePct,
		LateFeeGrace:    financiera.DefaultGraceDays,
		PayoffEnabled:   financiera.DefaultPayoffEnabled,
		PayoffPctPerDay: financiera.DefaultPayoffPct,
	}
	if input.LateFeePct != nil {
		loan.LateFeePct = *input.LateFeePct
		loan.LateFeeEnabled = *input.LateFeePct > 0
	}
	if input.LateFeeGrace != nil {
		loan.LateFeeGrace = *input.LateFeeGrace
	}
	if input.PayoffPctPerDay != nil {
		loan.PayoffPctPerDay = *input.PayoffPctPerDay
		loan.PayoffEnabled = *input.PayoffPctPerDay > 0
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := nextLoanNumberTx(tx, input.FinancieraID, time.Now().Year())
		if err != nil {
			return err
		}
		loan.Number = number

		if err := tx.Create(loan).Error; err != nil {
			return err
		}
		installments := buildInstallments(loan.ID, schedule)
		return tx.Create(&installments).Error
	})
	if err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "CREATE", "Loan", loan.ID,
		fmt.Sprintf("Préstamo %s creado para %s", loan.Number, borrower.FullName), "", "")

	return s.repo.FindByIDWithDetails(ctx, input.FinancieraID, loan.ID)
}

// nextLoanNumberTx allocates a loan number inside the origination transaction
// so the count and the insert see the same snapshot, the same guarantee the
// receipt numbering gives payments.
func nextLoanNumberTx(tx *gorm.DB, financieraID uint, year int) (string, error) {
	var count int64
	err := tx.Model(&models.Loan{}).
		Where("financiera_id = ? AND number LIKE ?", financieraID, fmt.Sprintf("PRE-%d-", year)+"%").
		Count(&count).Error
	if err != nil {
		return "", err
	}
	return sequenceNumber("PRE", year, count), nil
}

// sequenceNumber formats the next number in a yearly sequence, e.g.
// PRE-2026-00001 for a year with no prior loans.
func sequenceNumber(prefix string, year int, priorCount int64) string {
	return fmt.Sprintf("%s-%d-%05d", prefix, year, priorCount+1)
}

// buildInstallments maps schedule lines onto installment rows
func buildInstallments(loanID uint, schedule *finance.Schedule) []models.Installment {
	installments := make([]models.Installment, 0, len(schedule.Lines))
	for _, line := range schedule.Lines {
		installments = append(installments, models.Installment{
			LoanID:    loanID,
			Sequence:  line.Sequence,
			DueDate:   line.DueDate,
			Principal: line.Principal,
			Interest:  line.Interest,
			Status:    models.InstallmentStatusPending,
		})
	}
	return installments
}

// GenerateSchedule persists the amortization schedule for a loan that has
// none yet. Regeneration over an existing schedule is refused.
func (s *LoanService) GenerateSchedule(ctx context.Context, financieraID, loanID uint) ([]models.Installment, error) {
	loan, err := s.repo.FindByID(ctx, financieraID, loanID)
	if err != nil {
		return nil, ErrNotFound
	}

	count, err := s.installmentRepo.CountByLoan(ctx, loan.ID)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAlreadyScheduled
	}

	schedule, err := finance.Generate(finance.ScheduleParams{
		Principal:    loan.Principal,
		NominalRate:  loan.NominalRate,
		RatePeriod:   finance.RatePeriod(loan.RatePeriod),
		Term:         loan.Term,
		Frequency:    finance.Frequency(loan.Frequency),
		Method:       finance.Method(loan.Method),
		FirstDueDate: loan.FirstDueDate,
	})
	if err != nil {
		return nil, err
	}

	installments := buildInstallments(loan.ID, schedule)
	if err := s.installmentRepo.CreateBatch(ctx, installments); err != nil {
		return nil, err
	}
	return installments, nil
}

// Approve transitions a pending loan to approved
func (s *LoanService) Approve(ctx context.Context, financieraID, id, actorID uint) (*models.Loan, error) {
	loan, err := s.repo.FindByID(ctx, financieraID, id)
	if err != nil {
		return nil, ErrNotFound
	}

	if err := statemachine.NewLoanFSM(loan).Approve(ctx); err != nil {
		return nil, ErrInvalidState
	}

	now := time.Now()
	loan.ApprovedAt = &now
	if err := s.repo.Update(ctx, loan); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "APPROVE", "Loan", loan.ID,
		fmt.Sprintf("Préstamo %s aprobado", loan.Number), "", "")
	s.notifyCreator(loan, "Préstamo aprobado",
		fmt.Sprintf("El préstamo %s fue aprobado", loan.Number),
		models.NotificationTypeLoanApproved)

	return loan, nil
}

// Activate disburses an approved loan and starts collection
func (s *LoanService) Activate(ctx context.Context, financieraID, id, actorID uint) (*models.Loan, error) {
	loan, err := s.repo.FindByID(ctx, financieraID, id)
	if err != nil {
		return nil, ErrNotFound
	}

	if err := statemachine.NewLoanFSM(loan).Activate(ctx); err != nil {
		return nil, ErrInvalidState
	}

	now := time.Now()
	loan.DisbursedAt = &now
	if err := s.repo.Update(ctx, loan); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "ACTIVATE", "Loan", loan.ID,
		fmt.Sprintf("Préstamo %s desembolsado", loan.Number), "", "")
	s.notifyCreator(loan, "Préstamo activado",
		fmt.Sprintf("El préstamo %s fue desembolsado", loan.Number),
		models.NotificationTypeLoanActivated)

	return loan, nil
}

// Cancel cancels a loan that was never disbursed
func (s *LoanService) Cancel(ctx context.Context, financieraID, id uint, reason *string, actorID uint) (*models.Loan, error) {
	loan, err := s.repo.FindByID(ctx, financieraID, id)
	if err != nil {
		return nil, ErrNotFound
	}

	if err := statemachine.NewLoanFSM(loan).Cancel(ctx); err != nil {
		return nil, ErrInvalidState
	}

	now := time.Now()
	loan.CancelledAt = &now
	if reason != nil {
		loan.Note = reason
	}
	// A cancelled loan owes nothing.
	loan.BalancePrincipal = 0
	loan.BalanceInterest = 0
	loan.BalanceLateFee = 0
	if err := s.repo.Update(ctx, loan); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "CANCEL", "Loan", loan.ID,
		fmt.Sprintf("Préstamo %s cancelado", loan.Number), "", "")
	s.notifyCreator(loan, "Préstamo cancelado",
		fmt.Sprintf("El préstamo %s fue cancelado", loan.Number),
		models.NotificationTypeLoanCancelled)

	return loan, nil
}

// EarlyPayoff projects the discounted settlement for paying the loan off now
func (s *LoanService) EarlyPayoff(ctx context.Context, financieraID, id uint, asOf time.Time) (*finance.Payoff, error) {
	loan, err := s.repo.FindByID(ctx, financieraID, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if !loan.IsCollectible() {
		return nil, ErrNotCollectible
	}

	payoff := finance.CalculateEarlyPayoff(
		loan.BalancePrincipal,
		loan.BalanceInterest,
		loan.BalanceLateFee,
		loan.FinalDueDate,
		loan.PayoffPolicy(),
		asOf,
	)
	return &payoff, nil
}

// WaiveInstallment forgives whatever remains outstanding on one installment.
// The waived amount leaves the loan balances; if nothing else is owed the
// loan completes.
func (s *LoanService) WaiveInstallment(ctx context.Context, financieraID, loanID, installmentID uint, reason string, actorID uint) (*models.Installment, error) {
	var waived *models.Installment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var installment models.Installment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND loan_id = ?", installmentID, loanID).
			First(&installment).Error; err != nil {
			return ErrNotFound
		}

		var loan models.Loan
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND financiera_id = ?", loanID, financieraID).
			First(&loan).Error; err != nil {
			return ErrNotFound
		}

		if installment.IsWaived() || installment.IsSettled() {
			return ErrAlreadySettled
		}

		forgiven := finance.Distribution{
			LateFee:   installment.DueLateFee(),
			Interest:  installment.DueInterest(),
			Principal: installment.DuePrincipal(),
		}
		loan.ApplyDistribution(forgiven)

		now := time.Now()
		installment.Status = models.InstallmentStatusWaived
		installment.WaivedAt = &now
		installment.WaivedReason = &reason

		if loan.MayComplete() {
			if err := statemachine.NewLoanFSM(&loan).Complete(ctx); err != nil {
				return err
			}
			loan.CompletedAt = &now
		}

		if err := tx.Save(&installment).Error; err != nil {
			return err
		}
		if err := tx.Save(&loan).Error; err != nil {
			return err
		}

		waived = &installment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "WAIVE", "Installment", installmentID,
		fmt.Sprintf("Cuota %d condonada: %s", waived.Sequence, reason), "", "")

	return waived, nil
}

// ListOverdueInstallments returns every unpaid installment past its due date
// with the mora projected to asOf. Nothing is persisted; the hourly accrual
// job owns the write-back.
func (s *LoanService) ListOverdueInstallments(ctx context.Context, financieraID uint, asOf time.Time) ([]models.Installment, error) {
	overdue, err := s.installmentRepo.FindOverdue(ctx, financieraID, asOf)
	if err != nil {
		return nil, err
	}

	for idx := range overdue {
		installment := &overdue[idx]
		if policy := installment.Loan.LateFeePolicy(); policy.Enabled {
			accrueInstallment(installment, policy, asOf)
		}
	}
	return overdue, nil
}

// RefreshInstallmentMora recomputes and persists the mora on one installment
// on demand, outside the hourly job.
func (s *LoanService) RefreshInstallmentMora(ctx context.Context, financieraID, loanID, installmentID uint, asOf time.Time) (*models.Installment, error) {
	var refreshed *models.Installment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var loan models.Loan
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND financiera_id = ?", loanID, financieraID).
			First(&loan).Error; err != nil {
			return ErrNotFound
		}

		var installment models.Installment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND loan_id = ?", installmentID, loanID).
			First(&installment).Error; err != nil {
			return ErrNotFound
		}

		if installment.IsWaived() || installment.IsSettled() {
			return ErrAlreadySettled
		}

		policy := loan.LateFeePolicy()
		if policy.Enabled {
			if delta := accrueInstallment(&installment, policy, asOf); delta != 0 {
				loan.BalanceLateFee = finance.Round(loan.BalanceLateFee + delta)
			}
		}
		installment.RefreshState(asOf)

		if err := tx.Save(&installment).Error; err != nil {
			return err
		}
		if err := tx.Save(&loan).Error; err != nil {
			return err
		}

		refreshed = &installment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refreshed, nil
}

// AccrueLateFees refreshes the mora on every overdue installment. A zero
// financieraID runs over all tenants, which is how the hourly job calls it.
func (s *LoanService) AccrueLateFees(ctx context.Context, financieraID uint, asOf time.Time) error {
	overdue, err := s.installmentRepo.FindOverdue(ctx, financieraID, asOf)
	if err != nil {
		return err
	}

	var updated int
	for idx := range overdue {
		installment := &overdue[idx]
		policy := installment.Loan.LateFeePolicy()
		if !policy.Enabled {
			continue
		}

		delta := accrueInstallment(installment, policy, asOf)
		if delta == 0 {
			continue
		}

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(installment).Error; err != nil {
				return err
			}
			return tx.Model(&models.Loan{}).
				Where("id = ?", installment.LoanID).
				Update("balance_late_fee", gorm.Expr("ROUND((balance_late_fee + ?)::numeric, 2)", delta)).Error
		})
		if err != nil {
			logger.Error("failed to accrue late fee", "installment_id", installment.ID, "error", err)
			continue
		}
		updated++
	}

	if updated > 0 {
		logger.Info("late fees accrued", "installments", updated)
	}
	return nil
}

// accrueInstallment recomputes the accrued mora on one installment and
// returns the change. The fee accrues on the unpaid principal plus interest,
// so partial payments shrink the base.
func accrueInstallment(installment *models.Installment, policy finance.LateFeePolicy, asOf time.Time) float64 {
	base := finance.Round(installment.DuePrincipal() + installment.DueInterest())
	accrual := finance.ComputeLateFee(base, installment.DueDate, policy, asOf)

	newFee := finance.Round(installment.PaidLateFee + accrual.Fee)
	delta := finance.Round(newFee - installment.LateFee)
	installment.LateFee = newFee
	return delta
}

// RefreshDelinquency recomputes installment states and moves loans between
// active and delinquent. A zero financieraID runs over all tenants.
func (s *LoanService) RefreshDelinquency(ctx context.Context, financieraID uint, asOf time.Time) error {
	loans, err := s.repo.FindCollectible(ctx, financieraID)
	if err != nil {
		return err
	}

	for idx := range loans {
		loan := &loans[idx]

		installments, err := s.installmentRepo.FindByLoan(ctx, loan.ID)
		if err != nil {
			logger.Error("failed to load installments", "loan_id", loan.ID, "error", err)
			continue
		}

		hasOverdue := false
		for i := range installments {
			installment := &installments[i]
			before := installment.Status
			installment.RefreshState(asOf)
			if installment.Status == models.InstallmentStatusOverdue {
				hasOverdue = true
			}
			if installment.Status != before {
				if err := s.installmentRepo.Update(ctx, installment); err != nil {
					logger.Error("failed to update installment state", "installment_id", installment.ID, "error", err)
				}
			}
		}

		m := statemachine.NewLoanFSM(loan)
		switch {
		case hasOverdue && loan.MayMarkDelinquent():
			if err := m.MarkDelinquent(ctx); err == nil {
				s.repo.Update(ctx, loan)
				s.notifyCreator(loan, "Préstamo en mora",
					fmt.Sprintf("El préstamo %s tiene cuotas vencidas", loan.Number),
					models.NotificationTypeLoanDelinquent)
			}
		case !hasOverdue && loan.MayCure():
			if err := m.Cure(ctx); err == nil {
				s.repo.Update(ctx, loan)
			}
		}
	}
	return nil
}

// NotifyUpcomingInstallments reminds loan owners of installments falling due
// within the next three days. Runs across all tenants.
func (s *LoanService) NotifyUpcomingInstallments(ctx context.Context, asOf time.Time) error {
	installments, err := s.installmentRepo.FindDueSoon(ctx, 0, asOf, asOf.AddDate(0, 0, 3))
	if err != nil {
		return err
	}

	for i := range installments {
		installment := &installments[i]
		if installment.Loan.ID == 0 {
			continue
		}
		s.notifyCreator(&installment.Loan, "Cuota próxima a vencer",
			fmt.Sprintf("La cuota %d del préstamo %s vence el %s",
				installment.Sequence, installment.Loan.Number,
				installment.DueDate.Format("2006-01-02")),
			models.NotificationTypeInstallmentDue)
	}
	return nil
}

func (s *LoanService) notifyCreator(loan *models.Loan, title, message, notifType string) {
	if s.notificationSvc == nil || loan.CreatorID == nil {
		return
	}
	s.notificationSvc.NotifyUserAsync(*loan.CreatorID, title, message, notifType)
}
