package services

import (
	"github.com/prestaflow/prestaflow-api/internal/jobs"
	"github.com/prestaflow/prestaflow-api/internal/repository"
	"gorm.io/gorm"
)

// Services holds all service instances
type Services struct {
	Financiera   *FinancieraService
	Borrower     *BorrowerService
	Loan         *LoanService
	Payment      *PaymentService
	Notification *NotificationService
	Export       *ExportService
	Audit        *AuditService
	Job          *JobService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, db *gorm.DB) *Services {
	notificationSvc := NewNotificationService(repos.Notification, worker)
	auditSvc := NewAuditService(db)

	return &Services{
		Financiera:   NewFinancieraService(repos.Financiera, auditSvc),
		Borrower:     NewBorrowerService(repos.Borrower, repos.Loan, auditSvc),
		Loan:         NewLoanService(db, repos.Loan, repos.Borrower, repos.Installment, repos.Financiera, notificationSvc, auditSvc),
		Payment:      NewPaymentService(db, repos.Payment, repos.Loan, repos.Installment, notificationSvc, auditSvc),
		Notification: notificationSvc,
		Export:       NewExportService(),
		Audit:        auditSvc,
		Job:          NewJobService(worker),
	}
}
