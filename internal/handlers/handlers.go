package handlers

import (
	"github.com/prestaflow/prestaflow-api/internal/services"
	"github.com/prestaflow/prestaflow-api/internal/storage"
)

// Handlers holds all handler instances
type Handlers struct {
	Health       *HealthHandler
	Financiera   *FinancieraHandler
	Borrower     *BorrowerHandler
	Loan         *LoanHandler
	Payment      *PaymentHandler
	Notification *NotificationHandler
	Audit        *AuditHandler
	Job          *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services, storage *storage.LocalStorage) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(),
		Financiera:   NewFinancieraHandler(svcs.Financiera),
		Borrower:     NewBorrowerHandler(svcs.Borrower),
		Loan:         NewLoanHandler(svcs.Loan, svcs.Export),
		Payment:      NewPaymentHandler(svcs.Payment, svcs.Export, storage),
		Notification: NewNotificationHandler(svcs.Notification),
		Audit:        NewAuditHandler(svcs.Audit),
		Job:          NewJobHandler(svcs.Job),
	}
}
