package models

import (
	"time"

	"github.com/prestaflow/prestaflow-api/internal/finance"
)

// Loan represents a personal loan granted by a financiera
type Loan struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	FinancieraID uint   `gorm:"not null;index" json:"financiera_id"`
	BorrowerID   uint   `gorm:"not null;index" json:"borrower_id"`
	CreatorID    *uint  `gorm:"index" json:"creator_id"`
	Number       string `gorm:"uniqueIndex;not null" json:"number"`

	Principal   float64 `gorm:"type:decimal(15,2);not null" json:"principal"`
	NominalRate float64 `gorm:"type:decimal(8,4);not null" json:"nominal_rate"`
	RatePeriod  string  `gorm:"default:monthly;not null" json:"rate_period"`
	Term        int     `gorm:"not null" json:"term"`
	Frequency   string  `gorm:"default:monthly;not null" json:"frequency"`
	Method      string  `gorm:"default:french;not null" json:"method"`
	Currency    string  `gorm:"default:HNL;not null" json:"currency"`

	Status       string     `gorm:"default:pending;index" json:"status"`
	FirstDueDate time.Time  `gorm:"type:date;not null" json:"first_due_date"`
	FinalDueDate time.Time  `gorm:"type:date" json:"final_due_date"`
	ApprovedAt   *time.Time `json:"approved_at"`
	DisbursedAt  *time.Time `json:"disbursed_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	CancelledAt  *time.Time `json:"cancelled_at"`

	// Schedule aggregates, fixed at origination.
	InstallmentAmount float64 `gorm:"type:decimal(15,2);default:0" json:"installment_amount"`
	TotalInterest     float64 `gorm:"type:decimal(15,2);default:0" json:"total_interest"`
	TotalPayable      float64 `gorm:"type:decimal(15,2);default:0" json:"total_payable"`

	// Running balances, maintained by payment registration and voiding.
	BalancePrincipal float64 `gorm:"type:decimal(15,2);default:0" json:"balance_principal"`
	BalanceInterest  float64 `gorm:"type:decimal(15,2);default:0" json:"balance_interest"`
	BalanceLateFee   float64 `gorm:"type:decimal(15,2);default:0" json:"balance_late_fee"`

	// Mora policy, copied from the financiera defaults at origination so a
	// later default change never rewrites live loans.
	LateFeeEnabled  bool    `gorm:"default:true" json:"late_fee_enabled"`
	LateFeePct      float64 `gorm:"type:decimal(8,4);default:0" json:"late_fee_pct"`
	LateFeeGrace    int     `gorm:"default:0" json:"late_fee_grace"`
	PayoffEnabled   bool    `gorm:"default:false" json:"payoff_enabled"`
	PayoffPctPerDay float64 `gorm:"type:decimal(8,4);default:0" json:"payoff_pct_per_day"`

	Note      *string   `gorm:"type:text" json:"note"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Financiera   Financiera    `gorm:"foreignKey:FinancieraID" json:"-"`
	Borrower     Borrower      `gorm:"foreignKey:BorrowerID" json:"borrower,omitempty"`
	Creator      *User         `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Installments []Installment `gorm:"foreignKey:LoanID" json:"installments,omitempty"`
	Payments     []Payment     `gorm:"foreignKey:LoanID" json:"payments,omitempty"`
}

// TableName specifies the table name for Loan
func (Loan) TableName() string {
	return "loans"
}

// Loan status constants
const (
	LoanStatusPending    = "pending"
	LoanStatusApproved   = "approved"
	LoanStatusActive     = "active"
	LoanStatusDelinquent = "delinquent"
	LoanStatusCompleted  = "completed"
	LoanStatusCancelled  = "cancelled"
)

// MayApprove returns true if loan can be approved
func (l *Loan) MayApprove() bool {
	return l.Status == LoanStatusPending
}

// MayActivate returns true if loan can be disbursed and activated
func (l *Loan) MayActivate() bool {
	return l.Status == LoanStatusApproved
}

// MayMarkDelinquent returns true if loan can be flagged delinquent
func (l *Loan) MayMarkDelinquent() bool {
	return l.Status == LoanStatusActive
}

// MayCure returns true if a delinquent loan can return to active
func (l *Loan) MayCure() bool {
	return l.Status == LoanStatusDelinquent
}

// MayComplete returns true if loan can be completed
func (l *Loan) MayComplete() bool {
	if l.Status != LoanStatusActive && l.Status != LoanStatusDelinquent {
		return false
	}
	return l.TotalOutstanding() <= 0
}

// MayReopen returns true if a completed loan can be reopened, the case when
// the payment that settled it is voided afterwards
func (l *Loan) MayReopen() bool {
	return l.Status == LoanStatusCompleted
}

// MayCancel returns true if loan can be cancelled
func (l *Loan) MayCancel() bool {
	return l.Status == LoanStatusPending || l.Status == LoanStatusApproved
}

// IsTerminal returns true when the loan no longer accrues or collects
func (l *Loan) IsTerminal() bool {
	return l.Status == LoanStatusCompleted || l.Status == LoanStatusCancelled
}

// IsCollectible returns true while payments can be registered against the loan
func (l *Loan) IsCollectible() bool {
	return l.Status == LoanStatusActive || l.Status == LoanStatusDelinquent
}

// TotalOutstanding returns the sum of the running balances
func (l *Loan) TotalOutstanding() float64 {
	return finance.Round(l.BalancePrincipal + l.BalanceInterest + l.BalanceLateFee)
}

// LateFeePolicy builds the mora policy frozen on this loan
func (l *Loan) LateFeePolicy() finance.LateFeePolicy {
	return finance.LateFeePolicy{
		Enabled:   l.LateFeeEnabled,
		DailyPct:  l.LateFeePct,
		GraceDays: l.LateFeeGrace,
	}
}

// PayoffPolicy builds the early-settlement policy frozen on this loan
func (l *Loan) PayoffPolicy() finance.EarlyPayoffPolicy {
	return finance.EarlyPayoffPolicy{
		Enabled:        l.PayoffEnabled,
		DiscountPerDay: l.PayoffPctPerDay,
	}
}

// ApplyDistribution moves the running balances by a payment distribution.
// Voids pass the negated distribution through the same path.
func (l *Loan) ApplyDistribution(d finance.Distribution) {
	l.BalanceLateFee = finance.Round(l.BalanceLateFee - d.LateFee)
	l.BalanceInterest = finance.Round(l.BalanceInterest - d.Interest)
	l.BalancePrincipal = finance.Round(l.BalancePrincipal - d.Principal)
}

// LoanResponse is the JSON response format for loans
type LoanResponse struct {
	ID                uint       `json:"id"`
	Number            string     `json:"number"`
	FinancieraID      uint       `json:"financiera_id"`
	BorrowerID        uint       `json:"borrower_id"`
	BorrowerName      string     `json:"borrower_name"`
	BorrowerIdentity  string     `json:"borrower_identity"`
	BorrowerPhone     string     `json:"borrower_phone"`
	CreatedBy         string     `json:"created_by,omitempty"`
	Principal         float64    `json:"principal"`
	NominalRate       float64    `json:"nominal_rate"`
	RatePeriod        string     `json:"rate_period"`
	Term              int        `json:"term"`
	Frequency         string     `json:"frequency"`
	Method            string     `json:"method"`
	Currency          string     `json:"currency"`
	Status            string     `json:"status"`
	FirstDueDate      time.Time  `json:"first_due_date"`
	FinalDueDate      time.Time  `json:"final_due_date"`
	ApprovedAt        *time.Time `json:"approved_at"`
	DisbursedAt       *time.Time `json:"disbursed_at"`
	CompletedAt       *time.Time `json:"completed_at"`
	CancelledAt       *time.Time `json:"cancelled_at"`
	InstallmentAmount float64    `json:"installment_amount"`
	TotalInterest     float64    `json:"total_interest"`
	TotalPayable      float64    `json:"total_payable"`
	BalancePrincipal  float64    `json:"balance_principal"`
	BalanceInterest   float64    `json:"balance_interest"`
	BalanceLateFee    float64    `json:"balance_late_fee"`
	TotalOutstanding  float64    `json:"total_outstanding"`
	TotalPaid         float64    `json:"total_paid"`
	OverdueCount      int        `json:"overdue_count"`
	Note              *string    `json:"note"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	Installments []InstallmentResponse `json:"installments,omitempty"`
}

// ToResponse converts Loan to LoanResponse
func (l *Loan) ToResponse() LoanResponse {
	resp := LoanResponse{
		ID:                l.ID,
		Number:            l.Number,
		FinancieraID:      l.FinancieraID,
		BorrowerID:        l.BorrowerID,
		Principal:         l.Principal,
		NominalRate:       l.NominalRate,
		RatePeriod:        l.RatePeriod,
		Term:              l.Term,
		Frequency:         l.Frequency,
		Method:            l.Method,
		Currency:          l.Currency,
		Status:            l.Status,
		FirstDueDate:      l.FirstDueDate,
		FinalDueDate:      l.FinalDueDate,
		ApprovedAt:        l.ApprovedAt,
		DisbursedAt:       l.DisbursedAt,
		CompletedAt:       l.CompletedAt,
		CancelledAt:       l.CancelledAt,
		InstallmentAmount: l.InstallmentAmount,
		TotalInterest:     l.TotalInterest,
		TotalPayable:      l.TotalPayable,
		BalancePrincipal:  l.BalancePrincipal,
		BalanceInterest:   l.BalanceInterest,
		BalanceLateFee:    l.BalanceLateFee,
		TotalOutstanding:  l.TotalOutstanding(),
		Note:              l.Note,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}

	if l.Borrower.ID != 0 {
		resp.BorrowerName = l.Borrower.FullName
		resp.BorrowerIdentity = maskIdentity(l.Borrower.Identity)
		resp.BorrowerPhone = l.Borrower.Phone
	}
	if l.Creator != nil {
		resp.CreatedBy = l.Creator.FullName
	}

	var totalPaid float64
	for _, p := range l.Payments {
		if p.Status == PaymentStatusConfirmed {
			totalPaid += p.Amount
		}
	}
	resp.TotalPaid = finance.Round(totalPaid)

	for _, inst := range l.Installments {
		if inst.Status == InstallmentStatusOverdue {
			resp.OverdueCount++
		}
		resp.Installments = append(resp.Installments, inst.ToResponse())
	}

	return resp
}
