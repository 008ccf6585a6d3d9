package models

import (
	"time"

	"github.com/prestaflow/prestaflow-api/internal/finance"
)

// Installment represents one line of a loan's amortization schedule
type Installment struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	LoanID   uint `gorm:"not null;index" json:"loan_id"`
	Sequence int  `gorm:"not null" json:"sequence"`

	DueDate   time.Time `gorm:"type:date;not null;index" json:"due_date"`
	Principal float64   `gorm:"type:decimal(15,2);not null" json:"principal"`
	Interest  float64   `gorm:"type:decimal(15,2);not null" json:"interest"`
	// LateFee is the accrued mora on this installment, refreshed by the
	// accrual job and at payment time.
	LateFee float64 `gorm:"type:decimal(15,2);default:0" json:"late_fee"`

	PaidPrincipal float64 `gorm:"type:decimal(15,2);default:0" json:"paid_principal"`
	PaidInterest  float64 `gorm:"type:decimal(15,2);default:0" json:"paid_interest"`
	PaidLateFee   float64 `gorm:"type:decimal(15,2);default:0" json:"paid_late_fee"`

	Status       string     `gorm:"default:pending;not null;index" json:"status"`
	PaidAt       *time.Time `json:"paid_at"`
	WaivedAt     *time.Time `json:"waived_at"`
	WaivedReason *string    `gorm:"type:text" json:"waived_reason"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Associations
	Loan Loan `gorm:"foreignKey:LoanID" json:"-"`
}

// TableName specifies the table name for Installment
func (Installment) TableName() string {
	return "installments"
}

// Installment status constants
const (
	InstallmentStatusPending       = "pending"
	InstallmentStatusPartiallyPaid = "partially_paid"
	InstallmentStatusOverdue       = "overdue"
	InstallmentStatusPaid          = "paid"
	InstallmentStatusWaived        = "waived"
)

// DuePrincipal returns the unpaid principal portion
func (i *Installment) DuePrincipal() float64 {
	return finance.Round(i.Principal - i.PaidPrincipal)
}

// DueInterest returns the unpaid interest portion
func (i *Installment) DueInterest() float64 {
	return finance.Round(i.Interest - i.PaidInterest)
}

// DueLateFee returns the unpaid mora
func (i *Installment) DueLateFee() float64 {
	return finance.Round(i.LateFee - i.PaidLateFee)
}

// Outstanding returns the full remaining amount including mora
func (i *Installment) Outstanding() float64 {
	return finance.Round(i.DueLateFee() + i.DueInterest() + i.DuePrincipal())
}

// AmountPaid returns the total collected against this installment
func (i *Installment) AmountPaid() float64 {
	return finance.Round(i.PaidLateFee + i.PaidInterest + i.PaidPrincipal)
}

// DueBuckets returns the waterfall buckets in allocation order
func (i *Installment) DueBuckets() []finance.Bucket {
	return []finance.Bucket{
		{Name: finance.BucketLateFee, Due: i.DueLateFee()},
		{Name: finance.BucketInterest, Due: i.DueInterest()},
		{Name: finance.BucketPrincipal, Due: i.DuePrincipal()},
	}
}

// ApplyDistribution records a payment split on the paid columns. Voids pass
// the negated distribution through the same path.
func (i *Installment) ApplyDistribution(d finance.Distribution) {
	i.PaidLateFee = finance.Round(i.PaidLateFee + d.LateFee)
	i.PaidInterest = finance.Round(i.PaidInterest + d.Interest)
	i.PaidPrincipal = finance.Round(i.PaidPrincipal + d.Principal)
}

// IsSettled returns true when nothing remains outstanding
func (i *Installment) IsSettled() bool {
	return i.Outstanding() <= 0
}

// IsWaived returns true if the installment was forgiven
func (i *Installment) IsWaived() bool {
	return i.Status == InstallmentStatusWaived
}

// IsOverdue returns true if the installment is unpaid past its due date
func (i *Installment) IsOverdue(asOf time.Time) bool {
	if i.IsWaived() || i.IsSettled() {
		return false
	}
	return i.DueDate.Before(truncateDay(asOf))
}

// OverdueDays returns whole days past the due date, zero when not overdue
func (i *Installment) OverdueDays(asOf time.Time) int {
	if !i.IsOverdue(asOf) {
		return 0
	}
	return int(truncateDay(asOf).Sub(truncateDay(i.DueDate)).Hours() / 24)
}

// RefreshState recomputes the status from the paid columns and the reference
// date. Waived installments are terminal and never change.
func (i *Installment) RefreshState(asOf time.Time) {
	if i.IsWaived() {
		return
	}
	switch {
	case i.IsSettled():
		i.Status = InstallmentStatusPaid
		if i.PaidAt == nil {
			now := time.Now()
			i.PaidAt = &now
		}
	case i.AmountPaid() > 0:
		i.Status = InstallmentStatusPartiallyPaid
		i.PaidAt = nil
	case i.DueDate.Before(truncateDay(asOf)):
		i.Status = InstallmentStatusOverdue
		i.PaidAt = nil
	default:
		i.Status = InstallmentStatusPending
		i.PaidAt = nil
	}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// InstallmentResponse is the JSON response format for installments
type InstallmentResponse struct {
	ID            uint       `json:"id"`
	LoanID        uint       `json:"loan_id"`
	Sequence      int        `json:"sequence"`
	DueDate       time.Time  `json:"due_date"`
	Principal     float64    `json:"principal"`
	Interest      float64    `json:"interest"`
	LateFee       float64    `json:"late_fee"`
	Total         float64    `json:"total"`
	PaidPrincipal float64    `json:"paid_principal"`
	PaidInterest  float64    `json:"paid_interest"`
	PaidLateFee   float64    `json:"paid_late_fee"`
	AmountPaid    float64    `json:"amount_paid"`
	Outstanding   float64    `json:"outstanding"`
	Status        string     `json:"status"`
	OverdueDays   int        `json:"overdue_days"`
	PaidAt        *time.Time `json:"paid_at"`
	WaivedAt      *time.Time `json:"waived_at"`
	WaivedReason  *string    `json:"waived_reason,omitempty"`
}

// ToResponse converts Installment to InstallmentResponse
func (i *Installment) ToResponse() InstallmentResponse {
	return InstallmentResponse{
		ID:            i.ID,
		LoanID:        i.LoanID,
		Sequence:      i.Sequence,
		DueDate:       i.DueDate,
		Principal:     i.Principal,
		Interest:      i.Interest,
		LateFee:       i.LateFee,
		Total:         finance.Round(i.Principal + i.Interest + i.LateFee),
		PaidPrincipal: i.PaidPrincipal,
		PaidInterest:  i.PaidInterest,
		PaidLateFee:   i.PaidLateFee,
		AmountPaid:    i.AmountPaid(),
		Outstanding:   i.Outstanding(),
		Status:        i.Status,
		OverdueDays:   i.OverdueDays(time.Now()),
		PaidAt:        i.PaidAt,
		WaivedAt:      i.WaivedAt,
		WaivedReason:  i.WaivedReason,
	}
}
