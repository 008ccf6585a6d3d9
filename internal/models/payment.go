package models

import (
	"time"

	"github.com/prestaflow/prestaflow-api/internal/finance"
)

// Payment represents a confirmed collection against one installment. A
// payment is immutable once registered; mistakes are corrected by voiding it,
// which reverses its distribution exactly.
type Payment struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	LoanID        uint   `gorm:"not null;index" json:"loan_id"`
	InstallmentID uint   `gorm:"not null;index" json:"installment_id"`
	FinancieraID  uint   `gorm:"not null;index" json:"financiera_id"`
	ReceiptNumber string `gorm:"uniqueIndex;not null" json:"receipt_number"`

	Amount          float64 `gorm:"type:decimal(15,2);not null" json:"amount"`
	LateFeeAmount   float64 `gorm:"type:decimal(15,2);default:0" json:"late_fee_amount"`
	InterestAmount  float64 `gorm:"type:decimal(15,2);default:0" json:"interest_amount"`
	PrincipalAmount float64 `gorm:"type:decimal(15,2);default:0" json:"principal_amount"`

	Method      string  `gorm:"default:cash" json:"method"`
	Reference   *string `json:"reference"`
	Note        *string `gorm:"type:text" json:"note"`
	VoucherPath *string `json:"voucher_path"`

	Status         string     `gorm:"default:confirmed;not null;index" json:"status"`
	PaidAt         time.Time  `gorm:"not null;index" json:"paid_at"`
	VoidedAt       *time.Time `json:"voided_at"`
	VoidReason     *string    `gorm:"type:text" json:"void_reason"`
	RegisteredByID *uint      `gorm:"index" json:"registered_by_id"`
	VoidedByID     *uint      `gorm:"index" json:"voided_by_id"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Associations
	Loan         Loan        `gorm:"foreignKey:LoanID" json:"loan,omitempty"`
	Installment  Installment `gorm:"foreignKey:InstallmentID" json:"installment,omitempty"`
	RegisteredBy *User       `gorm:"foreignKey:RegisteredByID" json:"registered_by,omitempty"`
	VoidedBy     *User       `gorm:"foreignKey:VoidedByID" json:"voided_by,omitempty"`
}

// TableName specifies the table name for Payment
func (Payment) TableName() string {
	return "payments"
}

// Payment status constants
const (
	PaymentStatusConfirmed = "confirmed"
	PaymentStatusVoided    = "voided"
)

// Payment method constants
const (
	PaymentMethodCash     = "cash"
	PaymentMethodTransfer = "transfer"
	PaymentMethodCard     = "card"
	PaymentMethodOther    = "other"
)

// MayVoid returns true if payment can be voided
func (p *Payment) MayVoid() bool {
	return p.Status == PaymentStatusConfirmed
}

// IsVoided returns true if payment has been voided
func (p *Payment) IsVoided() bool {
	return p.Status == PaymentStatusVoided
}

// Distribution rebuilds the waterfall split recorded on this payment
func (p *Payment) Distribution() finance.Distribution {
	return finance.Distribution{
		LateFee:   p.LateFeeAmount,
		Interest:  p.InterestAmount,
		Principal: p.PrincipalAmount,
	}
}

// PaymentResponse is the JSON response format for payments
type PaymentResponse struct {
	ID              uint       `json:"id"`
	ReceiptNumber   string     `json:"receipt_number"`
	LoanID          uint       `json:"loan_id"`
	LoanNumber      string     `json:"loan_number,omitempty"`
	InstallmentID   uint       `json:"installment_id"`
	InstallmentSeq  int        `json:"installment_sequence,omitempty"`
	BorrowerName    string     `json:"borrower_name,omitempty"`
	Amount          float64    `json:"amount"`
	LateFeeAmount   float64    `json:"late_fee_amount"`
	InterestAmount  float64    `json:"interest_amount"`
	PrincipalAmount float64    `json:"principal_amount"`
	Method          string     `json:"method"`
	Reference       *string    `json:"reference"`
	Note            *string    `json:"note"`
	HasVoucher      bool       `json:"has_voucher"`
	Status          string     `json:"status"`
	PaidAt          time.Time  `json:"paid_at"`
	VoidedAt        *time.Time `json:"voided_at"`
	VoidReason      *string    `json:"void_reason,omitempty"`
	RegisteredBy    string     `json:"registered_by,omitempty"`
	VoidedByName    string     `json:"voided_by,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ToResponse converts Payment to PaymentResponse
func (p *Payment) ToResponse() PaymentResponse {
	resp := PaymentResponse{
		ID:              p.ID,
		ReceiptNumber:   p.ReceiptNumber,
		LoanID:          p.LoanID,
		InstallmentID:   p.InstallmentID,
		Amount:          p.Amount,
		LateFeeAmount:   p.LateFeeAmount,
		InterestAmount:  p.InterestAmount,
		PrincipalAmount: p.PrincipalAmount,
		Method:          p.Method,
		Reference:       p.Reference,
		Note:            p.Note,
		HasVoucher:      p.VoucherPath != nil,
		Status:          p.Status,
		PaidAt:          p.PaidAt,
		VoidedAt:        p.VoidedAt,
		VoidReason:      p.VoidReason,
		CreatedAt:       p.CreatedAt,
	}

	if p.Loan.ID != 0 {
		resp.LoanNumber = p.Loan.Number
		if p.Loan.Borrower.ID != 0 {
			resp.BorrowerName = p.Loan.Borrower.FullName
		}
	}
	if p.Installment.ID != 0 {
		resp.InstallmentSeq = p.Installment.Sequence
	}
	if p.RegisteredBy != nil {
		resp.RegisteredBy = p.RegisteredBy.FullName
	}
	if p.VoidedBy != nil {
		resp.VoidedByName = p.VoidedBy.FullName
	}

	return resp
}
