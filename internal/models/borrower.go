package models

import (
	"time"
)

// Borrower represents a loan applicant belonging to a financiera
type Borrower struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	FinancieraID uint       `gorm:"not null;index" json:"financiera_id"`
	FullName     string     `gorm:"not null" json:"full_name"`
	Identity     string     `gorm:"not null;index" json:"identity"`
	Phone        string     `json:"phone"`
	Email        *string    `json:"email"`
	Address      *string    `gorm:"type:text" json:"address"`
	Note         *string    `gorm:"type:text" json:"note"`
	CreditScore  int        `gorm:"default:0" json:"credit_score"`
	DiscardedAt  *time.Time `gorm:"index" json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Associations
	Financiera Financiera `gorm:"foreignKey:FinancieraID" json:"-"`
	Loans      []Loan     `gorm:"foreignKey:BorrowerID" json:"loans,omitempty"`
}

// TableName specifies the table name for Borrower
func (Borrower) TableName() string {
	return "borrowers"
}

// IsDiscarded returns true if borrower is soft-deleted
func (b *Borrower) IsDiscarded() bool {
	return b.DiscardedAt != nil
}

// HasOpenLoans returns true when any preloaded loan is still collectible
func (b *Borrower) HasOpenLoans() bool {
	for _, l := range b.Loans {
		if !l.IsTerminal() {
			return true
		}
	}
	return false
}

// maskIdentity masks an identity string for privacy
func maskIdentity(identity string) string {
	if len(identity) <= 4 {
		masked := ""
		for range identity {
			masked += "*"
		}
		return masked
	}
	masked := identity[:4]
	for i := 4; i < len(identity)-3; i++ {
		masked += "*"
	}
	if len(identity) > 4 {
		masked += identity[len(identity)-3:]
	}
	return masked
}

// BorrowerResponse is the JSON response format for borrowers
type BorrowerResponse struct {
	ID          uint      `json:"id"`
	FullName    string    `json:"full_name"`
	Identity    string    `json:"identity"`
	Phone       string    `json:"phone"`
	Email       *string   `json:"email"`
	Address     *string   `json:"address"`
	Note        *string   `json:"note"`
	CreditScore int       `json:"credit_score"`
	LoanCount   int       `json:"loan_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToResponse converts Borrower to BorrowerResponse
func (b *Borrower) ToResponse() BorrowerResponse {
	return BorrowerResponse{
		ID:          b.ID,
		FullName:    b.FullName,
		Identity:    maskIdentity(b.Identity),
		Phone:       b.Phone,
		Email:       b.Email,
		Address:     b.Address,
		Note:        b.Note,
		CreditScore: b.CreditScore,
		LoanCount:   len(b.Loans),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}
