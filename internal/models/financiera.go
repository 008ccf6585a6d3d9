package models

import (
	"time"
)

// Financiera represents a lending company (tenant). Every loan, borrower and
// payment hangs off exactly one financiera, and queries are always scoped by it.
type Financiera struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Name     string  `gorm:"not null" json:"name"`
	RTN      string  `gorm:"column:rtn;uniqueIndex" json:"rtn"`
	Phone    string  `json:"phone"`
	Email    string  `json:"email"`
	Address  *string `json:"address"`
	Currency string  `gorm:"default:HNL;not null" json:"currency"`
	Active   bool    `gorm:"default:true;index" json:"active"`

	// Defaults applied to new loans when the request omits a policy.
	DefaultLateFeeEnabled bool    `gorm:"default:true" json:"default_late_fee_enabled"`
	DefaultLateFeePct     float64 `gorm:"type:decimal(8,4);default:0" json:"default_late_fee_pct"`
	DefaultGraceDays      int     `gorm:"default:0" json:"default_grace_days"`
	DefaultPayoffEnabled  bool    `gorm:"default:false" json:"default_payoff_enabled"`
	DefaultPayoffPct      float64 `gorm:"type:decimal(8,4);default:0" json:"default_payoff_pct"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Users     []User     `gorm:"foreignKey:FinancieraID" json:"users,omitempty"`
	Borrowers []Borrower `gorm:"foreignKey:FinancieraID" json:"borrowers,omitempty"`
	Loans     []Loan     `gorm:"foreignKey:FinancieraID" json:"loans,omitempty"`
}

// TableName specifies the table name for Financiera
func (Financiera) TableName() string {
	return "financieras"
}

// FinancieraResponse is the JSON response format for financieras
type FinancieraResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	RTN       string    `json:"rtn"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Address   *string   `json:"address"`
	Currency  string    `json:"currency"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToResponse converts Financiera to FinancieraResponse
func (f *Financiera) ToResponse() FinancieraResponse {
	return FinancieraResponse{
		ID:        f.ID,
		Name:      f.Name,
		RTN:       f.RTN,
		Phone:     f.Phone,
		Email:     f.Email,
		Address:   f.Address,
		Currency:  f.Currency,
		Active:    f.Active,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}
