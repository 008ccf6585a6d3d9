package models

import (
	"time"
)

// DailyCollectionSummary aggregates the confirmed payments of one financiera
// for a single calendar day. Voided payments are excluded entirely.
type DailyCollectionSummary struct {
	Date           time.Time `json:"date"`
	PaymentCount   int       `json:"payment_count"`
	TotalCollected float64   `json:"total_collected"`
	TotalLateFee   float64   `json:"total_late_fee"`
	TotalInterest  float64   `json:"total_interest"`
	TotalPrincipal float64   `json:"total_principal"`
	VoidedCount    int       `json:"voided_count"`
	VoidedAmount   float64   `json:"voided_amount"`
}

// DelinquencySummary is a portfolio-level snapshot of overdue exposure
type DelinquencySummary struct {
	FinancieraID    uint    `json:"financiera_id"`
	ActiveLoans     int     `json:"active_loans"`
	DelinquentLoans int     `json:"delinquent_loans"`
	OverdueAmount   float64 `json:"overdue_amount"`
	AccruedLateFees float64 `json:"accrued_late_fees"`
}
