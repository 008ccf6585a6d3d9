package finance

import "time"

// EarlyPayoffPolicy is the cancelación anticipada configuration on a loan.
type EarlyPayoffPolicy struct {
	Enabled        bool    `json:"enabled"`
	DiscountPerDay float64 `json:"discount_per_day"` // percent of outstanding interest per remaining day
}

// Payoff is an early-settlement projection. It is read-only: registering the
// actual settlement is a separate payment operation.
type Payoff struct {
	Permitted            bool    `json:"permitted"`
	Reason               string  `json:"reason,omitempty"`
	DaysRemaining        int     `json:"days_remaining,omitempty"`
	OutstandingPrincipal float64 `json:"outstanding_principal"`
	OutstandingInterest  float64 `json:"outstanding_interest"`
	OutstandingLateFee   float64 `json:"outstanding_late_fee"`
	Discount             float64 `json:"discount"`
	DiscountedInterest   float64 `json:"discounted_interest"`
	Settlement           float64 `json:"settlement"`
}

// CalculateEarlyPayoff computes the discounted settlement for paying a loan
// off before maturity. The discount applies to outstanding interest only,
// capped at that interest; the settlement can never fall below the
// outstanding principal, and mora is always paid in full.
func CalculateEarlyPayoff(principal, interest, lateFee float64, finalDueDate time.Time, policy EarlyPayoffPolicy, asOf time.Time) Payoff {
	if !policy.Enabled {
		return Payoff{Reason: "la cancelación anticipada no está habilitada"}
	}

	days := daysBetween(asOf, finalDueDate)
	if days <= 0 {
		return Payoff{Reason: "el préstamo ya venció o vence hoy"}
	}

	discount := interest * (policy.DiscountPerDay / 100) * float64(days)
	if discount > interest {
		discount = interest
	}
	discount = Round(discount)
	discounted := Round(interest - discount)

	settlement := Round(principal + discounted + lateFee)
	if settlement < principal {
		settlement = Round(principal)
	}

	return Payoff{
		Permitted:            true,
		DaysRemaining:        days,
		OutstandingPrincipal: Round(principal),
		OutstandingInterest:  Round(interest),
		OutstandingLateFee:   Round(lateFee),
		Discount:             discount,
		DiscountedInterest:   discounted,
		Settlement:           settlement,
	}
}
