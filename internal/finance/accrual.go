package finance

import "time"

// LateFeePolicy is the mora configuration attached to a loan.
type LateFeePolicy struct {
	Enabled   bool    `json:"enabled"`
	DailyPct  float64 `json:"daily_pct"` // percent of outstanding balance per effective day
	GraceDays int     `json:"grace_days"`
}

// Accrual is a late-fee computation as of a reference date.
type Accrual struct {
	DaysOverdue   int     `json:"days_overdue"`
	GraceDays     int     `json:"grace_days"`
	EffectiveDays int     `json:"effective_days"`
	Fee           float64 `json:"fee"`
	TotalWithFee  float64 `json:"total_with_fee"`
}

// ComputeLateFee returns the mora accrued on an outstanding balance as of the
// reference date. It is a pure function: nothing is persisted until a caller
// writes the result back. The fee accrues on the CURRENT outstanding balance,
// so a partial payment shrinks the base for later accrual.
func ComputeLateFee(outstanding float64, dueDate time.Time, policy LateFeePolicy, asOf time.Time) Accrual {
	days := daysBetween(dueDate, asOf)
	if days <= 0 {
		return Accrual{GraceDays: policy.GraceDays, TotalWithFee: Round(outstanding)}
	}
	if !policy.Enabled {
		return Accrual{DaysOverdue: days, GraceDays: policy.GraceDays, TotalWithFee: Round(outstanding)}
	}

	effective := days - policy.GraceDays
	if effective < 0 {
		effective = 0
	}
	fee := Round(outstanding * (policy.DailyPct / 100) * float64(effective))
	return Accrual{
		DaysOverdue:   days,
		GraceDays:     policy.GraceDays,
		EffectiveDays: effective,
		Fee:           fee,
		TotalWithFee:  Round(outstanding + fee),
	}
}

// truncateDay drops the time-of-day component.
func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween counts whole calendar days from a to b, negative when b
// precedes a. Both ends are truncated to midnight first so the count never
// depends on the time of day a job happens to run.
func daysBetween(a, b time.Time) int {
	return int(truncateDay(b).Sub(truncateDay(a)).Hours() / 24)
}
