package finance

import "github.com/shopspring/decimal"

// Round normalizes a monetary value to 2 decimal places, half up.
// Every figure the engine produces passes through here at each step, so
// schedules, accruals and allocations agree cent for cent with what is
// persisted.
func Round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
