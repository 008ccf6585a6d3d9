package finance

// RatePeriod is the period a nominal interest rate is quoted in.
type RatePeriod string

// Rate period constants
const (
	RatePeriodMonthly RatePeriod = "monthly"
	RatePeriodAnnual  RatePeriod = "annual"
)

// Frequency is how often installments come due.
type Frequency string

// Payment frequency constants
const (
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

// PeriodRate converts a nominal rate (5.0 means 5%) into the per-period
// decimal rate matching the payment frequency. An annual nominal divides by
// the number of periods per year; a monthly nominal divides by the periods
// per month. Any frequency other than weekly or biweekly is handled as
// monthly — the switch default, not a silent fallback.
func PeriodRate(nominal float64, period RatePeriod, freq Frequency) float64 {
	if period == RatePeriodAnnual {
		switch freq {
		case FrequencyWeekly:
			return nominal / 100 / 52
		case FrequencyBiweekly:
			return nominal / 100 / 24
		default:
			return nominal / 100 / 12
		}
	}
	switch freq {
	case FrequencyWeekly:
		return nominal / 100 / 4
	case FrequencyBiweekly:
		return nominal / 100 / 2
	default:
		return nominal / 100
	}
}
