package finance

import (
	"errors"
	"math"
	"time"
)

// Method selects the amortization system for a schedule.
type Method string

// Amortization method constants
const (
	MethodFrench Method = "french" // equal total installment
	MethodGerman Method = "german" // equal principal portion
)

// Schedule input validation errors
var (
	ErrInvalidPrincipal = errors.New("el capital debe ser mayor a cero")
	ErrInvalidRate      = errors.New("la tasa de interés no puede ser negativa")
	ErrInvalidTerm      = errors.New("el plazo debe ser de al menos una cuota")
)

// ScheduleParams are the inputs to schedule generation.
type ScheduleParams struct {
	Principal    float64
	NominalRate  float64
	RatePeriod   RatePeriod
	Term         int
	Frequency    Frequency
	Method       Method
	FirstDueDate time.Time
}

// ScheduleLine is one projected installment.
type ScheduleLine struct {
	Sequence  int       `json:"sequence"`
	DueDate   time.Time `json:"due_date"`
	Principal float64   `json:"principal"`
	Interest  float64   `json:"interest"`
	Total     float64   `json:"total"`
	Balance   float64   `json:"balance"` // loan balance remaining after this installment
}

// Schedule is a full amortization projection plus its aggregates.
type Schedule struct {
	Method        Method         `json:"method"`
	Lines         []ScheduleLine `json:"lines"`
	Payment       float64        `json:"payment"`       // fixed installment (french)
	FirstPayment  float64        `json:"first_payment"` // first installment total (german declines from here)
	LastPayment   float64        `json:"last_payment"`
	TotalInterest float64        `json:"total_interest"`
	TotalPayable  float64        `json:"total_payable"`
}

// Generate produces the amortization schedule for the given parameters.
// Unknown methods amortize as french, mirroring PeriodRate's monthly default.
func Generate(p ScheduleParams) (*Schedule, error) {
	if p.Principal <= 0 {
		return nil, ErrInvalidPrincipal
	}
	if p.NominalRate < 0 {
		return nil, ErrInvalidRate
	}
	if p.Term < 1 {
		return nil, ErrInvalidTerm
	}

	if p.Method == MethodGerman {
		return generateGerman(p), nil
	}
	return generateFrench(p), nil
}

// generateFrench amortizes with a fixed annuity payment
// A = P·r·(1+r)^n / ((1+r)^n − 1). A zero rate degenerates to equal principal
// slices with no interest, which keeps the annuity formula out of a 0/0.
// The final installment's principal is forced to the remaining balance so
// the schedule retires the loan exactly, absorbing rounding residue.
func generateFrench(p ScheduleParams) *Schedule {
	r := PeriodRate(p.NominalRate, p.RatePeriod, p.Frequency)
	n := p.Term

	var payment float64
	if r == 0 {
		payment = p.Principal / float64(n)
	} else {
		factor := math.Pow(1+r, float64(n))
		payment = p.Principal * r * factor / (factor - 1)
	}

	s := &Schedule{Method: MethodFrench, Payment: Round(payment)}
	balance := p.Principal
	due := p.FirstDueDate
	totalInterest := 0.0

	for i := 1; i <= n; i++ {
		interest := Round(balance * r)
		principal := Round(payment - interest)
		if i == n {
			principal = Round(balance)
		}
		balance = Round(balance - principal)
		totalInterest = Round(totalInterest + interest)

		s.Lines = append(s.Lines, ScheduleLine{
			Sequence:  i,
			DueDate:   due,
			Principal: principal,
			Interest:  interest,
			Total:     Round(principal + interest),
			Balance:   math.Max(balance, 0),
		})
		due = NextDueDate(due, p.Frequency)
	}

	s.FirstPayment = s.Lines[0].Total
	s.LastPayment = s.Lines[n-1].Total
	s.TotalInterest = totalInterest
	s.TotalPayable = Round(p.Principal + totalInterest)
	return s
}

// generateGerman amortizes with a constant principal portion P/n; interest is
// charged on the declining balance so the installment total shrinks each
// period. The last installment picks up the principal rounding residue.
func generateGerman(p ScheduleParams) *Schedule {
	r := PeriodRate(p.NominalRate, p.RatePeriod, p.Frequency)
	n := p.Term
	fixed := Round(p.Principal / float64(n))

	s := &Schedule{Method: MethodGerman}
	balance := p.Principal
	due := p.FirstDueDate
	totalInterest := 0.0

	for i := 1; i <= n; i++ {
		interest := Round(balance * r)
		principal := fixed
		if i == n {
			principal = Round(balance)
		}
		balance = Round(balance - principal)
		totalInterest = Round(totalInterest + interest)

		s.Lines = append(s.Lines, ScheduleLine{
			Sequence:  i,
			DueDate:   due,
			Principal: principal,
			Interest:  interest,
			Total:     Round(principal + interest),
			Balance:   math.Max(balance, 0),
		})
		due = NextDueDate(due, p.Frequency)
	}

	s.Payment = s.Lines[0].Total
	s.FirstPayment = s.Lines[0].Total
	s.LastPayment = s.Lines[n-1].Total
	s.TotalInterest = totalInterest
	s.TotalPayable = Round(p.Principal + totalInterest)
	return s
}

// NextDueDate advances a due date by one payment period. Weekly and biweekly
// add fixed calendar days (7 and 15). Monthly uses AddDate, which normalizes
// short months (Jan 31 + 1 month lands in early March); the same policy is
// applied on every period so due days never drift silently.
func NextDueDate(t time.Time, freq Frequency) time.Time {
	switch freq {
	case FrequencyWeekly:
		return t.AddDate(0, 0, 7)
	case FrequencyBiweekly:
		return t.AddDate(0, 0, 15)
	default:
		return t.AddDate(0, 1, 0)
	}
}

// LastDueDate returns the due date of the final installment of a term.
func LastDueDate(first time.Time, term int, freq Frequency) time.Time {
	due := first
	for i := 1; i < term; i++ {
		due = NextDueDate(due, freq)
	}
	return due
}
