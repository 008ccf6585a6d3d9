package finance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGenerateFrench_Annuity(t *testing.T) {
	s, err := Generate(ScheduleParams{
		Principal:    500000,
		NominalRate:  5,
		RatePeriod:   RatePeriodMonthly,
		Term:         12,
		Frequency:    FrequencyMonthly,
		Method:       MethodFrench,
		FirstDueDate: date(2026, time.January, 15),
	})
	require.NoError(t, err)
	require.Len(t, s.Lines, 12)

	// A = P·r·(1+r)^n / ((1+r)^n − 1) = 56412.71 for 5% monthly over 12
	assert.InDelta(t, 56412.71, s.Payment, 0.01)

	first := s.Lines[0]
	assert.Equal(t, 1, first.Sequence)
	assert.InDelta(t, 25000.00, first.Interest, 0.001)
	assert.InDelta(t, 31412.71, first.Principal, 0.001)

	// Every installment but the last carries the fixed annuity total.
	for _, line := range s.Lines[:11] {
		assert.InDelta(t, s.Payment, line.Total, 0.01, "installment %d", line.Sequence)
	}

	// The last installment absorbs the rounding residue so the principal
	// retires exactly and the balance lands on zero.
	var principalSum float64
	for _, line := range s.Lines {
		principalSum = Round(principalSum + line.Principal)
	}
	assert.Equal(t, 500000.00, principalSum)
	assert.Equal(t, 0.0, s.Lines[11].Balance)

	assert.InDelta(t, 176952.44, s.TotalInterest, 0.02)
	assert.InDelta(t, 676952.44, s.TotalPayable, 0.02)
}

func TestGenerateFrench_ZeroRate(t *testing.T) {
	s, err := Generate(ScheduleParams{
		Principal:    1200,
		NominalRate:  0,
		RatePeriod:   RatePeriodMonthly,
		Term:         4,
		Frequency:    FrequencyMonthly,
		Method:       MethodFrench,
		FirstDueDate: date(2026, time.March, 1),
	})
	require.NoError(t, err)

	for _, line := range s.Lines {
		assert.Equal(t, 0.0, line.Interest)
		assert.Equal(t, 300.00, line.Principal)
	}
	assert.Equal(t, 0.0, s.TotalInterest)
	assert.Equal(t, 1200.00, s.TotalPayable)
	assert.Equal(t, 0.0, s.Lines[3].Balance)
}

func TestGenerateGerman_EqualPrincipal(t *testing.T) {
	s, err := Generate(ScheduleParams{
		Principal:    120000,
		NominalRate:  2,
		RatePeriod:   RatePeriodMonthly,
		Term:         6,
		Frequency:    FrequencyMonthly,
		Method:       MethodGerman,
		FirstDueDate: date(2026, time.February, 10),
	})
	require.NoError(t, err)
	require.Len(t, s.Lines, 6)

	// Constant principal portion, strictly declining interest.
	for i, line := range s.Lines {
		assert.Equal(t, 20000.00, line.Principal)
		if i > 0 {
			assert.Less(t, line.Interest, s.Lines[i-1].Interest)
		}
	}
	assert.Equal(t, 22400.00, s.FirstPayment)
	assert.Equal(t, 20400.00, s.LastPayment)
	assert.Equal(t, 8400.00, s.TotalInterest)
	assert.Equal(t, 0.0, s.Lines[5].Balance)
}

func TestGenerate_Validation(t *testing.T) {
	base := ScheduleParams{
		Principal:    1000,
		NominalRate:  5,
		RatePeriod:   RatePeriodMonthly,
		Term:         6,
		Frequency:    FrequencyMonthly,
		FirstDueDate: date(2026, time.January, 1),
	}

	p := base
	p.Principal = 0
	_, err := Generate(p)
	assert.ErrorIs(t, err, ErrInvalidPrincipal)

	p = base
	p.NominalRate = -1
	_, err = Generate(p)
	assert.ErrorIs(t, err, ErrInvalidRate)

	p = base
	p.Term = 0
	_, err = Generate(p)
	assert.ErrorIs(t, err, ErrInvalidTerm)
}

func TestNextDueDate(t *testing.T) {
	start := date(2026, time.January, 31)

	assert.Equal(t, date(2026, time.February, 7), NextDueDate(start, FrequencyWeekly))
	assert.Equal(t, date(2026, time.February, 15), NextDueDate(start, FrequencyBiweekly))
	// AddDate normalizes Jan 31 + 1 month into March.
	assert.Equal(t, date(2026, time.March, 3), NextDueDate(start, FrequencyMonthly))
	// Unknown frequencies advance monthly.
	assert.Equal(t, date(2026, time.March, 3), NextDueDate(start, Frequency("daily")))
}

func TestLastDueDate(t *testing.T) {
	first := date(2026, time.January, 15)
	assert.Equal(t, date(2026, time.December, 15), LastDueDate(first, 12, FrequencyMonthly))
	assert.Equal(t, date(2026, time.January, 15), LastDueDate(first, 1, FrequencyMonthly))
	assert.Equal(t, date(2026, time.March, 1), LastDueDate(first, 4, FrequencyBiweekly))
}

func TestPeriodRate(t *testing.T) {
	cases := []struct {
		name    string
		nominal float64
		period  RatePeriod
		freq    Frequency
		want    float64
	}{
		{"annual weekly", 52, RatePeriodAnnual, FrequencyWeekly, 0.01},
		{"annual biweekly", 24, RatePeriodAnnual, FrequencyBiweekly, 0.01},
		{"annual monthly", 12, RatePeriodAnnual, FrequencyMonthly, 0.01},
		{"monthly weekly", 4, RatePeriodMonthly, FrequencyWeekly, 0.01},
		{"monthly biweekly", 2, RatePeriodMonthly, FrequencyBiweekly, 0.01},
		{"monthly monthly", 5, RatePeriodMonthly, FrequencyMonthly, 0.05},
		{"unknown frequency treated as monthly", 5, RatePeriodMonthly, Frequency("daily"), 0.05},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, PeriodRate(tc.nominal, tc.period, tc.freq), 1e-12)
		})
	}
}

func TestRound_HalfUp(t *testing.T) {
	assert.Equal(t, 10.01, Round(10.005))
	assert.Equal(t, 10.0, Round(10.004))
	assert.Equal(t, 0.0, Round(0))
	assert.Equal(t, 350.00, Round(10000*0.005*7))
}
