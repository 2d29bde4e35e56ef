package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marginguard/marginguard/pkg/dataset"
)

func TestLaborCostAndOvertimePremium(t *testing.T) {
	logs := []dataset.LaborLog{
		{HoursST: 8, HoursOT: 0, HourlyRate: 50, BurdenMultiplier: 1.4},
		{HoursST: 8, HoursOT: 2, HourlyRate: 50, BurdenMultiplier: 1.4},
		{HoursST: 0, HoursOT: 4, HourlyRate: 62.5, BurdenMultiplier: 1.35},
		{HoursST: 10, HoursOT: 0, HourlyRate: 0, BurdenMultiplier: 1.4},
	}

	for _, l := range logs {
		cost := LaborCost(l)
		premium := OvertimePremium(l)

		assert.GreaterOrEqual(t, cost, premium)
		assert.GreaterOrEqual(t, premium, 0.0)

		// Cost minus the premium is the straight-rate cost of all hours.
		straight := (l.HoursST + l.HoursOT) * l.HourlyRate * l.BurdenMultiplier
		assert.InDelta(t, straight, cost-premium, 1e-9)
	}

	assert.InDelta(t, (8+2*1.5)*50*1.4, LaborCost(dataset.LaborLog{
		HoursST: 8, HoursOT: 2, HourlyRate: 50, BurdenMultiplier: 1.4,
	}), 1e-9)
}

func TestSafeDivide(t *testing.T) {
	assert.Equal(t, 0.0, SafeDivide(100, 0))
	assert.Equal(t, 0.0, SafeDivide(-42.5, 0))
	assert.Equal(t, 0.0, SafeDivide(0, 17))
	assert.Equal(t, 0.0, SafeDivide(0, -17))
	assert.InDelta(t, 2.5, SafeDivide(5, 2), 1e-9)
	assert.InDelta(t, -2.5, SafeDivide(5, -2), 1e-9)
}

func TestRoundHalfUpAndIdempotent(t *testing.T) {
	assert.Equal(t, 3.0, Round(2.5, 0))
	assert.Equal(t, 2.0, Round(2.4, 0))
	assert.Equal(t, 12.35, Round(12.345, 2))
	assert.Equal(t, -3.0, Round(-2.5, 0))

	for _, v := range []float64{0, 1.005, 2.5, -17.349, 99999.995} {
		for _, d := range []int{0, 1, 2} {
			once := Round(v, d)
			assert.Equal(t, once, Round(once, d), "round must be idempotent for %v/%d", v, d)
		}
	}
}

func TestWeek(t *testing.T) {
	assert.Equal(t, "2024-W01", Week("2024-01-01"))
	assert.Equal(t, "2024-W10", Week("2024-03-04"))
	assert.Equal(t, "", Week("not-a-date"))
	assert.Equal(t, "", Week(""))

	// Later dates never sort before earlier ones within a year.
	assert.Less(t, Week("2024-02-01"), Week("2024-11-15"))
}

func TestParseBool(t *testing.T) {
	assert.True(t, ParseBool("True"))
	assert.True(t, ParseBool("true"))
	assert.True(t, ParseBool(" TRUE "))
	assert.False(t, ParseBool("false"))
	assert.False(t, ParseBool("False"))
	assert.True(t, ParseBool(true))
	assert.False(t, ParseBool(false))
	assert.False(t, ParseBool(""))
	assert.False(t, ParseBool("yes"))
	assert.False(t, ParseBool(nil))
	assert.False(t, ParseBool(1))
}

func TestParseAffectedLines(t *testing.T) {
	assert.Equal(t, []string{}, ParseAffectedLines(""))
	assert.Equal(t, []string{}, ParseAffectedLines("[]"))
	assert.Equal(t, []string{"A", "B"}, ParseAffectedLines("['A','B']"))
	assert.Equal(t, []string{"SOV-01", "SOV-02"}, ParseAffectedLines("['SOV-01', 'SOV-02']"))
	assert.Equal(t, []string{"A"}, ParseAffectedLines(`["A"]`))

	// Malformed input degrades to empty, never panics.
	assert.Equal(t, []string{}, ParseAffectedLines("[A,"))
	assert.Equal(t, []string{}, ParseAffectedLines("['A','B'"))
	assert.Equal(t, []string{}, ParseAffectedLines("['unterminated]"))
	assert.Equal(t, []string{}, ParseAffectedLines("plain text"))
}
