// Package metrics holds the pure numeric and coercion helpers shared by the
// analysis engine. Every function here is side-effect free; the string
// coercions (ParseBool, ParseAffectedLines) are the only place the loosely
// encoded source values are interpreted, and they fail soft rather than
// propagate malformed input.
package metrics

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marginguard/marginguard/pkg/dataset"
)

// LaborCost is the fully burdened cost of a single worker-day entry:
// (hours_st + hours_ot * 1.5) * hourly_rate * burden_multiplier.
func LaborCost(l dataset.LaborLog) float64 {
	return (l.HoursST + l.HoursOT*1.5) * l.HourlyRate * l.BurdenMultiplier
}

// OvertimePremium is only the incremental overtime cost beyond straight
// time: hours_ot * 0.5 * hourly_rate * burden_multiplier.
func OvertimePremium(l dataset.LaborLog) float64 {
	return l.HoursOT * 0.5 * l.HourlyRate * l.BurdenMultiplier
}

// SafeDivide returns n/d, or 0 when the denominator is zero. Ratio
// computations all route through here so a missing denominator can never
// produce NaN or Inf.
func SafeDivide(n, d float64) float64 {
	if d == 0 {
		return 0
	}
	return n / d
}

// Round rounds half-up to the given number of decimal places.
func Round(v float64, decimals int) float64 {
	return decimal.NewFromFloat(v).Round(int32(decimals)).InexactFloat64()
}

// RoundMoney rounds a dollar amount to whole dollars.
func RoundMoney(v float64) float64 { return Round(v, 0) }

// RoundPct rounds a percentage to one decimal place.
func RoundPct(v float64) float64 { return Round(v, 1) }

// Week buckets a YYYY-MM-DD date into a "YYYY-Wnn" label using
// day-of-year/7 with a year-start weekday offset. Labels sort
// lexicographically within a year. Unparseable dates return "".
func Week(dateStr string) string {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(dateStr))
	if err != nil {
		return ""
	}
	yearStart := time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	days := d.YearDay() - 1
	week := (days + int(yearStart.Weekday()) + 1 + 6) / 7
	return fmt.Sprintf("%d-W%02d", d.Year(), week)
}

// ParseBool normalizes the loosely typed impact flags: native booleans pass
// through and "true"/"false" strings match case-insensitively. Anything
// else is false.
func ParseBool(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return strings.EqualFold(strings.TrimSpace(val), "true")
	default:
		return false
	}
}

// ParseAffectedLines parses a single-quoted list literal such as
// "['SOV-01', 'SOV-02']" into its elements. Null, empty, "[]" and malformed
// input all return an empty slice; it never panics.
func ParseAffectedLines(v string) []string {
	s := strings.TrimSpace(v)
	if s == "" || s == "[]" {
		return []string{}
	}
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return []string{}
	}
	inner := s[1 : len(s)-1]

	var out []string
	for {
		start := strings.IndexAny(inner, `'"`)
		if start < 0 {
			break
		}
		quote := inner[start]
		rest := inner[start+1:]
		end := strings.IndexByte(rest, quote)
		if end < 0 {
			// Unterminated quote: the whole literal is malformed.
			return []string{}
		}
		out = append(out, rest[:end])
		inner = rest[end+1:]
	}
	if out == nil {
		return []string{}
	}
	return out
}
