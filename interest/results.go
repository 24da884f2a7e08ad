package interest

import (
	"math"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RESULT - One record shape per formula variant
// =============================================================================

// Result is implemented only by the records in this file. Use a type switch
// to reach the variant-specific intermediates.
type Result interface {
	Kind() Kind
	Summary() Amounts
	// finite reports whether every number in the record is finite. A record
	// that overflowed has no meaningful cents or JSON form.
	finite() bool
}

// Amounts are the monetary outputs common to every variant. Interest and
// Total are rounded to cents; Principal is the amount interest was computed on.
type Amounts struct {
	Principal float64         `json:"principal"`
	Interest  decimal.Decimal `json:"interest"`
	Total     decimal.Decimal `json:"total"`

	overflow bool // interest or total was not finite before rounding
}

func (a Amounts) Summary() Amounts { return a }

func newAmounts(principal, interest, total float64) Amounts {
	return Amounts{
		Principal: principal,
		Interest:  roundCents(interest),
		Total:     roundCents(total),
		overflow:  !isFinite(interest) || !isFinite(total),
	}
}

func (a Amounts) finite() bool { return !a.overflow && isFinite(a.Principal) }

func isFinite(v ...float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// roundCents rounds half away from zero. NaN and infinities have no decimal
// form and come out as zero.
func roundCents(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v).Round(2)
}

type SimpleMonthlyResult struct {
	Amounts
	Rate   float64 `json:"rate"`
	Days   int     `json:"days"`
	Months float64 `json:"months"`
}

func (*SimpleMonthlyResult) Kind() Kind { return KindSimpleMonthly }
func (r *SimpleMonthlyResult) finite() bool {
	return r.Amounts.finite() && isFinite(r.Rate, r.Months)
}

type SimpleAnnualResult struct {
	Amounts
	Rate           float64 `json:"rate"`
	Days           int     `json:"days"`
	DayBase        int     `json:"day_base"`
	Months         float64 `json:"months"`
	YearFraction   float64 `json:"year_fraction"`   // days/360
	AppliedPercent float64 `json:"applied_percent"` // rate * days/360
}

func (*SimpleAnnualResult) Kind() Kind { return KindSimpleAnnual }
func (r *SimpleAnnualResult) finite() bool {
	return r.Amounts.finite() && isFinite(r.Rate, r.Months, r.YearFraction, r.AppliedPercent)
}

type SimpleAnnualProRataResult struct {
	Amounts
	Rate           float64 `json:"rate"`
	Days           int     `json:"days"`
	DayBase        int     `json:"day_base"`
	DivideBy       int     `json:"divide_by"`
	Months         float64 `json:"months"`          // days/dayBase
	MonthsFraction float64 `json:"months_fraction"` // months/divideBy
}

func (*SimpleAnnualProRataResult) Kind() Kind { return KindSimpleAnnualProRata }
func (r *SimpleAnnualProRataResult) finite() bool {
	return r.Amounts.finite() && isFinite(r.Rate, r.Months, r.MonthsFraction)
}

type CompoundAnnualResult struct {
	Amounts
	Rate       float64 `json:"rate"`
	Days       int     `json:"days"`
	DayBase    int     `json:"day_base"`
	Months     float64 `json:"months"`
	YearMonths int     `json:"year_months"`
	Exponent   float64 `json:"exponent"`    // months/12
	BaseFactor float64 `json:"base_factor"` // 1 + rate/100
	Factor     float64 `json:"factor"`      // BaseFactor^Exponent
}

func (*CompoundAnnualResult) Kind() Kind { return KindCompoundAnnual }
func (r *CompoundAnnualResult) finite() bool {
	return r.Amounts.finite() && isFinite(r.Rate, r.Months, r.Exponent, r.BaseFactor, r.Factor)
}
