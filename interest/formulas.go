/*
Package interest implements the interest formulas and the calculation flow.

PURPOSE:
  Four stateless formula variants share one Compute capability. Each variant
  produces its own result record holding every intermediate quantity, so the
  presentation layer can show how the numbers were reached.

VARIANTS:
  SimpleMonthly:          earned = P * (rate/100 * days/30)
  SimpleAnnualCommercial: earned = P * rate/100 * days/360
  SimpleAnnualProRata:    earned = P * rate/100 * ((days/dayBase) / divideBy)
  CompoundAnnual:         total = P * (1 + rate/100)^((days/dayBase)/12)

ROUNDING:
  Interest and Total are rounded to 2 places (half away from zero) when the
  result is built. Every intermediate (months, exponent, factor) is kept as
  an unrounded float64.

NO VALIDATION:
  Formulas compute; they never validate. A zero day base or NaN rate flows
  through the arithmetic. Validation happens in ParseInput.

SEE ALSO:
  - results.go: Result records
  - calculator.go: Correction + formula orchestration
  - factory/formula.go: Named formula presets
*/
package interest

import (
	"math"

	"github.com/warp/interest-engine/engine"
)

// =============================================================================
// FORMULA - Closed set of variants
// =============================================================================

type Kind string

const (
	KindSimpleMonthly       Kind = "simple_monthly"
	KindSimpleAnnual        Kind = "simple_annual"
	KindSimpleAnnualProRata Kind = "simple_annual_prorata"
	KindCompoundAnnual      Kind = "compound_annual"
)

// Kinds lists every formula kind in display order.
func Kinds() []Kind {
	return []Kind{KindSimpleMonthly, KindSimpleAnnual, KindSimpleAnnualProRata, KindCompoundAnnual}
}

// DefaultDivideBy pro-rates a month count into a fraction of a year.
const DefaultDivideBy = 12

// Terms are the numeric inputs shared by every formula. Principal is the
// possibly-corrected amount.
type Terms struct {
	Principal float64
	Rate      float64 // percent
	Days      int
}

// Formula is implemented only by the variants in this file.
type Formula interface {
	Kind() Kind
	Compute(t Terms) Result
	isFormula()
}

// =============================================================================
// SIMPLE MONTHLY
// =============================================================================

// SimpleMonthly applies a monthly rate linearly over days/30 months.
type SimpleMonthly struct{}

func (SimpleMonthly) Kind() Kind { return KindSimpleMonthly }
func (SimpleMonthly) isFormula() {}

func (SimpleMonthly) Compute(t Terms) Result {
	months := engine.Months(t.Days, engine.DefaultDayBase)
	earned := t.Principal * ((t.Rate / 100) * months)
	return &SimpleMonthlyResult{
		Amounts: newAmounts(t.Principal, earned, t.Principal+earned),
		Rate:    t.Rate,
		Days:    t.Days,
		Months:  months,
	}
}

// =============================================================================
// SIMPLE ANNUAL (COMMERCIAL YEAR)
// =============================================================================

// SimpleAnnualCommercial pro-rates an annual rate by days/360. DayBase only
// feeds the informational month count.
type SimpleAnnualCommercial struct {
	DayBase int
}

func (SimpleAnnualCommercial) Kind() Kind { return KindSimpleAnnual }
func (SimpleAnnualCommercial) isFormula() {}

func (f SimpleAnnualCommercial) Compute(t Terms) Result {
	yearFraction := float64(t.Days) / engine.CommercialYear
	earned := t.Principal * (t.Rate / 100) * yearFraction
	return &SimpleAnnualResult{
		Amounts:        newAmounts(t.Principal, earned, t.Principal+earned),
		Rate:           t.Rate,
		Days:           t.Days,
		DayBase:        f.DayBase,
		Months:         engine.Months(t.Days, f.DayBase),
		YearFraction:   yearFraction,
		AppliedPercent: t.Rate * yearFraction,
	}
}

// =============================================================================
// SIMPLE ANNUAL (PRO-RATA BY MONTHS)
// =============================================================================

// SimpleAnnualProRata pro-rates an annual rate by (days/DayBase)/DivideBy.
type SimpleAnnualProRata struct {
	DayBase  int
	DivideBy int
}

func (SimpleAnnualProRata) Kind() Kind { return KindSimpleAnnualProRata }
func (SimpleAnnualProRata) isFormula() {}

func (f SimpleAnnualProRata) Compute(t Terms) Result {
	months := engine.Months(t.Days, f.DayBase)
	fraction := months / float64(f.DivideBy)
	earned := t.Principal * (t.Rate / 100) * fraction
	return &SimpleAnnualProRataResult{
		Amounts:        newAmounts(t.Principal, earned, t.Principal+earned),
		Rate:           t.Rate,
		Days:           t.Days,
		DayBase:        f.DayBase,
		DivideBy:       f.DivideBy,
		Months:         months,
		MonthsFraction: fraction,
	}
}

// =============================================================================
// COMPOUND ANNUAL
// =============================================================================

// CompoundAnnual compounds an annual rate with a fractional exponent of
// (days/DayBase)/12 years.
type CompoundAnnual struct {
	DayBase int
}

func (CompoundAnnual) Kind() Kind { return KindCompoundAnnual }
func (CompoundAnnual) isFormula() {}

func (f CompoundAnnual) Compute(t Terms) Result {
	rate := t.Rate / 100
	months := engine.Months(t.Days, f.DayBase)
	exponent := months / 12
	factor := math.Pow(1+rate, exponent)
	total := t.Principal * factor
	earned := total - t.Principal
	return &CompoundAnnualResult{
		Amounts:    newAmounts(t.Principal, earned, total),
		Rate:       t.Rate,
		Days:       t.Days,
		DayBase:    f.DayBase,
		Months:     months,
		YearMonths: 12,
		Exponent:   exponent,
		BaseFactor: 1 + rate,
		Factor:     factor,
	}
}
