/*
calculator.go - One calculation, start to finish

PURPOSE:
  Runs the data flow for a single request:

    CalculationInput
      -> DaysBetween(range)            (0 days: ErrNoPeriod, nothing computed)
      -> Corrector.Correct(principal)  (only when a correction is attached)
      -> Formula.Compute(terms)      (overflow: ErrNotFinite)
      -> Calculation

  Nothing is kept between calls. Two calls with the same input against an
  unchanged store return the same Calculation.

SEE ALSO:
  - engine/correction.go: Correction statuses
  - formulas.go: The four variants
*/
package interest

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/warp/interest-engine/engine"
)

// Calculation is everything a presentation layer needs to render a result.
type Calculation struct {
	Input      CalculationInput
	Formula    Kind
	Days       int
	Correction engine.Correction
	Result     Result
}

type Calculator struct {
	Corrector *engine.Corrector
	Log       logrus.FieldLogger
}

func NewCalculator(corrector *engine.Corrector, log logrus.FieldLogger) *Calculator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Calculator{Corrector: corrector, Log: log}
}

// Calculate applies the optional correction and then f.
func (c *Calculator) Calculate(ctx context.Context, in CalculationInput, f Formula) (*Calculation, error) {
	days := engine.DaysBetween(in.Range.Start, in.Range.End)
	if days == 0 {
		return nil, engine.ErrNoPeriod
	}

	principal := in.Principal.InexactFloat64()
	corr := engine.Uncorrected(principal, engine.StatusNotRequested)
	if in.Correction != nil {
		corr = c.correct(ctx, principal, in.Correction)
	}

	result := f.Compute(Terms{
		Principal: corr.Amount,
		Rate:      in.Rate.InexactFloat64(),
		Days:      days,
	})
	if !result.finite() || !isFinite(corr.Factor, corr.Amount) {
		return nil, fmt.Errorf("%s over %d days: %w", f.Kind(), days, engine.ErrNotFinite)
	}

	c.Log.WithFields(logrus.Fields{
		"formula":    f.Kind(),
		"days":       days,
		"correction": corr.Status,
		"interest":   result.Summary().Interest.String(),
	}).Debug("calculation complete")

	return &Calculation{
		Input:      in,
		Formula:    f.Kind(),
		Days:       days,
		Correction: corr,
		Result:     result,
	}, nil
}

func (c *Calculator) correct(ctx context.Context, principal float64, ci *CorrectionInput) engine.Correction {
	if c.Corrector == nil {
		return engine.Uncorrected(principal, engine.StatusMissingInput)
	}
	if ci.Nearest {
		return c.Corrector.CorrectNearest(ctx, principal, ci.Index, ci.Range)
	}
	return c.Corrector.Correct(ctx, principal, ci.Index, ci.Range)
}
