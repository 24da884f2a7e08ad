/*
correction.go - Monetary correction by a compounding index series

PURPOSE:
  Folds the records of an index series over a date range into a single
  multiplier and applies it to a base amount before interest is computed.

ALGORITHM:
  factor = (1 + v1/100) * (1 + v2/100) * ... * (1 + vn/100)
  corrected = base * factor

  Records are multiplied left to right in ascending date order.

FAILURE POLICY:
  Correction never aborts a calculation. Every degraded outcome returns the
  base amount unchanged and is reported through Correction.Status:

    StatusCorrected         records found, factor applied
    StatusCorrectedNearest  range empty, nearest records applied (opt-in)
    StatusNotRequested      caller did not ask for correction
    StatusMissingInput      index name or a range date is absent
    StatusEmptySeries       range matched no records
    StatusFault             the store returned an error

  Correct never falls back to QueryNearest. Only CorrectNearest does.

SEE ALSO:
  - store.go: IndexStore and the nearest fallback
  - interest/calculator.go: Applies the correction to the principal
*/
package engine

import (
	"context"

	"github.com/sirupsen/logrus"
)

// =============================================================================
// CORRECTION RESULT
// =============================================================================

type CorrectionStatus string

const (
	StatusCorrected        CorrectionStatus = "corrected"
	StatusCorrectedNearest CorrectionStatus = "corrected_nearest"
	StatusNotRequested     CorrectionStatus = "not_requested"
	StatusMissingInput     CorrectionStatus = "uncorrected_missing_input"
	StatusEmptySeries      CorrectionStatus = "uncorrected_empty_series"
	StatusFault            CorrectionStatus = "uncorrected_fault"
)

// Applied reports whether the amount differs from the base by a factor.
func (s CorrectionStatus) Applied() bool {
	return s == StatusCorrected || s == StatusCorrectedNearest
}

type Correction struct {
	Index   IndexName
	Range   DateRange
	Base    float64
	Amount  float64
	Factor  float64
	Records []IndexRecord
	Status  CorrectionStatus
	Err     error // set only for StatusFault
}

// Uncorrected returns the identity correction with the given status.
func Uncorrected(base float64, status CorrectionStatus) Correction {
	return Correction{Base: base, Amount: base, Factor: 1, Status: status}
}

// CompoundFactor multiplies (1 + v/100) over records in the order given.
func CompoundFactor(records []IndexRecord) float64 {
	factor := 1.0
	for _, r := range records {
		factor *= r.Multiplier()
	}
	return factor
}

// =============================================================================
// CORRECTOR
// =============================================================================

type Corrector struct {
	Store IndexStore
	Log   logrus.FieldLogger
}

func NewCorrector(store IndexStore, log logrus.FieldLogger) *Corrector {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Corrector{Store: store, Log: log}
}

// Correct applies the series over rng to base. An empty range leaves base unchanged.
func (c *Corrector) Correct(ctx context.Context, base float64, name IndexName, rng DateRange) Correction {
	return c.correct(ctx, base, name, rng, false)
}

// CorrectNearest is Correct with the nearest-record fallback for empty ranges.
func (c *Corrector) CorrectNearest(ctx context.Context, base float64, name IndexName, rng DateRange) Correction {
	return c.correct(ctx, base, name, rng, true)
}

func (c *Corrector) correct(ctx context.Context, base float64, name IndexName, rng DateRange, nearest bool) Correction {
	if name == "" || !rng.IsComplete() || c.Store == nil {
		return c.tag(Uncorrected(base, StatusMissingInput), name, rng)
	}

	records, err := c.Store.QueryRange(ctx, name, rng.Start, rng.End)
	if err != nil {
		return c.fault(base, name, rng, err)
	}

	status := StatusCorrected
	if len(records) == 0 {
		if !nearest {
			return c.tag(Uncorrected(base, StatusEmptySeries), name, rng)
		}
		records, err = c.Store.QueryNearest(ctx, name, rng.Start, rng.End)
		if err != nil {
			return c.fault(base, name, rng, err)
		}
		if len(records) == 0 {
			return c.tag(Uncorrected(base, StatusEmptySeries), name, rng)
		}
		status = StatusCorrectedNearest
	}

	factor := CompoundFactor(records)
	return Correction{
		Index:   name,
		Range:   rng,
		Base:    base,
		Amount:  base * factor,
		Factor:  factor,
		Records: records,
		Status:  status,
	}
}

func (c *Corrector) fault(base float64, name IndexName, rng DateRange, err error) Correction {
	c.Log.WithFields(logrus.Fields{
		"index": name,
		"start": rng.Start.String(),
		"end":   rng.End.String(),
	}).WithError(err).Warn("monetary correction skipped")

	corr := c.tag(Uncorrected(base, StatusFault), name, rng)
	corr.Err = err
	return corr
}

func (c *Corrector) tag(corr Correction, name IndexName, rng DateRange) Correction {
	corr.Index = name
	corr.Range = rng
	return corr
}
