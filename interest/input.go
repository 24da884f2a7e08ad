/*
input.go - Raw form input to CalculationInput

PURPOSE:
  Presentation shells hand over user-typed strings. This file parses them,
  normalises decimal-comma amounts and validates what a calculation needs,
  so the calculator itself only ever sees well-formed values.

RULES:
  - Amounts accept "1234.56", "1234,56" and "1.234,56". Empty means zero.
  - Principal and rate must not be negative.
  - Both interest dates are required and must parse.
  - day_base and divide_by are optional positive integers (0 = default).
  - Correction is attached only when requested AND index, correction start
    and correction end are all present. Correction dates are parsed leniently:
    an unparseable one becomes absent and the corrector reports it.

SEE ALSO:
  - engine/date.go: Accepted date layouts
  - calculator.go: Consumer of CalculationInput
*/
package interest

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/interest-engine/engine"
)

// =============================================================================
// INPUT TYPES
// =============================================================================

// RawInput carries form fields exactly as typed.
type RawInput struct {
	Principal       string
	Rate            string
	Start           string
	End             string
	DayBase         string
	DivideBy        string
	ApplyCorrection bool
	Index           string
	CorrectionStart string
	CorrectionEnd   string
	Nearest         bool
}

// CalculationInput is built fresh for every calculation and never persisted.
type CalculationInput struct {
	Principal  decimal.Decimal
	Rate       decimal.Decimal
	Range      engine.DateRange
	DayBase    int // 0 = formula default
	DivideBy   int // 0 = formula default
	Correction *CorrectionInput
}

type CorrectionInput struct {
	Index engine.IndexName
	Range engine.DateRange

	// Nearest opts into the nearest-record fallback when the range is empty.
	Nearest bool
}

// DayBaseOr returns the input's day base, or def when unset.
func (in CalculationInput) DayBaseOr(def int) int {
	if in.DayBase > 0 {
		return in.DayBase
	}
	return def
}

// DivideByOr returns the input's divisor, or def when unset.
func (in CalculationInput) DivideByOr(def int) int {
	if in.DivideBy > 0 {
		return in.DivideBy
	}
	return def
}

// =============================================================================
// VALIDATION ERROR
// =============================================================================

// ValidationError lists every field that failed, keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return engine.ErrInvalidInput }

// =============================================================================
// PARSING
// =============================================================================

// ParseInput validates raw and builds a CalculationInput.
func ParseInput(raw RawInput) (CalculationInput, error) {
	var in CalculationInput
	fields := map[string]string{}

	var err error
	if in.Principal, err = ParseAmount(raw.Principal); err != nil {
		fields["principal"] = err.Error()
	} else if in.Principal.IsNegative() {
		fields["principal"] = "must not be negative"
	}

	if in.Rate, err = ParseAmount(raw.Rate); err != nil {
		fields["rate"] = err.Error()
	} else if in.Rate.IsNegative() {
		fields["rate"] = "must not be negative"
	}

	if in.Range.Start, err = engine.ParseDateStrict(raw.Start); err != nil {
		fields["start"] = err.Error()
	}
	if in.Range.End, err = engine.ParseDateStrict(raw.End); err != nil {
		fields["end"] = err.Error()
	}

	if in.DayBase, err = parseOptionalPositive(raw.DayBase); err != nil {
		fields["day_base"] = err.Error()
	}
	if in.DivideBy, err = parseOptionalPositive(raw.DivideBy); err != nil {
		fields["divide_by"] = err.Error()
	}

	if raw.ApplyCorrection && raw.Index != "" && raw.CorrectionStart != "" && raw.CorrectionEnd != "" {
		name := engine.IndexName(strings.TrimSpace(raw.Index))
		if err := name.Validate(); err != nil {
			fields["index"] = err.Error()
		}
		in.Correction = &CorrectionInput{
			Index: name,
			Range: engine.NewDateRange(
				engine.ParseDate(raw.CorrectionStart),
				engine.ParseDate(raw.CorrectionEnd),
			),
			Nearest: raw.Nearest,
		}
	}

	if len(fields) > 0 {
		return CalculationInput{}, &ValidationError{Fields: fields}
	}
	return in, nil
}

// ParseAmount parses a user-typed decimal, accepting a decimal comma.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return decimal.Zero, nil
	}

	if strings.Contains(s, ",") {
		// "1.234,56": dots group thousands, the comma is the decimal mark
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number: %q", s)
	}
	return d, nil
}

func parseOptionalPositive(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return n, nil
}
