/*
errors.go - Centralized error types for the calculation core

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers wrap these with context and test them with errors.Is.

ERROR CATEGORIES:
  1. Input errors - Unparseable dates, invalid index names, bad amounts
  2. Lookup errors - Unknown index series
  3. Calculation errors - Empty interest period, overflowing result

The corrector never returns an error. It reports a Status on the
Correction instead.

SEE ALSO:
  - correction.go: CorrectionStatus
  - interest/input.go: ValidationError
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDate is returned by strict date parsing.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidIndexName is returned when a name does not match the registry rule.
	ErrInvalidIndexName = errors.New("invalid index name")

	// ErrIndexNotFound is returned when a name is not in the registry.
	ErrIndexNotFound = errors.New("index not found")

	// ErrInvalidInput is returned when raw calculation input fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoPeriod is returned when the interest period has zero days,
	// meaning no calculation was performed.
	ErrNoPeriod = errors.New("no interest period")

	// ErrUnknownFormula is returned for a formula kind outside the closed set.
	ErrUnknownFormula = errors.New("unknown formula")

	// ErrNotFinite is returned when the inputs overflow float64 somewhere in
	// the correction or the formula.
	ErrNotFinite = errors.New("result is not a finite number")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// RecordError points at a single bad record during import or append.
type RecordError struct {
	Index IndexName
	Line  int
	Err   error
}

func (e *RecordError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("index %s, record %d: %v", e.Index, e.Line, e.Err)
	}
	return fmt.Sprintf("index %s: %v", e.Index, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidIndexName) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrNoPeriod) ||
		errors.Is(err, ErrUnknownFormula) ||
		errors.Is(err, ErrNotFinite)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrIndexNotFound)
}
