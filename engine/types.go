/*
Package engine provides the calculation core shared by every interest formula.

PURPOSE:
  Holds the domain-agnostic pieces of the interest engine: calendar dates and
  inclusive day counting, index series records and the store interface used
  to look them up, and the monetary corrector that folds a series into a
  compounding multiplier.

KEY CONCEPTS IN THIS FILE (types.go):
  - IndexName: Key into the fixed registry of index series
  - IndexRecord: One period's correction rate (a percentage)
  - IndexInfo: Registry entry shown to presentation layers

DESIGN PRINCIPLES:
  1. Records are immutable and owned by the store; the core only reads them
  2. Index values are decimal.Decimal at rest, float64 inside the factor
  3. An index name is data, never part of a query's structure

SEE ALSO:
  - daycount.go: Inclusive day counting
  - store.go: IndexStore interface and the nearest-record fallback
  - correction.go: Monetary correction
*/
package engine

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type IndexName string

var indexNamePattern = regexp.MustCompile(`^[a-z0-9_]{1,64}$`)

// Validate checks the name against the registry naming rule.
func (n IndexName) Validate() error {
	if !indexNamePattern.MatchString(string(n)) {
		return fmt.Errorf("%w: %q", ErrInvalidIndexName, string(n))
	}
	return nil
}

func (n IndexName) String() string { return string(n) }

// =============================================================================
// INDEX RECORDS
// =============================================================================

// IndexRecord is one point of an index series. Value is a percentage,
// e.g. 0.53 means 0.53%.
type IndexRecord struct {
	Date  Date
	Value decimal.Decimal
}

func NewIndexRecord(date Date, value float64) IndexRecord {
	return IndexRecord{Date: date, Value: decimal.NewFromFloat(value)}
}

// Multiplier returns 1 + value/100.
func (r IndexRecord) Multiplier() float64 {
	return 1 + r.Value.InexactFloat64()/100
}

// IndexInfo describes a registered index series.
type IndexInfo struct {
	Name        IndexName
	Description string
	Records     int
	First       Date
	Last        Date
}
