/*
store.go - Lookup interface for index series

PURPOSE:
  Defines the boundary between the calculation core and whatever holds the
  index series (SQLite, PostgreSQL, memory). The core only reads.

KEY INTERFACES:
  IndexStore:  Range query, nearest-record fallback, registry listing
  IndexWriter: Registration and append, used by importers and seeders only

REGISTRY:
  Every series is addressed by an IndexName that must already be registered.
  Implementations resolve the name through a fixed registry (a table keyed by
  name, or a map) and bind it as a query parameter. A name never selects a
  table or any other structural part of a query. Unknown names return
  ErrIndexNotFound.

NEAREST FALLBACK:
  When a range has no records, QueryNearest returns the best available pair:
    1. anterior:  latest record with date <= start
    2. posterior: earliest record with date >= end
    3. anterior is included when found
    4. posterior is included when found and dated differently from anterior
    5. if neither exists, the latest record of the whole series
    6. an empty series yields nothing

IMPLEMENTATIONS:
  - engine/store/memory.go: In-memory, for tests and the memory driver
  - store/sqlite: SQLite
  - store/postgres: PostgreSQL (lib/pq)

SEE ALSO:
  - correction.go: Consumer of QueryRange/QueryNearest
  - store/sqlstore: Shared SQL implementation
*/
package engine

import "context"

// =============================================================================
// INDEX STORE - Read side
// =============================================================================

type IndexStore interface {
	// QueryRange returns the records with start <= date <= end, ascending.
	QueryRange(ctx context.Context, name IndexName, start, end Date) ([]IndexRecord, error)

	// QueryNearest returns at most two records around [start, end].
	QueryNearest(ctx context.Context, name IndexName, start, end Date) ([]IndexRecord, error)

	// ListIndices returns the registry, ordered by name.
	ListIndices(ctx context.Context) ([]IndexInfo, error)
}

// =============================================================================
// INDEX WRITER - Feed side
// =============================================================================

type IndexWriter interface {
	IndexStore

	// RegisterIndex adds name to the registry. Registering twice updates the description.
	RegisterIndex(ctx context.Context, name IndexName, description string) error

	// AppendRecords adds records to a registered series. Records dated on an
	// existing date are skipped; the number actually inserted is returned.
	AppendRecords(ctx context.Context, name IndexName, records []IndexRecord) (int, error)
}

// =============================================================================
// NEAREST - Pure fallback over an ascending series
// =============================================================================

// NearestFrom applies the nearest-record fallback to an ascending series.
func NearestFrom(series []IndexRecord, start, end Date) []IndexRecord {
	if len(series) == 0 {
		return nil
	}

	var anterior, posterior *IndexRecord
	for i := range series {
		if series[i].Date.BeforeOrEqual(start) {
			anterior = &series[i]
		}
	}
	for i := range series {
		if series[i].Date.AfterOrEqual(end) {
			posterior = &series[i]
			break
		}
	}

	var out []IndexRecord
	if anterior != nil {
		out = append(out, *anterior)
	}
	if posterior != nil && (anterior == nil || !posterior.Date.Equal(anterior.Date)) {
		out = append(out, *posterior)
	}
	if len(out) == 0 {
		out = append(out, series[len(series)-1])
	}
	return out
}
