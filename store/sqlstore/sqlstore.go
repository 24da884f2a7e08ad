/*
Package sqlstore is the database/sql implementation of engine.IndexWriter.

PURPOSE:
  SQLite and PostgreSQL hold index series in the same two tables and answer
  the same queries. This package owns those queries; the driver packages
  only open the connection and pick the Dialect.

KEY TABLES:
  indices:       The registry. One row per series, keyed by name.
  index_records: (index_name, record_date, value). One value per date.

  Dates are stored as ISO text (YYYY-MM-DD) so ordering and BETWEEN work
  the same on both databases. Values are stored as decimal text.

REGISTRY:
  An index name is always a bound parameter checked against indices. The
  name never reaches the query text. Unknown names return
  engine.ErrIndexNotFound.

DIALECTS:
  Queries are written with ? placeholders. Postgres rebinds them to $1..$n.

SEE ALSO:
  - engine/store.go: Interface and nearest-record rules
  - store/sqlite, store/postgres: Drivers
*/
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/warp/interest-engine/engine"
)

// Dialect selects placeholder syntax.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// Rebind rewrites ? placeholders for the dialect.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const schema = `
	CREATE TABLE IF NOT EXISTS indices (
		name TEXT PRIMARY KEY,
		description TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS index_records (
		index_name TEXT NOT NULL REFERENCES indices(name),
		record_date TEXT NOT NULL,
		value TEXT NOT NULL,
		UNIQUE (index_name, record_date)
	);

	CREATE INDEX IF NOT EXISTS idx_index_records_name_date
		ON index_records(index_name, record_date);
`

// Store implements engine.IndexWriter over database/sql.
type Store struct {
	db      *sql.DB
	dialect Dialect
	mu      sync.RWMutex
}

// New migrates db and returns a Store. The caller owns db.
func New(db *sql.DB, dialect Dialect) (*Store, error) {
	s := &Store{db: db, dialect: dialect}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dialect reports which database the store talks to.
func (s *Store) Dialect() Dialect { return s.dialect }

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) registered(ctx context.Context, q queryer, name engine.IndexName) error {
	var one int
	err := q.QueryRowContext(ctx, s.dialect.Rebind(`SELECT 1 FROM indices WHERE name = ?`), string(name)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", engine.ErrIndexNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("failed to resolve index %s: %w", name, err)
	}
	return nil
}

// =============================================================================
// WRITE SIDE
// =============================================================================

// RegisterIndex adds name to the registry, or updates its description.
func (s *Store) RegisterIndex(ctx context.Context, name engine.IndexName, description string) error {
	if err := name.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO indices (name, description) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET description = excluded.description
	`
	if _, err := s.db.ExecContext(ctx, s.dialect.Rebind(query), string(name), description); err != nil {
		return fmt.Errorf("failed to register index %s: %w", name, err)
	}
	return nil
}

// AppendRecords inserts records atomically, skipping dates already present.
func (s *Store) AppendRecords(ctx context.Context, name engine.IndexName, records []engine.IndexRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.registered(ctx, tx, name); err != nil {
		return 0, err
	}

	query := s.dialect.Rebind(`
		INSERT INTO index_records (index_name, record_date, value) VALUES (?, ?, ?)
		ON CONFLICT (index_name, record_date) DO NOTHING
	`)

	inserted := 0
	for _, r := range records {
		if r.Date.IsZero() {
			continue
		}
		res, err := tx.ExecContext(ctx, query, string(name), r.Date.String(), r.Value.String())
		if err != nil {
			return 0, fmt.Errorf("failed to append %s %s: %w", name, r.Date, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit records: %w", err)
	}
	return inserted, nil
}

// Reset deletes every record and registry entry.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"index_records", "indices"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// READ SIDE
// =============================================================================

// QueryRange returns the records with start <= date <= end, ascending.
func (s *Store) QueryRange(ctx context.Context, name engine.IndexName, start, end engine.Date) ([]engine.IndexRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.registered(ctx, s.db, name); err != nil {
		return nil, err
	}

	query := `
		SELECT record_date, value FROM index_records
		WHERE index_name = ? AND record_date BETWEEN ? AND ?
		ORDER BY record_date ASC
	`
	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(query), string(name), start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", name, err)
	}
	defer rows.Close()

	var records []engine.IndexRecord
	for rows.Next() {
		var date, value string
		if err := rows.Scan(&date, &value); err != nil {
			return nil, err
		}
		r, err := toRecord(date, value)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// QueryNearest returns at most two records around [start, end].
func (s *Store) QueryNearest(ctx context.Context, name engine.IndexName, start, end engine.Date) ([]engine.IndexRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.registered(ctx, s.db, name); err != nil {
		return nil, err
	}

	anterior, err := s.queryOne(ctx, `
		SELECT record_date, value FROM index_records
		WHERE index_name = ? AND record_date <= ?
		ORDER BY record_date DESC LIMIT 1
	`, string(name), start.String())
	if err != nil {
		return nil, err
	}

	posterior, err := s.queryOne(ctx, `
		SELECT record_date, value FROM index_records
		WHERE index_name = ? AND record_date >= ?
		ORDER BY record_date ASC LIMIT 1
	`, string(name), end.String())
	if err != nil {
		return nil, err
	}

	var out []engine.IndexRecord
	if anterior != nil {
		out = append(out, *anterior)
	}
	if posterior != nil && (anterior == nil || !posterior.Date.Equal(anterior.Date)) {
		out = append(out, *posterior)
	}
	if len(out) > 0 {
		return out, nil
	}

	latest, err := s.queryOne(ctx, `
		SELECT record_date, value FROM index_records
		WHERE index_name = ?
		ORDER BY record_date DESC LIMIT 1
	`, string(name))
	if err != nil || latest == nil {
		return nil, err
	}
	return []engine.IndexRecord{*latest}, nil
}

// ListIndices returns the registry with per-series counts, ordered by name.
func (s *Store) ListIndices(ctx context.Context) ([]engine.IndexInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT i.name, i.description, COUNT(r.record_date),
		       COALESCE(MIN(r.record_date), ''), COALESCE(MAX(r.record_date), '')
		FROM indices i
		LEFT JOIN index_records r ON r.index_name = i.name
		GROUP BY i.name, i.description
		ORDER BY i.name ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list indices: %w", err)
	}
	defer rows.Close()

	var infos []engine.IndexInfo
	for rows.Next() {
		var (
			info        engine.IndexInfo
			name        string
			first, last string
		)
		if err := rows.Scan(&name, &info.Description, &info.Records, &first, &last); err != nil {
			return nil, err
		}
		info.Name = engine.IndexName(name)
		info.First = engine.ParseDate(first)
		info.Last = engine.ParseDate(last)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func (s *Store) queryOne(ctx context.Context, query string, args ...any) (*engine.IndexRecord, error) {
	var date, value string
	err := s.db.QueryRowContext(ctx, s.dialect.Rebind(query), args...).Scan(&date, &value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query nearest record: %w", err)
	}
	r, err := toRecord(date, value)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func toRecord(date, value string) (engine.IndexRecord, error) {
	d, err := engine.ParseDateStrict(date)
	if err != nil {
		return engine.IndexRecord{}, fmt.Errorf("corrupt record date %q: %w", date, err)
	}
	v, err := decimal.NewFromString(value)
	if err != nil {
		return engine.IndexRecord{}, fmt.Errorf("corrupt record value %q: %w", value, err)
	}
	return engine.IndexRecord{Date: d, Value: v}, nil
}
