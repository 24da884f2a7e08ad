/*
Package sqlite provides a SQLite-backed engine.IndexWriter.

PURPOSE:
  Opens a SQLite database and hands it to sqlstore, which owns the schema
  and the queries. PostgreSQL uses the same tables (see store/postgres).

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Readers don't block the importer
  - Single writer at a time
  - Better crash recovery

CONNECTIONS:
  The pool is capped at one connection. ":memory:" databases are private
  to a connection, so a second one would see an empty schema.

USAGE:
  store, err := sqlite.New("./data/indices.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  corrector := engine.NewCorrector(store, log)

SEE ALSO:
  - store/sqlstore: Schema and queries
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/interest-engine/store/sqlstore"
)

// Store implements engine.IndexWriter using SQLite.
type Store struct {
	*sqlstore.Store
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s, err := sqlstore.New(db, sqlstore.SQLite)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{Store: s}, nil
}
