package sqlstore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/interest-engine/store/sqlstore"
)

func TestRebind(t *testing.T) {
	q := `SELECT value FROM index_records WHERE index_name = ? AND record_date BETWEEN ? AND ?`

	assert.Equal(t, q, sqlstore.SQLite.Rebind(q))
	assert.Equal(t,
		`SELECT value FROM index_records WHERE index_name = $1 AND record_date BETWEEN $2 AND $3`,
		sqlstore.Postgres.Rebind(q))
}

func TestDialectString(t *testing.T) {
	assert.Equal(t, "sqlite", sqlstore.SQLite.String())
	assert.Equal(t, "postgres", sqlstore.Postgres.String())
}
