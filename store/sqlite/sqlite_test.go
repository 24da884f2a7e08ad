package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/interest-engine/engine"
	"github.com/warp/interest-engine/store/sqlite"
	"github.com/warp/interest-engine/store/storetest"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) engine.IndexWriter {
		return newTestStore(t)
	})
}

func TestSQLite_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "indices.db")

	// GIVEN: A series written and the database closed
	s, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, s.RegisterIndex(ctx, "selic", "Policy rate"))
	_, err = s.AppendRecords(ctx, "selic", []engine.IndexRecord{
		engine.NewIndexRecord(engine.NewDate(2024, time.May, 1), 0.83),
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// WHEN: Reopened
	s, err = sqlite.New(path)
	require.NoError(t, err)
	defer s.Close()

	// THEN: Schema migration is idempotent and the data is there
	got, err := s.QueryRange(ctx, "selic", engine.NewDate(2024, time.January, 1), engine.NewDate(2024, time.December, 31))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "0.83", got[0].Value.String())
}

func TestSQLite_Reset(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.RegisterIndex(ctx, "ipca", ""))
	_, err := s.AppendRecords(ctx, "ipca", []engine.IndexRecord{
		engine.NewIndexRecord(engine.NewDate(2024, time.May, 1), 0.46),
	})
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx))

	infos, err := s.ListIndices(ctx)
	require.NoError(t, err)
	assert.Empty(t, infos)
}
