// Package storetest holds the behaviour every engine.IndexWriter must share.
// Each store package runs it against its own backend.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/interest-engine/engine"
)

func d(y int, m time.Month, day int) engine.Date { return engine.NewDate(y, m, day) }

// seed registers "ipca" with records on Jan 15, Feb 15 and Mar 15 2024.
func seed(t *testing.T, s engine.IndexWriter) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.RegisterIndex(ctx, "ipca", "Consumer prices"))
	n, err := s.AppendRecords(ctx, "ipca", []engine.IndexRecord{
		engine.NewIndexRecord(d(2024, time.March, 15), 0.16),
		engine.NewIndexRecord(d(2024, time.January, 15), 0.42),
		engine.NewIndexRecord(d(2024, time.February, 15), 0.83),
	})
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func dates(records []engine.IndexRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Date.String()
	}
	return out
}

// Run exercises newStore against the shared contract. newStore must return
// an empty store.
func Run(t *testing.T, newStore func(t *testing.T) engine.IndexWriter) {
	ctx := context.Background()

	t.Run("range is ascending and inclusive", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		got, err := s.QueryRange(ctx, "ipca", d(2024, time.January, 15), d(2024, time.February, 15))
		require.NoError(t, err)
		assert.Equal(t, []string{"2024-01-15", "2024-02-15"}, dates(got))
		assert.Equal(t, "0.42", got[0].Value.String())
	})

	t.Run("reversed range is empty", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		got, err := s.QueryRange(ctx, "ipca", d(2024, time.March, 31), d(2024, time.January, 1))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("duplicate dates are skipped", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		n, err := s.AppendRecords(ctx, "ipca", []engine.IndexRecord{
			engine.NewIndexRecord(d(2024, time.January, 15), 9.99),
			engine.NewIndexRecord(d(2024, time.April, 15), 0.38),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		got, err := s.QueryRange(ctx, "ipca", d(2024, time.January, 15), d(2024, time.January, 15))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "0.42", got[0].Value.String(), "first write wins")
	})

	t.Run("unknown index", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		_, err := s.QueryRange(ctx, "selic", d(2024, time.January, 1), d(2024, time.December, 31))
		assert.ErrorIs(t, err, engine.ErrIndexNotFound)

		_, err = s.QueryNearest(ctx, "selic", d(2024, time.January, 1), d(2024, time.December, 31))
		assert.ErrorIs(t, err, engine.ErrIndexNotFound)

		_, err = s.AppendRecords(ctx, "selic", []engine.IndexRecord{engine.NewIndexRecord(d(2024, time.January, 1), 1)})
		assert.ErrorIs(t, err, engine.ErrIndexNotFound)
	})

	t.Run("name with sql is rejected", func(t *testing.T) {
		s := newStore(t)

		err := s.RegisterIndex(ctx, "ipca; DROP TABLE indices", "")
		assert.ErrorIs(t, err, engine.ErrInvalidIndexName)

		_, err = s.QueryRange(ctx, "ipca' OR '1'='1", d(2024, time.January, 1), d(2024, time.December, 31))
		assert.ErrorIs(t, err, engine.ErrIndexNotFound)
	})

	t.Run("nearest anterior and posterior", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		got, err := s.QueryNearest(ctx, "ipca", d(2024, time.January, 20), d(2024, time.February, 10))
		require.NoError(t, err)
		assert.Equal(t, []string{"2024-01-15", "2024-02-15"}, dates(got))
	})

	t.Run("nearest same record once", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		got, err := s.QueryNearest(ctx, "ipca", d(2024, time.February, 15), d(2024, time.February, 15))
		require.NoError(t, err)
		assert.Equal(t, []string{"2024-02-15"}, dates(got))
	})

	t.Run("nearest only posterior", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		got, err := s.QueryNearest(ctx, "ipca", d(2023, time.June, 1), d(2023, time.December, 1))
		require.NoError(t, err)
		assert.Equal(t, []string{"2024-01-15"}, dates(got))
	})

	t.Run("nearest only anterior", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		got, err := s.QueryNearest(ctx, "ipca", d(2024, time.June, 1), d(2024, time.December, 1))
		require.NoError(t, err)
		assert.Equal(t, []string{"2024-03-15"}, dates(got))
	})

	t.Run("nearest empty series", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.RegisterIndex(ctx, "igpm", ""))

		got, err := s.QueryNearest(ctx, "igpm", d(2024, time.January, 1), d(2024, time.December, 31))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("list indices", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)
		require.NoError(t, s.RegisterIndex(ctx, "igpm", "General prices"))
		require.NoError(t, s.RegisterIndex(ctx, "ipca", "IPCA"))

		infos, err := s.ListIndices(ctx)
		require.NoError(t, err)
		require.Len(t, infos, 2)

		assert.Equal(t, engine.IndexName("igpm"), infos[0].Name)
		assert.Equal(t, 0, infos[0].Records)
		assert.True(t, infos[0].First.IsZero())

		assert.Equal(t, engine.IndexName("ipca"), infos[1].Name)
		assert.Equal(t, "IPCA", infos[1].Description, "registering twice updates the description")
		assert.Equal(t, 3, infos[1].Records)
		assert.Equal(t, "2024-01-15", infos[1].First.String())
		assert.Equal(t, "2024-03-15", infos[1].Last.String())
	})

	t.Run("corrector over store", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		c := engine.NewCorrector(s, nil)
		corr := c.Correct(ctx, 1000, "ipca", engine.NewDateRange(d(2024, time.January, 1), d(2024, time.March, 31)))

		assert.Equal(t, engine.StatusCorrected, corr.Status)
		assert.Len(t, corr.Records, 3)
		assert.InDelta(t, 1000*1.0042*1.0083*1.0016, corr.Amount, 1e-9)
	})
}
