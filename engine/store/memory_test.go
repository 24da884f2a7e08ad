package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/interest-engine/engine"
	"github.com/warp/interest-engine/engine/store"
	"github.com/warp/interest-engine/store/storetest"
)

func TestMemory_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) engine.IndexWriter {
		return store.NewMemory()
	})
}

func TestMemory_FailAndReset(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	require.NoError(t, m.RegisterIndex(ctx, "ipca", ""))

	m.Fail = errors.New("disk on fire")
	_, err := m.QueryRange(ctx, "ipca", engine.NewDate(2024, time.January, 1), engine.NewDate(2024, time.January, 31))
	assert.EqualError(t, err, "disk on fire")
	_, err = m.ListIndices(ctx)
	assert.Error(t, err)

	m.Fail = nil
	require.NoError(t, m.Reset(ctx))
	infos, err := m.ListIndices(ctx)
	require.NoError(t, err)
	assert.Empty(t, infos)
}
