package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/warp/interest-engine/engine"
	"github.com/warp/interest-engine/store/postgres"
	"github.com/warp/interest-engine/store/storetest"
)

// Set INTEREST_TEST_POSTGRES_DSN to run against a live database. Each
// subtest starts from an empty schema.
func TestPostgres_Contract(t *testing.T) {
	dsn := os.Getenv("INTEREST_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("INTEREST_TEST_POSTGRES_DSN not set")
	}

	storetest.Run(t, func(t *testing.T) engine.IndexWriter {
		ctx := context.Background()
		s, err := postgres.New(ctx, dsn)
		require.NoError(t, err)
		require.NoError(t, s.Reset(ctx))
		t.Cleanup(func() { s.Close() })
		return s
	})
}
