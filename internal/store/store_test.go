package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geo-pma/internal/feature"
	"geo-pma/internal/ingest"
	"geo-pma/internal/migrate"
)

// 需要可写的 Postgres：PG_TEST_DSN=postgres://...
func openTestDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("PG_TEST_DSN")
	if dsn == "" {
		t.Skip("PG_TEST_DSN not set")
	}
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrate.EnsureSchema(db))
	return db
}

func TestArchiveRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	a := ingest.NewArchive(db)
	st := AttachDB(db)

	run, err := a.BeginRun(ctx)
	require.NoError(t, err)

	lines := make([]string, ingest.BatchSize+3)
	for i := range lines {
		lines[i] = "Fixos_ICAO_ _X_Padrão_1_2_0\n"
	}
	require.NoError(t, a.WriteLines(ctx, run, feature.KindWaypoint, lines))
	require.NoError(t, a.WriteLines(ctx, run, feature.KindVOR, []string{"VOR_112.00_A_B_Padrão_1_2_0\n"}))
	require.NoError(t, a.FinishRun(ctx, run, ingest.StatusOK))

	got, err := st.Lines(ctx, run, feature.KindWaypoint)
	require.NoError(t, err)
	assert.Len(t, got, len(lines))

	kinds, err := st.Kinds(ctx, run)
	require.NoError(t, err)
	assert.Equal(t, []KindCount{{feature.KindVOR, 1}, {feature.KindWaypoint, int64(len(lines))}}, kinds)

	latest, err := st.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, run, latest)

	runs, err := st.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, ingest.StatusOK, runs[0].Status)
	assert.NotNil(t, runs[0].FinishedAt)

	_, err = st.PruneRuns(ctx, 1)
	require.NoError(t, err)
	runs, err = st.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestPruneRunsRejectsZero(t *testing.T) {
	st := AttachDB(nil)
	_, err := st.PruneRuns(context.Background(), 0)
	assert.Error(t, err)
}
