package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSNFromEnv(t *testing.T) {
	t.Setenv("PG_DSN", "")
	t.Setenv("PG_HOST", "db")
	t.Setenv("PG_PORT", "")
	t.Setenv("PG_USER", "pma")
	t.Setenv("PG_PASSWORD", "secret")
	t.Setenv("PG_DB", "")
	t.Setenv("PG_SSLMODE", "")
	assert.Equal(t, "postgres://pma:secret@db:5432/geopma?sslmode=disable", BuildPostgresDSNFromEnv())

	t.Setenv("PG_DSN", "postgres://x@y/z")
	assert.Equal(t, "postgres://x@y/z", BuildPostgresDSNFromEnv())
}

func TestOpenPostgresPoolSize(t *testing.T) {
	// sql.Open 不建立连接，只校验池配置
	t.Setenv("PG_MAX_OPEN_CONNS", "")
	db, err := OpenPostgres("postgres://pma@localhost:5432/geopma?sslmode=disable")
	require.NoError(t, err)
	assert.Equal(t, 4, db.Stats().MaxOpenConnections)
	require.NoError(t, db.Close())

	t.Setenv("PG_MAX_OPEN_CONNS", "2")
	t.Setenv("PG_DSN", "postgres://pma@localhost:5432/geopma?sslmode=disable")
	db, err = OpenPostgresFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 2, db.Stats().MaxOpenConnections)
	require.NoError(t, db.Close())
}

func TestOpenRedisFromEnvUnset(t *testing.T) {
	t.Setenv("REDIS_HOST", "")
	assert.Nil(t, OpenRedisFromEnv())
}
