package persistence

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/spec-kit/ops-desk/internal/config"
)

func TestDisabledBackends(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	pg, err := NewPostgres(ctx, config.PostgresConfig{}, logger)
	require.NoError(t, err)
	assert.Nil(t, pg.PoolHandle())
	assert.Error(t, pg.Ping(ctx))
	pg.Close()

	redis := NewRedis(ctx, config.RedisConfig{}, logger)
	assert.False(t, redis.Enabled())
	assert.ErrorIs(t, redis.Ping(ctx), ErrRedisDisabled)
	redis.Close()
}

func TestRunMigrationsWithoutPool(t *testing.T) {
	assert.NoError(t, RunMigrations(context.Background(), nil, "does-not-matter", zap.NewNop()))
}

func TestZapQueryLoggerMapsLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zapQueryLogger(zap.New(core))

	log(context.Background(), tracelog.LogLevelError, "Query", map[string]any{"sql": "SELECT 1"})
	log(context.Background(), tracelog.LogLevelTrace, "Prepare", nil)

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "SELECT 1", entries[0].ContextMap()["sql"])
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
}

func TestSQLiteMemoryPool(t *testing.T) {
	ctx := context.Background()
	prepared := 0
	db, err := OpenSQLite(config.SQLiteConfig{Path: MemoryPath, PoolSize: 8}, zap.NewNop(), func(conn *sqlite.Conn) error {
		prepared++
		return sqlitex.ExecuteTransient(conn, "CREATE TABLE marker (id INTEGER)", nil)
	})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Ping(ctx))
	conn, err := db.Take(ctx)
	require.NoError(t, err)
	require.NoError(t, sqlitex.ExecuteTransient(conn, "INSERT INTO marker (id) VALUES (1)", nil))
	db.Put(conn)

	conn, err = db.Take(ctx)
	require.NoError(t, err)
	var count int64
	require.NoError(t, sqlitex.ExecuteTransient(conn, "SELECT COUNT(*) FROM marker", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			count = stmt.ColumnInt64(0)
			return nil
		},
	}))
	db.Put(conn)

	assert.Equal(t, int64(1), count)
	assert.Equal(t, 1, prepared)
}

func TestSQLiteClosedPoolPing(t *testing.T) {
	var db *SQLite
	assert.Error(t, db.Ping(context.Background()))
	assert.NoError(t, db.Close())
}
