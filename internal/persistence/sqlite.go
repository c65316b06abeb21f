package persistence

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/spec-kit/ops-desk/internal/config"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// SQLite is a fixed-size pool of SQLite connections used when no Postgres
// DSN is configured. Connections are not safe for concurrent use; each
// caller must Take its own and Put it back.
type SQLite struct {
	inner  *sqlitex.Pool
	logger *zap.Logger
	path   string
}

// OpenSQLite opens the pool. onConnect runs once per connection after the
// standard pragmas, typically to create the schema. An in-memory database is
// private to its connection, so the pool size is forced to one.
func OpenSQLite(cfg config.SQLiteConfig, logger *zap.Logger, onConnect func(conn *sqlite.Conn) error) (*SQLite, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	path := cfg.Path
	if path == "" {
		path = MemoryPath
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = runtime.NumCPU()
		if poolSize < 4 {
			poolSize = 4
		}
	}
	if path == MemoryPath {
		poolSize = 1
	}

	inner, err := sqlitex.NewPool(path, sqlitex.PoolOptions{
		PoolSize: poolSize,
		PrepareConn: func(conn *sqlite.Conn) error {
			return prepareSQLiteConn(conn, onConnect)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening %s: %w", path, err)
	}

	logger.Info("sqlite pool opened", zap.String("path", path), zap.Int("pool_size", poolSize))
	return &SQLite{inner: inner, logger: logger, path: path}, nil
}

// Take borrows a connection, blocking until one is free or ctx ends.
func (s *SQLite) Take(ctx context.Context) (*sqlite.Conn, error) {
	conn, err := s.inner.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlite: take: %w", err)
	}
	return conn, nil
}

// Put returns a connection to the pool. Nil is ignored.
func (s *SQLite) Put(conn *sqlite.Conn) {
	if conn == nil {
		return
	}
	s.inner.Put(conn)
}

// Ping verifies a connection can run a statement.
func (s *SQLite) Ping(ctx context.Context) error {
	if s == nil || s.inner == nil {
		return errors.New("sqlite pool not open")
	}
	conn, err := s.Take(ctx)
	if err != nil {
		return err
	}
	defer s.Put(conn)
	return sqlitex.ExecuteTransient(conn, "SELECT 1", nil)
}

// Close waits for borrowed connections and closes the pool.
func (s *SQLite) Close() error {
	if s == nil || s.inner == nil {
		return nil
	}
	if err := s.inner.Close(); err != nil {
		s.logger.Error("sqlite pool close error", zap.String("path", s.path), zap.Error(err))
		return fmt.Errorf("sqlite: closing %s: %w", s.path, err)
	}
	s.logger.Info("sqlite pool closed", zap.String("path", s.path))
	return nil
}

func prepareSQLiteConn(conn *sqlite.Conn, onConnect func(*sqlite.Conn) error) error {
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}
	if onConnect != nil {
		if err := onConnect(conn); err != nil {
			return fmt.Errorf("sqlite: prepare connection: %w", err)
		}
	}
	return nil
}
