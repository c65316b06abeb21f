// Package sqlitestore implements repository.Store on SQLite. It backs the
// service when no Postgres DSN is configured and runs the tests.
package sqlitestore

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/spec-kit/ops-desk/internal/config"
	"github.com/spec-kit/ops-desk/internal/persistence"
	"github.com/spec-kit/ops-desk/internal/repository"
)

// Store is a repository.Store over a SQLite pool. Inside WithinTx the store
// is pinned to the connection holding the transaction.
type Store struct {
	db   *persistence.SQLite
	conn *sqlite.Conn
}

// Open opens the pool and creates the schema on every connection.
func Open(cfg config.SQLiteConfig, logger *zap.Logger) (*Store, error) {
	db, err := persistence.OpenSQLite(cfg, logger, ApplySchema)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// OpenMemory opens a private in-memory store.
func OpenMemory() (*Store, error) {
	return Open(config.SQLiteConfig{Path: persistence.MemoryPath}, nil)
}

// Close releases the pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping implements repository.Store.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// WithinTx runs fn in an IMMEDIATE transaction, which takes the database
// write lock up front so concurrent read-check-write sequences serialize.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) (err error) {
	if s.conn != nil {
		return fn(ctx, s)
	}
	conn, err := s.db.Take(ctx)
	if err != nil {
		return err
	}
	defer s.db.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return err
	}
	defer endTransaction(&err)

	if err = fn(ctx, &Store{db: s.db, conn: conn}); err != nil {
		return err
	}
	return ctx.Err()
}

func (s *Store) Users() repository.UserRepository { return userRepo{s} }
func (s *Store) Attendance() repository.AttendanceRepository { return attendanceRepo{s} }
func (s *Store) Tickets() repository.TicketRepository { return ticketRepo{s} }
func (s *Store) History() repository.TicketHistoryRepository { return historyRepo{s} }

func (s *Store) withConn(ctx context.Context, fn func(conn *sqlite.Conn) error) error {
	if s.conn != nil {
		return translate(fn(s.conn))
	}
	conn, err := s.db.Take(ctx)
	if err != nil {
		return err
	}
	defer s.db.Put(conn)
	return translate(fn(conn))
}

// queryRow runs query and scans at most one row, returning ErrNotFound when
// nothing matched.
func (s *Store) queryRow(ctx context.Context, query string, args []any, scan func(stmt *sqlite.Stmt)) error {
	return s.withConn(ctx, func(conn *sqlite.Conn) error {
		found := false
		err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args: args,
			ResultFunc: func(stmt *sqlite.Stmt) error {
				found = true
				scan(stmt)
				return nil
			},
		})
		if err != nil {
			return err
		}
		if !found {
			return repository.ErrNotFound
		}
		return nil
	})
}

func (s *Store) query(ctx context.Context, query string, args []any, scan func(stmt *sqlite.Stmt)) error {
	return s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args: args,
			ResultFunc: func(stmt *sqlite.Stmt) error {
				scan(stmt)
				return nil
			},
		})
	})
}

// insert runs an INSERT and returns the new row id.
func (s *Store) insert(ctx context.Context, query string, args []any) (int64, error) {
	var id int64
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		if err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{Args: args}); err != nil {
			return err
		}
		id = conn.LastInsertRowID()
		return nil
	})
	return id, err
}

// update runs an UPDATE and returns ErrNotFound when no row changed.
func (s *Store) update(ctx context.Context, query string, args []any) error {
	return s.withConn(ctx, func(conn *sqlite.Conn) error {
		if err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{Args: args}); err != nil {
			return err
		}
		if conn.Changes() == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}

// translate maps SQLite constraint failures onto repository sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if sqlite.ErrCode(err) == sqlite.ResultConstraintUnique {
		return &repository.ConflictError{Field: conflictField(err.Error())}
	}
	return err
}

// conflictField reads the column from "UNIQUE constraint failed: table.column".
func conflictField(message string) string {
	switch {
	case strings.Contains(message, "users.email"):
		return "email"
	case strings.Contains(message, "users.national_id"):
		return "national_id"
	case strings.Contains(message, "attendance.user_id"), strings.Contains(message, "attendance.work_date"):
		return "work_date"
	default:
		return message
	}
}

const dateLayout = time.DateOnly

func encodeTime(t time.Time) int64 {
	return t.UnixNano()
}

func decodeTime(nanos int64) time.Time {
	return time.Unix(0, nanos).UTC()
}

func encodeOptionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixNano()
}

func decodeOptionalTime(stmt *sqlite.Stmt, col int) *time.Time {
	if stmt.ColumnIsNull(col) {
		return nil
	}
	t := decodeTime(stmt.ColumnInt64(col))
	return &t
}

func encodeOptionalID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func decodeOptionalID(stmt *sqlite.Stmt, col int) *int64 {
	if stmt.ColumnIsNull(col) {
		return nil
	}
	id := stmt.ColumnInt64(col)
	return &id
}

func encodeDate(t time.Time) string {
	return t.Format(dateLayout)
}

func decodeDate(raw string) time.Time {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

var _ repository.Store = (*Store)(nil)
