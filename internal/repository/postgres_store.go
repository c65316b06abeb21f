package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresStore struct {
	pool      *pgxpool.Pool
	db        DBTX
	txTimeout time.Duration
}

// NewPostgresStore returns a Store backed by the pool. txTimeout bounds each
// transaction; zero disables the bound.
func NewPostgresStore(pool *pgxpool.Pool, txTimeout time.Duration) Store {
	return &postgresStore{pool: pool, db: pool, txTimeout: txTimeout}
}

func (s *postgresStore) Users() UserRepository {
	return &userRepository{db: s.db}
}

func (s *postgresStore) Attendance() AttendanceRepository {
	return &attendanceRepository{db: s.db}
}

func (s *postgresStore) Tickets() TicketRepository {
	return &ticketRepository{db: s.db}
}

func (s *postgresStore) History() TicketHistoryRepository {
	return &ticketHistoryRepository{db: s.db}
}

func (s *postgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	// Already inside a transaction.
	if s.pool == nil {
		return fn(ctx, s)
	}
	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, &postgresStore{db: tx})
	})
}

func (s *postgresStore) Ping(ctx context.Context) error {
	if s.pool == nil {
		return errors.New("postgres pool not configured")
	}
	return s.pool.Ping(ctx)
}

// translate maps driver errors onto repository sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &ConflictError{Field: conflictField(pgErr.ConstraintName)}
	}
	return err
}

func conflictField(constraint string) string {
	switch {
	case strings.Contains(constraint, "email"):
		return "email"
	case strings.Contains(constraint, "national_id"):
		return "national_id"
	case strings.Contains(constraint, "work_date"):
		return "work_date"
	default:
		return constraint
	}
}
