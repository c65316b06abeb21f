package repository

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/ops-desk/internal/domain"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("unique constraint violated")
)

// ConflictError names the field whose uniqueness was violated.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return "unique constraint violated on " + e.Field
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
}

// AttendanceRepository persists one record per (user, work date).
type AttendanceRepository interface {
	Create(ctx context.Context, record *domain.AttendanceRecord) error
	Update(ctx context.Context, record *domain.AttendanceRecord) error
	GetByUserAndDate(ctx context.Context, userID int64, workDate time.Time) (*domain.AttendanceRecord, error)
	// GetByUserAndDateForUpdate locks the row until the enclosing transaction ends.
	GetByUserAndDateForUpdate(ctx context.Context, userID int64, workDate time.Time) (*domain.AttendanceRecord, error)
	// ListByDateRange returns records with start <= work_date <= end ordered by
	// work_date, then user_id.
	ListByDateRange(ctx context.Context, start, end time.Time) ([]domain.AttendanceRecord, error)
}

// TicketFilter narrows ticket listings. Nil fields are ignored.
type TicketFilter struct {
	ClientID   *int64
	AssignedTo *int64
	Statuses   []domain.TicketStatus
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Ticket, error)
	// List returns matching tickets ordered by id ascending.
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

// TicketHistoryRepository stores audit entries.
type TicketHistoryRepository interface {
	Create(ctx context.Context, entry *domain.TicketHistory) error
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error)
}

// Store groups the repositories and runs units of work atomically.
type Store interface {
	Users() UserRepository
	Attendance() AttendanceRepository
	Tickets() TicketRepository
	History() TicketHistoryRepository
	// WithinTx runs fn against a transactional view of the store. Writes made
	// through tx are committed only if fn returns nil.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
	Ping(ctx context.Context) error
}
