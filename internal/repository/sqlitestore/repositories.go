package sqlitestore

import (
	"context"
	"strings"
	"time"

	"zombiezen.com/go/sqlite"

	"github.com/spec-kit/ops-desk/internal/domain"
	"github.com/spec-kit/ops-desk/internal/repository"
)

type userRepo struct{ s *Store }

const userColumns = `id, full_name, email, phone_number, national_id, service_domain, role,
    employment_level, date_of_joining, salary_cents, certifications, password_hash,
    created_at, updated_at`

func (r userRepo) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (full_name, email, phone_number, national_id, service_domain, role,
            employment_level, date_of_joining, salary_cents, certifications, password_hash,
            created_at, updated_at)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`
	now := time.Now().UTC()
	id, err := r.s.insert(ctx, query, []any{
		user.FullName,
		user.Email,
		user.PhoneNumber,
		user.NationalID,
		user.ServiceDomain,
		string(user.Role),
		user.EmploymentLevel,
		encodeDate(user.DateOfJoining),
		user.SalaryCents,
		user.Certifications,
		user.PasswordHash,
		encodeTime(now),
		encodeTime(now),
	})
	if err != nil {
		return err
	}
	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r userRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	err := r.s.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, []any{id}, func(stmt *sqlite.Stmt) {
		user = scanUser(stmt)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.s.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, []any{email}, func(stmt *sqlite.Stmt) {
		user = scanUser(stmt)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r userRepo) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	var users []domain.User
	err := r.s.query(ctx, `SELECT `+userColumns+` FROM users WHERE role = ? ORDER BY id ASC`, []any{string(role)}, func(stmt *sqlite.Stmt) {
		users = append(users, scanUser(stmt))
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

func scanUser(stmt *sqlite.Stmt) domain.User {
	return domain.User{
		ID:              stmt.ColumnInt64(0),
		FullName:        stmt.ColumnText(1),
		Email:           stmt.ColumnText(2),
		PhoneNumber:     stmt.ColumnText(3),
		NationalID:      stmt.ColumnText(4),
		ServiceDomain:   stmt.ColumnText(5),
		Role:            domain.Role(stmt.ColumnText(6)),
		EmploymentLevel: stmt.ColumnText(7),
		DateOfJoining:   decodeDate(stmt.ColumnText(8)),
		SalaryCents:     stmt.ColumnInt64(9),
		Certifications:  stmt.ColumnText(10),
		PasswordHash:    stmt.ColumnText(11),
		CreatedAt:       decodeTime(stmt.ColumnInt64(12)),
		UpdatedAt:       decodeTime(stmt.ColumnInt64(13)),
	}
}

type attendanceRepo struct{ s *Store }

const attendanceColumns = `id, user_id, work_date, check_in, check_out`

func (r attendanceRepo) Create(ctx context.Context, record *domain.AttendanceRecord) error {
	const query = `INSERT INTO attendance (user_id, work_date, check_in, check_out) VALUES (?,?,?,?)`
	id, err := r.s.insert(ctx, query, []any{
		record.UserID,
		encodeDate(record.WorkDate),
		encodeOptionalTime(record.CheckIn),
		encodeOptionalTime(record.CheckOut),
	})
	if err != nil {
		return err
	}
	record.ID = id
	return nil
}

func (r attendanceRepo) Update(ctx context.Context, record *domain.AttendanceRecord) error {
	const query = `UPDATE attendance SET check_in = ?, check_out = ? WHERE id = ?`
	return r.s.update(ctx, query, []any{
		encodeOptionalTime(record.CheckIn),
		encodeOptionalTime(record.CheckOut),
		record.ID,
	})
}

func (r attendanceRepo) GetByUserAndDate(ctx context.Context, userID int64, workDate time.Time) (*domain.AttendanceRecord, error) {
	var record domain.AttendanceRecord
	query := `SELECT ` + attendanceColumns + ` FROM attendance WHERE user_id = ? AND work_date = ?`
	err := r.s.queryRow(ctx, query, []any{userID, encodeDate(workDate)}, func(stmt *sqlite.Stmt) {
		record = scanAttendance(stmt)
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetByUserAndDateForUpdate relies on the IMMEDIATE transaction already
// holding the write lock; SQLite has no row locks.
func (r attendanceRepo) GetByUserAndDateForUpdate(ctx context.Context, userID int64, workDate time.Time) (*domain.AttendanceRecord, error) {
	return r.GetByUserAndDate(ctx, userID, workDate)
}

func (r attendanceRepo) ListByDateRange(ctx context.Context, start, end time.Time) ([]domain.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance
        WHERE work_date >= ? AND work_date <= ?
        ORDER BY work_date ASC, user_id ASC`
	records := []domain.AttendanceRecord{}
	err := r.s.query(ctx, query, []any{encodeDate(start), encodeDate(end)}, func(stmt *sqlite.Stmt) {
		records = append(records, scanAttendance(stmt))
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func scanAttendance(stmt *sqlite.Stmt) domain.AttendanceRecord {
	return domain.AttendanceRecord{
		ID:       stmt.ColumnInt64(0),
		UserID:   stmt.ColumnInt64(1),
		WorkDate: decodeDate(stmt.ColumnText(2)),
		CheckIn:  decodeOptionalTime(stmt, 3),
		CheckOut: decodeOptionalTime(stmt, 4),
	}
}

type ticketRepo struct{ s *Store }

const ticketColumns = `id, client_id, service_type, description, assigned_to, status, created_at, updated_at`

func (r ticketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (client_id, service_type, description, assigned_to, status, created_at, updated_at)
        VALUES (?,?,?,?,?,?,?)`
	id, err := r.s.insert(ctx, query, []any{
		ticket.ClientID,
		string(ticket.ServiceType),
		ticket.Description,
		encodeOptionalID(ticket.AssignedTo),
		string(ticket.Status),
		encodeTime(ticket.CreatedAt),
		encodeTime(ticket.UpdatedAt),
	})
	if err != nil {
		return err
	}
	ticket.ID = id
	return nil
}

func (r ticketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `UPDATE tickets SET assigned_to = ?, status = ?, updated_at = ? WHERE id = ?`
	return r.s.update(ctx, query, []any{
		encodeOptionalID(ticket.AssignedTo),
		string(ticket.Status),
		encodeTime(ticket.UpdatedAt),
		ticket.ID,
	})
}

func (r ticketRepo) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	var ticket domain.Ticket
	err := r.s.queryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, []any{id}, func(stmt *sqlite.Stmt) {
		ticket = scanTicket(stmt)
	})
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// GetByIDForUpdate relies on the IMMEDIATE transaction already holding the
// write lock.
func (r ticketRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Ticket, error) {
	return r.GetByID(ctx, id)
}

func (r ticketRepo) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.ClientID != nil {
		clauses = append(clauses, "client_id = ?")
		args = append(args, *filter.ClientID)
	}
	if filter.AssignedTo != nil {
		clauses = append(clauses, "assigned_to = ?")
		args = append(args, *filter.AssignedTo)
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, string(status))
		}
		clauses = append(clauses, "status IN ("+strings.Join(placeholders, ",")+")")
	}

	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY id ASC`
	tickets := []domain.Ticket{}
	err := r.s.query(ctx, query, args, func(stmt *sqlite.Stmt) {
		tickets = append(tickets, scanTicket(stmt))
	})
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

func scanTicket(stmt *sqlite.Stmt) domain.Ticket {
	return domain.Ticket{
		ID:          stmt.ColumnInt64(0),
		ClientID:    stmt.ColumnInt64(1),
		ServiceType: domain.ServiceType(stmt.ColumnText(2)),
		Description: stmt.ColumnText(3),
		AssignedTo:  decodeOptionalID(stmt, 4),
		Status:      domain.TicketStatus(stmt.ColumnText(5)),
		CreatedAt:   decodeTime(stmt.ColumnInt64(6)),
		UpdatedAt:   decodeTime(stmt.ColumnInt64(7)),
	}
}

type historyRepo struct{ s *Store }

func (r historyRepo) Create(ctx context.Context, entry *domain.TicketHistory) error {
	const query = `
        INSERT INTO ticket_history (ticket_id, actor_id, old_status, new_status, assigned_to, created_at)
        VALUES (?,?,?,?,?,?)`
	var oldStatus any
	if entry.OldStatus != nil {
		oldStatus = string(*entry.OldStatus)
	}
	id, err := r.s.insert(ctx, query, []any{
		entry.TicketID,
		entry.ActorID,
		oldStatus,
		string(entry.NewStatus),
		encodeOptionalID(entry.AssignedTo),
		encodeTime(entry.CreatedAt),
	})
	if err != nil {
		return err
	}
	entry.ID = id
	return nil
}

func (r historyRepo) ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	const query = `
        SELECT id, ticket_id, actor_id, old_status, new_status, assigned_to, created_at
        FROM ticket_history WHERE ticket_id = ? ORDER BY id ASC`
	entries := []domain.TicketHistory{}
	err := r.s.query(ctx, query, []any{ticketID}, func(stmt *sqlite.Stmt) {
		entry := domain.TicketHistory{
			ID:         stmt.ColumnInt64(0),
			TicketID:   stmt.ColumnInt64(1),
			ActorID:    stmt.ColumnInt64(2),
			NewStatus:  domain.TicketStatus(stmt.ColumnText(4)),
			AssignedTo: decodeOptionalID(stmt, 5),
			CreatedAt:  decodeTime(stmt.ColumnInt64(6)),
		}
		if !stmt.ColumnIsNull(3) {
			old := domain.TicketStatus(stmt.ColumnText(3))
			entry.OldStatus = &old
		}
		entries = append(entries, entry)
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
