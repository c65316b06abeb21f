package sqlitestore

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ops-desk/internal/config"
	"github.com/spec-kit/ops-desk/internal/domain"
	"github.com/spec-kit/ops-desk/internal/repository"
)

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func createUser(t *testing.T, store *Store, email string, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{FullName: email, Email: email, Role: role, PasswordHash: "x", DateOfJoining: day(1)}
	require.NoError(t, store.Users().Create(context.Background(), user))
	return user
}

func newTicket(clientID int64) *domain.Ticket {
	now := time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)
	return &domain.Ticket{
		ClientID:    clientID,
		ServiceType: domain.ServicePlumber,
		Description: "leak",
		Status:      domain.TicketStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	client := createUser(t, store, "c@example.com", domain.RoleClient)
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		require.NoError(t, tx.Tickets().Create(ctx, newTicket(client.ID)))
		return boom
	})
	require.ErrorIs(t, err, boom)

	tickets, err := store.Tickets().List(ctx, repository.TicketFilter{})
	require.NoError(t, err)
	assert.Empty(t, tickets)
}

func TestWithinTxCommits(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	client := createUser(t, store, "c@example.com", domain.RoleClient)

	var id int64
	err := store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		ticket := newTicket(client.ID)
		if err := tx.Tickets().Create(ctx, ticket); err != nil {
			return err
		}
		id = ticket.ID
		return nil
	})
	require.NoError(t, err)

	ticket, err := store.Tickets().GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, client.ID, ticket.ClientID)
	assert.Equal(t, domain.TicketStatusPending, ticket.Status)
	assert.Nil(t, ticket.AssignedTo)
	assert.True(t, ticket.CreatedAt.Equal(newTicket(0).CreatedAt))
}

func TestGetByIDMissing(t *testing.T) {
	store := openStore(t)

	_, err := store.Tickets().GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = store.Users().GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAssignmentMustMatchStatus(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	client := createUser(t, store, "c@example.com", domain.RoleClient)
	ticket := newTicket(client.ID)
	require.NoError(t, store.Tickets().Create(ctx, ticket))

	ticket.Status = domain.TicketStatusInProgress
	err := store.Tickets().Update(ctx, ticket)
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrConflict)
}

func TestAttendanceUniquePerUserAndDate(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	user := createUser(t, store, "s@example.com", domain.RoleStaff)
	now := time.Now()

	require.NoError(t, store.Attendance().Create(ctx, &domain.AttendanceRecord{UserID: user.ID, WorkDate: day(1), CheckIn: &now}))
	err := store.Attendance().Create(ctx, &domain.AttendanceRecord{UserID: user.ID, WorkDate: day(1), CheckIn: &now})
	var conflict *repository.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "work_date", conflict.Field)

	require.NoError(t, store.Attendance().Create(ctx, &domain.AttendanceRecord{UserID: user.ID, WorkDate: day(2), CheckIn: &now}))
}

func TestAttendanceRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	user := createUser(t, store, "s@example.com", domain.RoleStaff)
	in := time.Date(2024, time.March, 4, 9, 15, 30, 123456789, time.UTC)

	record := &domain.AttendanceRecord{UserID: user.ID, WorkDate: day(4), CheckIn: &in}
	require.NoError(t, store.Attendance().Create(ctx, record))

	loaded, err := store.Attendance().GetByUserAndDate(ctx, user.ID, day(4))
	require.NoError(t, err)
	assert.Equal(t, day(4), loaded.WorkDate)
	require.NotNil(t, loaded.CheckIn)
	assert.True(t, loaded.CheckIn.Equal(in))
	assert.Nil(t, loaded.CheckOut)

	out := in.Add(8 * time.Hour)
	loaded.CheckOut = &out
	require.NoError(t, store.Attendance().Update(ctx, loaded))

	loaded, err = store.Attendance().GetByUserAndDate(ctx, user.ID, day(4))
	require.NoError(t, err)
	require.NotNil(t, loaded.CheckOut)
	assert.True(t, loaded.CheckOut.Equal(out))
	assert.Equal(t, domain.AttendanceClosed, loaded.State())
}

func TestListByDateRangeOrdering(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	users := []*domain.User{
		createUser(t, store, "one@example.com", domain.RoleStaff),
		createUser(t, store, "two@example.com", domain.RoleStaff),
		createUser(t, store, "three@example.com", domain.RoleStaff),
	}
	now := time.Now()

	for _, rec := range []domain.AttendanceRecord{
		{UserID: users[2].ID, WorkDate: day(2)},
		{UserID: users[0].ID, WorkDate: day(2)},
		{UserID: users[1].ID, WorkDate: day(1)},
		{UserID: users[0].ID, WorkDate: day(5)},
	} {
		rec := rec
		rec.CheckIn = &now
		require.NoError(t, store.Attendance().Create(ctx, &rec))
	}

	records, err := store.Attendance().ListByDateRange(ctx, day(1), day(2))
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, users[1].ID, records[0].UserID)
	assert.Equal(t, users[0].ID, records[1].UserID)
	assert.Equal(t, users[2].ID, records[2].UserID)

	single, err := store.Attendance().ListByDateRange(ctx, day(5), day(5))
	require.NoError(t, err)
	assert.Len(t, single, 1)

	none, err := store.Attendance().ListByDateRange(ctx, day(9), day(9))
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestUserUniqueness(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	require.NoError(t, store.Users().Create(ctx, &domain.User{Email: "a@example.com", NationalID: "N-1", Role: domain.RoleStaff, PasswordHash: "x"}))

	err := store.Users().Create(ctx, &domain.User{Email: "A@example.com", Role: domain.RoleClient, PasswordHash: "x"})
	var conflict *repository.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "email", conflict.Field)

	err = store.Users().Create(ctx, &domain.User{Email: "b@example.com", NationalID: "N-1", Role: domain.RoleClient, PasswordHash: "x"})
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "national_id", conflict.Field)

	require.NoError(t, store.Users().Create(ctx, &domain.User{Email: "c@example.com", Role: domain.RoleClient, PasswordHash: "x"}))
	require.NoError(t, store.Users().Create(ctx, &domain.User{Email: "d@example.com", Role: domain.RoleClient, PasswordHash: "x"}))
}

func TestTicketListFilters(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	client := createUser(t, store, "c@example.com", domain.RoleClient)
	other := createUser(t, store, "o@example.com", domain.RoleClient)
	staff := createUser(t, store, "s@example.com", domain.RoleStaff)

	first := newTicket(client.ID)
	require.NoError(t, store.Tickets().Create(ctx, first))
	require.NoError(t, store.Tickets().Create(ctx, newTicket(other.ID)))
	first.Status = domain.TicketStatusInProgress
	first.AssignedTo = &staff.ID
	require.NoError(t, store.Tickets().Update(ctx, first))

	mine, err := store.Tickets().List(ctx, repository.TicketFilter{ClientID: &client.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)

	assigned, err := store.Tickets().List(ctx, repository.TicketFilter{AssignedTo: &staff.ID})
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, staff.ID, *assigned[0].AssignedTo)

	pending, err := store.Tickets().List(ctx, repository.TicketFilter{Statuses: []domain.TicketStatus{domain.TicketStatusPending}})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, other.ID, pending[0].ClientID)
}

func TestFileStoreSerializesTransactions(t *testing.T) {
	ctx := context.Background()
	store, err := Open(config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "ops.db"), PoolSize: 4}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	user := createUser(t, store, "s@example.com", domain.RoleStaff)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
				if _, err := tx.Attendance().GetByUserAndDateForUpdate(ctx, user.ID, day(3)); err == nil {
					return repository.ErrConflict
				}
				now := time.Now()
				return tx.Attendance().Create(ctx, &domain.AttendanceRecord{UserID: user.ID, WorkDate: day(3), CheckIn: &now})
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
			} else if errors.Is(err, repository.ErrConflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, attempts-1, conflicts)
	require.NoError(t, store.Ping(ctx))
}
