package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ops-desk/internal/domain"
	"github.com/spec-kit/ops-desk/internal/events"
	"github.com/spec-kit/ops-desk/internal/repository"
	apperrors "github.com/spec-kit/ops-desk/pkg/util/errorutil"
)

type ticketCast struct {
	admin   *domain.User
	manager *domain.User
	staff   *domain.User
	other   *domain.User
	client  *domain.User
}

func newTicketCast(t *testing.T, f *fixture) ticketCast {
	return ticketCast{
		admin:   f.user(t, "admin@example.com", domain.RoleAdmin),
		manager: f.user(t, "manager@example.com", domain.RoleManager),
		staff:   f.user(t, "staff@example.com", domain.RoleStaff),
		other:   f.user(t, "other@example.com", domain.RoleStaff),
		client:  f.user(t, "client@example.com", domain.RoleClient),
	}
}

func (f *fixture) raise(t *testing.T, client *domain.User) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.Raise(context.Background(), client, RaiseTicketInput{
		ServiceType: "Plumber",
		Description: "leaking tap",
	})
	require.NoError(t, err)
	return ticket
}

func (f *fixture) stored(t *testing.T, id int64) *domain.Ticket {
	t.Helper()
	ticket, err := f.store.Tickets().GetByID(context.Background(), id)
	require.NoError(t, err)
	return ticket
}

func TestTicketLifecycleScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cast := newTicketCast(t, f)

	created := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	f.clock.Set(created)
	ticket := f.raise(t, cast.client)
	assert.Equal(t, domain.TicketStatusPending, ticket.Status)
	assert.Nil(t, ticket.AssignedTo)
	assert.Equal(t, domain.ServicePlumber, ticket.ServiceType)
	assert.Equal(t, cast.client.ID, ticket.ClientID)
	assert.True(t, ticket.CreatedAt.Equal(created))
	assert.True(t, ticket.UpdatedAt.Equal(created))

	assigned := created.Add(time.Hour)
	f.clock.Set(assigned)
	ticket, err := f.tickets.Assign(ctx, cast.manager, ticket.ID, cast.staff.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, ticket.Status)
	require.NotNil(t, ticket.AssignedTo)
	assert.Equal(t, cast.staff.ID, *ticket.AssignedTo)
	assert.True(t, ticket.UpdatedAt.Equal(assigned))

	_, err = f.tickets.Complete(ctx, cast.other, ticket.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotAssignee)
	assert.Equal(t, domain.TicketStatusInProgress, f.stored(t, ticket.ID).Status)

	completed := assigned.Add(time.Hour)
	f.clock.Set(completed)
	ticket, err = f.tickets.Complete(ctx, cast.staff, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusCompleted, ticket.Status)
	require.NotNil(t, ticket.AssignedTo)
	assert.Equal(t, cast.staff.ID, *ticket.AssignedTo)
	assert.True(t, ticket.UpdatedAt.Equal(completed))
	assert.True(t, ticket.CreatedAt.Equal(created))
	assert.True(t, f.stored(t, ticket.ID).Consistent())

	history, err := f.tickets.History(ctx, cast.admin, ticket.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Nil(t, history[0].OldStatus)
	statuses := []domain.TicketStatus{history[0].NewStatus, history[1].NewStatus, history[2].NewStatus}
	assert.Equal(t, []domain.TicketStatus{
		domain.TicketStatusPending,
		domain.TicketStatusInProgress,
		domain.TicketStatusCompleted,
	}, statuses)
	assert.Equal(t, cast.manager.ID, history[1].ActorID)

	assert.Equal(t, []events.EventType{
		events.EventTicketRaised,
		events.EventTicketAssigned,
		events.EventTicketCompleted,
	}, f.published.types())
}

func TestRaiseValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cast := newTicketCast(t, f)

	_, err := f.tickets.Raise(ctx, cast.client, RaiseTicketInput{ServiceType: "Astronaut", Description: "x"})
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, apperrors.CodeValidation, domainErr.Code)

	_, err = f.tickets.Raise(ctx, cast.client, RaiseTicketInput{ServiceType: "Plumber", Description: "   "})
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, apperrors.CodeValidation, domainErr.Code)

	_, err = f.tickets.Raise(ctx, cast.staff, RaiseTicketInput{ServiceType: "Plumber", Description: "x"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	ticket, err := f.tickets.Raise(ctx, cast.client, RaiseTicketInput{ServiceType: "car driver", Description: " pickup "})
	require.NoError(t, err)
	assert.Equal(t, domain.ServiceCarDriver, ticket.ServiceType)
	assert.Equal(t, "pickup", ticket.Description)

	all, err := f.tickets.ListAll(ctx, cast.admin)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAssignRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cast := newTicketCast(t, f)
	ticket := f.raise(t, cast.client)

	_, err := f.tickets.Assign(ctx, cast.staff, ticket.ID, cast.staff.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.tickets.Assign(ctx, cast.manager, ticket.ID, cast.client.ID)
	assert.ErrorIs(t, err, apperrors.ErrUnknownStaff)

	_, err = f.tickets.Assign(ctx, cast.manager, ticket.ID, 9999)
	assert.ErrorIs(t, err, apperrors.ErrUnknownStaff)

	stored := f.stored(t, ticket.ID)
	assert.Equal(t, domain.TicketStatusPending, stored.Status)
	assert.Nil(t, stored.AssignedTo)

	_, err = f.tickets.Assign(ctx, cast.admin, ticket.ID, cast.staff.ID)
	require.NoError(t, err)

	_, err = f.tickets.Assign(ctx, cast.manager, ticket.ID, cast.other.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	stored = f.stored(t, ticket.ID)
	assert.Equal(t, domain.TicketStatusInProgress, stored.Status)
	assert.Equal(t, cast.staff.ID, *stored.AssignedTo)

	_, err = f.tickets.Assign(ctx, cast.manager, 4242, cast.staff.ID)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, apperrors.CodeNotFound, domainErr.Code)
}

func TestCompleteRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cast := newTicketCast(t, f)
	ticket := f.raise(t, cast.client)

	_, err := f.tickets.Complete(ctx, cast.staff, ticket.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	assert.Equal(t, domain.TicketStatusPending, f.stored(t, ticket.ID).Status)

	_, err = f.tickets.Assign(ctx, cast.manager, ticket.ID, cast.staff.ID)
	require.NoError(t, err)

	_, err = f.tickets.Complete(ctx, cast.manager, ticket.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.tickets.Complete(ctx, cast.staff, ticket.ID)
	require.NoError(t, err)

	_, err = f.tickets.Complete(ctx, cast.staff, ticket.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	_, err = f.tickets.Assign(ctx, cast.manager, ticket.ID, cast.other.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	stored := f.stored(t, ticket.ID)
	assert.Equal(t, domain.TicketStatusCompleted, stored.Status)
	assert.Equal(t, cast.staff.ID, *stored.AssignedTo)
}

func TestConcurrentAssignSerializes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cast := newTicketCast(t, f)
	ticket := f.raise(t, cast.client)

	candidates := []*domain.User{cast.staff, cast.other}
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		winners   []int64
		conflicts int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(staff *domain.User) {
			defer wg.Done()
			_, err := f.tickets.Assign(ctx, cast.manager, ticket.ID, staff.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				winners = append(winners, staff.ID)
				return
			}
			if assert.ErrorIs(t, err, apperrors.ErrInvalidTransition) {
				conflicts++
			}
		}(candidates[i%2])
	}
	wg.Wait()

	require.Len(t, winners, 1)
	assert.Equal(t, 9, conflicts)
	assert.Equal(t, winners[0], *f.stored(t, ticket.ID).AssignedTo)

	history, err := f.tickets.History(ctx, cast.manager, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestListingScopes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cast := newTicketCast(t, f)
	secondClient := f.user(t, "client2@example.com", domain.RoleClient)

	t1 := f.raise(t, cast.client)
	t2 := f.raise(t, secondClient)
	t3 := f.raise(t, cast.client)
	_, err := f.tickets.Assign(ctx, cast.manager, t3.ID, cast.staff.ID)
	require.NoError(t, err)
	_, err = f.tickets.Assign(ctx, cast.manager, t2.ID, cast.other.ID)
	require.NoError(t, err)

	mine, err := f.tickets.ListForClient(ctx, cast.client, cast.client.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, t1.ID, mine[0].ID)
	assert.Equal(t, t3.ID, mine[1].ID)

	_, err = f.tickets.ListForClient(ctx, cast.client, secondClient.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	_, err = f.tickets.ListAll(ctx, cast.client)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	assigned, err := f.tickets.ListForStaff(ctx, cast.staff, cast.staff.ID)
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, t3.ID, assigned[0].ID)

	_, err = f.tickets.ListForStaff(ctx, cast.staff, cast.other.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	all, err := f.tickets.ListAll(ctx, cast.manager)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ID, all[i].ID)
	}

	byClient, err := f.tickets.ListForClient(ctx, cast.admin, secondClient.ID)
	require.NoError(t, err)
	require.Len(t, byClient, 1)
	assert.Equal(t, t2.ID, byClient[0].ID)

	_, err = f.tickets.List(ctx, cast.admin, TicketQuery{Scope: "bogus"})
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, apperrors.CodeValidation, domainErr.Code)
}

func TestListingByStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cast := newTicketCast(t, f)

	pending := f.raise(t, cast.client)
	started := f.raise(t, cast.client)
	_, err := f.tickets.Assign(ctx, cast.manager, started.ID, cast.staff.ID)
	require.NoError(t, err)

	open, err := f.tickets.List(ctx, cast.manager, TicketQuery{
		Scope:    ScopeAll,
		Statuses: []domain.TicketStatus{domain.TicketStatusPending},
	})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, pending.ID, open[0].ID)

	mine, err := f.tickets.List(ctx, cast.client, TicketQuery{
		Scope:    ScopeClient,
		OwnerID:  cast.client.ID,
		Statuses: []domain.TicketStatus{domain.TicketStatusPending, domain.TicketStatusInProgress},
	})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = f.tickets.List(ctx, cast.manager, TicketQuery{
		Scope:    ScopeAll,
		Statuses: []domain.TicketStatus{"CLOSED"},
	})
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, apperrors.CodeValidation, domainErr.Code)
}

var errHistoryWrite = errors.New("history write failed")

// historyFailingStore delegates to a real store but fails every history
// insert, after the ticket row has already been written in the same tx.
type historyFailingStore struct {
	repository.Store
}

func (s historyFailingStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		return fn(ctx, historyFailingStore{tx})
	})
}

func (s historyFailingStore) History() repository.TicketHistoryRepository {
	return failingHistory{s.Store.History()}
}

type failingHistory struct {
	repository.TicketHistoryRepository
}

func (failingHistory) Create(context.Context, *domain.TicketHistory) error {
	return errHistoryWrite
}

func TestStorageFailureLeavesTicketUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cast := newTicketCast(t, f)
	ticket := f.raise(t, cast.client)

	published := &recordedEvents{}
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(events.EventTicketAssigned, published.handler)
	dispatcher.Subscribe(events.EventTicketRaised, published.handler)
	broken := NewTicketService(TicketDependencies{
		Store:      historyFailingStore{f.store},
		Dispatcher: dispatcher,
		Clock:      f.clock.Now,
	})

	_, err := broken.Assign(ctx, cast.manager, ticket.ID, cast.staff.ID)
	require.ErrorIs(t, err, apperrors.ErrStorageUnavailable)
	assert.ErrorIs(t, err, errHistoryWrite)

	stored := f.stored(t, ticket.ID)
	assert.Equal(t, domain.TicketStatusPending, stored.Status)
	assert.Nil(t, stored.AssignedTo)

	history, err := f.tickets.History(ctx, cast.manager, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = broken.Raise(ctx, cast.client, RaiseTicketInput{ServiceType: "Pantry", Description: "coffee"})
	require.ErrorIs(t, err, apperrors.ErrStorageUnavailable)

	all, err := f.tickets.ListAll(ctx, cast.manager)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Empty(t, published.types())
}

func TestHistoryRequiresManagement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cast := newTicketCast(t, f)
	ticket := f.raise(t, cast.client)

	_, err := f.tickets.History(ctx, cast.client, ticket.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.tickets.History(ctx, cast.admin, 777)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, apperrors.CodeNotFound, domainErr.Code)
}
