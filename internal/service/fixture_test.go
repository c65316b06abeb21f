package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/ops-desk/internal/config"
	"github.com/spec-kit/ops-desk/internal/domain"
	"github.com/spec-kit/ops-desk/internal/events"
	"github.com/spec-kit/ops-desk/internal/repository/sqlitestore"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recordedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordedEvents) handler(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordedEvents) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store      *sqlitestore.Store
	clock      *fakeClock
	published  *recordedEvents
	identity   *IdentityService
	attendance *AttendanceService
	tickets    *TicketService
}

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 15,
			BcryptCost:            bcrypt.MinCost,
		},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlitestore.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	clock := &fakeClock{now: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)}
	published := &recordedEvents{}
	dispatcher := events.NewInMemoryDispatcher()
	for _, eventType := range []events.EventType{
		events.EventTicketRaised,
		events.EventTicketAssigned,
		events.EventTicketCompleted,
		events.EventAttendanceCheckedIn,
		events.EventAttendanceCheckedOut,
	} {
		dispatcher.Subscribe(eventType, published.handler)
	}

	identity, err := NewIdentityService(testConfig(), IdentityDependencies{Store: store, Clock: clock.Now})
	require.NoError(t, err)

	return &fixture{
		store:     store,
		clock:     clock,
		published: published,
		identity:  identity,
		attendance: NewAttendanceService(AttendanceDependencies{
			Store:      store,
			Dispatcher: dispatcher,
			Clock:      clock.Now,
		}),
		tickets: NewTicketService(TicketDependencies{
			Store:      store,
			Dispatcher: dispatcher,
			Clock:      clock.Now,
		}),
	}
}

func (f *fixture) user(t *testing.T, email string, role domain.Role) *domain.User {
	t.Helper()
	user, err := f.identity.Create(context.Background(), domain.Registration{
		FullName: email,
		Email:    email,
		Role:     role,
		Password: "pw-" + email,
	})
	require.NoError(t, err)
	return user
}
