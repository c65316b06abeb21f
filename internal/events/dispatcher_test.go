package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherRunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string
	boom := errors.New("boom")

	d.Subscribe(EventTicketRaised, func(context.Context, Event) error {
		calls = append(calls, "first")
		return boom
	})
	d.Subscribe(EventTicketRaised, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventTicketAssigned, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketRaised, SubjectID: 1})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestDispatcherIsolatesPanics(t *testing.T) {
	d := NewInMemoryDispatcher()
	reached := false
	d.Subscribe(EventTicketCompleted, func(context.Context, Event) error {
		panic("bad handler")
	})
	d.Subscribe(EventTicketCompleted, func(context.Context, Event) error {
		reached = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketCompleted})
	assert.ErrorContains(t, err, "panicked")
	assert.True(t, reached)
}

func TestDispatcherStopsOnCancelledContext(t *testing.T) {
	d := NewInMemoryDispatcher()
	called := false
	d.Subscribe(EventAttendanceCheckedIn, func(context.Context, Event) error {
		called = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := d.Publish(ctx, Event{Type: EventAttendanceCheckedIn})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
