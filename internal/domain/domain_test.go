package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionOnlyForward(t *testing.T) {
	statuses := []TicketStatus{TicketStatusPending, TicketStatusInProgress, TicketStatusCompleted}
	allowed := map[[2]TicketStatus]bool{
		{TicketStatusPending, TicketStatusInProgress}:   true,
		{TicketStatusInProgress, TicketStatusCompleted}: true,
	}
	for _, from := range statuses {
		for _, to := range statuses {
			assert.Equal(t, allowed[[2]TicketStatus{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.False(t, CanTransition("OPEN", TicketStatusInProgress))
}

func TestParseServiceType(t *testing.T) {
	st, ok := ParseServiceType("  data entry ")
	assert.True(t, ok)
	assert.Equal(t, ServiceDataEntry, st)

	_, ok = ParseServiceType("Chef")
	assert.False(t, ok)
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole(" Manager ")
	assert.True(t, ok)
	assert.Equal(t, RoleManager, role)

	_, ok = ParseRole("root")
	assert.False(t, ok)
}

func TestAttendanceState(t *testing.T) {
	in := time.Now()
	out := in.Add(time.Hour)

	var missing *AttendanceRecord
	assert.Equal(t, AttendanceNoRecord, missing.State())
	assert.Equal(t, AttendanceOpen, (&AttendanceRecord{CheckIn: &in}).State())
	assert.Equal(t, AttendanceClosed, (&AttendanceRecord{CheckIn: &in, CheckOut: &out}).State())
}

func TestCalendarDate(t *testing.T) {
	ahead := time.FixedZone("UTC+3", 3*60*60)
	instant := time.Date(2024, 1, 31, 22, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), CalendarDate(instant, nil))
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), CalendarDate(instant, ahead))
}

func TestTicketConsistent(t *testing.T) {
	staff := int64(7)
	assert.True(t, (&Ticket{Status: TicketStatusPending}).Consistent())
	assert.False(t, (&Ticket{Status: TicketStatusPending, AssignedTo: &staff}).Consistent())
	assert.True(t, (&Ticket{Status: TicketStatusCompleted, AssignedTo: &staff}).Consistent())
	assert.False(t, (&Ticket{Status: TicketStatusInProgress}).Consistent())
}
