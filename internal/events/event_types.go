package events

import (
	"time"

	"github.com/spec-kit/ops-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketRaised         EventType = "ticket_raised"
	EventTicketAssigned       EventType = "ticket_assigned"
	EventTicketCompleted      EventType = "ticket_completed"
	EventAttendanceCheckedIn  EventType = "attendance_checked_in"
	EventAttendanceCheckedOut EventType = "attendance_checked_out"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID int64       `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services after commit.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID int64       `json:"subject_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketRaisedPayload payload.
type TicketRaisedPayload struct {
	ClientID    int64              `json:"client_id"`
	ServiceType domain.ServiceType `json:"service_type"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssignedTo int64 `json:"assigned_to"`
}

// TicketCompletedPayload payload.
type TicketCompletedPayload struct {
	AssignedTo int64 `json:"assigned_to"`
}

// AttendancePayload payload for check-in and check-out.
type AttendancePayload struct {
	WorkDate string    `json:"work_date"`
	At       time.Time `json:"at"`
}
