package domain

import "time"

// TicketHistory is an immutable audit trail entry for one transition.
type TicketHistory struct {
	ID         int64
	TicketID   int64
	ActorID    int64
	OldStatus  *TicketStatus
	NewStatus  TicketStatus
	AssignedTo *int64
	CreatedAt  time.Time
}
