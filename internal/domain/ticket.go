package domain

import (
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for service tickets.
type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "PENDING"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusCompleted  TicketStatus = "COMPLETED"
)

var allowedTransitions = map[TicketStatus]TicketStatus{
	TicketStatusPending:    TicketStatusInProgress,
	TicketStatusInProgress: TicketStatusCompleted,
}

// CanTransition reports whether current -> next is an edge of the workflow.
func CanTransition(current, next TicketStatus) bool {
	target, ok := allowedTransitions[current]
	return ok && target == next
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusPending, TicketStatusInProgress, TicketStatusCompleted:
		return true
	}
	return false
}

// ServiceType enumerates the fixed request categories.
type ServiceType string

const (
	ServiceHousekeeping ServiceType = "Housekeeping"
	ServicePantry       ServiceType = "Pantry"
	ServiceCarDriver    ServiceType = "Car Driver"
	ServiceDataEntry    ServiceType = "Data Entry"
	ServiceElectrician  ServiceType = "Electrician"
	ServicePlumber      ServiceType = "Plumber"
	ServiceGardener     ServiceType = "Gardener"
)

// ServiceTypes lists the categories in display order.
var ServiceTypes = []ServiceType{
	ServiceHousekeeping,
	ServicePantry,
	ServiceCarDriver,
	ServiceDataEntry,
	ServiceElectrician,
	ServicePlumber,
	ServiceGardener,
}

// ParseServiceType matches raw case-insensitively against the categories.
func ParseServiceType(raw string) (ServiceType, bool) {
	raw = strings.TrimSpace(raw)
	for _, st := range ServiceTypes {
		if strings.EqualFold(string(st), raw) {
			return st, true
		}
	}
	return "", false
}

// Ticket is a client service request.
type Ticket struct {
	ID          int64
	ClientID    int64
	ServiceType ServiceType
	Description string
	AssignedTo  *int64
	Status      TicketStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Consistent checks the assignment/status invariant.
func (t *Ticket) Consistent() bool {
	if t.Status == TicketStatusPending {
		return t.AssignedTo == nil
	}
	return t.AssignedTo != nil
}
