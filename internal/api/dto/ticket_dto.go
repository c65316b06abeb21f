package dto

import (
	"time"

	"github.com/spec-kit/ops-desk/internal/domain"
)

// RaiseTicketRequest payload for POST /tickets.
type RaiseTicketRequest struct {
	ServiceType string `json:"service_type"`
	Description string `json:"description"`
}

// AssignTicketRequest payload for POST /tickets/:id/assign.
type AssignTicketRequest struct {
	StaffID int64 `json:"staff_id"`
}

// TicketResponse is the wire form of a ticket.
type TicketResponse struct {
	ID          int64               `json:"id"`
	ClientID    int64               `json:"client_id"`
	ServiceType domain.ServiceType  `json:"service_type"`
	Description string              `json:"description"`
	AssignedTo  *int64              `json:"assigned_to"`
	Status      domain.TicketStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          ticket.ID,
		ClientID:    ticket.ClientID,
		ServiceType: ticket.ServiceType,
		Description: ticket.Description,
		AssignedTo:  ticket.AssignedTo,
		Status:      ticket.Status,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}

// TicketHistoryResponse is one transition of a ticket.
type TicketHistoryResponse struct {
	ID         int64                `json:"id"`
	ActorID    int64                `json:"actor_id"`
	OldStatus  *domain.TicketStatus `json:"old_status"`
	NewStatus  domain.TicketStatus  `json:"new_status"`
	AssignedTo *int64               `json:"assigned_to"`
	CreatedAt  time.Time            `json:"created_at"`
}

// NewTicketHistoryResponse maps a history entry.
func NewTicketHistoryResponse(entry *domain.TicketHistory) TicketHistoryResponse {
	return TicketHistoryResponse{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		OldStatus:  entry.OldStatus,
		NewStatus:  entry.NewStatus,
		AssignedTo: entry.AssignedTo,
		CreatedAt:  entry.CreatedAt,
	}
}
