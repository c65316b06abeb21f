package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/ops-desk/internal/domain"
	"github.com/spec-kit/ops-desk/internal/events"
	"github.com/spec-kit/ops-desk/internal/policy"
	"github.com/spec-kit/ops-desk/internal/repository"
	apperrors "github.com/spec-kit/ops-desk/pkg/util/errorutil"
)

// TicketService coordinates the service ticket workflow.
type TicketService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	clock      Clock
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
	Clock      Clock
}

// RaiseTicketInput describes ticket creation payload.
type RaiseTicketInput struct {
	ServiceType string
	Description string
}

// TicketScope selects which tickets a listing returns.
type TicketScope string

const (
	ScopeAll    TicketScope = "all"
	ScopeClient TicketScope = "client"
	ScopeStaff  TicketScope = "staff"
)

// TicketQuery is a listing request. OwnerID is the client or staff id for the
// client and staff scopes. Empty Statuses matches every status.
type TicketQuery struct {
	Scope    TicketScope
	OwnerID  int64
	Statuses []domain.TicketStatus
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		clock:      clockOrNow(deps.Clock),
	}
}

// Raise creates a Pending, unassigned ticket for the acting client.
func (s *TicketService) Raise(ctx context.Context, actor *domain.User, input RaiseTicketInput) (*domain.Ticket, error) {
	if err := policy.Authorize(actor, policy.ActionRaiseTicket); err != nil {
		return nil, err
	}
	serviceType, ok := domain.ParseServiceType(input.ServiceType)
	if !ok {
		return nil, apperrors.NewValidationError("unknown service type", map[string]any{
			"service_type": input.ServiceType,
			"allowed":      domain.ServiceTypes,
		})
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, apperrors.NewValidationError("description required", nil)
	}

	now := s.clock()
	ticket := &domain.Ticket{
		ClientID:    actor.ID,
		ServiceType: serviceType,
		Description: description,
		Status:      domain.TicketStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := tx.Tickets().Create(ctx, ticket); err != nil {
			return err
		}
		return tx.History().Create(ctx, &domain.TicketHistory{
			TicketID:  ticket.ID,
			ActorID:   actor.ID,
			NewStatus: ticket.Status,
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, apperrors.MapStorageError(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventTicketRaised,
		SubjectID: ticket.ID,
		Actor:     actorOf(actor),
		Payload: events.TicketRaisedPayload{
			ClientID:    ticket.ClientID,
			ServiceType: ticket.ServiceType,
		},
	})
	return ticket, nil
}

// Complete moves an InProgress ticket to Completed. Only the assignee may
// complete it; the assignment is kept.
func (s *TicketService) Complete(ctx context.Context, actor *domain.User, ticketID int64) (*domain.Ticket, error) {
	if err := policy.Authorize(actor, policy.ActionCompleteTicket); err != nil {
		return nil, err
	}
	now := s.clock()

	var ticket *domain.Ticket
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		current, err := lockTicket(ctx, tx, ticketID)
		if err != nil {
			return err
		}
		if !domain.CanTransition(current.Status, domain.TicketStatusCompleted) {
			return invalidTransition(current, domain.TicketStatusCompleted)
		}
		if current.AssignedTo == nil || *current.AssignedTo != actor.ID {
			return apperrors.ErrNotAssignee
		}
		oldStatus := current.Status
		current.Status = domain.TicketStatusCompleted
		current.UpdatedAt = now
		if err := tx.Tickets().Update(ctx, current); err != nil {
			return err
		}
		if err := recordTransition(ctx, tx, actor.ID, current, oldStatus); err != nil {
			return err
		}
		ticket = current
		return nil
	})
	if err != nil {
		return nil, apperrors.MapStorageError(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventTicketCompleted,
		SubjectID: ticket.ID,
		Actor:     actorOf(actor),
		Payload:   events.TicketCompletedPayload{AssignedTo: *ticket.AssignedTo},
	})
	return ticket, nil
}

// List returns tickets for the query ordered by id. Clients may only list
// their own tickets and staff their own assignments; admins and managers may
// list any scope.
func (s *TicketService) List(ctx context.Context, actor *domain.User, query TicketQuery) ([]domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.ErrForbidden
	}
	for _, status := range query.Statuses {
		if !status.Valid() {
			return nil, apperrors.NewValidationError("unknown ticket status", map[string]any{"status": string(status)})
		}
	}
	filter := repository.TicketFilter{Statuses: query.Statuses}
	seeAll := policy.CanPerform(actor.Role, policy.ActionViewAllTickets)

	switch query.Scope {
	case ScopeAll, "":
		if err := policy.Authorize(actor, policy.ActionViewAllTickets); err != nil {
			return nil, err
		}
	case ScopeClient:
		if !seeAll {
			if err := policy.Authorize(actor, policy.ActionViewOwnTickets); err != nil {
				return nil, err
			}
			if query.OwnerID != actor.ID {
				return nil, apperrors.ErrForbidden
			}
		}
		filter.ClientID = &query.OwnerID
	case ScopeStaff:
		if !seeAll {
			if err := policy.Authorize(actor, policy.ActionViewAssignedTickets); err != nil {
				return nil, err
			}
			if query.OwnerID != actor.ID {
				return nil, apperrors.ErrForbidden
			}
		}
		filter.AssignedTo = &query.OwnerID
	default:
		return nil, apperrors.NewValidationError("unknown ticket filter", map[string]any{"filter": string(query.Scope)})
	}

	tickets, err := s.store.Tickets().List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapStorageError(err)
	}
	return tickets, nil
}

// ListForClient returns the client's tickets.
func (s *TicketService) ListForClient(ctx context.Context, actor *domain.User, clientID int64) ([]domain.Ticket, error) {
	return s.List(ctx, actor, TicketQuery{Scope: ScopeClient, OwnerID: clientID})
}

// ListForStaff returns tickets assigned to the staff member.
func (s *TicketService) ListForStaff(ctx context.Context, actor *domain.User, staffID int64) ([]domain.Ticket, error) {
	return s.List(ctx, actor, TicketQuery{Scope: ScopeStaff, OwnerID: staffID})
}

// ListAll returns every ticket.
func (s *TicketService) ListAll(ctx context.Context, actor *domain.User) ([]domain.Ticket, error) {
	return s.List(ctx, actor, TicketQuery{Scope: ScopeAll})
}

// History returns the transition trail of a ticket, oldest first.
func (s *TicketService) History(ctx context.Context, actor *domain.User, ticketID int64) ([]domain.TicketHistory, error) {
	if err := policy.Authorize(actor, policy.ActionViewTicketHistory); err != nil {
		return nil, err
	}
	if _, err := s.store.Tickets().GetByID(ctx, ticketID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapStorageError(err)
	}
	history, err := s.store.History().ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapStorageError(err)
	}
	return history, nil
}

func lockTicket(ctx context.Context, tx repository.Store, ticketID int64) (*domain.Ticket, error) {
	ticket, err := tx.Tickets().GetByIDForUpdate(ctx, ticketID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	return ticket, err
}

func invalidTransition(ticket *domain.Ticket, next domain.TicketStatus) error {
	return apperrors.ErrInvalidTransition.WithDetails(map[string]any{
		"ticket_id": ticket.ID,
		"from":      ticket.Status,
		"to":        next,
	})
}

// recordTransition appends a history row stamped with the ticket's updated_at.
func recordTransition(ctx context.Context, tx repository.Store, actorID int64, ticket *domain.Ticket, oldStatus domain.TicketStatus) error {
	entry := &domain.TicketHistory{
		TicketID:   ticket.ID,
		ActorID:    actorID,
		OldStatus:  &oldStatus,
		NewStatus:  ticket.Status,
		AssignedTo: ticket.AssignedTo,
		CreatedAt:  ticket.UpdatedAt,
	}
	return tx.History().Create(ctx, entry)
}
