package service

import (
	"context"
	"errors"

	"github.com/spec-kit/ops-desk/internal/domain"
	"github.com/spec-kit/ops-desk/internal/events"
	"github.com/spec-kit/ops-desk/internal/policy"
	"github.com/spec-kit/ops-desk/internal/repository"
	apperrors "github.com/spec-kit/ops-desk/pkg/util/errorutil"
)

// Assign hands a Pending ticket to a staff member and moves it to
// InProgress. Any staff account is eligible regardless of service category.
func (s *TicketService) Assign(ctx context.Context, actor *domain.User, ticketID, staffID int64) (*domain.Ticket, error) {
	if err := policy.Authorize(actor, policy.ActionAssignTicket); err != nil {
		return nil, err
	}
	now := s.clock()

	var ticket *domain.Ticket
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		current, err := lockTicket(ctx, tx, ticketID)
		if err != nil {
			return err
		}
		if !domain.CanTransition(current.Status, domain.TicketStatusInProgress) {
			return invalidTransition(current, domain.TicketStatusInProgress)
		}
		if err := requireStaff(ctx, tx, staffID); err != nil {
			return err
		}

		oldStatus := current.Status
		assignee := staffID
		current.AssignedTo = &assignee
		current.Status = domain.TicketStatusInProgress
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
		Type:      events.EventTicketAssigned,
		SubjectID: ticket.ID,
		Actor:     actorOf(actor),
		Payload:   events.TicketAssignedPayload{AssignedTo: staffID},
	})
	return ticket, nil
}

func requireStaff(ctx context.Context, tx repository.Store, staffID int64) error {
	user, err := tx.Users().GetByID(ctx, staffID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.ErrUnknownStaff.WithDetails(map[string]any{"staff_id": staffID})
	}
	if err != nil {
		return err
	}
	if user.Role != domain.RoleStaff {
		return apperrors.ErrUnknownStaff.WithDetails(map[string]any{"staff_id": staffID, "role": string(user.Role)})
	}
	return nil
}
