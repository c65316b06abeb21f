package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ops-desk/internal/api/dto"
	"github.com/spec-kit/ops-desk/internal/domain"
	"github.com/spec-kit/ops-desk/internal/service"
	apperrors "github.com/spec-kit/ops-desk/pkg/util/errorutil"
)

// TicketsHandler manages the ticket workflow endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// Raise POST /tickets.
func (h *TicketsHandler) Raise(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.RaiseTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Raise(c.UserContext(), actor, service.RaiseTicketInput{
		ServiceType: req.ServiceType,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// List GET /tickets?filter=all|client|staff&id=&status=. Without a filter clients
// get their own tickets, staff their assignments and others everything.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	query, err := parseTicketQuery(c, actor)
	if err != nil {
		return err
	}
	tickets, err := h.service.List(c.UserContext(), actor, query)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Assign POST /tickets/:id/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	ticketID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.StaffID <= 0 {
		return apperrors.NewValidationError("staff_id required", nil)
	}
	ticket, err := h.service.Assign(c.UserContext(), actor, ticketID, req.StaffID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// Complete POST /tickets/:id/complete.
func (h *TicketsHandler) Complete(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	ticketID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	ticket, err := h.service.Complete(c.UserContext(), actor, ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// History GET /tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	ticketID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	entries, err := h.service.History(c.UserContext(), actor, ticketID)
	if err != nil {
		return err
	}
	items := make([]dto.TicketHistoryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, dto.NewTicketHistoryResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseTicketQuery(c *fiber.Ctx, actor *domain.User) (service.TicketQuery, error) {
	scope := service.TicketScope(strings.ToLower(strings.TrimSpace(c.Query("filter"))))
	if scope == "" {
		switch actor.Role {
		case domain.RoleClient:
			scope = service.ScopeClient
		case domain.RoleStaff:
			scope = service.ScopeStaff
		default:
			scope = service.ScopeAll
		}
	}

	query := service.TicketQuery{Scope: scope}
	for _, raw := range strings.Split(c.Query("status"), ",") {
		if raw = strings.TrimSpace(raw); raw != "" {
			query.Statuses = append(query.Statuses, domain.TicketStatus(strings.ToUpper(raw)))
		}
	}
	if scope == service.ScopeAll {
		return query, nil
	}
	raw := c.Query("id")
	if raw == "" {
		query.OwnerID = actor.ID
		return query, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return query, apperrors.NewValidationError("invalid id", map[string]any{"id": raw})
	}
	query.OwnerID = id
	return query, nil
}
