package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ops-desk/internal/api/dto"
	"github.com/spec-kit/ops-desk/internal/domain"
	"github.com/spec-kit/ops-desk/internal/service"
	apperrors "github.com/spec-kit/ops-desk/pkg/util/errorutil"
)

// UsersHandler exposes account management.
type UsersHandler struct {
	identity *service.IdentityService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(identity *service.IdentityService) *UsersHandler {
	return &UsersHandler{identity: identity}
}

// Register handles POST /users.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.RegisterUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Password != req.PasswordConfirmation {
		return apperrors.NewValidationError("password confirmation does not match", nil)
	}

	var joined time.Time
	if raw := strings.TrimSpace(req.DateOfJoining); raw != "" {
		joined, err = time.Parse(time.DateOnly, raw)
		if err != nil {
			return apperrors.NewValidationError("date_of_joining must be YYYY-MM-DD", map[string]any{"date_of_joining": raw})
		}
	}

	user, err := h.identity.RegisterUser(c.UserContext(), actor, domain.Registration{
		FullName:        req.FullName,
		Email:           req.Email,
		PhoneNumber:     req.PhoneNumber,
		NationalID:      req.NationalID,
		ServiceDomain:   req.ServiceDomain,
		Role:            domain.Role(strings.ToLower(strings.TrimSpace(req.Role))),
		EmploymentLevel: req.EmploymentLevel,
		DateOfJoining:   joined,
		SalaryCents:     req.SalaryCents,
		Certifications:  req.Certifications,
		Password:        req.Password,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// ListStaff handles GET /users/staff.
func (h *UsersHandler) ListStaff(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	staff, err := h.identity.ListStaff(c.UserContext(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(staff))
	for i := range staff {
		items = append(items, dto.NewUserResponse(&staff[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
