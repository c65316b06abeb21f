package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ops-desk/internal/api/dto"
	"github.com/spec-kit/ops-desk/internal/auth"
	"github.com/spec-kit/ops-desk/internal/service"
	apperrors "github.com/spec-kit/ops-desk/pkg/util/errorutil"
)

// AuthHandler exposes login and logout.
type AuthHandler struct {
	identity *service.IdentityService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(identity *service.IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, token, exp, err := h.identity.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		UserID:    user.ID,
		Role:      user.Role,
		Token:     token,
		ExpiresAt: exp,
	}})
}

// Logout handles POST /auth/logout by revoking the presented token.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.identity.Logout(c.UserContext(), principal.TokenID, principal.ExpiresAt); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
