package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ops-desk/internal/policy"
	apperrors "github.com/spec-kit/ops-desk/pkg/util/errorutil"
)

// RequireAction rejects callers whose role may not perform action.
func RequireAction(action policy.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized(http.StatusText(http.StatusUnauthorized))
		}
		if err := policy.Authorize(principal.User, action); err != nil {
			return err
		}
		return c.Next()
	}
}
