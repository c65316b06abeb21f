package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ops-desk/internal/api/dto"
	"github.com/spec-kit/ops-desk/internal/domain"
	"github.com/spec-kit/ops-desk/internal/service"
	apperrors "github.com/spec-kit/ops-desk/pkg/util/errorutil"
)

// AttendanceHandler exposes check-in, check-out and reporting.
type AttendanceHandler struct {
	service *service.AttendanceService
}

// NewAttendanceHandler constructs handler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: attendance}
}

// CheckIn handles POST /attendance/check-in.
func (h *AttendanceHandler) CheckIn(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	record, err := h.service.CheckIn(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewAttendanceResponse(record)})
}

// CheckOut handles POST /attendance/check-out.
func (h *AttendanceHandler) CheckOut(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	record, err := h.service.CheckOut(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAttendanceResponse(record)})
}

// Today handles GET /attendance/today. A day without a record reports
// state NO_RECORD.
func (h *AttendanceHandler) Today(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	record, err := h.service.Today(c.UserContext(), actor)
	if err != nil {
		return err
	}
	if record == nil {
		return c.JSON(fiber.Map{"data": fiber.Map{"state": domain.AttendanceNoRecord}})
	}
	return c.JSON(fiber.Map{"data": dto.NewAttendanceResponse(record)})
}

// Report handles GET /attendance/report?start=&end=.
func (h *AttendanceHandler) Report(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	start, err := parseDateQuery(c, "start")
	if err != nil {
		return err
	}
	end, err := parseDateQuery(c, "end")
	if err != nil {
		return err
	}
	records, err := h.service.Report(c.UserContext(), actor, start, end)
	if err != nil {
		return err
	}
	items := make([]dto.AttendanceResponse, 0, len(records))
	for i := range records {
		items = append(items, dto.NewAttendanceResponse(&records[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseDateQuery(c *fiber.Ctx, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, apperrors.NewValidationError(name+" required", nil)
	}
	parsed, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError(name+" must be YYYY-MM-DD", map[string]any{name: raw})
	}
	return parsed, nil
}
