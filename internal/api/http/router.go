package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ops-desk/internal/api/http/handlers"
	"github.com/spec-kit/ops-desk/internal/auth"
	"github.com/spec-kit/ops-desk/internal/policy"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Attendance     *handlers.AttendanceHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Role gates here mirror the checks the
// services make, so forbidden calls fail before any body is parsed.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	app.Post("/auth/login", cfg.Auth.Login)

	authenticated := cfg.AuthMiddleware.Handle
	app.Post("/auth/logout", authenticated, cfg.Auth.Logout)

	users := app.Group("/users", authenticated)
	users.Post("/", auth.RequireAction(policy.ActionRegisterUser), cfg.Users.Register)
	users.Get("/staff", auth.RequireAction(policy.ActionListStaff), cfg.Users.ListStaff)

	attendance := app.Group("/attendance", authenticated)
	attendance.Post("/check-in", auth.RequireAction(policy.ActionRecordAttendance), cfg.Attendance.CheckIn)
	attendance.Post("/check-out", auth.RequireAction(policy.ActionRecordAttendance), cfg.Attendance.CheckOut)
	attendance.Get("/today", auth.RequireAction(policy.ActionRecordAttendance), cfg.Attendance.Today)
	attendance.Get("/report", auth.RequireAction(policy.ActionViewAttendanceReport), cfg.Attendance.Report)

	tickets := app.Group("/tickets", authenticated)
	tickets.Post("/", auth.RequireAction(policy.ActionRaiseTicket), cfg.Tickets.Raise)
	tickets.Get("/", cfg.Tickets.List)
	tickets.Post("/:id/assign", auth.RequireAction(policy.ActionAssignTicket), cfg.Tickets.Assign)
	tickets.Post("/:id/complete", auth.RequireAction(policy.ActionCompleteTicket), cfg.Tickets.Complete)
	tickets.Get("/:id/history", auth.RequireAction(policy.ActionViewTicketHistory), cfg.Tickets.History)
}
