// Package policy holds the single role/action authorization table.
package policy

import (
	"github.com/spec-kit/ops-desk/internal/domain"
	apperrors "github.com/spec-kit/ops-desk/pkg/util/errorutil"
)

// Action names an intent that needs authorization.
type Action string

const (
	ActionRegisterUser         Action = "register_user"
	ActionViewAttendanceReport Action = "view_attendance_report"
	ActionRecordAttendance     Action = "record_attendance"
	ActionRaiseTicket          Action = "raise_ticket"
	ActionAssignTicket         Action = "assign_ticket"
	ActionCompleteTicket       Action = "complete_ticket"
	ActionViewOwnTickets       Action = "view_own_tickets"
	ActionViewAssignedTickets  Action = "view_assigned_tickets"
	ActionViewAllTickets       Action = "view_all_tickets"
	ActionListStaff            Action = "list_staff"
	ActionViewTicketHistory    Action = "view_ticket_history"
)

var table = map[Action]map[domain.Role]struct{}{
	ActionRegisterUser:         roles(domain.RoleAdmin),
	ActionViewAttendanceReport: roles(domain.RoleAdmin, domain.RoleManager),
	ActionRecordAttendance:     roles(domain.RoleStaff),
	ActionRaiseTicket:          roles(domain.RoleClient),
	ActionAssignTicket:         roles(domain.RoleAdmin, domain.RoleManager),
	ActionCompleteTicket:       roles(domain.RoleStaff),
	ActionViewOwnTickets:       roles(domain.RoleClient),
	ActionViewAssignedTickets:  roles(domain.RoleStaff),
	ActionViewAllTickets:       roles(domain.RoleAdmin, domain.RoleManager),
	ActionListStaff:            roles(domain.RoleAdmin, domain.RoleManager),
	ActionViewTicketHistory:    roles(domain.RoleAdmin, domain.RoleManager),
}

func roles(rs ...domain.Role) map[domain.Role]struct{} {
	set := make(map[domain.Role]struct{}, len(rs))
	for _, r := range rs {
		set[r] = struct{}{}
	}
	return set
}

// CanPerform reports whether role may invoke action. Unknown roles and
// actions are denied.
func CanPerform(role domain.Role, action Action) bool {
	allowed, ok := table[action]
	if !ok {
		return false
	}
	_, ok = allowed[role]
	return ok
}

// Authorize returns ErrForbidden unless the actor may invoke action.
func Authorize(actor *domain.User, action Action) error {
	if actor == nil || !CanPerform(actor.Role, action) {
		return apperrors.ErrForbidden.WithDetails(map[string]any{"action": string(action)})
	}
	return nil
}
