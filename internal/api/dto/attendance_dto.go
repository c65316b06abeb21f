package dto

import (
	"time"

	"github.com/spec-kit/ops-desk/internal/domain"
)

// AttendanceResponse is the wire form of an attendance record.
type AttendanceResponse struct {
	ID       int64                  `json:"id"`
	UserID   int64                  `json:"user_id"`
	WorkDate string                 `json:"work_date"`
	CheckIn  *time.Time             `json:"check_in"`
	CheckOut *time.Time             `json:"check_out"`
	State    domain.AttendanceState `json:"state"`
}

// NewAttendanceResponse maps a record.
func NewAttendanceResponse(record *domain.AttendanceRecord) AttendanceResponse {
	return AttendanceResponse{
		ID:       record.ID,
		UserID:   record.UserID,
		WorkDate: record.WorkDate.Format(time.DateOnly),
		CheckIn:  record.CheckIn,
		CheckOut: record.CheckOut,
		State:    record.State(),
	}
}
