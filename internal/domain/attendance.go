package domain

import "time"

// AttendanceState is the per (user, day) lifecycle.
type AttendanceState string

const (
	AttendanceNoRecord AttendanceState = "NO_RECORD"
	AttendanceOpen     AttendanceState = "OPEN"
	AttendanceClosed   AttendanceState = "CLOSED"
)

// AttendanceRecord is the single check-in/check-out pair for a user on a day.
type AttendanceRecord struct {
	ID       int64
	UserID   int64
	WorkDate time.Time
	CheckIn  *time.Time
	CheckOut *time.Time
}

// State derives the lifecycle state from the timestamps.
func (r *AttendanceRecord) State() AttendanceState {
	switch {
	case r == nil || r.CheckIn == nil:
		return AttendanceNoRecord
	case r.CheckOut == nil:
		return AttendanceOpen
	default:
		return AttendanceClosed
	}
}

// CalendarDate truncates t to midnight UTC of its calendar day in loc.
func CalendarDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}
