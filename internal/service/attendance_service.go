package service

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/ops-desk/internal/domain"
	"github.com/spec-kit/ops-desk/internal/events"
	"github.com/spec-kit/ops-desk/internal/policy"
	"github.com/spec-kit/ops-desk/internal/repository"
	apperrors "github.com/spec-kit/ops-desk/pkg/util/errorutil"
)

// AttendanceService allows one check-in and one check-out per user per day.
type AttendanceService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	clock      Clock
	loc        *time.Location
}

// AttendanceDependencies bundles collaborators.
type AttendanceDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
	Clock      Clock
	// Location decides the calendar day of a timestamp. Defaults to UTC.
	Location *time.Location
}

// NewAttendanceService creates the service.
func NewAttendanceService(deps AttendanceDependencies) *AttendanceService {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return &AttendanceService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		clock:      clockOrNow(deps.Clock),
		loc:        loc,
	}
}

// CheckIn opens today's record for actor.
func (s *AttendanceService) CheckIn(ctx context.Context, actor *domain.User) (*domain.AttendanceRecord, error) {
	if err := policy.Authorize(actor, policy.ActionRecordAttendance); err != nil {
		return nil, err
	}
	now := s.clock()
	workDate := domain.CalendarDate(now, s.loc)
	record := &domain.AttendanceRecord{UserID: actor.ID, WorkDate: workDate, CheckIn: &now}

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		_, err := tx.Attendance().GetByUserAndDateForUpdate(ctx, actor.ID, workDate)
		if err == nil {
			return apperrors.ErrAlreadyCheckedIn
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if err := tx.Attendance().Create(ctx, record); err != nil {
			// A concurrent check-in won the unique (user_id, work_date) slot.
			if errors.Is(err, repository.ErrConflict) {
				return apperrors.ErrAlreadyCheckedIn
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapStorageError(err)
	}

	s.publish(ctx, events.EventAttendanceCheckedIn, actor, record, now)
	return record, nil
}

// CheckOut closes today's open record for actor.
func (s *AttendanceService) CheckOut(ctx context.Context, actor *domain.User) (*domain.AttendanceRecord, error) {
	if err := policy.Authorize(actor, policy.ActionRecordAttendance); err != nil {
		return nil, err
	}
	now := s.clock()
	workDate := domain.CalendarDate(now, s.loc)

	var record *domain.AttendanceRecord
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		existing, err := tx.Attendance().GetByUserAndDateForUpdate(ctx, actor.ID, workDate)
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.ErrNoOpenSession
		}
		if err != nil {
			return err
		}
		switch existing.State() {
		case domain.AttendanceClosed:
			return apperrors.ErrAlreadyCheckedOut
		case domain.AttendanceNoRecord:
			return apperrors.ErrNoOpenSession
		}
		existing.CheckOut = &now
		if err := tx.Attendance().Update(ctx, existing); err != nil {
			return err
		}
		record = existing
		return nil
	})
	if err != nil {
		return nil, apperrors.MapStorageError(err)
	}

	s.publish(ctx, events.EventAttendanceCheckedOut, actor, record, now)
	return record, nil
}

// Today returns actor's record for the current day, or nil if there is none.
func (s *AttendanceService) Today(ctx context.Context, actor *domain.User) (*domain.AttendanceRecord, error) {
	if err := policy.Authorize(actor, policy.ActionRecordAttendance); err != nil {
		return nil, err
	}
	workDate := domain.CalendarDate(s.clock(), s.loc)
	record, err := s.store.Attendance().GetByUserAndDate(ctx, actor.ID, workDate)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.MapStorageError(err)
	}
	return record, nil
}

// Report lists records dated within [start, end], ordered by date then user.
// Bounds are read as the wall-clock date in their own location.
func (s *AttendanceService) Report(ctx context.Context, actor *domain.User, start, end time.Time) ([]domain.AttendanceRecord, error) {
	if err := policy.Authorize(actor, policy.ActionViewAttendanceReport); err != nil {
		return nil, err
	}
	start = domain.CalendarDate(start, start.Location())
	end = domain.CalendarDate(end, end.Location())
	if end.Before(start) {
		return nil, apperrors.NewValidationError("end date precedes start date", map[string]any{
			"start": start.Format(time.DateOnly),
			"end":   end.Format(time.DateOnly),
		})
	}
	records, err := s.store.Attendance().ListByDateRange(ctx, start, end)
	if err != nil {
		return nil, apperrors.MapStorageError(err)
	}
	return records, nil
}

func (s *AttendanceService) publish(ctx context.Context, eventType events.EventType, actor *domain.User, record *domain.AttendanceRecord, at time.Time) {
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      eventType,
		SubjectID: record.ID,
		Actor:     actorOf(actor),
		Payload: events.AttendancePayload{
			WorkDate: record.WorkDate.Format(time.DateOnly),
			At:       at,
		},
	})
}
