package services

import (
	"context"
	"time"

	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/domain"
	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/ports"
)

// RoutineService handles per-member routine tasks, their daily status
// rows, and the day-close flow gated by the member type's closing
// window.
type RoutineService struct {
	roster    ports.RosterRepository
	routines  ports.RoutineRepository
	validator *Validator
	now       func() time.Time
}

var _ ports.RoutineService = (*RoutineService)(nil)

func NewRoutineService(roster ports.RosterRepository, routines ports.RoutineRepository, validator *Validator) *RoutineService {
	return &RoutineService{
		roster:    roster,
		routines:  routines,
		validator: validator,
		now:       time.Now,
	}
}

// WithClock replaces the wall clock, for tests.
func (s *RoutineService) WithClock(now func() time.Time) *RoutineService {
	s.now = now
	return s
}

// ListRoutineTasks returns a member's routine tasks and that date's
// status rows. Members may only read their own; admins may read
// anyone's.
func (s *RoutineService) ListRoutineTasks(ctx context.Context, p domain.Principal, memberID int64, date time.Time) (*ports.RoutineView, error) {
	if memberID != p.ID {
		if err := s.validator.Authorize(p, domain.RoleAdmin); err != nil {
			return nil, err
		}
	}

	tasks, err := s.routines.ListRoutineTasks(ctx, memberID)
	if err != nil {
		return nil, err
	}
	statuses, err := s.routines.ListDailyStatuses(ctx, memberID, date)
	if err != nil {
		return nil, err
	}
	return &ports.RoutineView{Tasks: tasks, Statuses: statuses}, nil
}

// CreateRoutineTask adds a routine task for a member, with its first
// daily status row. Admin only.
func (s *RoutineService) CreateRoutineTask(ctx context.Context, p domain.Principal, memberID int64, description string, status domain.RoutineStatus) (int64, error) {
	if err := s.validator.Authorize(p, domain.RoleAdmin); err != nil {
		return 0, err
	}
	if memberID == 0 || description == "" {
		return 0, &domain.ValidationError{Entity: "routine task", Field: "memberId", Msg: "memberId and description are required"}
	}
	if _, err := s.roster.GetMember(ctx, memberID); err != nil {
		return 0, err
	}

	if status == "" {
		status = domain.RoutineNotStarted
	}
	task := domain.RoutineTask{
		MemberID:    memberID,
		Description: description,
		CreatedAt:   s.now(),
	}
	return s.routines.CreateRoutineTask(ctx, task, status)
}

// UpdateStatus moves one of the caller's daily status rows. Locked
// rows and terminal statuses reject the edit regardless of the new
// value.
func (s *RoutineService) UpdateStatus(ctx context.Context, p domain.Principal, routineTaskID int64, date time.Time, status domain.RoutineStatus) error {
	if routineTaskID == 0 || status == "" {
		return &domain.ValidationError{Entity: "routine task status", ID: routineTaskID, Field: "status", Msg: "taskId and status are required"}
	}

	current, err := s.routines.GetDailyStatus(ctx, routineTaskID, p.ID, date)
	if err != nil {
		return err
	}
	if err := current.CanMemberEdit(); err != nil {
		return err
	}
	return s.routines.UpdateDailyStatus(ctx, routineTaskID, p.ID, date, status)
}

// CloseDay locks in the member's routine statuses for the day. Only
// the window's own member may close it, and only while the member
// type's closing window is open. Every submitted row gets locked;
// rows marked completed also get the status and the optional comment.
func (s *RoutineService) CloseDay(ctx context.Context, p domain.Principal, req ports.CloseDayRequest) error {
	if req.UserID == 0 || req.Date.IsZero() {
		return &domain.ValidationError{Entity: "close day", Field: "userId", Msg: "userId and date are required"}
	}
	if req.UserID != p.ID {
		return &domain.AuthorizationError{Msg: "only the member may close their own day"}
	}

	member, err := s.roster.GetMember(ctx, req.UserID)
	if err != nil {
		return err
	}
	window, err := s.roster.GetWindow(ctx, member.Type)
	if err != nil {
		return err
	}
	if err := window.RequireClosable(s.now()); err != nil {
		return err
	}

	return s.routines.CloseDay(ctx, req.UserID, req.Date, req.Tasks, req.Comment)
}
