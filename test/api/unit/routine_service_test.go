package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/domain"
	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/ports"
	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/services"
	"github.com/meedian/meedian-ams/task-schedule-service/test/mocks"
)

func newRoutineService(t *testing.T) (*services.RoutineService, *mocks.MockRoutineRepository, *mocks.MockRosterRepository) {
	t.Helper()
	roster := mocks.NewMockRosterRepository()
	seedRoster(roster)
	roster.SeedWindow(domain.OpenCloseWindow{
		MemberType:         domain.TypeResidential,
		DayOpenTime:        "06:00:00",
		DayCloseTime:       "22:00:00",
		ClosingWindowStart: "19:30:00",
		ClosingWindowEnd:   "20:00:00",
	})
	routines := mocks.NewMockRoutineRepository()
	svc := services.NewRoutineService(roster, routines, services.NewValidator(roster))
	return svc, routines, roster
}

func clockAt(hour, min, sec int) func() time.Time {
	return func() time.Time {
		return time.Date(2026, time.March, 9, hour, min, sec, 0, time.UTC)
	}
}

func TestRoutineService_CloseDay(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
	member := domain.Principal{ID: 7, Role: domain.RoleMember}

	seedStatuses := func(routines *mocks.MockRoutineRepository) {
		routines.SeedDailyStatus(domain.RoutineTaskDailyStatus{RoutineTaskID: 501, MemberID: 7, Status: domain.RoutineInProgress, Date: day})
		routines.SeedDailyStatus(domain.RoutineTaskDailyStatus{RoutineTaskID: 502, MemberID: 7, Status: domain.RoutineNotStarted, Date: day})
	}

	req := ports.CloseDayRequest{
		UserID: 7,
		Date:   day,
		Tasks: []domain.DayCloseItem{
			{RoutineTaskID: 501, MarkAsCompleted: true},
			{RoutineTaskID: 502},
		},
		Comment: "left early for staff meeting",
	}

	t.Run("locks_everyone_completes_flagged_rows", func(t *testing.T) {
		svc, routines, _ := newRoutineService(t)
		seedStatuses(routines)
		svc.WithClock(clockAt(19, 45, 0))

		if err := svc.CloseDay(ctx, member, req); err != nil {
			t.Fatalf("CloseDay() error: %v", err)
		}

		completed, _ := routines.DailyStatus(501, 7, day)
		if !completed.IsLocked || completed.Status != domain.RoutineCompleted {
			t.Errorf("flagged row should be locked and completed, got %+v", completed)
		}
		if completed.Comment != req.Comment {
			t.Errorf("comment = %q, want %q", completed.Comment, req.Comment)
		}

		skipped, _ := routines.DailyStatus(502, 7, day)
		if !skipped.IsLocked {
			t.Error("unflagged row should still be locked")
		}
		if skipped.Status != domain.RoutineNotStarted {
			t.Errorf("unflagged row status should be untouched, got %s", skipped.Status)
		}
	})

	t.Run("succeeds_at_exact_window_start", func(t *testing.T) {
		svc, routines, _ := newRoutineService(t)
		seedStatuses(routines)
		svc.WithClock(clockAt(19, 30, 0))

		if err := svc.CloseDay(ctx, member, req); err != nil {
			t.Errorf("closing at the window start should succeed, got %v", err)
		}
	})

	t.Run("rejected_one_second_before_window", func(t *testing.T) {
		svc, routines, _ := newRoutineService(t)
		seedStatuses(routines)
		svc.WithClock(clockAt(19, 29, 59))

		err := svc.CloseDay(ctx, member, req)
		var winErr *domain.OutsideWindowError
		if !errors.As(err, &winErr) {
			t.Fatalf("expected OutsideWindowError, got %v", err)
		}
		if len(routines.CloseDayCalls) != 0 {
			t.Error("nothing should be written outside the window")
		}
	})

	t.Run("rejected_after_window_end", func(t *testing.T) {
		svc, routines, _ := newRoutineService(t)
		seedStatuses(routines)
		svc.WithClock(clockAt(20, 0, 1))

		var winErr *domain.OutsideWindowError
		if err := svc.CloseDay(ctx, member, req); !errors.As(err, &winErr) {
			t.Fatalf("expected OutsideWindowError, got %v", err)
		}
	})

	t.Run("only_the_member_may_close_their_day", func(t *testing.T) {
		svc, _, _ := newRoutineService(t)
		svc.WithClock(clockAt(19, 45, 0))
		other := domain.Principal{ID: 9, Role: domain.RoleMember}

		err := svc.CloseDay(ctx, other, req)
		var authErr *domain.AuthorizationError
		if !errors.As(err, &authErr) {
			t.Fatalf("expected AuthorizationError, got %v", err)
		}
	})

	t.Run("window_is_looked_up_by_member_type", func(t *testing.T) {
		svc, routines, _ := newRoutineService(t)
		seedStatuses(routines)
		// Member 9 is non_residential and has no window row.
		svc.WithClock(clockAt(19, 45, 0))
		nonRes := domain.Principal{ID: 9, Role: domain.RoleMember}

		err := svc.CloseDay(ctx, nonRes, ports.CloseDayRequest{UserID: 9, Date: day, Tasks: req.Tasks})
		var nfErr *domain.NotFoundError
		if !errors.As(err, &nfErr) {
			t.Fatalf("expected NotFoundError for missing window, got %v", err)
		}
	})
}

func TestRoutineService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
	member := domain.Principal{ID: 7, Role: domain.RoleMember}

	t.Run("moves_open_row", func(t *testing.T) {
		svc, routines, _ := newRoutineService(t)
		routines.SeedDailyStatus(domain.RoutineTaskDailyStatus{RoutineTaskID: 501, MemberID: 7, Status: domain.RoutineNotStarted, Date: day})

		if err := svc.UpdateStatus(ctx, member, 501, day, domain.RoutineInProgress); err != nil {
			t.Fatalf("UpdateStatus() error: %v", err)
		}
		row, _ := routines.DailyStatus(501, 7, day)
		if row.Status != domain.RoutineInProgress {
			t.Errorf("status = %s, want %s", row.Status, domain.RoutineInProgress)
		}
	})

	t.Run("locked_row_rejects_edit", func(t *testing.T) {
		svc, routines, _ := newRoutineService(t)
		routines.SeedDailyStatus(domain.RoutineTaskDailyStatus{RoutineTaskID: 501, MemberID: 7, Status: domain.RoutineInProgress, Date: day, IsLocked: true})

		err := svc.UpdateStatus(ctx, member, 501, day, domain.RoutineDone)
		var lockErr *domain.LockedStateError
		if !errors.As(err, &lockErr) {
			t.Fatalf("expected LockedStateError, got %v", err)
		}
		if len(routines.UpdateStatusCalls) != 0 {
			t.Error("locked row must not reach the store")
		}
	})

	t.Run("terminal_row_rejects_edit", func(t *testing.T) {
		svc, routines, _ := newRoutineService(t)
		routines.SeedDailyStatus(domain.RoutineTaskDailyStatus{RoutineTaskID: 501, MemberID: 7, Status: domain.RoutineVerified, Date: day})

		var lockErr *domain.LockedStateError
		if err := svc.UpdateStatus(ctx, member, 501, day, domain.RoutineInProgress); !errors.As(err, &lockErr) {
			t.Fatalf("expected LockedStateError, got %v", err)
		}
	})
}

func TestRoutineService_CreateRoutineTask(t *testing.T) {
	ctx := context.Background()
	admin := domain.Principal{ID: 1, Role: domain.RoleAdmin}

	t.Run("admin_creates_task_with_first_status_row", func(t *testing.T) {
		svc, routines, _ := newRoutineService(t)

		id, err := svc.CreateRoutineTask(ctx, admin, 7, "Morning attendance", "")
		if err != nil {
			t.Fatalf("CreateRoutineTask() error: %v", err)
		}
		if id == 0 {
			t.Error("expected a new task id")
		}
		if len(routines.CreateCalls) != 1 {
			t.Fatalf("expected 1 create call, got %d", len(routines.CreateCalls))
		}
	})

	t.Run("member_cannot_create", func(t *testing.T) {
		svc, _, _ := newRoutineService(t)
		member := domain.Principal{ID: 7, Role: domain.RoleMember}

		_, err := svc.CreateRoutineTask(ctx, member, 7, "Morning attendance", "")
		var authErr *domain.AuthorizationError
		if !errors.As(err, &authErr) {
			t.Fatalf("expected AuthorizationError, got %v", err)
		}
	})

	t.Run("unknown_member_is_not_found", func(t *testing.T) {
		svc, _, _ := newRoutineService(t)

		_, err := svc.CreateRoutineTask(ctx, admin, 404, "Morning attendance", "")
		var nfErr *domain.NotFoundError
		if !errors.As(err, &nfErr) {
			t.Fatalf("expected NotFoundError, got %v", err)
		}
	})
}

func TestRoutineService_ListRoutineTasks(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)

	t.Run("member_reads_own_tasks", func(t *testing.T) {
		svc, routines, _ := newRoutineService(t)
		routines.SeedDailyStatus(domain.RoutineTaskDailyStatus{RoutineTaskID: 501, MemberID: 7, Status: domain.RoutineNotStarted, Date: day})
		member := domain.Principal{ID: 7, Role: domain.RoleMember}

		view, err := svc.ListRoutineTasks(ctx, member, 7, day)
		if err != nil {
			t.Fatalf("ListRoutineTasks() error: %v", err)
		}
		if len(view.Statuses) != 1 {
			t.Errorf("expected 1 status row, got %d", len(view.Statuses))
		}
	})

	t.Run("member_cannot_read_another_members_tasks", func(t *testing.T) {
		svc, _, _ := newRoutineService(t)
		member := domain.Principal{ID: 7, Role: domain.RoleMember}

		_, err := svc.ListRoutineTasks(ctx, member, 9, day)
		var authErr *domain.AuthorizationError
		if !errors.As(err, &authErr) {
			t.Fatalf("expected AuthorizationError, got %v", err)
		}
	})

	t.Run("admin_reads_anyones_tasks", func(t *testing.T) {
		svc, _, _ := newRoutineService(t)
		admin := domain.Principal{ID: 1, Role: domain.RoleAdmin}

		if _, err := svc.ListRoutineTasks(ctx, admin, 9, day); err != nil {
			t.Errorf("admin read should succeed, got %v", err)
		}
	})
}
