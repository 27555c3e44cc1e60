// Package unit contains unit tests for the core services. Each test
// wires a service against in-memory mocks of its ports, so the suite
// runs without a database, broker or Redis.
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

func seedRoster(roster *mocks.MockRosterRepository) {
	roster.SeedMember(domain.Member{ID: 7, Name: "Asha", Email: "asha@school.edu", Role: domain.RoleMember, Type: domain.TypeResidential})
	roster.SeedMember(domain.Member{ID: 9, Name: "Ravi", Email: "ravi@school.edu", Role: domain.RoleMember, Type: domain.TypeNonResidential})
	roster.SeedMember(domain.Member{ID: 2, Name: "Meera", Email: "meera@school.edu", Role: domain.RoleTeamManager, TeamManagerType: domain.TMCoordinator})
}

func newTaskService(t *testing.T) (*services.TaskService, *mocks.MockTaskRepository, *mocks.MockRosterRepository, *mocks.MockTaskNotifyPublisher) {
	t.Helper()
	roster := mocks.NewMockRosterRepository()
	seedRoster(roster)
	tasks := mocks.NewMockTaskRepository()
	publisher := mocks.NewMockTaskNotifyPublisher()
	svc := services.NewTaskService(tasks, services.NewValidator(roster), publisher)
	return svc, tasks, roster, publisher
}

func TestTaskService_CreateTask(t *testing.T) {
	ctx := context.Background()
	admin := domain.Principal{ID: 1, Role: domain.RoleAdmin}

	t.Run("creates_status_rows_and_outbox_events_per_assignee", func(t *testing.T) {
		svc, tasks, _, _ := newTaskService(t)

		id, err := svc.CreateTask(ctx, admin, ports.CreateTaskRequest{
			Title:     "Prepare annual day schedule",
			Assignees: []int64{7, 9},
		})
		if err != nil {
			t.Fatalf("CreateTask() error: %v", err)
		}

		for _, memberID := range []int64{7, 9} {
			status, ok := tasks.Status(id, memberID)
			if !ok {
				t.Fatalf("no status row for member %d", memberID)
			}
			if status != domain.StatusNotStarted {
				t.Errorf("member %d status = %s, want %s", memberID, status, domain.StatusNotStarted)
			}
		}

		events := tasks.OutboxEvents()
		if len(events) != 2 {
			t.Fatalf("expected 2 outbox events, got %d", len(events))
		}
		for _, evt := range events {
			if evt.EventType != services.TaskNotifyEventType {
				t.Errorf("event type = %s, want %s", evt.EventType, services.TaskNotifyEventType)
			}
			if evt.ID == "" {
				t.Error("event id should be set")
			}
		}

		// The fresh task must list with a not_started aggregate.
		views, err := svc.ListTasks(ctx)
		if err != nil {
			t.Fatalf("ListTasks() error: %v", err)
		}
		if len(views) != 1 {
			t.Fatalf("expected 1 task, got %d", len(views))
		}
		if views[0].Status != domain.StatusNotStarted {
			t.Errorf("aggregate = %s, want %s", views[0].Status, domain.StatusNotStarted)
		}
	})

	t.Run("member_cannot_create_tasks", func(t *testing.T) {
		svc, tasks, _, _ := newTaskService(t)
		member := domain.Principal{ID: 7, Role: domain.RoleMember}

		_, err := svc.CreateTask(ctx, member, ports.CreateTaskRequest{
			Title:     "Prepare annual day schedule",
			Assignees: []int64{9},
		})
		var authErr *domain.AuthorizationError
		if !errors.As(err, &authErr) {
			t.Fatalf("expected AuthorizationError, got %v", err)
		}
		if len(tasks.CreateTaskCalls) != 0 {
			t.Error("a member principal must not reach the store")
		}
	})

	t.Run("rejects_missing_title", func(t *testing.T) {
		svc, tasks, _, _ := newTaskService(t)

		_, err := svc.CreateTask(ctx, admin, ports.CreateTaskRequest{Assignees: []int64{7}})
		var valErr *domain.ValidationError
		if !errors.As(err, &valErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if len(tasks.CreateTaskCalls) != 0 {
			t.Error("nothing should be written on validation failure")
		}
	})

	t.Run("rejects_empty_assignee_list", func(t *testing.T) {
		svc, _, _, _ := newTaskService(t)

		_, err := svc.CreateTask(ctx, admin, ports.CreateTaskRequest{Title: "x"})
		var valErr *domain.ValidationError
		if !errors.As(err, &valErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("rejects_unknown_assignee_naming_the_id", func(t *testing.T) {
		svc, tasks, _, _ := newTaskService(t)

		_, err := svc.CreateTask(ctx, admin, ports.CreateTaskRequest{
			Title:     "x",
			Assignees: []int64{7, 404},
		})
		var valErr *domain.ValidationError
		if !errors.As(err, &valErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if valErr.ID != 404 {
			t.Errorf("error should name the bad assignee, got id %d", valErr.ID)
		}
		if len(tasks.CreateTaskCalls) != 0 {
			t.Error("nothing should be written when one assignee is invalid")
		}
	})

	t.Run("team_manager_cannot_assign_outside_own_team", func(t *testing.T) {
		svc, _, roster, _ := newTaskService(t)
		roster.SeedMember(domain.Member{ID: 12, Name: "Dev", Email: "dev@school.edu", Role: domain.RoleMember, TeamManagerType: domain.TMCoordinator})
		manager := domain.Principal{ID: 2, Role: domain.RoleTeamManager, TeamManagerType: domain.TMCoordinator}

		// Member 12 shares the coordinator team, member 7 does not.
		if _, err := svc.CreateTask(ctx, manager, ports.CreateTaskRequest{Title: "x", Assignees: []int64{12}}); err != nil {
			t.Errorf("in-team assignee should be accepted, got %v", err)
		}
		_, err := svc.CreateTask(ctx, manager, ports.CreateTaskRequest{Title: "x", Assignees: []int64{7}})
		var valErr *domain.ValidationError
		if !errors.As(err, &valErr) {
			t.Fatalf("expected ValidationError for out-of-team assignee, got %v", err)
		}
	})
}

func TestTaskService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	seed := func(tasks *mocks.MockTaskRepository, status domain.TaskStatus) {
		tasks.SeedTask(domain.AssignedTask{
			ID:    1,
			Title: "Grade notebooks",
			Assignees: []domain.TaskAssignee{
				{MemberID: 7, Status: status},
				{MemberID: 9, Status: domain.StatusNotStarted},
			},
		})
	}

	t.Run("moves_own_row_and_notifies_other_assignees", func(t *testing.T) {
		svc, tasks, _, publisher := newTaskService(t)
		seed(tasks, domain.StatusNotStarted)
		actor := domain.Principal{ID: 7, Role: domain.RoleMember}

		if err := svc.UpdateStatus(ctx, actor, 1, domain.StatusInProgress); err != nil {
			t.Fatalf("UpdateStatus() error: %v", err)
		}

		status, _ := tasks.Status(1, 7)
		if status != domain.StatusInProgress {
			t.Errorf("status = %s, want %s", status, domain.StatusInProgress)
		}

		events := publisher.GetPublishedEvents()
		if len(events) != 1 {
			t.Fatalf("expected 1 notification, got %d", len(events))
		}
		if events[0].RecipientID != 9 || events[0].SenderID != 7 {
			t.Errorf("notification should go to the other assignee, got %+v", events[0])
		}

		logs := tasks.Logs()
		if len(logs) != 1 || logs[0].Kind != domain.LogStatusUpdate {
			t.Errorf("expected one status_update log, got %+v", logs)
		}
	})

	t.Run("member_cannot_move_terminal_row", func(t *testing.T) {
		svc, tasks, _, _ := newTaskService(t)
		seed(tasks, domain.StatusVerified)
		actor := domain.Principal{ID: 7, Role: domain.RoleMember}

		err := svc.UpdateStatus(ctx, actor, 1, domain.StatusInProgress)
		var lockErr *domain.LockedStateError
		if !errors.As(err, &lockErr) {
			t.Fatalf("expected LockedStateError, got %v", err)
		}
		if status, _ := tasks.Status(1, 7); status != domain.StatusVerified {
			t.Errorf("terminal row must not change, got %s", status)
		}
	})

	t.Run("admin_may_reopen_terminal_row", func(t *testing.T) {
		svc, tasks, _, _ := newTaskService(t)
		seed(tasks, domain.StatusDone)
		actor := domain.Principal{ID: 7, Role: domain.RoleAdmin}

		if err := svc.UpdateStatus(ctx, actor, 1, domain.StatusInProgress); err != nil {
			t.Fatalf("UpdateStatus() error: %v", err)
		}
		if status, _ := tasks.Status(1, 7); status != domain.StatusInProgress {
			t.Errorf("status = %s, want %s", status, domain.StatusInProgress)
		}
	})

	t.Run("publish_failure_never_fails_the_update", func(t *testing.T) {
		svc, tasks, _, publisher := newTaskService(t)
		seed(tasks, domain.StatusNotStarted)
		publisher.PublishError = errors.New("broker down")
		actor := domain.Principal{ID: 7, Role: domain.RoleMember}

		if err := svc.UpdateStatus(ctx, actor, 1, domain.StatusDone); err != nil {
			t.Fatalf("UpdateStatus() should swallow publish failures, got %v", err)
		}
		if status, _ := tasks.Status(1, 7); status != domain.StatusDone {
			t.Errorf("status = %s, want %s", status, domain.StatusDone)
		}
	})

	t.Run("unknown_task_is_not_found", func(t *testing.T) {
		svc, _, _, _ := newTaskService(t)
		actor := domain.Principal{ID: 7, Role: domain.RoleMember}

		err := svc.UpdateStatus(ctx, actor, 99, domain.StatusDone)
		var nfErr *domain.NotFoundError
		if !errors.As(err, &nfErr) {
			t.Fatalf("expected NotFoundError, got %v", err)
		}
	})
}

func TestTaskService_Verify(t *testing.T) {
	ctx := context.Background()

	seed := func(tasks *mocks.MockTaskRepository) {
		tasks.SeedTask(domain.AssignedTask{
			ID:        1,
			Title:     "Grade notebooks",
			Assignees: []domain.TaskAssignee{{MemberID: 7, Status: domain.StatusDone}},
		})
	}

	t.Run("manager_verifies_assignee_row", func(t *testing.T) {
		svc, tasks, _, _ := newTaskService(t)
		seed(tasks)
		manager := domain.Principal{ID: 2, Role: domain.RoleTeamManager, TeamManagerType: domain.TMCoordinator}

		if err := svc.Verify(ctx, manager, 1, 7); err != nil {
			t.Fatalf("Verify() error: %v", err)
		}
		if status, _ := tasks.Status(1, 7); status != domain.StatusVerified {
			t.Errorf("status = %s, want %s", status, domain.StatusVerified)
		}
		logs := tasks.Logs()
		if len(logs) != 1 || logs[0].Kind != domain.LogVerify {
			t.Errorf("expected one verify log, got %+v", logs)
		}
	})

	t.Run("member_cannot_verify", func(t *testing.T) {
		svc, tasks, _, _ := newTaskService(t)
		seed(tasks)
		member := domain.Principal{ID: 7, Role: domain.RoleMember}

		err := svc.Verify(ctx, member, 1, 7)
		var authErr *domain.AuthorizationError
		if !errors.As(err, &authErr) {
			t.Fatalf("expected AuthorizationError, got %v", err)
		}
	})
}

func TestTaskService_ListTasks_ExcludesOrphans(t *testing.T) {
	ctx := context.Background()
	svc, tasks, _, _ := newTaskService(t)

	tasks.SeedTask(domain.AssignedTask{ID: 1, Title: "orphaned"})
	tasks.SeedTask(domain.AssignedTask{
		ID:        2,
		Title:     "live",
		Assignees: []domain.TaskAssignee{{MemberID: 7, Status: domain.StatusInProgress}},
	})

	views, err := svc.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks() error: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected orphaned task excluded, got %d tasks", len(views))
	}
	if views[0].ID != 2 || views[0].Status != domain.StatusInProgress {
		t.Errorf("unexpected view %+v", views[0])
	}
}

func TestTaskService_AddLog(t *testing.T) {
	ctx := context.Background()
	svc, tasks, _, _ := newTaskService(t)
	svc.WithClock(func() time.Time { return time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC) })
	actor := domain.Principal{ID: 7, Role: domain.RoleMember}

	if err := svc.AddLog(ctx, actor, 1, "called parents about absence"); err != nil {
		t.Fatalf("AddLog() error: %v", err)
	}
	logs := tasks.Logs()
	if len(logs) != 1 {
		t.Fatalf("expected 1 log, got %d", len(logs))
	}
	if logs[0].Kind != domain.LogNote || logs[0].ActorID != 7 || logs[0].ID == "" {
		t.Errorf("unexpected log %+v", logs[0])
	}

	if err := svc.AddLog(ctx, actor, 1, ""); err == nil {
		t.Error("empty detail should be rejected")
	}
}
