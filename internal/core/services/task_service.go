package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/domain"
	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/ports"
)

// TaskNotifyEventType names outbox rows carrying task notifications;
// the relay matches on it when draining to the broker.
const TaskNotifyEventType = "task.notify"

// TaskService orchestrates assigned-task creation, status transitions
// and log entries. Notification fan-out is best-effort: creation
// events ride the transactional outbox, transition events go straight
// to the publisher, and neither failure path rolls back task state.
type TaskService struct {
	tasks     ports.TaskRepository
	validator *Validator
	publisher ports.TaskNotifyPublisher
	now       func() time.Time
}

var _ ports.TaskService = (*TaskService)(nil)

func NewTaskService(tasks ports.TaskRepository, validator *Validator, publisher ports.TaskNotifyPublisher) *TaskService {
	return &TaskService{
		tasks:     tasks,
		validator: validator,
		publisher: publisher,
		now:       time.Now,
	}
}

// WithClock replaces the wall clock, for tests.
func (s *TaskService) WithClock(now func() time.Time) *TaskService {
	s.now = now
	return s
}

// ListTasks returns all tasks with their derived status. Tasks left
// with no assignees are orphaned and excluded from the listing.
func (s *TaskService) ListTasks(ctx context.Context) ([]ports.TaskView, error) {
	tasks, err := s.tasks.ListTasks(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]ports.TaskView, 0, len(tasks))
	for _, t := range tasks {
		if len(t.Assignees) == 0 {
			continue
		}
		views = append(views, ports.TaskView{
			AssignedTask: t,
			Status:       t.AggregateStatus(),
		})
	}
	return views, nil
}

// CreateTask validates the request, inserts the task with one
// not_started status row per assignee, and queues one notification
// per assignee in the same transaction. Managers only.
func (s *TaskService) CreateTask(ctx context.Context, p domain.Principal, req ports.CreateTaskRequest) (int64, error) {
	if err := s.validator.Authorize(p, domain.RoleAdmin, domain.RoleTeamManager); err != nil {
		return 0, err
	}
	if req.Title == "" {
		return 0, &domain.ValidationError{Entity: "task", Field: "title", Msg: "is required"}
	}
	if err := s.validator.Assignees(ctx, p, req.Assignees); err != nil {
		return 0, err
	}

	taskType := req.TaskType
	if taskType == "" {
		taskType = "assigned"
	}
	createdBy := req.CreatedBy
	if createdBy == 0 {
		createdBy = p.ID
	}

	task := domain.AssignedTask{
		Title:       req.Title,
		Description: req.Description,
		TaskType:    taskType,
		CreatedBy:   createdBy,
		CreatedAt:   s.now(),
		Deadline:    req.Deadline,
		Resources:   req.Resources,
	}

	events := make([]ports.OutboxEvent, 0, len(req.Assignees))
	for _, memberID := range req.Assignees {
		evt := ports.TaskNotifyEvent{
			SenderID:    createdBy,
			RecipientID: memberID,
			Message:     fmt.Sprintf("New task assigned: %s", req.Title),
		}
		payload, err := json.Marshal(evt)
		if err != nil {
			return 0, err
		}
		events = append(events, ports.OutboxEvent{
			ID:        uuid.NewString(),
			EventType: TaskNotifyEventType,
			Payload:   payload,
		})
	}

	return s.tasks.CreateTask(ctx, task, req.Assignees, events)
}

// UpdateStatus moves the acting principal's own status row. Terminal
// rows reject member-initiated edits.
func (s *TaskService) UpdateStatus(ctx context.Context, p domain.Principal, taskID int64, status domain.TaskStatus) error {
	current, err := s.tasks.GetAssigneeStatus(ctx, taskID, p.ID)
	if err != nil {
		return err
	}
	if p.Role == domain.RoleMember && current.Status.IsTerminal() {
		return &domain.LockedStateError{Entity: "task status", ID: taskID, Reason: "status is " + string(current.Status)}
	}

	if err := s.tasks.UpdateAssigneeStatus(ctx, taskID, p.ID, status); err != nil {
		return err
	}
	s.appendLog(ctx, taskID, p.ID, domain.LogStatusUpdate,
		fmt.Sprintf("status %s -> %s", current.Status, status))

	s.fanOut(ctx, taskID, p.ID, fmt.Sprintf("Task %d moved to %s", taskID, status))
	return nil
}

// Verify marks one assignee's row verified. Managers only; the target
// row must exist.
func (s *TaskService) Verify(ctx context.Context, p domain.Principal, taskID, memberID int64) error {
	if err := s.validator.Authorize(p, domain.RoleAdmin, domain.RoleTeamManager); err != nil {
		return err
	}
	if _, err := s.tasks.GetAssigneeStatus(ctx, taskID, memberID); err != nil {
		return err
	}
	if err := s.tasks.UpdateAssigneeStatus(ctx, taskID, memberID, domain.StatusVerified); err != nil {
		return err
	}
	s.appendLog(ctx, taskID, p.ID, domain.LogVerify,
		fmt.Sprintf("verified work of member %d", memberID))

	s.fanOut(ctx, taskID, p.ID, fmt.Sprintf("Task %d verified for member %d", taskID, memberID))
	return nil
}

func (s *TaskService) AddLog(ctx context.Context, p domain.Principal, taskID int64, detail string) error {
	if detail == "" {
		return &domain.ValidationError{Entity: "task log", ID: taskID, Field: "detail", Msg: "is required"}
	}
	return s.tasks.InsertLog(ctx, domain.TaskLog{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		ActorID:   p.ID,
		Kind:      domain.LogNote,
		Detail:    detail,
		CreatedAt: s.now(),
	})
}

// appendLog records the audit entry; the mutation it describes has
// already committed, so a logging failure is logged and swallowed.
func (s *TaskService) appendLog(ctx context.Context, taskID, actorID int64, kind domain.TaskLogKind, detail string) {
	err := s.tasks.InsertLog(ctx, domain.TaskLog{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		ActorID:   actorID,
		Kind:      kind,
		Detail:    detail,
		CreatedAt: s.now(),
	})
	if err != nil {
		log.Printf("task service: failed to append log for task %d: %v", taskID, err)
	}
}

// fanOut notifies every other assignee of the task. Best-effort: a
// publish failure never surfaces to the caller.
func (s *TaskService) fanOut(ctx context.Context, taskID, actorID int64, message string) {
	ids, err := s.tasks.ListAssigneeIDs(ctx, taskID)
	if err != nil {
		log.Printf("task service: fan-out skipped for task %d: %v", taskID, err)
		return
	}
	for _, id := range ids {
		if id == actorID {
			continue
		}
		evt := ports.TaskNotifyEvent{SenderID: actorID, RecipientID: id, Message: message}
		if err := s.publisher.PublishTaskNotify(ctx, evt); err != nil {
			log.Printf("task service: notify member %d failed: %v", id, err)
		}
	}
}
