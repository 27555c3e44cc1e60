package ports

import (
	"context"
	"time"

	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/domain"
)

// RosterRepository is the store port for members, working windows,
// daily slots, the academic calendar and the student roster. Bulk
// writes are transactional: a mid-batch failure persists nothing.
type RosterRepository interface {
	ListMembers(ctx context.Context) ([]domain.Member, error)
	GetMember(ctx context.Context, id int64) (*domain.Member, error)
	BulkUpdateMembers(ctx context.Context, updates []domain.Member) error
	// FindMemberIDByEmail matches case-insensitively; returns 0 when
	// no member has the address.
	FindMemberIDByEmail(ctx context.Context, email string) (int64, error)
	// MemberIDSet loads all member ids once, for per-batch reference
	// checks.
	MemberIDSet(ctx context.Context) (map[int64]struct{}, error)
	// MemberIDSetForManager restricts the set to members sharing the
	// given team manager type.
	MemberIDSetForManager(ctx context.Context, tmType domain.TeamManagerType) (map[int64]struct{}, error)

	ListWindows(ctx context.Context) ([]domain.OpenCloseWindow, error)
	GetWindow(ctx context.Context, memberType domain.MemberType) (*domain.OpenCloseWindow, error)
	UpdateWindows(ctx context.Context, windows []domain.OpenCloseWindow) error

	// ListSlots joins the current assignment over each slot and falls
	// back to the slot's own assigned member when no assignment row
	// exists.
	ListSlots(ctx context.Context) ([]domain.DailySlot, error)
	SlotIDSet(ctx context.Context) (map[int64]struct{}, error)
	// UpsertAssignment keeps at most one live assignment per slot,
	// race-safe under concurrent writers.
	UpsertAssignment(ctx context.Context, a domain.SlotAssignment) error
	// BulkUpdateSlots applies a validated batch of assignment upserts
	// and slot time changes in one transaction.
	BulkUpdateSlots(ctx context.Context, changes []domain.SlotChange) error
	DeleteAssignment(ctx context.Context, slotID int64) error

	ListCalendar(ctx context.Context) ([]domain.CalendarEntry, error)
	InsertCalendarEntry(ctx context.Context, e domain.CalendarEntry) (int64, error)
	BulkUpdateCalendar(ctx context.Context, updates []domain.CalendarEntry) error
	DeleteCalendarEntry(ctx context.Context, id int64) error

	ListStudents(ctx context.Context) ([]domain.Student, error)
}

// TaskRepository is the store port for assigned tasks, their
// per-assignee status rows, sprints and audit logs.
type TaskRepository interface {
	// ListTasks returns tasks with assignee statuses and sprints
	// loaded.
	ListTasks(ctx context.Context) ([]domain.AssignedTask, error)
	// CreateTask inserts the task, one not_started status row per
	// assignee, and the given outbox events in a single transaction.
	CreateTask(ctx context.Context, task domain.AssignedTask, assigneeIDs []int64, events []OutboxEvent) (int64, error)
	GetAssigneeStatus(ctx context.Context, taskID, memberID int64) (*domain.TaskAssignee, error)
	ListAssigneeIDs(ctx context.Context, taskID int64) ([]int64, error)
	UpdateAssigneeStatus(ctx context.Context, taskID, memberID int64, status domain.TaskStatus) error
	InsertLog(ctx context.Context, entry domain.TaskLog) error
}

// RoutineRepository is the store port for routine tasks and their
// one-row-per-day statuses.
type RoutineRepository interface {
	ListRoutineTasks(ctx context.Context, memberID int64) ([]domain.RoutineTask, error)
	ListDailyStatuses(ctx context.Context, memberID int64, date time.Time) ([]domain.RoutineTaskDailyStatus, error)
	// CreateRoutineTask inserts the task and its first daily status
	// row in one transaction.
	CreateRoutineTask(ctx context.Context, task domain.RoutineTask, status domain.RoutineStatus) (int64, error)
	GetDailyStatus(ctx context.Context, routineTaskID, memberID int64, date time.Time) (*domain.RoutineTaskDailyStatus, error)
	UpdateDailyStatus(ctx context.Context, routineTaskID, memberID int64, date time.Time, status domain.RoutineStatus) error
	// CloseDay locks every status row matched by items for the member
	// and date, and marks the flagged ones completed, in one
	// transaction.
	CloseDay(ctx context.Context, memberID int64, date time.Time, items []domain.DayCloseItem, comment string) error
}
