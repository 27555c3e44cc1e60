package ports

import (
	"context"
	"time"

	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/domain"
)

type TaskService interface {
	ListTasks(ctx context.Context) ([]TaskView, error)
	CreateTask(ctx context.Context, p domain.Principal, req CreateTaskRequest) (int64, error)
	// UpdateStatus moves the acting principal's own status row.
	UpdateStatus(ctx context.Context, p domain.Principal, taskID int64, status domain.TaskStatus) error
	// Verify marks one assignee's row verified; managers only.
	Verify(ctx context.Context, p domain.Principal, taskID, memberID int64) error
	AddLog(ctx context.Context, p domain.Principal, taskID int64, detail string) error
}

type RoutineService interface {
	ListRoutineTasks(ctx context.Context, p domain.Principal, memberID int64, date time.Time) (*RoutineView, error)
	CreateRoutineTask(ctx context.Context, p domain.Principal, memberID int64, description string, status domain.RoutineStatus) (int64, error)
	UpdateStatus(ctx context.Context, p domain.Principal, routineTaskID int64, date time.Time, status domain.RoutineStatus) error
	CloseDay(ctx context.Context, p domain.Principal, req CloseDayRequest) error
}

// TaskView is an AssignedTask with its derived status attached.
type TaskView struct {
	domain.AssignedTask
	Status domain.TaskStatus `json:"status"`
}

type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	TaskType    string     `json:"taskType"`
	CreatedBy   int64      `json:"createdBy"`
	Assignees   []int64    `json:"assignees"`
	Deadline    *time.Time `json:"deadline"`
	Resources   string     `json:"resources"`
}

type RoutineView struct {
	Tasks    []domain.RoutineTask            `json:"tasks"`
	Statuses []domain.RoutineTaskDailyStatus `json:"statuses"`
}

type CloseDayRequest struct {
	UserID  int64                 `json:"userId"`
	Date    time.Time             `json:"date"`
	Tasks   []domain.DayCloseItem `json:"tasks"`
	Comment string                `json:"comment"`
}
