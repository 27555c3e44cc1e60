package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/domain"
	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/ports"
)

// TaskRepository is the Postgres adapter for assigned tasks, their
// per-assignee status rows, sprints, audit logs and the outbox.
type TaskRepository struct {
	db *sql.DB
}

var _ ports.TaskRepository = (*TaskRepository)(nil)

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// ListTasks loads all tasks, then attaches assignee-status rows and
// sprints in two further queries keyed by task id.
func (r *TaskRepository) ListTasks(ctx context.Context) ([]domain.AssignedTask, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, COALESCE(description, ''), task_type, created_by,
		       created_at, deadline, COALESCE(resources, '')
		FROM assigned_tasks
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, &domain.StoreError{Op: "list tasks", Err: err}
	}
	defer rows.Close()

	var tasks []domain.AssignedTask
	index := make(map[int64]int)
	for rows.Next() {
		var t domain.AssignedTask
		var deadline sql.NullTime
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.TaskType,
			&t.CreatedBy, &t.CreatedAt, &deadline, &t.Resources); err != nil {
			return nil, &domain.StoreError{Op: "scan task", Err: err}
		}
		if deadline.Valid {
			t.Deadline = &deadline.Time
		}
		index[t.ID] = len(tasks)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "list tasks", Err: err}
	}
	if len(tasks) == 0 {
		return nil, nil
	}

	if err := r.attachAssignees(ctx, tasks, index); err != nil {
		return nil, err
	}
	if err := r.attachSprints(ctx, tasks, index); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) attachAssignees(ctx context.Context, tasks []domain.AssignedTask, index map[int64]int) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.task_id, s.id, s.member_id, u.name, u.email, s.status,
		       s.assigned_date, s.updated_at
		FROM assigned_task_statuses s
		JOIN users u ON u.id = s.member_id
		ORDER BY s.task_id, s.id`)
	if err != nil {
		return &domain.StoreError{Op: "list task assignees", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var taskID int64
		var a domain.TaskAssignee
		if err := rows.Scan(&taskID, &a.StatusID, &a.MemberID, &a.Name, &a.Email,
			&a.Status, &a.AssignedDate, &a.UpdatedAt); err != nil {
			return &domain.StoreError{Op: "scan task assignee", Err: err}
		}
		if i, ok := index[taskID]; ok {
			tasks[i].Assignees = append(tasks[i].Assignees, a)
		}
	}
	return rows.Err()
}

func (r *TaskRepository) attachSprints(ctx context.Context, tasks []domain.AssignedTask, index map[int64]int) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT st.task_id, sp.id, sp.task_status_id, sp.title,
		       COALESCE(sp.description, ''), sp.status
		FROM sprints sp
		JOIN assigned_task_statuses st ON st.id = sp.task_status_id
		ORDER BY sp.id`)
	if err != nil {
		return &domain.StoreError{Op: "list sprints", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var taskID int64
		var s domain.Sprint
		if err := rows.Scan(&taskID, &s.ID, &s.TaskStatusID, &s.Title, &s.Description, &s.Status); err != nil {
			return &domain.StoreError{Op: "scan sprint", Err: err}
		}
		if i, ok := index[taskID]; ok {
			tasks[i].Sprints = append(tasks[i].Sprints, s)
		}
	}
	return rows.Err()
}

// CreateTask inserts the task, its status rows and the notification
// outbox rows in one transaction. The trigger on outbox_events fires
// NOTIFY for the relay after commit.
func (r *TaskRepository) CreateTask(ctx context.Context, task domain.AssignedTask, assigneeIDs []int64, events []ports.OutboxEvent) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &domain.StoreError{Op: "begin create task", Err: err}
	}
	defer tx.Rollback()

	var taskID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO assigned_tasks
			(title, description, task_type, created_by, created_at, deadline, resources)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, NULLIF($7, ''))
		RETURNING id`,
		task.Title, task.Description, task.TaskType, task.CreatedBy,
		task.CreatedAt, nullableTime(task.Deadline), task.Resources).
		Scan(&taskID)
	if err != nil {
		return 0, &domain.StoreError{Op: "insert task", Err: err}
	}

	for _, memberID := range assigneeIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO assigned_task_statuses
				(task_id, member_id, status, assigned_date, updated_at)
			VALUES ($1, $2, $3, $4, $4)`,
			taskID, memberID, domain.StatusNotStarted, task.CreatedAt)
		if err != nil {
			return 0, &domain.StoreError{Op: "insert task status", Err: err}
		}
	}

	for _, evt := range events {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO outbox_events (id, event_type, payload, created_at)
			VALUES ($1, $2, $3, NOW())`,
			evt.ID, evt.EventType, evt.Payload)
		if err != nil {
			return 0, &domain.StoreError{Op: "insert outbox event", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, &domain.StoreError{Op: "commit create task", Err: err}
	}
	return taskID, nil
}

func (r *TaskRepository) GetAssigneeStatus(ctx context.Context, taskID, memberID int64) (*domain.TaskAssignee, error) {
	var a domain.TaskAssignee
	err := r.db.QueryRowContext(ctx, `
		SELECT s.id, s.member_id, u.name, u.email, s.status, s.assigned_date, s.updated_at
		FROM assigned_task_statuses s
		JOIN users u ON u.id = s.member_id
		WHERE s.task_id = $1 AND s.member_id = $2`, taskID, memberID).
		Scan(&a.StatusID, &a.MemberID, &a.Name, &a.Email, &a.Status, &a.AssignedDate, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "task status", ID: taskID}
	}
	if err != nil {
		return nil, &domain.StoreError{Op: "get task status", Err: err}
	}
	return &a, nil
}

func (r *TaskRepository) ListAssigneeIDs(ctx context.Context, taskID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT member_id FROM assigned_task_statuses WHERE task_id = $1`, taskID)
	if err != nil {
		return nil, &domain.StoreError{Op: "list assignee ids", Err: err}
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, &domain.StoreError{Op: "scan assignee id", Err: err}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "list assignee ids", Err: err}
	}
	return ids, nil
}

func (r *TaskRepository) UpdateAssigneeStatus(ctx context.Context, taskID, memberID int64, status domain.TaskStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE assigned_task_statuses
		SET status = $1, updated_at = NOW()
		WHERE task_id = $2 AND member_id = $3`,
		status, taskID, memberID)
	if err != nil {
		return &domain.StoreError{Op: "update task status", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &domain.StoreError{Op: "update task status", Err: err}
	}
	if n == 0 {
		return &domain.NotFoundError{Entity: "task status", ID: taskID}
	}
	return nil
}

func (r *TaskRepository) InsertLog(ctx context.Context, entry domain.TaskLog) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO task_logs (id, task_id, actor_id, kind, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.TaskID, entry.ActorID, entry.Kind, entry.Detail, entry.CreatedAt)
	if err != nil {
		return &domain.StoreError{Op: "insert task log", Err: err}
	}
	return nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
