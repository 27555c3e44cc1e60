package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/domain"
	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/ports"
)

// RoutineRepository is the Postgres adapter for routine tasks and
// their one-row-per-day statuses.
type RoutineRepository struct {
	db *sql.DB
}

var _ ports.RoutineRepository = (*RoutineRepository)(nil)

func NewRoutineRepository(db *sql.DB) *RoutineRepository {
	return &RoutineRepository{db: db}
}

func (r *RoutineRepository) ListRoutineTasks(ctx context.Context, memberID int64) ([]domain.RoutineTask, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.member_id, t.description, u.name, t.created_at
		FROM routine_tasks t
		JOIN users u ON u.id = t.member_id
		WHERE t.member_id = $1
		ORDER BY t.id`, memberID)
	if err != nil {
		return nil, &domain.StoreError{Op: "list routine tasks", Err: err}
	}
	defer rows.Close()

	var tasks []domain.RoutineTask
	for rows.Next() {
		var t domain.RoutineTask
		if err := rows.Scan(&t.ID, &t.MemberID, &t.Description, &t.MemberName, &t.CreatedAt); err != nil {
			return nil, &domain.StoreError{Op: "scan routine task", Err: err}
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "list routine tasks", Err: err}
	}
	return tasks, nil
}

func (r *RoutineRepository) ListDailyStatuses(ctx context.Context, memberID int64, date time.Time) ([]domain.RoutineTaskDailyStatus, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.routine_task_id, s.member_id, t.description, u.name,
		       s.status, s.date, COALESCE(s.comment, ''), s.updated_at, s.is_locked
		FROM routine_task_daily_statuses s
		JOIN routine_tasks t ON t.id = s.routine_task_id
		JOIN users u ON u.id = s.member_id
		WHERE s.member_id = $1 AND s.date::date = $2::date
		ORDER BY s.id`, memberID, date)
	if err != nil {
		return nil, &domain.StoreError{Op: "list daily statuses", Err: err}
	}
	defer rows.Close()

	var statuses []domain.RoutineTaskDailyStatus
	for rows.Next() {
		var s domain.RoutineTaskDailyStatus
		if err := rows.Scan(&s.ID, &s.RoutineTaskID, &s.MemberID, &s.Description,
			&s.MemberName, &s.Status, &s.Date, &s.Comment, &s.UpdatedAt, &s.IsLocked); err != nil {
			return nil, &domain.StoreError{Op: "scan daily status", Err: err}
		}
		statuses = append(statuses, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "list daily statuses", Err: err}
	}
	return statuses, nil
}

// CreateRoutineTask inserts the task and its first daily status row
// in one transaction.
func (r *RoutineRepository) CreateRoutineTask(ctx context.Context, task domain.RoutineTask, status domain.RoutineStatus) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &domain.StoreError{Op: "begin create routine task", Err: err}
	}
	defer tx.Rollback()

	var taskID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO routine_tasks (member_id, description, created_at)
		VALUES ($1, $2, $3)
		RETURNING id`,
		task.MemberID, task.Description, task.CreatedAt).
		Scan(&taskID)
	if err != nil {
		return 0, &domain.StoreError{Op: "insert routine task", Err: err}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO routine_task_daily_statuses
			(routine_task_id, member_id, status, date, updated_at, is_locked)
		VALUES ($1, $2, $3, $4, $4, FALSE)`,
		taskID, task.MemberID, status, task.CreatedAt)
	if err != nil {
		return 0, &domain.StoreError{Op: "insert daily status", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return 0, &domain.StoreError{Op: "commit create routine task", Err: err}
	}
	return taskID, nil
}

func (r *RoutineRepository) GetDailyStatus(ctx context.Context, routineTaskID, memberID int64, date time.Time) (*domain.RoutineTaskDailyStatus, error) {
	var s domain.RoutineTaskDailyStatus
	err := r.db.QueryRowContext(ctx, `
		SELECT id, routine_task_id, member_id, status, date,
		       COALESCE(comment, ''), updated_at, is_locked
		FROM routine_task_daily_statuses
		WHERE routine_task_id = $1 AND member_id = $2 AND date::date = $3::date`,
		routineTaskID, memberID, date).
		Scan(&s.ID, &s.RoutineTaskID, &s.MemberID, &s.Status, &s.Date,
			&s.Comment, &s.UpdatedAt, &s.IsLocked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "routine task status", ID: routineTaskID}
	}
	if err != nil {
		return nil, &domain.StoreError{Op: "get daily status", Err: err}
	}
	return &s, nil
}

func (r *RoutineRepository) UpdateDailyStatus(ctx context.Context, routineTaskID, memberID int64, date time.Time, status domain.RoutineStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE routine_task_daily_statuses
		SET status = $1, updated_at = NOW()
		WHERE routine_task_id = $2 AND member_id = $3 AND date::date = $4::date`,
		status, routineTaskID, memberID, date)
	if err != nil {
		return &domain.StoreError{Op: "update daily status", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &domain.StoreError{Op: "update daily status", Err: err}
	}
	if n == 0 {
		return &domain.NotFoundError{Entity: "routine task status", ID: routineTaskID}
	}
	return nil
}

// CloseDay locks every submitted row for the member and date; rows
// flagged completed also get the status and the request comment. One
// transaction, so a partial close is never visible.
func (r *RoutineRepository) CloseDay(ctx context.Context, memberID int64, date time.Time, items []domain.DayCloseItem, comment string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.StoreError{Op: "begin close day", Err: err}
	}
	defer tx.Rollback()

	for _, item := range items {
		if item.MarkAsCompleted {
			_, err = tx.ExecContext(ctx, `
				UPDATE routine_task_daily_statuses
				SET status = $1, comment = NULLIF($2, ''), updated_at = NOW(), is_locked = TRUE
				WHERE routine_task_id = $3 AND member_id = $4 AND date::date = $5::date`,
				domain.RoutineCompleted, comment, item.RoutineTaskID, memberID, date)
		} else {
			_, err = tx.ExecContext(ctx, `
				UPDATE routine_task_daily_statuses
				SET updated_at = NOW(), is_locked = TRUE
				WHERE routine_task_id = $1 AND member_id = $2 AND date::date = $3::date`,
				item.RoutineTaskID, memberID, date)
		}
		if err != nil {
			return &domain.StoreError{Op: "close day", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &domain.StoreError{Op: "commit close day", Err: err}
	}
	return nil
}
