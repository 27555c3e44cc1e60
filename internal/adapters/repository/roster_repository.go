package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/domain"
	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/ports"
)

// RosterRepository is the Postgres adapter for members, windows,
// slots, the calendar and students.
type RosterRepository struct {
	db *sql.DB
}

var _ ports.RosterRepository = (*RosterRepository)(nil)

func NewRosterRepository(db *sql.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

func (r *RosterRepository) ListMembers(ctx context.Context) ([]domain.Member, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, role, member_scope, type,
		       COALESCE(team_manager_type, ''), whatsapp_number, created_at
		FROM users
		ORDER BY id`)
	if err != nil {
		return nil, &domain.StoreError{Op: "list members", Err: err}
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Role, &m.MemberScope,
			&m.Type, &m.TeamManagerType, &m.WhatsappNumber, &m.CreatedAt); err != nil {
			return nil, &domain.StoreError{Op: "scan member", Err: err}
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "list members", Err: err}
	}
	return members, nil
}

func (r *RosterRepository) GetMember(ctx context.Context, id int64) (*domain.Member, error) {
	var m domain.Member
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, role, member_scope, type,
		       COALESCE(team_manager_type, ''), whatsapp_number, created_at
		FROM users WHERE id = $1`, id).
		Scan(&m.ID, &m.Name, &m.Email, &m.Role, &m.MemberScope,
			&m.Type, &m.TeamManagerType, &m.WhatsappNumber, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "member", ID: id}
	}
	if err != nil {
		return nil, &domain.StoreError{Op: "get member", Err: err}
	}
	return &m, nil
}

// BulkUpdateMembers applies a validated team edit as one transaction;
// nothing persists if any row fails.
func (r *RosterRepository) BulkUpdateMembers(ctx context.Context, updates []domain.Member) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.StoreError{Op: "begin team update", Err: err}
	}
	defer tx.Rollback()

	for _, m := range updates {
		var tmType any
		if m.TeamManagerType != "" {
			tmType = string(m.TeamManagerType)
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE users
			SET name = $1, email = $2, role = $3, member_scope = $4,
			    type = $5, team_manager_type = $6, whatsapp_number = $7
			WHERE id = $8`,
			m.Name, m.Email, m.Role, m.MemberScope, m.Type, tmType, m.WhatsappNumber, m.ID)
		if err != nil {
			return &domain.StoreError{Op: "update member", Err: err}
		}
		n, err := res.RowsAffected()
		if err != nil {
			return &domain.StoreError{Op: "update member", Err: err}
		}
		if n == 0 {
			return &domain.NotFoundError{Entity: "member", ID: m.ID}
		}
	}

	if err := tx.Commit(); err != nil {
		return &domain.StoreError{Op: "commit team update", Err: err}
	}
	return nil
}

func (r *RosterRepository) FindMemberIDByEmail(ctx context.Context, email string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM users WHERE LOWER(email) = LOWER($1)`, email).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, &domain.StoreError{Op: "find member by email", Err: err}
	}
	return id, nil
}

func (r *RosterRepository) MemberIDSet(ctx context.Context) (map[int64]struct{}, error) {
	return r.idSet(ctx, `SELECT id FROM users`)
}

func (r *RosterRepository) MemberIDSetForManager(ctx context.Context, tmType domain.TeamManagerType) (map[int64]struct{}, error) {
	return r.idSet(ctx, `SELECT id FROM users WHERE team_manager_type = $1`, string(tmType))
}

func (r *RosterRepository) SlotIDSet(ctx context.Context) (map[int64]struct{}, error) {
	return r.idSet(ctx, `SELECT id FROM daily_slots`)
}

func (r *RosterRepository) idSet(ctx context.Context, query string, args ...any) (map[int64]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &domain.StoreError{Op: "load id set", Err: err}
	}
	defer rows.Close()

	set := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, &domain.StoreError{Op: "scan id set", Err: err}
		}
		set[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "load id set", Err: err}
	}
	return set, nil
}

func (r *RosterRepository) ListWindows(ctx context.Context) ([]domain.OpenCloseWindow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_type, day_open_time, day_close_time,
		       closing_window_start, closing_window_end
		FROM open_close_times`)
	if err != nil {
		return nil, &domain.StoreError{Op: "list windows", Err: err}
	}
	defer rows.Close()

	var windows []domain.OpenCloseWindow
	for rows.Next() {
		var w domain.OpenCloseWindow
		if err := rows.Scan(&w.MemberType, &w.DayOpenTime, &w.DayCloseTime,
			&w.ClosingWindowStart, &w.ClosingWindowEnd); err != nil {
			return nil, &domain.StoreError{Op: "scan window", Err: err}
		}
		windows = append(windows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "list windows", Err: err}
	}
	return windows, nil
}

func (r *RosterRepository) GetWindow(ctx context.Context, memberType domain.MemberType) (*domain.OpenCloseWindow, error) {
	var w domain.OpenCloseWindow
	err := r.db.QueryRowContext(ctx, `
		SELECT user_type, day_open_time, day_close_time,
		       closing_window_start, closing_window_end
		FROM open_close_times WHERE user_type = $1`, string(memberType)).
		Scan(&w.MemberType, &w.DayOpenTime, &w.DayCloseTime,
			&w.ClosingWindowStart, &w.ClosingWindowEnd)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "open/close times for " + string(memberType)}
	}
	if err != nil {
		return nil, &domain.StoreError{Op: "get window", Err: err}
	}
	return &w, nil
}

func (r *RosterRepository) UpdateWindows(ctx context.Context, windows []domain.OpenCloseWindow) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.StoreError{Op: "begin window update", Err: err}
	}
	defer tx.Rollback()

	for _, w := range windows {
		_, err := tx.ExecContext(ctx, `
			UPDATE open_close_times
			SET day_open_time = $1, day_close_time = $2,
			    closing_window_start = $3, closing_window_end = $4
			WHERE user_type = $5`,
			w.DayOpenTime, w.DayCloseTime, w.ClosingWindowStart, w.ClosingWindowEnd, string(w.MemberType))
		if err != nil {
			return &domain.StoreError{Op: "update window", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &domain.StoreError{Op: "commit window update", Err: err}
	}
	return nil
}

// ListSlots joins the live assignment over each slot. The slot's own
// assigned_member_id is the fallback when no assignment row exists;
// that fallback is required behavior, not legacy.
func (r *RosterRepository) ListSlots(ctx context.Context) ([]domain.DailySlot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.name, s.start_time, s.end_time, s.has_sub_slots,
		       COALESCE(a.member_id, s.assigned_member_id)
		FROM daily_slots s
		LEFT JOIN daily_slot_assignments a ON a.slot_id = s.id
		ORDER BY s.id`)
	if err != nil {
		return nil, &domain.StoreError{Op: "list slots", Err: err}
	}
	defer rows.Close()

	var slots []domain.DailySlot
	for rows.Next() {
		var s domain.DailySlot
		var assigned sql.NullInt64
		if err := rows.Scan(&s.ID, &s.Name, &s.StartTime, &s.EndTime, &s.HasSubSlots, &assigned); err != nil {
			return nil, &domain.StoreError{Op: "scan slot", Err: err}
		}
		if assigned.Valid {
			s.AssignedMemberID = &assigned.Int64
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "list slots", Err: err}
	}
	return slots, nil
}

// UpsertAssignment keeps at most one live assignment per slot. The
// unique constraint on slot_id makes this race-safe; an application
// existence check alone would not be.
func (r *RosterRepository) UpsertAssignment(ctx context.Context, a domain.SlotAssignment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO daily_slot_assignments (slot_id, member_id)
		VALUES ($1, $2)
		ON CONFLICT (slot_id) DO UPDATE SET member_id = EXCLUDED.member_id`,
		a.SlotID, a.MemberID)
	if err != nil {
		return &domain.StoreError{Op: "upsert slot assignment", Err: err}
	}
	return nil
}

func (r *RosterRepository) BulkUpdateSlots(ctx context.Context, changes []domain.SlotChange) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.StoreError{Op: "begin slot update", Err: err}
	}
	defer tx.Rollback()

	for _, c := range changes {
		if c.MemberID != 0 {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO daily_slot_assignments (slot_id, member_id)
				VALUES ($1, $2)
				ON CONFLICT (slot_id) DO UPDATE SET member_id = EXCLUDED.member_id`,
				c.SlotID, c.MemberID)
			if err != nil {
				return &domain.StoreError{Op: "upsert slot assignment", Err: err}
			}
		}
		if c.StartTime != "" && c.EndTime != "" {
			_, err := tx.ExecContext(ctx, `
				UPDATE daily_slots SET start_time = $1, end_time = $2 WHERE id = $3`,
				c.StartTime, c.EndTime, c.SlotID)
			if err != nil {
				return &domain.StoreError{Op: "update slot times", Err: err}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return &domain.StoreError{Op: "commit slot update", Err: err}
	}
	return nil
}

func (r *RosterRepository) DeleteAssignment(ctx context.Context, slotID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM daily_slot_assignments WHERE slot_id = $1`, slotID)
	if err != nil {
		return &domain.StoreError{Op: "delete slot assignment", Err: err}
	}
	return nil
}

func (r *RosterRepository) ListCalendar(ctx context.Context) ([]domain.CalendarEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, major_term, minor_term, start_date, end_date, name,
		       week_number, is_major_term_boundary
		FROM school_calendar
		ORDER BY start_date`)
	if err != nil {
		return nil, &domain.StoreError{Op: "list calendar", Err: err}
	}
	defer rows.Close()

	var entries []domain.CalendarEntry
	for rows.Next() {
		var e domain.CalendarEntry
		var week sql.NullInt64
		if err := rows.Scan(&e.ID, &e.MajorTerm, &e.MinorTerm, &e.StartDate, &e.EndDate,
			&e.Name, &week, &e.IsMajorTermBoundary); err != nil {
			return nil, &domain.StoreError{Op: "scan calendar entry", Err: err}
		}
		if week.Valid {
			n := int(week.Int64)
			e.WeekNumber = &n
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "list calendar", Err: err}
	}
	return entries, nil
}

func (r *RosterRepository) InsertCalendarEntry(ctx context.Context, e domain.CalendarEntry) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO school_calendar
			(major_term, minor_term, start_date, end_date, name, week_number, is_major_term_boundary)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		e.MajorTerm, e.MinorTerm, e.StartDate, e.EndDate, e.Name, nullableInt(e.WeekNumber), e.IsMajorTermBoundary).
		Scan(&id)
	if err != nil {
		return 0, &domain.StoreError{Op: "insert calendar entry", Err: err}
	}
	return id, nil
}

func (r *RosterRepository) BulkUpdateCalendar(ctx context.Context, updates []domain.CalendarEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.StoreError{Op: "begin calendar update", Err: err}
	}
	defer tx.Rollback()

	for _, e := range updates {
		res, err := tx.ExecContext(ctx, `
			UPDATE school_calendar
			SET major_term = $1, minor_term = $2, start_date = $3, end_date = $4,
			    name = $5, week_number = $6, is_major_term_boundary = $7
			WHERE id = $8`,
			e.MajorTerm, e.MinorTerm, e.StartDate, e.EndDate, e.Name,
			nullableInt(e.WeekNumber), e.IsMajorTermBoundary, e.ID)
		if err != nil {
			return &domain.StoreError{Op: "update calendar entry", Err: err}
		}
		n, err := res.RowsAffected()
		if err != nil {
			return &domain.StoreError{Op: "update calendar entry", Err: err}
		}
		if n == 0 {
			return &domain.NotFoundError{Entity: "calendar entry", ID: e.ID}
		}
	}

	if err := tx.Commit(); err != nil {
		return &domain.StoreError{Op: "commit calendar update", Err: err}
	}
	return nil
}

func (r *RosterRepository) DeleteCalendarEntry(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM school_calendar WHERE id = $1`, id)
	if err != nil {
		return &domain.StoreError{Op: "delete calendar entry", Err: err}
	}
	return nil
}

func (r *RosterRepository) ListStudents(ctx context.Context) ([]domain.Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, father_name, class_name, residential_status
		FROM students
		ORDER BY class_name, name`)
	if err != nil {
		return nil, &domain.StoreError{Op: "list students", Err: err}
	}
	defer rows.Close()

	var students []domain.Student
	for rows.Next() {
		var s domain.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.FatherName, &s.ClassName, &s.ResidentialStatus); err != nil {
			return nil, &domain.StoreError{Op: "scan student", Err: err}
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "list students", Err: err}
	}
	return students, nil
}

func nullableInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}
