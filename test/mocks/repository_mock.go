// Package mocks provides mock implementations of port interfaces for testing.
// In hexagonal architecture, ports define the contracts between the core domain
// and external adapters. Mocks implement these interfaces to enable isolated testing.
package mocks

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/domain"
	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/ports"
)

// MockRosterRepository implements ports.RosterRepository for testing.
// This mock allows us to test services without a real database connection.
//
// How mocking works in hexagonal architecture:
// 1. The service depends on the ports.RosterRepository interface
// 2. In production, we inject repository.RosterRepository (real database)
// 3. In tests, we inject MockRosterRepository (in-memory)
// 4. The service works the same way regardless of which implementation is used
type MockRosterRepository struct {
	mu sync.RWMutex

	// In-memory storage for testing
	members     map[int64]domain.Member
	windows     map[domain.MemberType]domain.OpenCloseWindow
	slots       map[int64]domain.DailySlot
	assignments map[int64]int64 // slot id -> member id
	calendar    map[int64]domain.CalendarEntry
	students    []domain.Student
	nextID      int64

	// Call tracking for verification
	BulkUpdateMemberCalls  [][]domain.Member
	UpdateWindowCalls      [][]domain.OpenCloseWindow
	UpsertAssignmentCalls  []domain.SlotAssignment
	BulkUpdateSlotCalls    [][]domain.SlotChange
	DeleteAssignmentCalls  []int64
	InsertCalendarCalls    []domain.CalendarEntry
	BulkUpdateCalendarCall [][]domain.CalendarEntry
	DeleteCalendarCalls    []int64

	// Error injection for testing error scenarios
	ListError   error
	UpdateError error
}

// Ensure MockRosterRepository implements ports.RosterRepository at compile time.
// This is a common Go pattern to catch interface mismatches early.
var _ ports.RosterRepository = (*MockRosterRepository)(nil)

// NewMockRosterRepository creates a new mock repository with empty storage.
func NewMockRosterRepository() *MockRosterRepository {
	return &MockRosterRepository{
		members:     make(map[int64]domain.Member),
		windows:     make(map[domain.MemberType]domain.OpenCloseWindow),
		slots:       make(map[int64]domain.DailySlot),
		assignments: make(map[int64]int64),
		calendar:    make(map[int64]domain.CalendarEntry),
		nextID:      1000,
	}
}

// SeedMember adds a member for test setup.
func (m *MockRosterRepository) SeedMember(member domain.Member) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[member.ID] = member
}

// SeedWindow adds an open/close window for test setup.
func (m *MockRosterRepository) SeedWindow(w domain.OpenCloseWindow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.windows[w.MemberType] = w
}

// SeedSlot adds a daily slot for test setup.
func (m *MockRosterRepository) SeedSlot(s domain.DailySlot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[s.ID] = s
}

// AssignedMember returns the live assignment for a slot, if any.
func (m *MockRosterRepository) AssignedMember(slotID int64) (int64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.assignments[slotID]
	return id, ok
}

func (m *MockRosterRepository) ListMembers(ctx context.Context) ([]domain.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	members := make([]domain.Member, 0, len(m.members))
	for _, member := range m.members {
		members = append(members, member)
	}
	return members, nil
}

func (m *MockRosterRepository) GetMember(ctx context.Context, id int64) (*domain.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	member, ok := m.members[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "member", ID: id}
	}
	return &member, nil
}

func (m *MockRosterRepository) BulkUpdateMembers(ctx context.Context, updates []domain.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BulkUpdateMemberCalls = append(m.BulkUpdateMemberCalls, updates)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	for _, u := range updates {
		m.members[u.ID] = u
	}
	return nil
}

func (m *MockRosterRepository) FindMemberIDByEmail(ctx context.Context, email string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return 0, m.ListError
	}
	for _, member := range m.members {
		if strings.EqualFold(member.Email, email) {
			return member.ID, nil
		}
	}
	return 0, nil
}

func (m *MockRosterRepository) MemberIDSet(ctx context.Context) (map[int64]struct{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	set := make(map[int64]struct{}, len(m.members))
	for id := range m.members {
		set[id] = struct{}{}
	}
	return set, nil
}

func (m *MockRosterRepository) MemberIDSetForManager(ctx context.Context, tmType domain.TeamManagerType) (map[int64]struct{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	set := make(map[int64]struct{})
	for id, member := range m.members {
		if member.TeamManagerType == tmType {
			set[id] = struct{}{}
		}
	}
	return set, nil
}

func (m *MockRosterRepository) ListWindows(ctx context.Context) ([]domain.OpenCloseWindow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	windows := make([]domain.OpenCloseWindow, 0, len(m.windows))
	for _, w := range m.windows {
		windows = append(windows, w)
	}
	return windows, nil
}

func (m *MockRosterRepository) GetWindow(ctx context.Context, memberType domain.MemberType) (*domain.OpenCloseWindow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	w, ok := m.windows[memberType]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "open/close window"}
	}
	return &w, nil
}

func (m *MockRosterRepository) UpdateWindows(ctx context.Context, windows []domain.OpenCloseWindow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateWindowCalls = append(m.UpdateWindowCalls, windows)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	for _, w := range windows {
		m.windows[w.MemberType] = w
	}
	return nil
}

func (m *MockRosterRepository) ListSlots(ctx context.Context) ([]domain.DailySlot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	slots := make([]domain.DailySlot, 0, len(m.slots))
	for _, s := range m.slots {
		// Mirror the join the real repository does: a live assignment
		// wins over the slot's own fallback member.
		if assigned, ok := m.assignments[s.ID]; ok {
			id := assigned
			s.AssignedMemberID = &id
		}
		slots = append(slots, s)
	}
	return slots, nil
}

func (m *MockRosterRepository) SlotIDSet(ctx context.Context) (map[int64]struct{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	set := make(map[int64]struct{}, len(m.slots))
	for id := range m.slots {
		set[id] = struct{}{}
	}
	return set, nil
}

func (m *MockRosterRepository) UpsertAssignment(ctx context.Context, a domain.SlotAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertAssignmentCalls = append(m.UpsertAssignmentCalls, a)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.assignments[a.SlotID] = a.MemberID
	return nil
}

func (m *MockRosterRepository) BulkUpdateSlots(ctx context.Context, changes []domain.SlotChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BulkUpdateSlotCalls = append(m.BulkUpdateSlotCalls, changes)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	for _, c := range changes {
		if c.MemberID != 0 {
			m.assignments[c.SlotID] = c.MemberID
		}
		if c.StartTime != "" && c.EndTime != "" {
			s := m.slots[c.SlotID]
			s.StartTime = c.StartTime
			s.EndTime = c.EndTime
			m.slots[c.SlotID] = s
		}
	}
	return nil
}

func (m *MockRosterRepository) DeleteAssignment(ctx context.Context, slotID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteAssignmentCalls = append(m.DeleteAssignmentCalls, slotID)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	delete(m.assignments, slotID)
	return nil
}

func (m *MockRosterRepository) ListCalendar(ctx context.Context) ([]domain.CalendarEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	entries := make([]domain.CalendarEntry, 0, len(m.calendar))
	for _, e := range m.calendar {
		entries = append(entries, e)
	}
	return entries, nil
}

func (m *MockRosterRepository) InsertCalendarEntry(ctx context.Context, e domain.CalendarEntry) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InsertCalendarCalls = append(m.InsertCalendarCalls, e)
	if m.UpdateError != nil {
		return 0, m.UpdateError
	}
	m.nextID++
	e.ID = m.nextID
	m.calendar[e.ID] = e
	return e.ID, nil
}

func (m *MockRosterRepository) BulkUpdateCalendar(ctx context.Context, updates []domain.CalendarEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BulkUpdateCalendarCall = append(m.BulkUpdateCalendarCall, updates)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	for _, e := range updates {
		m.calendar[e.ID] = e
	}
	return nil
}

func (m *MockRosterRepository) DeleteCalendarEntry(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalendarCalls = append(m.DeleteCalendarCalls, id)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	if _, ok := m.calendar[id]; !ok {
		return &domain.NotFoundError{Entity: "calendar entry", ID: id}
	}
	delete(m.calendar, id)
	return nil
}

func (m *MockRosterRepository) ListStudents(ctx context.Context) ([]domain.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	return append([]domain.Student(nil), m.students...), nil
}

// SeedStudents replaces the student roster for test setup.
func (m *MockRosterRepository) SeedStudents(students []domain.Student) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students = students
}

// MockTaskRepository implements ports.TaskRepository for testing.
type MockTaskRepository struct {
	mu sync.RWMutex

	tasks    map[int64]domain.AssignedTask
	statuses map[int64]map[int64]domain.TaskStatus // task id -> member id -> status
	logs     []domain.TaskLog
	outbox   []ports.OutboxEvent
	nextID   int64

	// Call tracking
	CreateTaskCalls   []domain.AssignedTask
	UpdateStatusCalls []StatusUpdateCall
	InsertLogCalls    []domain.TaskLog

	// Error injection
	ListError   error
	CreateError error
	UpdateError error
	LogError    error
}

// StatusUpdateCall records one UpdateAssigneeStatus invocation.
type StatusUpdateCall struct {
	TaskID   int64
	MemberID int64
	Status   domain.TaskStatus
}

var _ ports.TaskRepository = (*MockTaskRepository)(nil)

func NewMockTaskRepository() *MockTaskRepository {
	return &MockTaskRepository{
		tasks:    make(map[int64]domain.AssignedTask),
		statuses: make(map[int64]map[int64]domain.TaskStatus),
		nextID:   100,
	}
}

// SeedTask adds a task with its assignee statuses for test setup.
func (m *MockTaskRepository) SeedTask(task domain.AssignedTask) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID] = task
	rows := make(map[int64]domain.TaskStatus, len(task.Assignees))
	for _, a := range task.Assignees {
		rows[a.MemberID] = a.Status
	}
	m.statuses[task.ID] = rows
}

// OutboxEvents returns the events written alongside task creation.
func (m *MockTaskRepository) OutboxEvents() []ports.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	events := make([]ports.OutboxEvent, len(m.outbox))
	copy(events, m.outbox)
	return events
}

// Logs returns all inserted audit logs.
func (m *MockTaskRepository) Logs() []domain.TaskLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	logs := make([]domain.TaskLog, len(m.logs))
	copy(logs, m.logs)
	return logs
}

// Status returns the stored status row for one assignee.
func (m *MockTaskRepository) Status(taskID, memberID int64) (domain.TaskStatus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows, ok := m.statuses[taskID]
	if !ok {
		return "", false
	}
	s, ok := rows[memberID]
	return s, ok
}

func (m *MockTaskRepository) ListTasks(ctx context.Context) ([]domain.AssignedTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	tasks := make([]domain.AssignedTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (m *MockTaskRepository) CreateTask(ctx context.Context, task domain.AssignedTask, assigneeIDs []int64, events []ports.OutboxEvent) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateTaskCalls = append(m.CreateTaskCalls, task)
	if m.CreateError != nil {
		return 0, m.CreateError
	}
	m.nextID++
	task.ID = m.nextID
	rows := make(map[int64]domain.TaskStatus, len(assigneeIDs))
	for _, id := range assigneeIDs {
		rows[id] = domain.StatusNotStarted
		task.Assignees = append(task.Assignees, domain.TaskAssignee{
			MemberID:     id,
			Status:       domain.StatusNotStarted,
			AssignedDate: time.Now(),
		})
	}
	m.tasks[task.ID] = task
	m.statuses[task.ID] = rows
	m.outbox = append(m.outbox, events...)
	return task.ID, nil
}

func (m *MockTaskRepository) GetAssigneeStatus(ctx context.Context, taskID, memberID int64) (*domain.TaskAssignee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	rows, ok := m.statuses[taskID]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "task", ID: taskID}
	}
	status, ok := rows[memberID]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "task assignee", ID: memberID}
	}
	return &domain.TaskAssignee{MemberID: memberID, Status: status}, nil
}

func (m *MockTaskRepository) ListAssigneeIDs(ctx context.Context, taskID int64) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	rows := m.statuses[taskID]
	ids := make([]int64, 0, len(rows))
	for id := range rows {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *MockTaskRepository) UpdateAssigneeStatus(ctx context.Context, taskID, memberID int64, status domain.TaskStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateStatusCalls = append(m.UpdateStatusCalls, StatusUpdateCall{TaskID: taskID, MemberID: memberID, Status: status})
	if m.UpdateError != nil {
		return m.UpdateError
	}
	rows, ok := m.statuses[taskID]
	if !ok {
		return &domain.NotFoundError{Entity: "task", ID: taskID}
	}
	if _, ok := rows[memberID]; !ok {
		return &domain.NotFoundError{Entity: "task assignee", ID: memberID}
	}
	rows[memberID] = status
	return nil
}

func (m *MockTaskRepository) InsertLog(ctx context.Context, entry domain.TaskLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InsertLogCalls = append(m.InsertLogCalls, entry)
	if m.LogError != nil {
		return m.LogError
	}
	m.logs = append(m.logs, entry)
	return nil
}

// MockRoutineRepository implements ports.RoutineRepository for testing.
type MockRoutineRepository struct {
	mu sync.RWMutex

	tasks    map[int64]domain.RoutineTask
	statuses map[routineKey]domain.RoutineTaskDailyStatus
	nextID   int64

	// Call tracking
	CreateCalls       []domain.RoutineTask
	UpdateStatusCalls []RoutineStatusCall
	CloseDayCalls     []CloseDayCall

	// Error injection
	ListError     error
	CreateError   error
	UpdateError   error
	CloseDayError error
}

type routineKey struct {
	taskID   int64
	memberID int64
	date     string
}

// RoutineStatusCall records one UpdateDailyStatus invocation.
type RoutineStatusCall struct {
	RoutineTaskID int64
	MemberID      int64
	Date          time.Time
	Status        domain.RoutineStatus
}

// CloseDayCall records one CloseDay invocation.
type CloseDayCall struct {
	MemberID int64
	Date     time.Time
	Items    []domain.DayCloseItem
	Comment  string
}

var _ ports.RoutineRepository = (*MockRoutineRepository)(nil)

func NewMockRoutineRepository() *MockRoutineRepository {
	return &MockRoutineRepository{
		tasks:    make(map[int64]domain.RoutineTask),
		statuses: make(map[routineKey]domain.RoutineTaskDailyStatus),
		nextID:   500,
	}
}

func dayKey(taskID, memberID int64, date time.Time) routineKey {
	return routineKey{taskID: taskID, memberID: memberID, date: date.Format("2006-01-02")}
}

// SeedDailyStatus adds a daily status row for test setup.
func (m *MockRoutineRepository) SeedDailyStatus(s domain.RoutineTaskDailyStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[dayKey(s.RoutineTaskID, s.MemberID, s.Date)] = s
}

// DailyStatus returns the stored row for one task/member/day.
func (m *MockRoutineRepository) DailyStatus(taskID, memberID int64, date time.Time) (domain.RoutineTaskDailyStatus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.statuses[dayKey(taskID, memberID, date)]
	return s, ok
}

func (m *MockRoutineRepository) ListRoutineTasks(ctx context.Context, memberID int64) ([]domain.RoutineTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	tasks := make([]domain.RoutineTask, 0)
	for _, t := range m.tasks {
		if t.MemberID == memberID {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

func (m *MockRoutineRepository) ListDailyStatuses(ctx context.Context, memberID int64, date time.Time) ([]domain.RoutineTaskDailyStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	day := date.Format("2006-01-02")
	statuses := make([]domain.RoutineTaskDailyStatus, 0)
	for key, s := range m.statuses {
		if key.memberID == memberID && key.date == day {
			statuses = append(statuses, s)
		}
	}
	return statuses, nil
}

func (m *MockRoutineRepository) CreateRoutineTask(ctx context.Context, task domain.RoutineTask, status domain.RoutineStatus) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls = append(m.CreateCalls, task)
	if m.CreateError != nil {
		return 0, m.CreateError
	}
	m.nextID++
	task.ID = m.nextID
	m.tasks[task.ID] = task
	now := time.Now()
	m.statuses[dayKey(task.ID, task.MemberID, now)] = domain.RoutineTaskDailyStatus{
		RoutineTaskID: task.ID,
		MemberID:      task.MemberID,
		Status:        status,
		Date:          now,
	}
	return task.ID, nil
}

func (m *MockRoutineRepository) GetDailyStatus(ctx context.Context, routineTaskID, memberID int64, date time.Time) (*domain.RoutineTaskDailyStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	s, ok := m.statuses[dayKey(routineTaskID, memberID, date)]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "routine task status", ID: routineTaskID}
	}
	return &s, nil
}

func (m *MockRoutineRepository) UpdateDailyStatus(ctx context.Context, routineTaskID, memberID int64, date time.Time, status domain.RoutineStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateStatusCalls = append(m.UpdateStatusCalls, RoutineStatusCall{
		RoutineTaskID: routineTaskID,
		MemberID:      memberID,
		Date:          date,
		Status:        status,
	})
	if m.UpdateError != nil {
		return m.UpdateError
	}
	key := dayKey(routineTaskID, memberID, date)
	s, ok := m.statuses[key]
	if !ok {
		return &domain.NotFoundError{Entity: "routine task status", ID: routineTaskID}
	}
	s.Status = status
	s.UpdatedAt = time.Now()
	m.statuses[key] = s
	return nil
}

func (m *MockRoutineRepository) CloseDay(ctx context.Context, memberID int64, date time.Time, items []domain.DayCloseItem, comment string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseDayCalls = append(m.CloseDayCalls, CloseDayCall{MemberID: memberID, Date: date, Items: items, Comment: comment})
	if m.CloseDayError != nil {
		return m.CloseDayError
	}
	for _, item := range items {
		key := dayKey(item.RoutineTaskID, memberID, date)
		s, ok := m.statuses[key]
		if !ok {
			continue
		}
		s.IsLocked = true
		if item.MarkAsCompleted {
			s.Status = domain.RoutineCompleted
			s.Comment = comment
		}
		m.statuses[key] = s
	}
	return nil
}
