package domain

import "time"

// TaskStatus is the status of one assignee's (or one sprint's) work on
// an assigned task. The task itself never stores a status; the visible
// value is derived, see AggregateStatus.
type TaskStatus string

const (
	StatusNotStarted          TaskStatus = "not_started"
	StatusInProgress          TaskStatus = "in_progress"
	StatusPendingVerification TaskStatus = "pending_verification"
	StatusDone                TaskStatus = "done"
	StatusVerified            TaskStatus = "verified"
)

// IsTerminal reports whether a status blocks further member-initiated
// edits.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusDone || s == StatusVerified
}

type AssignedTask struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	TaskType    string     `json:"taskType"`
	CreatedBy   int64      `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Resources   string     `json:"resources,omitempty"`

	Assignees []TaskAssignee `json:"assignees"`
	Sprints   []Sprint       `json:"sprints"`
}

// TaskAssignee is one assignee-status row joined with the member's
// identity for listing.
type TaskAssignee struct {
	StatusID     int64      `json:"-"`
	MemberID     int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Status       TaskStatus `json:"status"`
	AssignedDate time.Time  `json:"assignedDate"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Sprint is a tracked sub-unit of one assignee's work, linked to that
// assignee's status row.
type Sprint struct {
	ID           int64      `json:"id"`
	TaskStatusID int64      `json:"-"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Status       TaskStatus `json:"status"`
}

type TaskLogKind string

const (
	LogStatusUpdate TaskLogKind = "status_update"
	LogVerify       TaskLogKind = "verify"
	LogNote         TaskLogKind = "note"
)

// TaskLog is an immutable audit record of a task mutation.
type TaskLog struct {
	ID        string      `json:"id"`
	TaskID    int64       `json:"taskId"`
	ActorID   int64       `json:"actorId"`
	Kind      TaskLogKind `json:"kind"`
	Detail    string      `json:"detail"`
	CreatedAt time.Time   `json:"createdAt"`
}

// AggregateStatus derives the task's displayed status. Sprint statuses
// take priority over assignee statuses whenever sprints exist.
// pending_verification counts as in-progress work and is never
// surfaced as the aggregate.
func (t *AssignedTask) AggregateStatus() TaskStatus {
	if len(t.Sprints) > 0 {
		return aggregate(sprintStatuses(t.Sprints))
	}
	statuses := make([]TaskStatus, 0, len(t.Assignees))
	for _, a := range t.Assignees {
		if a.Status != "" {
			statuses = append(statuses, a.Status)
		}
	}
	return aggregate(statuses)
}

func aggregate(statuses []TaskStatus) TaskStatus {
	if len(statuses) == 0 {
		return StatusNotStarted
	}
	allComplete := true
	anyActive := false
	for _, s := range statuses {
		if !s.IsTerminal() {
			allComplete = false
		}
		if s == StatusInProgress || s == StatusPendingVerification {
			anyActive = true
		}
	}
	if allComplete {
		return StatusDone
	}
	if anyActive {
		return StatusInProgress
	}
	return StatusNotStarted
}

func sprintStatuses(sprints []Sprint) []TaskStatus {
	statuses := make([]TaskStatus, len(sprints))
	for i, s := range sprints {
		statuses[i] = s.Status
	}
	return statuses
}
