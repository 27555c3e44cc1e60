package domain

import "time"

// RoutineStatus is the status of one routine task on one calendar day.
type RoutineStatus string

const (
	RoutineNotStarted RoutineStatus = "not_started"
	RoutineInProgress RoutineStatus = "in_progress"
	RoutineCompleted  RoutineStatus = "completed"
	RoutineDone       RoutineStatus = "done"
	RoutineVerified   RoutineStatus = "verified"
)

func (s RoutineStatus) IsTerminal() bool {
	return s == RoutineDone || s == RoutineVerified
}

type RoutineTask struct {
	ID          int64     `json:"id"`
	MemberID    int64     `json:"memberId"`
	Description string    `json:"description"`
	MemberName  string    `json:"memberName,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RoutineTaskDailyStatus is one task's status for one calendar day.
// One row per (routine task, date).
type RoutineTaskDailyStatus struct {
	ID            int64         `json:"id"`
	RoutineTaskID int64         `json:"routineTaskId"`
	MemberID      int64         `json:"memberId"`
	Description   string        `json:"description,omitempty"`
	MemberName    string        `json:"memberName,omitempty"`
	Status        RoutineStatus `json:"status"`
	Date          time.Time     `json:"date"`
	Comment       string        `json:"comment,omitempty"`
	UpdatedAt     time.Time     `json:"updatedAt"`
	IsLocked      bool          `json:"isLocked"`
}

// CanMemberEdit reports whether a member-initiated status change is
// still allowed on this row. Locked rows and terminal statuses reject
// edits regardless of the proposed value.
func (s *RoutineTaskDailyStatus) CanMemberEdit() error {
	if s.IsLocked {
		return &LockedStateError{Entity: "routine task status", ID: s.RoutineTaskID, Reason: "day closed"}
	}
	if s.Status.IsTerminal() {
		return &LockedStateError{Entity: "routine task status", ID: s.RoutineTaskID, Reason: "status is " + string(s.Status)}
	}
	return nil
}

// DayCloseItem is one member-submitted entry of a close-day request.
// Every matched status row gets locked; only rows with MarkAsCompleted
// also get status completed (and the request comment, if any).
type DayCloseItem struct {
	RoutineTaskID   int64 `json:"id"`
	MarkAsCompleted bool  `json:"markAsCompleted"`
}
