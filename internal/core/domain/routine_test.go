package domain

import (
	"errors"
	"testing"
)

func TestCanMemberEdit(t *testing.T) {
	tests := []struct {
		name       string
		row        RoutineTaskDailyStatus
		wantLocked bool
	}{
		{
			name: "open_row_is_editable",
			row:  RoutineTaskDailyStatus{RoutineTaskID: 4, Status: RoutineInProgress},
		},
		{
			name:       "locked_row_rejects_edit",
			row:        RoutineTaskDailyStatus{RoutineTaskID: 4, Status: RoutineInProgress, IsLocked: true},
			wantLocked: true,
		},
		{
			name:       "done_row_rejects_edit",
			row:        RoutineTaskDailyStatus{RoutineTaskID: 4, Status: RoutineDone},
			wantLocked: true,
		},
		{
			name:       "verified_row_rejects_edit",
			row:        RoutineTaskDailyStatus{RoutineTaskID: 4, Status: RoutineVerified},
			wantLocked: true,
		},
		{
			name: "completed_is_not_terminal",
			row:  RoutineTaskDailyStatus{RoutineTaskID: 4, Status: RoutineCompleted},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.row.CanMemberEdit()
			if !tt.wantLocked {
				if err != nil {
					t.Errorf("expected edit allowed, got %v", err)
				}
				return
			}
			var lockErr *LockedStateError
			if !errors.As(err, &lockErr) {
				t.Fatalf("expected LockedStateError, got %v", err)
			}
			if lockErr.ID != tt.row.RoutineTaskID {
				t.Errorf("error should name the task, got id %d", lockErr.ID)
			}
		})
	}
}
