package domain

import "testing"

func TestAggregateStatus_AssigneesOnly(t *testing.T) {
	tests := []struct {
		name     string
		statuses []TaskStatus
		want     TaskStatus
	}{
		{
			name:     "all_not_started",
			statuses: []TaskStatus{StatusNotStarted, StatusNotStarted},
			want:     StatusNotStarted,
		},
		{
			name:     "one_in_progress_surfaces_in_progress",
			statuses: []TaskStatus{StatusNotStarted, StatusInProgress},
			want:     StatusInProgress,
		},
		{
			name:     "pending_verification_counts_as_active_work",
			statuses: []TaskStatus{StatusNotStarted, StatusPendingVerification},
			want:     StatusInProgress,
		},
		{
			name:     "pending_verification_never_surfaces_as_aggregate",
			statuses: []TaskStatus{StatusPendingVerification},
			want:     StatusInProgress,
		},
		{
			name:     "all_done_or_verified_is_done",
			statuses: []TaskStatus{StatusDone, StatusVerified},
			want:     StatusDone,
		},
		{
			name:     "one_open_row_blocks_done",
			statuses: []TaskStatus{StatusDone, StatusVerified, StatusNotStarted},
			want:     StatusNotStarted,
		},
		{
			name:     "no_statuses_is_not_started",
			statuses: nil,
			want:     StatusNotStarted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := AssignedTask{}
			for _, s := range tt.statuses {
				task.Assignees = append(task.Assignees, TaskAssignee{Status: s})
			}
			if got := task.AggregateStatus(); got != tt.want {
				t.Errorf("AggregateStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

// Sprint statuses take priority: an assignee row stuck at not_started
// must not hide sprint progress, and finished sprints mean done even
// while the assignee row lags.
func TestAggregateStatus_SprintsTakePriority(t *testing.T) {
	tests := []struct {
		name      string
		assignees []TaskStatus
		sprints   []TaskStatus
		want      TaskStatus
	}{
		{
			name:      "sprint_progress_beats_idle_assignee",
			assignees: []TaskStatus{StatusNotStarted},
			sprints:   []TaskStatus{StatusInProgress, StatusNotStarted},
			want:      StatusInProgress,
		},
		{
			name:      "all_sprints_finished_is_done",
			assignees: []TaskStatus{StatusInProgress},
			sprints:   []TaskStatus{StatusVerified, StatusDone},
			want:      StatusDone,
		},
		{
			name:      "idle_sprints_beat_active_assignees",
			assignees: []TaskStatus{StatusInProgress},
			sprints:   []TaskStatus{StatusNotStarted},
			want:      StatusNotStarted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := AssignedTask{}
			for _, s := range tt.assignees {
				task.Assignees = append(task.Assignees, TaskAssignee{Status: s})
			}
			for _, s := range tt.sprints {
				task.Sprints = append(task.Sprints, Sprint{Status: s})
			}
			if got := task.AggregateStatus(); got != tt.want {
				t.Errorf("AggregateStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTaskStatus_IsTerminal(t *testing.T) {
	terminal := []TaskStatus{StatusDone, StatusVerified}
	open := []TaskStatus{StatusNotStarted, StatusInProgress, StatusPendingVerification}

	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range open {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
