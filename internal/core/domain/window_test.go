package domain

import (
	"errors"
	"testing"
	"time"
)

func testWindow() OpenCloseWindow {
	return OpenCloseWindow{
		MemberType:         TypeResidential,
		DayOpenTime:        "06:00:00",
		DayCloseTime:       "22:00:00",
		ClosingWindowStart: "19:30:00",
		ClosingWindowEnd:   "20:00:00",
	}
}

func at(hour, min, sec int) time.Time {
	return time.Date(2026, time.March, 9, hour, min, sec, 0, time.UTC)
}

func TestWindowState_Boundaries(t *testing.T) {
	w := testWindow()

	tests := []struct {
		name string
		now  time.Time
		want WindowState
	}{
		{"well_before_window", at(12, 0, 0), WindowOpen},
		{"one_second_before_start", at(19, 29, 59), WindowOpen},
		{"exactly_at_start", at(19, 30, 0), WindowClosable},
		{"inside_window", at(19, 45, 0), WindowClosable},
		{"exactly_at_end", at(20, 0, 0), WindowClosable},
		{"one_second_after_end", at(20, 0, 1), WindowOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := w.State(tt.now)
			if err != nil {
				t.Fatalf("State() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("State(%s) = %s, want %s", tt.now.Format("15:04:05"), got, tt.want)
			}
		})
	}
}

func TestRequireClosable(t *testing.T) {
	w := testWindow()

	if err := w.RequireClosable(at(19, 30, 0)); err != nil {
		t.Errorf("closing at window start should succeed, got %v", err)
	}

	err := w.RequireClosable(at(18, 0, 0))
	var winErr *OutsideWindowError
	if !errors.As(err, &winErr) {
		t.Fatalf("expected OutsideWindowError, got %v", err)
	}
	if winErr.Start != "19:30:00" || winErr.End != "20:00:00" {
		t.Errorf("error should carry the window bounds, got %+v", winErr)
	}
}

func TestWindowState_MinutePrecisionRows(t *testing.T) {
	// Rows written before seconds were stored use "HH:MM".
	w := OpenCloseWindow{
		MemberType:         TypeNonResidential,
		ClosingWindowStart: "17:00",
		ClosingWindowEnd:   "17:30",
	}

	got, err := w.State(at(17, 15, 0))
	if err != nil {
		t.Fatalf("State() error: %v", err)
	}
	if got != WindowClosable {
		t.Errorf("State() = %s, want %s", got, WindowClosable)
	}
}

func TestWindowState_BadTimeOfDay(t *testing.T) {
	w := OpenCloseWindow{
		MemberType:         TypeResidential,
		ClosingWindowStart: "late evening",
		ClosingWindowEnd:   "20:00:00",
	}

	if _, err := w.State(at(19, 0, 0)); err == nil {
		t.Error("expected error for unparseable time of day")
	}
}
