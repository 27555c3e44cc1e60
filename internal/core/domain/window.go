package domain

import (
	"fmt"
	"time"
)

// WindowState is the closing-window gate's state for one member type
// at one instant. LOCKED is a property of the day's status rows, not
// of the window itself; re-entering CLOSABLE on a later day is a fresh
// evaluation.
type WindowState string

const (
	WindowOpen     WindowState = "OPEN"
	WindowClosable WindowState = "CLOSABLE"
)

// State evaluates the gate against wall-clock time. Both window bounds
// are inclusive: closing at exactly ClosingWindowStart or
// ClosingWindowEnd succeeds.
func (w *OpenCloseWindow) State(now time.Time) (WindowState, error) {
	start, err := w.at(now, w.ClosingWindowStart)
	if err != nil {
		return "", err
	}
	end, err := w.at(now, w.ClosingWindowEnd)
	if err != nil {
		return "", err
	}
	if now.Before(start) || now.After(end) {
		return WindowOpen, nil
	}
	return WindowClosable, nil
}

// RequireClosable returns an OutsideWindowError unless now falls
// inside the closing window.
func (w *OpenCloseWindow) RequireClosable(now time.Time) error {
	state, err := w.State(now)
	if err != nil {
		return err
	}
	if state != WindowClosable {
		return &OutsideWindowError{
			MemberType: w.MemberType,
			Start:      w.ClosingWindowStart,
			End:        w.ClosingWindowEnd,
		}
	}
	return nil
}

// at combines a "HH:MM:SS" time-of-day with now's calendar date and
// location.
func (w *OpenCloseWindow) at(now time.Time, tod string) (time.Time, error) {
	parsed, err := ParseTimeOfDay(tod)
	if err != nil {
		return time.Time{}, fmt.Errorf("window for %s: %w", w.MemberType, err)
	}
	return time.Date(now.Year(), now.Month(), now.Day(),
		parsed.Hour(), parsed.Minute(), parsed.Second(), 0, now.Location()), nil
}

// ParseTimeOfDay parses a "HH:MM:SS" window field. Validation and the
// gate share it, so a value the gate cannot evaluate never gets stored.
func ParseTimeOfDay(tod string) (time.Time, error) {
	parsed, err := time.Parse("15:04:05", tod)
	if err != nil {
		// Tolerate "HH:MM" rows written before seconds were stored.
		parsed, err = time.Parse("15:04", tod)
		if err != nil {
			return time.Time{}, fmt.Errorf("bad time of day %q: %w", tod, err)
		}
	}
	return parsed, nil
}
