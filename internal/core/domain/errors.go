package domain

import "fmt"

// ValidationError reports a malformed or missing field on one entity
// of a batch. The whole batch aborts on the first one.
type ValidationError struct {
	Entity string
	ID     int64
	Field  string
	Msg    string
}

func (e *ValidationError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("invalid %s for %s %d: %s", e.Field, e.Entity, e.ID, e.Msg)
	}
	return fmt.Sprintf("invalid %s for %s: %s", e.Field, e.Entity, e.Msg)
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
	}
	return e.Entity + " not found"
}

// AuthorizationError reports a failed role or ownership check.
type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string {
	if e.Msg == "" {
		return "unauthorized"
	}
	return e.Msg
}

// OutsideWindowError reports a day-close attempted outside the closing
// window.
type OutsideWindowError struct {
	MemberType MemberType
	Start, End string
}

func (e *OutsideWindowError) Error() string {
	return fmt.Sprintf("outside closing window (%s-%s) for %s", e.Start, e.End, e.MemberType)
}

// LockedStateError reports a mutation attempted on a locked or
// terminal status row.
type LockedStateError struct {
	Entity string
	ID     int64
	Reason string
}

func (e *LockedStateError) Error() string {
	return fmt.Sprintf("%s %d cannot be updated: %s", e.Entity, e.ID, e.Reason)
}

// ConflictError reports a uniqueness violation, e.g. a duplicate
// email.
type ConflictError struct {
	Entity string
	ID     int64
	Msg    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %d: %s", e.Entity, e.ID, e.Msg)
}

// StoreError wraps an underlying storage failure. Callers surface a
// generic message; the cause is for logs only.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return "store: " + e.Op + ": " + e.Err.Error() }

func (e *StoreError) Unwrap() error { return e.Err }
