package domain

import "time"

// OpenCloseWindow holds the daily open/close times for one member
// type. Time-of-day fields are "HH:MM:SS" strings in the member's
// local day; ClosingWindowStart must not be after ClosingWindowEnd.
type OpenCloseWindow struct {
	MemberType         MemberType `json:"userType"`
	DayOpenTime        string     `json:"dayOpenedAt"`
	DayCloseTime       string     `json:"dayClosedAt"`
	ClosingWindowStart string     `json:"closingWindowStart"`
	ClosingWindowEnd   string     `json:"closingWindowEnd"`
}

// DailySlot is one block of the daily schedule. AssignedMemberID is a
// denormalized fallback used only when no SlotAssignment row exists.
type DailySlot struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	StartTime        string `json:"startTime"`
	EndTime          string `json:"endTime"`
	HasSubSlots      bool   `json:"hasSubSlots"`
	AssignedMemberID *int64 `json:"assignedMemberId"`
}

// SlotAssignment binds a member to a slot. At most one live row per
// slot; writes go through an upsert keyed on SlotID.
type SlotAssignment struct {
	SlotID   int64 `json:"slotId"`
	MemberID int64 `json:"memberId"`
}

// SlotChange is one row of a slots bulk edit: an assignment upsert
// (MemberID non-zero), a time change (both times set), or both.
type SlotChange struct {
	SlotID    int64
	MemberID  int64
	StartTime string
	EndTime   string
}

type CalendarEntry struct {
	ID                  int64     `json:"id"`
	MajorTerm           string    `json:"majorTerm"`
	MinorTerm           string    `json:"minorTerm"`
	StartDate           time.Time `json:"startDate"`
	EndDate             time.Time `json:"endDate"`
	Name                string    `json:"name"`
	WeekNumber          *int      `json:"weekNumber"`
	IsMajorTermBoundary bool      `json:"isMajorTermBoundary"`
}
