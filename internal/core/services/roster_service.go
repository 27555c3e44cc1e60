package services

import (
	"context"

	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/domain"
	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/ports"
)

// RosterService backs the admin manage sections: team, openCloseTimes,
// slots, schoolCalendar and students. Every bulk edit is validated
// fully before the first write, and written in one transaction.
type RosterService struct {
	roster    ports.RosterRepository
	validator *Validator
}

func NewRosterService(roster ports.RosterRepository, validator *Validator) *RosterService {
	return &RosterService{roster: roster, validator: validator}
}

func (s *RosterService) Team(ctx context.Context) ([]domain.Member, error) {
	return s.roster.ListMembers(ctx)
}

func (s *RosterService) UpdateTeam(ctx context.Context, updates []MemberUpdate) error {
	members, err := s.validator.MemberBatch(ctx, updates)
	if err != nil {
		return err
	}
	return s.roster.BulkUpdateMembers(ctx, members)
}

func (s *RosterService) Windows(ctx context.Context) ([]domain.OpenCloseWindow, error) {
	return s.roster.ListWindows(ctx)
}

func (s *RosterService) UpdateWindows(ctx context.Context, updates []WindowUpdate) error {
	windows, err := s.validator.WindowBatch(updates)
	if err != nil {
		return err
	}
	return s.roster.UpdateWindows(ctx, windows)
}

func (s *RosterService) Slots(ctx context.Context) ([]domain.DailySlot, error) {
	return s.roster.ListSlots(ctx)
}

// AssignSlot upserts a single slot assignment after checking both
// references exist.
func (s *RosterService) AssignSlot(ctx context.Context, slotID, memberID int64) error {
	if slotID == 0 || memberID == 0 {
		return &domain.ValidationError{Entity: "slot assignment", Field: "slotId", Msg: "slotId and memberId are required"}
	}
	if err := s.validator.SlotBatch(ctx, []SlotUpdate{{SlotID: slotID, MemberID: memberID}}); err != nil {
		return err
	}
	return s.roster.UpsertAssignment(ctx, domain.SlotAssignment{SlotID: slotID, MemberID: memberID})
}

func (s *RosterService) UpdateSlots(ctx context.Context, updates []SlotUpdate) error {
	if err := s.validator.SlotBatch(ctx, updates); err != nil {
		return err
	}
	changes := make([]domain.SlotChange, 0, len(updates))
	for _, u := range updates {
		changes = append(changes, domain.SlotChange{
			SlotID:    u.SlotID,
			MemberID:  u.MemberID,
			StartTime: u.StartTime,
			EndTime:   u.EndTime,
		})
	}
	return s.roster.BulkUpdateSlots(ctx, changes)
}

func (s *RosterService) UnassignSlot(ctx context.Context, slotID int64) error {
	if slotID == 0 {
		return &domain.ValidationError{Entity: "slot assignment", Field: "slotId", Msg: "slotId is required"}
	}
	return s.roster.DeleteAssignment(ctx, slotID)
}

func (s *RosterService) Calendar(ctx context.Context) ([]domain.CalendarEntry, error) {
	return s.roster.ListCalendar(ctx)
}

func (s *RosterService) AddCalendarEntry(ctx context.Context, update CalendarUpdate) (domain.CalendarEntry, error) {
	entries, err := s.validator.CalendarBatch([]CalendarUpdate{update})
	if err != nil {
		return domain.CalendarEntry{}, err
	}
	entry := entries[0]
	id, err := s.roster.InsertCalendarEntry(ctx, entry)
	if err != nil {
		return domain.CalendarEntry{}, err
	}
	entry.ID = id
	return entry, nil
}

func (s *RosterService) UpdateCalendar(ctx context.Context, updates []CalendarUpdate) error {
	entries, err := s.validator.CalendarBatch(updates)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.ID == 0 {
			return &domain.ValidationError{Entity: "calendar entry", Field: "id", Msg: "is required"}
		}
	}
	return s.roster.BulkUpdateCalendar(ctx, entries)
}

func (s *RosterService) DeleteCalendarEntry(ctx context.Context, id int64) error {
	if id == 0 {
		return &domain.ValidationError{Entity: "calendar entry", Field: "id", Msg: "is required"}
	}
	return s.roster.DeleteCalendarEntry(ctx, id)
}

func (s *RosterService) Students(ctx context.Context) ([]domain.Student, error) {
	return s.roster.ListStudents(ctx)
}
