package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/domain"
	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/ports"
)

var phonePattern = regexp.MustCompile(`^\+?\d{10,15}$`)

// Validator checks batches of proposed mutations against format rules
// and referential existence before any write executes. Reference sets
// are loaded once per batch, not per row. The first failing row aborts
// the whole batch with an error naming its id.
type Validator struct {
	roster ports.RosterRepository
	check  *validator.Validate
}

func NewValidator(roster ports.RosterRepository) *Validator {
	check := validator.New(validator.WithRequiredStructEnabled())
	// Optional leading +, 10-15 digits.
	_ = check.RegisterValidation("whatsapp", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return &Validator{roster: roster, check: check}
}

// Authorize is the single capability check applied before any handler
// logic runs. An empty role list admits any authenticated principal.
func (v *Validator) Authorize(p domain.Principal, roles ...domain.Role) error {
	if p.ID == 0 {
		return &domain.AuthorizationError{}
	}
	if len(roles) == 0 {
		return nil
	}
	for _, r := range roles {
		if p.Role == r {
			return nil
		}
	}
	return &domain.AuthorizationError{}
}

// MemberUpdate is one row of a team bulk edit.
type MemberUpdate struct {
	ID              int64  `json:"id" validate:"required"`
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Role            string `json:"role" validate:"required,oneof=admin team_manager member"`
	Type            string `json:"type" validate:"required,oneof=residential non_residential semi_residential"`
	WhatsappNumber  string `json:"whatsapp_number" validate:"required,whatsapp"`
	MemberScope     string `json:"member_scope" validate:"required,oneof=o_member i_member s_member"`
	TeamManagerType string `json:"team_manager_type" validate:"required_if=Role team_manager,omitempty,oneof=head_incharge coordinator accountant chief_counsellor hostel_incharge principal"`
}

// MemberBatch validates a team bulk edit and returns the rows ready to
// write. Email uniqueness is case-insensitive and excludes the row
// being updated.
func (v *Validator) MemberBatch(ctx context.Context, updates []MemberUpdate) ([]domain.Member, error) {
	if len(updates) == 0 {
		return nil, &domain.ValidationError{Entity: "team update", Field: "updates", Msg: "empty batch"}
	}

	members := make([]domain.Member, 0, len(updates))
	seenEmails := make(map[string]struct{}, len(updates))
	for _, u := range updates {
		if err := v.structErr("member", u.ID, u); err != nil {
			return nil, err
		}

		email := strings.ToLower(u.Email)
		if _, dup := seenEmails[email]; dup {
			return nil, &domain.ConflictError{Entity: "member", ID: u.ID, Msg: "email already in use"}
		}
		seenEmails[email] = struct{}{}

		existingID, err := v.roster.FindMemberIDByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if existingID != 0 && existingID != u.ID {
			return nil, &domain.ConflictError{Entity: "member", ID: u.ID, Msg: "email already in use"}
		}

		m := domain.Member{
			ID:             u.ID,
			Name:           u.Name,
			Email:          email,
			Role:           domain.Role(u.Role),
			Type:           domain.MemberType(u.Type),
			MemberScope:    domain.MemberScope(u.MemberScope),
			WhatsappNumber: u.WhatsappNumber,
		}
		// team_manager_type only means something for team managers.
		if m.Role == domain.RoleTeamManager {
			m.TeamManagerType = domain.TeamManagerType(u.TeamManagerType)
		}
		members = append(members, m)
	}
	return members, nil
}

// WindowUpdate is one row of an openCloseTimes bulk edit.
type WindowUpdate struct {
	UserType           string `json:"userType" validate:"required,oneof=residential non_residential semi_residential"`
	DayOpenTime        string `json:"dayOpenedAt" validate:"required"`
	DayCloseTime       string `json:"dayClosedAt" validate:"required"`
	ClosingWindowStart string `json:"closingWindowStart" validate:"required"`
	ClosingWindowEnd   string `json:"closingWindowEnd" validate:"required"`
}

func (v *Validator) WindowBatch(updates []WindowUpdate) ([]domain.OpenCloseWindow, error) {
	if len(updates) == 0 {
		return nil, &domain.ValidationError{Entity: "openCloseTimes update", Field: "times", Msg: "empty batch"}
	}

	windows := make([]domain.OpenCloseWindow, 0, len(updates))
	for _, u := range updates {
		if err := v.check.Struct(u); err != nil {
			return nil, windowErr(u.UserType, err)
		}

		// Every field must parse with the layouts the closing-window
		// gate evaluates; a value stored here that the gate cannot read
		// would break every day-close for the member type.
		fields := []struct {
			name  string
			value string
		}{
			{"dayOpenedAt", u.DayOpenTime},
			{"dayClosedAt", u.DayCloseTime},
			{"closingWindowStart", u.ClosingWindowStart},
			{"closingWindowEnd", u.ClosingWindowEnd},
		}
		parsed := make(map[string]time.Time, len(fields))
		for _, f := range fields {
			t, err := domain.ParseTimeOfDay(f.value)
			if err != nil {
				return nil, &domain.ValidationError{
					Entity: "openCloseTimes for " + u.UserType,
					Field:  f.name,
					Msg:    "must be a HH:MM:SS time of day",
				}
			}
			parsed[f.name] = t
		}
		if parsed["closingWindowStart"].After(parsed["closingWindowEnd"]) {
			return nil, &domain.ValidationError{
				Entity: "openCloseTimes for " + u.UserType,
				Field:  "closingWindowStart",
				Msg:    "must not be after closingWindowEnd",
			}
		}
		windows = append(windows, domain.OpenCloseWindow{
			MemberType:         domain.MemberType(u.UserType),
			DayOpenTime:        u.DayOpenTime,
			DayCloseTime:       u.DayCloseTime,
			ClosingWindowStart: u.ClosingWindowStart,
			ClosingWindowEnd:   u.ClosingWindowEnd,
		})
	}
	return windows, nil
}

// SlotUpdate is one row of a slots bulk edit: an assignment change, a
// time change, or both.
type SlotUpdate struct {
	SlotID    int64  `json:"slotId" validate:"required"`
	MemberID  int64  `json:"memberId"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

func (u SlotUpdate) hasAssignment() bool { return u.MemberID != 0 }
func (u SlotUpdate) hasTimes() bool      { return u.StartTime != "" && u.EndTime != "" }

// SlotBatch validates slot assignment/time updates against reference
// sets loaded once for the whole batch.
func (v *Validator) SlotBatch(ctx context.Context, updates []SlotUpdate) error {
	if len(updates) == 0 {
		return &domain.ValidationError{Entity: "slot update", Field: "updates", Msg: "empty batch"}
	}

	slotIDs, err := v.roster.SlotIDSet(ctx)
	if err != nil {
		return err
	}
	memberIDs, err := v.roster.MemberIDSet(ctx)
	if err != nil {
		return err
	}

	for _, u := range updates {
		if err := v.structErr("slot", u.SlotID, u); err != nil {
			return err
		}
		if !u.hasAssignment() && !u.hasTimes() {
			return &domain.ValidationError{Entity: "slot", ID: u.SlotID, Field: "memberId", Msg: "nothing to update"}
		}
		if _, ok := slotIDs[u.SlotID]; !ok {
			return &domain.NotFoundError{Entity: "slot", ID: u.SlotID}
		}
		if u.hasAssignment() {
			if _, ok := memberIDs[u.MemberID]; !ok {
				return &domain.NotFoundError{Entity: "member", ID: u.MemberID}
			}
		}
		if u.hasTimes() && u.StartTime >= u.EndTime {
			return &domain.ValidationError{Entity: "slot", ID: u.SlotID, Field: "startTime", Msg: "must be before endTime"}
		}
	}
	return nil
}

// CalendarUpdate is one row of a schoolCalendar bulk edit. New entries
// carry ID zero.
type CalendarUpdate struct {
	ID                  int64      `json:"id"`
	MajorTerm           string     `json:"majorTerm" validate:"required"`
	MinorTerm           string     `json:"minorTerm" validate:"required"`
	StartDate           *time.Time `json:"startDate" validate:"required"`
	EndDate             *time.Time `json:"endDate" validate:"required"`
	Name                string     `json:"name" validate:"required"`
	WeekNumber          *int       `json:"weekNumber"`
	IsMajorTermBoundary bool       `json:"isMajorTermBoundary"`
}

func (v *Validator) CalendarBatch(updates []CalendarUpdate) ([]domain.CalendarEntry, error) {
	if len(updates) == 0 {
		return nil, &domain.ValidationError{Entity: "calendar update", Field: "updates", Msg: "empty batch"}
	}

	entries := make([]domain.CalendarEntry, 0, len(updates))
	for _, u := range updates {
		if err := v.structErr("calendar entry", u.ID, u); err != nil {
			return nil, err
		}
		if u.StartDate.After(*u.EndDate) {
			return nil, &domain.ValidationError{Entity: "calendar entry", ID: u.ID, Field: "startDate", Msg: "must not be after endDate"}
		}
		entries = append(entries, domain.CalendarEntry{
			ID:                  u.ID,
			MajorTerm:           u.MajorTerm,
			MinorTerm:           u.MinorTerm,
			StartDate:           *u.StartDate,
			EndDate:             *u.EndDate,
			Name:                u.Name,
			WeekNumber:          u.WeekNumber,
			IsMajorTermBoundary: u.IsMajorTermBoundary,
		})
	}
	return entries, nil
}

// Assignees checks that every proposed assignee exists and is visible
// to the acting principal. Team managers may only target members
// sharing their own team manager type.
func (v *Validator) Assignees(ctx context.Context, p domain.Principal, assigneeIDs []int64) error {
	if len(assigneeIDs) == 0 {
		return &domain.ValidationError{Entity: "task", Field: "assignees", Msg: "at least one assignee is required"}
	}

	var visible map[int64]struct{}
	var err error
	if p.Role == domain.RoleTeamManager && p.TeamManagerType != "" {
		visible, err = v.roster.MemberIDSetForManager(ctx, p.TeamManagerType)
	} else {
		visible, err = v.roster.MemberIDSet(ctx)
	}
	if err != nil {
		return err
	}

	for _, id := range assigneeIDs {
		if _, ok := visible[id]; !ok {
			return &domain.ValidationError{Entity: "task", ID: id, Field: "assignees", Msg: "assignee invalid or not accessible"}
		}
	}
	return nil
}

// structErr runs struct-tag validation and converts the first failure
// into a domain ValidationError naming the offending row.
func (v *Validator) structErr(entity string, id int64, s any) error {
	err := v.check.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &domain.ValidationError{Entity: entity, ID: id, Field: "payload", Msg: err.Error()}
	}
	fe := fieldErrs[0]
	msg := "failed " + fe.Tag() + " check"
	if fe.Tag() == "required" || fe.Tag() == "required_if" {
		msg = "is required"
	}
	return &domain.ValidationError{Entity: entity, ID: id, Field: jsonName(fe.Field()), Msg: msg}
}

func windowErr(userType string, err error) error {
	var fieldErrs validator.ValidationErrors
	field := "payload"
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		field = jsonName(fieldErrs[0].Field())
	}
	return &domain.ValidationError{Entity: "openCloseTimes for " + userType, Field: field, Msg: "is required"}
}

// jsonName maps the Go field names validator reports back to the json
// names clients sent.
func jsonName(field string) string {
	switch field {
	case "WhatsappNumber":
		return "whatsapp_number"
	case "MemberScope":
		return "member_scope"
	case "TeamManagerType":
		return "team_manager_type"
	case "SlotID":
		return "slotId"
	case "MemberID":
		return "memberId"
	case "UserType":
		return "userType"
	case "DayOpenTime":
		return "dayOpenedAt"
	case "DayCloseTime":
		return "dayClosedAt"
	default:
		return strings.ToLower(field[:1]) + field[1:]
	}
}

