package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/meedian/meedian-ams/task-schedule-service/internal/adapters/middleware"
	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/domain"
	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/services"
)

// AdminHandler serves the bulk-management sections (team,
// openCloseTimes, slots, schoolCalendar, students) behind a single
// resource. Each section maps to a table entry instead of nested
// branching on the section string.
type AdminHandler struct {
	sections  map[string]sectionOps
	validator *services.Validator
}

// sectionOps is the operation set of one manage section. A nil slot
// means the method is not supported for that section.
type sectionOps struct {
	roles  []domain.Role
	list   func(ctx context.Context) (any, error)
	create func(ctx context.Context, body json.RawMessage) (any, error)
	update func(ctx context.Context, body json.RawMessage) error
	remove func(ctx context.Context, body json.RawMessage) error
}

func NewAdminHandler(roster *services.RosterService, validator *services.Validator) *AdminHandler {
	managerRoles := []domain.Role{domain.RoleAdmin, domain.RoleTeamManager}
	h := &AdminHandler{validator: validator}

	h.sections = map[string]sectionOps{
		"team": {
			roles: managerRoles,
			list: func(ctx context.Context) (any, error) {
				users, err := roster.Team(ctx)
				return map[string]any{"users": users}, err
			},
			update: func(ctx context.Context, body json.RawMessage) error {
				var req struct {
					Updates []services.MemberUpdate `json:"updates"`
				}
				if err := json.Unmarshal(body, &req); err != nil {
					return badPayload()
				}
				return roster.UpdateTeam(ctx, req.Updates)
			},
		},
		"openCloseTimes": {
			roles: managerRoles,
			list: func(ctx context.Context) (any, error) {
				times, err := roster.Windows(ctx)
				return map[string]any{"times": times}, err
			},
			update: func(ctx context.Context, body json.RawMessage) error {
				var req struct {
					Times []services.WindowUpdate `json:"times"`
				}
				if err := json.Unmarshal(body, &req); err != nil {
					return badPayload()
				}
				return roster.UpdateWindows(ctx, req.Times)
			},
		},
		"slots": {
			// Members read the schedule too; writes stay manager-only
			// and are re-checked per method below.
			roles: []domain.Role{domain.RoleAdmin, domain.RoleTeamManager, domain.RoleMember},
			list: func(ctx context.Context) (any, error) {
				slots, err := roster.Slots(ctx)
				return map[string]any{"slots": slots}, err
			},
			create: func(ctx context.Context, body json.RawMessage) (any, error) {
				var req struct {
					SlotID   int64 `json:"slotId"`
					MemberID int64 `json:"memberId"`
				}
				if err := json.Unmarshal(body, &req); err != nil {
					return nil, badPayload()
				}
				if err := roster.AssignSlot(ctx, req.SlotID, req.MemberID); err != nil {
					return nil, err
				}
				return map[string]any{
					"assignment": domain.SlotAssignment{SlotID: req.SlotID, MemberID: req.MemberID},
					"message":    "Slot assignment added successfully",
				}, nil
			},
			update: func(ctx context.Context, body json.RawMessage) error {
				var req struct {
					Updates []services.SlotUpdate `json:"updates"`
				}
				if err := json.Unmarshal(body, &req); err != nil {
					return badPayload()
				}
				return roster.UpdateSlots(ctx, req.Updates)
			},
			remove: func(ctx context.Context, body json.RawMessage) error {
				var req struct {
					SlotID int64 `json:"slotId"`
				}
				if err := json.Unmarshal(body, &req); err != nil {
					return badPayload()
				}
				return roster.UnassignSlot(ctx, req.SlotID)
			},
		},
		"schoolCalendar": {
			roles: managerRoles,
			list: func(ctx context.Context) (any, error) {
				calendar, err := roster.Calendar(ctx)
				return map[string]any{"calendar": calendar}, err
			},
			create: func(ctx context.Context, body json.RawMessage) (any, error) {
				var update services.CalendarUpdate
				if err := json.Unmarshal(body, &update); err != nil {
					return nil, badPayload()
				}
				entry, err := roster.AddCalendarEntry(ctx, update)
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"entry":   entry,
					"message": "Calendar entry added successfully",
				}, nil
			},
			update: func(ctx context.Context, body json.RawMessage) error {
				var req struct {
					Updates []services.CalendarUpdate `json:"updates"`
				}
				if err := json.Unmarshal(body, &req); err != nil {
					return badPayload()
				}
				return roster.UpdateCalendar(ctx, req.Updates)
			},
			remove: func(ctx context.Context, body json.RawMessage) error {
				var req struct {
					ID int64 `json:"id"`
				}
				if err := json.Unmarshal(body, &req); err != nil {
					return badPayload()
				}
				return roster.DeleteCalendarEntry(ctx, req.ID)
			},
		},
		"students": {
			roles: managerRoles,
			list: func(ctx context.Context) (any, error) {
				students, err := roster.Students(ctx)
				return map[string]any{"students": students}, err
			},
		},
	}
	return h
}

// Manage dispatches section + method to the table.
func (h *AdminHandler) Manage(w http.ResponseWriter, r *http.Request) {
	section := r.URL.Query().Get("section")
	ops, ok := h.sections[section]
	if !ok {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid section"})
		return
	}

	p := middleware.PrincipalFrom(r.Context())
	roles := ops.roles
	if r.Method != http.MethodGet && section == "slots" {
		// Members may read slots but never write them.
		roles = []domain.Role{domain.RoleAdmin, domain.RoleTeamManager}
	}
	if err := h.validator.Authorize(p, roles...); err != nil {
		respondError(w, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		if ops.list == nil {
			break
		}
		result, err := ops.list(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, result)
		return

	case http.MethodPost:
		if ops.create == nil {
			break
		}
		body, ok := rawBody(w, r)
		if !ok {
			return
		}
		result, err := ops.create(r.Context(), body)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, result)
		return

	case http.MethodPatch:
		if ops.update == nil {
			break
		}
		body, ok := rawBody(w, r)
		if !ok {
			return
		}
		if err := ops.update(r.Context(), body); err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, messageResponse{Message: section + " updated successfully"})
		return

	case http.MethodDelete:
		if ops.remove == nil {
			break
		}
		body, ok := rawBody(w, r)
		if !ok {
			return
		}
		if err := ops.remove(r.Context(), body); err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, messageResponse{Message: section + " entry deleted successfully"})
		return

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	respondJSON(w, http.StatusBadRequest, errorResponse{Error: "Unsupported operation for section " + section})
}

func rawBody(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	var body json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request payload"})
		return nil, false
	}
	return body, true
}

func badPayload() error {
	return &domain.ValidationError{Entity: "request", Field: "payload", Msg: "malformed JSON body"}
}
