package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/meedian/meedian-ams/task-schedule-service/internal/adapters/middleware"
	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/domain"
	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/ports"
)

const dateLayout = "2006-01-02"

type RoutineHandler struct {
	routineService ports.RoutineService
}

func NewRoutineHandler(routineService ports.RoutineService) *RoutineHandler {
	return &RoutineHandler{routineService: routineService}
}

// RoutineTasks serves GET (member's tasks + that day's statuses),
// POST (admin create) and PATCH (status transition).
func (h *RoutineHandler) RoutineTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	case http.MethodPatch:
		h.updateStatus(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *RoutineHandler) list(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())

	memberID := p.ID
	if raw := r.URL.Query().Get("memberId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(w, &domain.ValidationError{Entity: "routine tasks", Field: "memberId", Msg: "must be an integer"})
			return
		}
		memberID = id
	}

	date, ok := parseDate(w, r.URL.Query().Get("date"))
	if !ok {
		return
	}

	view, err := h.routineService.ListRoutineTasks(r.Context(), p, memberID, date)
	if err != nil {
		respondError(w, err)
		return
	}
	if view.Tasks == nil {
		view.Tasks = []domain.RoutineTask{}
	}
	if view.Statuses == nil {
		view.Statuses = []domain.RoutineTaskDailyStatus{}
	}
	respondJSON(w, http.StatusOK, view)
}

type createRoutineTaskRequest struct {
	MemberID    int64                `json:"memberId"`
	Description string               `json:"description"`
	Status      domain.RoutineStatus `json:"status"`
}

type createRoutineTaskResponse struct {
	TaskID int64 `json:"taskId"`
}

func (h *RoutineHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createRoutineTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p := middleware.PrincipalFrom(r.Context())
	taskID, err := h.routineService.CreateRoutineTask(r.Context(), p, req.MemberID, req.Description, req.Status)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, createRoutineTaskResponse{TaskID: taskID})
}

type updateRoutineStatusRequest struct {
	TaskID int64                `json:"taskId"`
	Status domain.RoutineStatus `json:"status"`
	Date   string               `json:"date"`
}

func (h *RoutineHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateRoutineStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	date, ok := parseDate(w, req.Date)
	if !ok {
		return
	}

	p := middleware.PrincipalFrom(r.Context())
	if err := h.routineService.UpdateStatus(r.Context(), p, req.TaskID, date, req.Status); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Task status updated"})
}

type closeDayRequest struct {
	UserID  int64                 `json:"userId"`
	Date    string                `json:"date"`
	Tasks   []domain.DayCloseItem `json:"tasks"`
	Comment string                `json:"comment"`
}

// CloseDay locks in the caller's routine statuses for the day, gated
// by the member type's closing window.
func (h *RoutineHandler) CloseDay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req closeDayRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Date == "" {
		respondError(w, &domain.ValidationError{Entity: "close day", Field: "date", Msg: "is required"})
		return
	}
	date, ok := parseDate(w, req.Date)
	if !ok {
		return
	}

	p := middleware.PrincipalFrom(r.Context())
	err := h.routineService.CloseDay(r.Context(), p, ports.CloseDayRequest{
		UserID:  req.UserID,
		Date:    date,
		Tasks:   req.Tasks,
		Comment: req.Comment,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Day closed successfully"})
}

// parseDate accepts "YYYY-MM-DD" and defaults to today.
func parseDate(w http.ResponseWriter, raw string) (time.Time, bool) {
	if raw == "" {
		return time.Now(), true
	}
	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		respondError(w, &domain.ValidationError{Entity: "request", Field: "date", Msg: "must be YYYY-MM-DD"})
		return time.Time{}, false
	}
	return date, true
}
