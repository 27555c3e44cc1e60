package handler

import (
	"net/http"
	"time"

	"github.com/meedian/meedian-ams/task-schedule-service/internal/adapters/middleware"
	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/domain"
	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/ports"
)

type TaskHandler struct {
	taskService ports.TaskService
}

func NewTaskHandler(taskService ports.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

type createTaskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	TaskType    string  `json:"taskType"`
	CreatedBy   int64   `json:"createdBy"`
	Assignees   []int64 `json:"assignees"`
	Deadline    string  `json:"deadline"`
	Resources   string  `json:"resources"`
}

type createTaskResponse struct {
	TaskID int64 `json:"taskId"`
}

type listTasksResponse struct {
	AssignedTasks []ports.TaskView `json:"assignedTasks"`
}

// Tasks serves GET (list with derived status) and POST (create).
func (h *TaskHandler) Tasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *TaskHandler) list(w http.ResponseWriter, r *http.Request) {
	views, err := h.taskService.ListTasks(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if views == nil {
		views = []ports.TaskView{}
	}
	respondJSON(w, http.StatusOK, listTasksResponse{AssignedTasks: views})
}

func (h *TaskHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var deadline *time.Time
	if req.Deadline != "" {
		t, err := time.Parse(time.RFC3339, req.Deadline)
		if err != nil {
			respondError(w, &domain.ValidationError{Entity: "task", Field: "deadline", Msg: "must be RFC 3339"})
			return
		}
		deadline = &t
	}

	p := middleware.PrincipalFrom(r.Context())
	taskID, err := h.taskService.CreateTask(r.Context(), p, ports.CreateTaskRequest{
		Title:       req.Title,
		Description: req.Description,
		TaskType:    req.TaskType,
		CreatedBy:   req.CreatedBy,
		Assignees:   req.Assignees,
		Deadline:    deadline,
		Resources:   req.Resources,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, createTaskResponse{TaskID: taskID})
}

type updateTaskStatusRequest struct {
	TaskID int64             `json:"taskId"`
	Status domain.TaskStatus `json:"status"`
}

// UpdateStatus moves the caller's own status row on a task.
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req updateTaskStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TaskID == 0 || req.Status == "" {
		respondError(w, &domain.ValidationError{Entity: "task status", Field: "taskId", Msg: "taskId and status are required"})
		return
	}

	p := middleware.PrincipalFrom(r.Context())
	if err := h.taskService.UpdateStatus(r.Context(), p, req.TaskID, req.Status); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Task status updated"})
}

type verifyTaskRequest struct {
	TaskID   int64 `json:"taskId"`
	MemberID int64 `json:"memberId"`
}

// Verify marks one assignee's work verified. Managers only.
func (h *TaskHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req verifyTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TaskID == 0 || req.MemberID == 0 {
		respondError(w, &domain.ValidationError{Entity: "task status", Field: "taskId", Msg: "taskId and memberId are required"})
		return
	}

	p := middleware.PrincipalFrom(r.Context())
	if err := h.taskService.Verify(r.Context(), p, req.TaskID, req.MemberID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Task verified"})
}

type addLogRequest struct {
	TaskID int64  `json:"taskId"`
	Detail string `json:"detail"`
}

func (h *TaskHandler) AddLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req addLogRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TaskID == 0 {
		respondError(w, &domain.ValidationError{Entity: "task log", Field: "taskId", Msg: "is required"})
		return
	}

	p := middleware.PrincipalFrom(r.Context())
	if err := h.taskService.AddLog(r.Context(), p, req.TaskID, req.Detail); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, messageResponse{Message: "Log added"})
}
