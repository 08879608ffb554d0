package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwhitfield/taskward/internal/domain"
	"github.com/jwhitfield/taskward/internal/store"
)

// TaskHandler handles task-related API requests. Every operation is scoped
// to the authenticated owner; a task belonging to another user is treated
// as not found.
type TaskHandler struct {
	taskStore store.TaskStore
	timeFunc  func() time.Time
}

// NewTaskHandler creates a new TaskHandler with the given dependencies.
func NewTaskHandler(taskStore store.TaskStore) *TaskHandler {
	return &TaskHandler{
		taskStore: taskStore,
		timeFunc:  time.Now,
	}
}

// getOwnedTask fetches a task and verifies it belongs to the requesting
// user. Ownership failures are reported as not found so task IDs are not
// enumerable across accounts.
func (h *TaskHandler) getOwnedTask(r *http.Request) (*domain.Task, error) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	taskID, err := getPathUUID(r, "id")
	if err != nil {
		return nil, store.ErrTaskNotFound
	}

	task, err := h.taskStore.GetByID(r.Context(), taskID)
	if err != nil {
		return nil, err
	}

	if task.UserID != userID {
		return nil, store.ErrTaskNotFound
	}

	return task, nil
}

// Create handles POST /api/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req TaskRequest

	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := ValidateRequest(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	task, err := domain.NewTask(userID, req.Title, req.Description, req.DueAt, h.timeFunc())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.taskStore.Create(r.Context(), task); err != nil {
		slog.Error("failed to create task", "error", err, "user_id", userID)
		RespondWithError(w, r, http.StatusInternalServerError, "Failed to create task")
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, NewTaskResponse(task))
}

// List handles GET /api/tasks, returning the authenticated user's tasks
// ordered by due date.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	tasks, err := h.taskStore.ListByOwner(r.Context(), userID)
	if err != nil {
		slog.Error("failed to list tasks", "error", err, "user_id", userID)
		RespondWithError(w, r, http.StatusInternalServerError, "Failed to list tasks")
		return
	}

	resp := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		resp = append(resp, NewTaskResponse(task))
	}

	RespondWithJSON(w, r, http.StatusOK, resp)
}

// Get handles GET /api/tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.getOwnedTask(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, NewTaskResponse(task))
}

// Update handles PUT /api/tasks/{id}. Changing the due date re-arms the
// reminder for the new date.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	task, err := h.getOwnedTask(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req TaskRequest

	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := ValidateRequest(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if err := task.Apply(req.Title, req.Description, req.DueAt, h.timeFunc()); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.taskStore.Update(r.Context(), task); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			HandleAPIError(w, r, err, "")
			return
		}
		slog.Error("failed to update task", "error", err, "task_id", task.ID)
		RespondWithError(w, r, http.StatusInternalServerError, "Failed to update task")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, NewTaskResponse(task))
}

// Delete handles DELETE /api/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	task, err := h.getOwnedTask(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.taskStore.Delete(r.Context(), task.ID); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			HandleAPIError(w, r, err, "")
			return
		}
		slog.Error("failed to delete task", "error", err, "task_id", task.ID)
		RespondWithError(w, r, http.StatusInternalServerError, "Failed to delete task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Calendar handles GET /api/tasks/calendar, rendering the user's tasks as
// calendar events with RFC 3339 timestamps.
func (h *TaskHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	tasks, err := h.taskStore.ListByOwner(r.Context(), userID)
	if err != nil {
		slog.Error("failed to list tasks for calendar", "error", err, "user_id", userID)
		RespondWithError(w, r, http.StatusInternalServerError, "Failed to list tasks")
		return
	}

	events := make([]CalendarEvent, 0, len(tasks))
	for _, task := range tasks {
		events = append(events, NewCalendarEvent(task))
	}

	RespondWithJSON(w, r, http.StatusOK, events)
}
