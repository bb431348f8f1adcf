package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/taskhive/taskhive-be/internal/apperr"
	"github.com/taskhive/taskhive-be/internal/auth"
	"github.com/taskhive/taskhive-be/internal/services"
)

// TaskHandler handles HTTP requests for tasks.
type TaskHandler struct {
	service services.TaskServiceProvider
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(service services.TaskServiceProvider) *TaskHandler {
	return &TaskHandler{service: service}
}

// Create handles task creation on a list the caller may edit.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		writeError(w, r, apperr.New(apperr.CodeNotAuthenticated, "no authenticated user"))
		return
	}

	var input services.TaskInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, r, apperr.New(apperr.CodeBadRequest, "invalid request body"))
		return
	}

	task, err := h.service.CreateTask(claims.UserID, input)
	if err != nil {
		log.Warn().Err(err).Str("user_id", claims.UserID).Str("list", input.List).Msg("Failed to create task")
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// Get handles retrieving a task by its ID.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.service.GetTaskByID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// Find handles listing tasks, filtered by list and/or author.
func (h *TaskHandler) Find(w http.ResponseWriter, r *http.Request) {
	skip, limit := paginationParams(r)
	q := r.URL.Query()
	page, err := h.service.FindTasks(services.TaskQuery{
		List:   q.Get("list"),
		Author: q.Get("author"),
		Skip:   skip,
		Limit:  limit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// Patch handles partial updates of a task. The owning list never changes.
func (h *TaskHandler) Patch(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		writeError(w, r, apperr.New(apperr.CodeNotAuthenticated, "no authenticated user"))
		return
	}

	var patch services.TaskPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, r, apperr.New(apperr.CodeBadRequest, "invalid request body"))
		return
	}

	task, err := h.service.PatchTask(chi.URLParam(r, "id"), claims.UserID, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// Delete handles removing a task.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		writeError(w, r, apperr.New(apperr.CodeNotAuthenticated, "no authenticated user"))
		return
	}

	task, err := h.service.DeleteTask(chi.URLParam(r, "id"), claims.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}
