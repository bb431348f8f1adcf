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

// ListHandler handles HTTP requests for shared lists.
type ListHandler struct {
	service services.ListServiceProvider
}

// NewListHandler creates a new ListHandler.
func NewListHandler(service services.ListServiceProvider) *ListHandler {
	return &ListHandler{service: service}
}

// CreateListPayload defines the structure for list creation requests. The
// author always comes from the token, never from the body.
type CreateListPayload struct {
	Name    string   `json:"name"`
	Editors []string `json:"editors"`
}

// Create handles list creation. The author is forced to the caller.
func (h *ListHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		writeError(w, r, apperr.New(apperr.CodeNotAuthenticated, "no authenticated user"))
		return
	}

	var payload CreateListPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, apperr.New(apperr.CodeBadRequest, "invalid request body"))
		return
	}

	list, err := h.service.CreateList(claims.UserID, payload.Name, payload.Editors)
	if err != nil {
		log.Warn().Err(err).Str("user_id", claims.UserID).Msg("Failed to create list")
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, list)
}

// Get handles retrieving a list by its ID.
func (h *ListHandler) Get(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.GetListByID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// Find handles listing lists. The query is sanitized to an allow-list of
// filterable fields; everything else is dropped silently.
func (h *ListHandler) Find(w http.ResponseWriter, r *http.Request) {
	skip, limit := paginationParams(r)
	q := r.URL.Query()
	page, err := h.service.FindLists(services.ListQuery{
		ID:     q.Get("_id"),
		Author: q.Get("author"),
		Editor: q.Get("editor"),
		Skip:   skip,
		Limit:  limit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// Patch handles partial updates of a list (name, editors).
func (h *ListHandler) Patch(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		writeError(w, r, apperr.New(apperr.CodeNotAuthenticated, "no authenticated user"))
		return
	}

	var patch services.ListPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, r, apperr.New(apperr.CodeBadRequest, "invalid request body"))
		return
	}

	list, err := h.service.PatchList(chi.URLParam(r, "id"), claims.UserID, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// Delete handles removing a list and, by cascade, its tasks.
func (h *ListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		writeError(w, r, apperr.New(apperr.CodeNotAuthenticated, "no authenticated user"))
		return
	}

	list, err := h.service.DeleteList(chi.URLParam(r, "id"), claims.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}
