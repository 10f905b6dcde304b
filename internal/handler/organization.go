// Package handler contains the HTTP layer: it parses requests, calls the
// session store, and writes JSON responses. No domain rules live here.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/blogdeck/internal/apperror"
	"github.com/sakif/blogdeck/internal/session"
)

// OrganizationHandler exposes the organization list, creation, and the
// current-selection endpoints.
type OrganizationHandler struct {
	store  *session.Store
	logger *slog.Logger
}

func NewOrganizationHandler(store *session.Store, logger *slog.Logger) *OrganizationHandler {
	return &OrganizationHandler{store: store, logger: logger}
}

// HandleList returns every organization in insertion order.
//
// HTTP: GET /api/organizations
func (h *OrganizationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Organizations())
}

// HandleSession returns the full session snapshot: user, organizations,
// and the current selection in one consistent read.
//
// HTTP: GET /api/session
func (h *OrganizationHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

type createOrganizationRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// HandleCreate creates an organization and makes it the current selection.
//
// HTTP: POST /api/organizations
// Body: {"name": "...", "description": "..."}
func (h *OrganizationHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	org, err := h.store.CreateOrganization(r.Context(), req.Name, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, org)
}

type selectOrganizationRequest struct {
	ID string `json:"id"` // empty clears the selection
}

// HandleSelect sets or clears the current organization.
//
// HTTP: PUT /api/organizations/current
// Body: {"id": "..."} or {"id": ""}
func (h *OrganizationHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	if err := h.store.SetCurrentOrganization(r.Context(), req.ID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleCurrent returns the selected organization, 404 when none is.
//
// HTTP: GET /api/organizations/current
func (h *OrganizationHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	org := h.store.CurrentOrganization()
	if org == nil {
		writeError(w, apperror.NotFound("current organization", "none"))
		return
	}
	writeJSON(w, http.StatusOK, org)
}
