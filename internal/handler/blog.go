package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/blogdeck/internal/apperror"
	"github.com/sakif/blogdeck/internal/model"
	"github.com/sakif/blogdeck/internal/session"
)

// BlogHandler exposes CRUD endpoints for the current organization's blogs.
// Every operation applies to the selected organization; a missing selection
// surfaces as 409 through the store's NoSelection error.
type BlogHandler struct {
	store  *session.Store
	logger *slog.Logger
}

func NewBlogHandler(store *session.Store, logger *slog.Logger) *BlogHandler {
	return &BlogHandler{store: store, logger: logger}
}

type blogRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// HandleList returns the current organization's blogs in insertion order.
//
// HTTP: GET /api/blogs
func (h *BlogHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	org := h.store.CurrentOrganization()
	if org == nil {
		writeError(w, apperror.NoSelection())
		return
	}
	if org.Blogs == nil {
		org.Blogs = []model.Blog{}
	}
	writeJSON(w, http.StatusOK, org.Blogs)
}

// HandleCreate adds a blog to the current organization.
//
// HTTP: POST /api/blogs
// Body: {"title": "...", "content": "..."}
func (h *BlogHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req blogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	blog, err := h.store.CreateBlog(r.Context(), req.Title, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, blog)
}

// HandleUpdate replaces a blog's title and content.
//
// HTTP: PUT /api/blogs/{id}
func (h *BlogHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, apperror.ValidationFailed("id", "blog id is required"))
		return
	}

	var req blogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	if err := h.store.UpdateBlog(r.Context(), id, req.Title, req.Content); err != nil {
		writeError(w, err)
		return
	}

	// Return the updated entity so the caller doesn't need a second read.
	org := h.store.CurrentOrganization()
	for i := range org.Blogs {
		if org.Blogs[i].ID == id {
			writeJSON(w, http.StatusOK, org.Blogs[i])
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete removes a blog from the current organization.
//
// HTTP: DELETE /api/blogs/{id}
func (h *BlogHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, apperror.ValidationFailed("id", "blog id is required"))
		return
	}

	if err := h.store.DeleteBlog(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
