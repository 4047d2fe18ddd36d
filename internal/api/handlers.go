package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/diagnose"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/noteservice"
)

type handlers struct {
	svc *noteservice.Service
}

func (h *handlers) getNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	note, err := h.svc.GetNote(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			errResponse(w, http.StatusNotFound, "note not found")
			return
		}
		errResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, note)
}

func (h *handlers) createNote(w http.ResponseWriter, r *http.Request) {
	withMetadata := r.URL.Query().Get("metadata") == "true"

	id, err := h.svc.CreateNote(r.Context(), withMetadata)
	if err != nil {
		errResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *handlers) deleteNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.svc.DeleteNote(r.Context(), id); err != nil {
		errResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	results := h.svc.Search(r.Context(), query)
	if results == nil {
		results = []index.NoteInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (h *handlers) backlinks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	locs := h.svc.Backlinks(r.Context(), id)
	if locs == nil {
		locs = []index.BacklinkLocation{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"backlinks": locs})
}

func (h *handlers) diagnostics(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	diags, err := h.svc.Diagnostics(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			errResponse(w, http.StatusNotFound, "note not found")
			return
		}
		errResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	if diags == nil {
		diags = []diagnose.Diagnostic{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"diagnostics": diags})
}

func (h *handlers) reconcile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	edits, err := h.svc.Reconcile(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			errResponse(w, http.StatusNotFound, "note not found")
			return
		}
		errResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"changedFiles": len(edits)})
}

func (h *handlers) formatNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	changed, err := h.svc.FormatNote(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			errResponse(w, http.StatusNotFound, "note not found")
			return
		}
		errResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"changed": changed})
}

type formatRequest struct {
	Content string `json:"content"`
}

func (h *handlers) formatText(w http.ResponseWriter, r *http.Request) {
	var req formatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	formatted := h.svc.FormatText(r.Context(), req.Content)
	writeJSON(w, http.StatusOK, map[string]string{"content": formatted})
}

func (h *handlers) regenerateLinks(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RegenerateLinks(r.Context()); err != nil {
		errResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "regenerated"})
}
