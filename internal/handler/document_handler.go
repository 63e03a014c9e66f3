package handler

import (
	"net/http"

	"tempiaops/internal/domain"
	"tempiaops/internal/respond"
	"tempiaops/internal/service"
)

// DocumentHandler serves one document kind. The router mounts one instance
// for procedures and one for instructions.
type DocumentHandler struct {
	docs *service.DocumentService
}

func NewDocumentHandler(docs *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{docs: docs}
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.docs.List(r.Context(), sessionOf(r))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.List(w, docs)
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	doc, err := h.docs.Get(r.Context(), sessionOf(r), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.DocumentInput
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	doc, err := h.docs.Create(r.Context(), sessionOf(r), req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req domain.DocumentInput
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	doc, err := h.docs.Update(r.Context(), sessionOf(r), id, req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.docs.Delete(r.Context(), sessionOf(r), id); err != nil {
		respond.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
