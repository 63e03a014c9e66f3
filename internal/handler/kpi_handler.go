package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"tempiaops/internal/domain"
	"tempiaops/internal/respond"
	"tempiaops/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type KPIHandler struct {
	kpis *service.KPIService
}

func NewKPIHandler(kpis *service.KPIService) *KPIHandler {
	return &KPIHandler{kpis: kpis}
}

func (h *KPIHandler) ListDefinitions(w http.ResponseWriter, r *http.Request) {
	defs, err := h.kpis.ListDefinitions(r.Context(), sessionOf(r))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.List(w, defs)
}

func (h *KPIHandler) CreateDefinition(w http.ResponseWriter, r *http.Request) {
	var req domain.KPIDefinitionCreate
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	def, err := h.kpis.CreateDefinition(r.Context(), sessionOf(r), req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, def)
}

func (h *KPIHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	entries, err := h.kpis.ListEntries(r.Context(), sessionOf(r), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.List(w, entries)
}

func (h *KPIHandler) AddEntry(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req domain.KPIEntryCreate
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	entry, err := h.kpis.AddEntry(r.Context(), sessionOf(r), id, req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, entry)
}

// Export streams the KPI history as an XLSX attachment.
func (h *KPIHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	data, fileName, err := h.kpis.Export(r.Context(), sessionOf(r), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
