package handler

import (
	"net/http"

	"tempiaops/internal/domain"
	"tempiaops/internal/respond"
	"tempiaops/internal/service"
)

type BuildingHandler struct {
	buildings *service.BuildingService
}

func NewBuildingHandler(buildings *service.BuildingService) *BuildingHandler {
	return &BuildingHandler{buildings: buildings}
}

func (h *BuildingHandler) List(w http.ResponseWriter, r *http.Request) {
	buildings, err := h.buildings.List(r.Context(), sessionOf(r), r.URL.Query().Get("q"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.List(w, buildings)
}

func (h *BuildingHandler) Get(w http.ResponseWriter, r *http.Request) {
	number, err := buildingNumber(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	building, err := h.buildings.Get(r.Context(), sessionOf(r), number)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, building)
}

func (h *BuildingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.BuildingCreate
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	building, err := h.buildings.Create(r.Context(), sessionOf(r), req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, building)
}
