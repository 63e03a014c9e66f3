package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tempiaops/internal/apperror"
	"tempiaops/internal/domain"
	"tempiaops/internal/graph"
	"tempiaops/internal/respond"
	"tempiaops/internal/service"
)

type FlowHandler struct {
	flows *service.FlowService
}

func NewFlowHandler(flows *service.FlowService) *FlowHandler {
	return &FlowHandler{flows: flows}
}

// graphRequest is the editor's save payload. Node and edge IDs may be
// temporary; procedure_id may be empty.
type graphRequest struct {
	Nodes []nodeRequest `json:"nodes"`
	Edges []edgeRequest `json:"edges"`
}

type nodeRequest struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	Type        string  `json:"type"`
	ProcedureID string  `json:"procedure_id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

type edgeRequest struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

func (req graphRequest) toDomain() ([]domain.FlowNode, []domain.FlowEdge, error) {
	nodes := make([]domain.FlowNode, 0, len(req.Nodes))
	for _, n := range req.Nodes {
		node := domain.FlowNode{
			ID:    n.ID,
			Label: n.Label,
			Type:  domain.NodeType(n.Type),
			X:     n.X,
			Y:     n.Y,
		}
		if p := strings.TrimSpace(n.ProcedureID); p != "" {
			id, err := uuid.Parse(p)
			if err != nil {
				return nil, nil, apperror.New(apperror.CodeInvalid, "node "+n.ID+": invalid procedure_id")
			}
			node.ProcedureID = &id
		}
		nodes = append(nodes, node)
	}

	edges := make([]domain.FlowEdge, 0, len(req.Edges))
	for _, e := range req.Edges {
		edges = append(edges, domain.FlowEdge{ID: e.ID, Source: e.Source, Target: e.Target})
	}
	return nodes, edges, nil
}

func (h *FlowHandler) ListByBuilding(w http.ResponseWriter, r *http.Request) {
	number, err := buildingNumber(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	flows, err := h.flows.ListFlows(r.Context(), sessionOf(r), number)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.List(w, flows)
}

func (h *FlowHandler) Create(w http.ResponseWriter, r *http.Request) {
	number, err := buildingNumber(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req domain.FlowCreate
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	flow, err := h.flows.CreateFlow(r.Context(), sessionOf(r), number, req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, flow)
}

func (h *FlowHandler) Get(w http.ResponseWriter, r *http.Request) {
	flowID, err := uuidParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	g, err := h.flows.LoadGraph(r.Context(), sessionOf(r), flowID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, g)
}

func (h *FlowHandler) SaveGraph(w http.ResponseWriter, r *http.Request) {
	flowID, err := uuidParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req graphRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	nodes, edges, err := req.toDomain()
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	g, err := h.flows.SaveGraph(r.Context(), sessionOf(r), flowID, nodes, edges)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, g)
}

type editRequest struct {
	Edits []struct {
		Op          string  `json:"op"`
		NodeID      string  `json:"node_id"`
		Label       string  `json:"label"`
		Type        string  `json:"type"`
		ProcedureID string  `json:"procedure_id"`
		X           float64 `json:"x"`
		Y           float64 `json:"y"`
		Source      string  `json:"source"`
		Target      string  `json:"target"`
	} `json:"edits"`
}

func (req editRequest) toEdits() ([]graph.Edit, error) {
	edits := make([]graph.Edit, 0, len(req.Edits))
	for i, e := range req.Edits {
		edit := graph.Edit{
			Op:     graph.EditOp(e.Op),
			NodeID: e.NodeID,
			Form:   graph.NodeForm{Label: e.Label, Type: domain.NodeType(e.Type)},
			X:      e.X,
			Y:      e.Y,
			Source: e.Source,
			Target: e.Target,
		}
		if p := strings.TrimSpace(e.ProcedureID); p != "" {
			id, err := uuid.Parse(p)
			if err != nil {
				return nil, apperror.New(apperror.CodeInvalid, fmt.Sprintf("edit %d: invalid procedure_id", i))
			}
			edit.Form.ProcedureID = &id
		}
		edits = append(edits, edit)
	}
	return edits, nil
}

// EditGraph applies a batch of editor actions to the stored graph.
func (h *FlowHandler) EditGraph(w http.ResponseWriter, r *http.Request) {
	flowID, err := uuidParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req editRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	edits, err := req.toEdits()
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	g, err := h.flows.ApplyEdits(r.Context(), sessionOf(r), flowID, edits)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, g)
}

func (h *FlowHandler) Delete(w http.ResponseWriter, r *http.Request) {
	flowID, err := uuidParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.flows.DeleteFlow(r.Context(), sessionOf(r), flowID); err != nil {
		respond.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OpenNode redirects to the procedure attached to a node.
func (h *FlowHandler) OpenNode(w http.ResponseWriter, r *http.Request) {
	flowID, err := uuidParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	link, err := h.flows.OpenNodeProcedure(r.Context(), sessionOf(r), flowID, chi.URLParam(r, "nodeID"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	http.Redirect(w, r, link, http.StatusFound)
}
