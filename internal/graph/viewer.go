package graph

import (
	"github.com/google/uuid"

	"tempiaops/internal/domain"
)

// Viewer is the read-only counterpart of Editor. Clicking a node is the only
// interaction: it resolves the attached procedure's link.
type Viewer struct {
	nodes map[string]domain.FlowNode
	links map[uuid.UUID]string
}

func NewViewer(g domain.FlowGraph, procedures []domain.Document) *Viewer {
	v := &Viewer{
		nodes: make(map[string]domain.FlowNode, len(g.Nodes)),
		links: make(map[uuid.UUID]string, len(procedures)),
	}
	for _, n := range g.Nodes {
		v.nodes[n.ID] = n
	}
	for _, p := range procedures {
		if p.Link != nil && *p.Link != "" {
			v.links[p.ID] = *p.Link
		}
	}
	return v
}

// Click returns the link to open for nodeID, if any.
func (v *Viewer) Click(nodeID string) (string, bool) {
	n, ok := v.nodes[nodeID]
	if !ok || n.ProcedureID == nil {
		return "", false
	}
	link, ok := v.links[*n.ProcedureID]
	return link, ok
}
