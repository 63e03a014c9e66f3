// Package graph holds the in-memory process-flow model that the diagram
// editor and viewer operate on between a load and a save.
package graph

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"tempiaops/internal/domain"
)

const (
	TempNodePrefix = "temp-"
	TempEdgePrefix = "edge-"

	DefaultNodeLabel = "Ny node"
	DefaultNodeX     = 250
	DefaultNodeY     = 250
)

// IsTemporaryID reports whether id was assigned client-side and has no
// persisted row yet.
func IsTemporaryID(id string) bool {
	if strings.HasPrefix(id, TempNodePrefix) || strings.HasPrefix(id, TempEdgePrefix) {
		return true
	}
	_, err := uuid.Parse(id)
	return err != nil
}

// NodeForm is the editable subset of a node.
type NodeForm struct {
	Label       string
	Type        domain.NodeType
	ProcedureID *uuid.UUID
}

// Editor mutates a copy of a loaded graph. It is not safe for concurrent use.
type Editor struct {
	flow  domain.Flow
	nodes []domain.FlowNode
	edges []domain.FlowEdge
	seq   int
}

func NewEditor(g domain.FlowGraph) *Editor {
	e := &Editor{flow: g.Flow}
	e.nodes = append(e.nodes, g.Nodes...)
	e.edges = append(e.edges, g.Edges...)
	return e
}

// Graph returns a snapshot of the current state.
func (e *Editor) Graph() domain.FlowGraph {
	g := domain.FlowGraph{
		Flow:  e.flow,
		Nodes: make([]domain.FlowNode, len(e.nodes)),
		Edges: make([]domain.FlowEdge, len(e.edges)),
	}
	copy(g.Nodes, e.nodes)
	copy(g.Edges, e.edges)
	return g
}

func (e *Editor) nextID(prefix string) string {
	e.seq++
	return fmt.Sprintf("%s%d", prefix, e.seq)
}

func (e *Editor) indexOf(id string) int {
	for i := range e.nodes {
		if e.nodes[i].ID == id {
			return i
		}
	}
	return -1
}

// AddNode appends a default step node with a temporary ID.
func (e *Editor) AddNode() domain.FlowNode {
	n := domain.FlowNode{
		ID:     e.nextID(TempNodePrefix),
		FlowID: e.flow.ID,
		Label:  DefaultNodeLabel,
		Type:   domain.NodeStep,
		X:      DefaultNodeX,
		Y:      DefaultNodeY,
	}
	e.nodes = append(e.nodes, n)
	return n
}

// UpdateNode overwrites label, type and procedure reference. An empty label
// or a dangling procedure ID is accepted as-is.
func (e *Editor) UpdateNode(id string, form NodeForm) error {
	i := e.indexOf(id)
	if i < 0 {
		return fmt.Errorf("node %s not found", id)
	}
	if !form.Type.Valid() {
		return fmt.Errorf("unknown node type %q", form.Type)
	}
	e.nodes[i].Label = form.Label
	e.nodes[i].Type = form.Type
	e.nodes[i].ProcedureID = form.ProcedureID
	return nil
}

func (e *Editor) MoveNode(id string, x, y float64) error {
	i := e.indexOf(id)
	if i < 0 {
		return fmt.Errorf("node %s not found", id)
	}
	e.nodes[i].X, e.nodes[i].Y = x, y
	return nil
}

// DeleteNode removes the node and every edge incident to it.
func (e *Editor) DeleteNode(id string) error {
	i := e.indexOf(id)
	if i < 0 {
		return fmt.Errorf("node %s not found", id)
	}
	e.nodes = append(e.nodes[:i], e.nodes[i+1:]...)

	kept := e.edges[:0]
	for _, edge := range e.edges {
		if edge.Source != id && edge.Target != id {
			kept = append(kept, edge)
		}
	}
	e.edges = kept
	return nil
}

// Connect appends a directed edge. Cycles, duplicates and self-loops are allowed.
func (e *Editor) Connect(source, target string) (domain.FlowEdge, error) {
	if e.indexOf(source) < 0 {
		return domain.FlowEdge{}, fmt.Errorf("source node %s not found", source)
	}
	if e.indexOf(target) < 0 {
		return domain.FlowEdge{}, fmt.Errorf("target node %s not found", target)
	}
	edge := domain.FlowEdge{
		ID:     e.nextID(TempEdgePrefix),
		FlowID: e.flow.ID,
		Source: source,
		Target: target,
	}
	e.edges = append(e.edges, edge)
	return edge, nil
}

type EditOp string

const (
	OpAddNode    EditOp = "add_node"
	OpUpdateNode EditOp = "update_node"
	OpMoveNode   EditOp = "move_node"
	OpDeleteNode EditOp = "delete_node"
	OpConnect    EditOp = "connect"
)

// Edit is one editor action. Nodes added earlier in the same batch are
// addressed by the temporary IDs they were given, temp-1 first.
type Edit struct {
	Op     EditOp
	NodeID string
	Form   NodeForm
	X, Y   float64
	Source string
	Target string
}

// Apply performs edits in order and stops at the first failing one.
func (e *Editor) Apply(edits ...Edit) error {
	for i, ed := range edits {
		var err error
		switch ed.Op {
		case OpAddNode:
			e.AddNode()
		case OpUpdateNode:
			err = e.UpdateNode(ed.NodeID, ed.Form)
		case OpMoveNode:
			err = e.MoveNode(ed.NodeID, ed.X, ed.Y)
		case OpDeleteNode:
			err = e.DeleteNode(ed.NodeID)
		case OpConnect:
			_, err = e.Connect(ed.Source, ed.Target)
		default:
			err = fmt.Errorf("unknown edit operation %q", ed.Op)
		}
		if err != nil {
			return fmt.Errorf("edit %d: %w", i, err)
		}
	}
	return nil
}
