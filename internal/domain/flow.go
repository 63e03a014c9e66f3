package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NodeType is the closed set of process-flow node kinds.
type NodeType string

const (
	NodeStart    NodeType = "start"
	NodeStep     NodeType = "step"
	NodeDecision NodeType = "decision"
	NodeEnd      NodeType = "end"
)

func (t NodeType) Valid() bool {
	switch t {
	case NodeStart, NodeStep, NodeDecision, NodeEnd:
		return true
	}
	return false
}

func ParseNodeType(s string) (NodeType, error) {
	t := NodeType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown node type %q", s)
	}
	return t, nil
}

// Flow is a named process diagram owned by a building.
type Flow struct {
	ID         uuid.UUID `json:"id" db:"id"`
	BuildingID uuid.UUID `json:"building_id" db:"building_id"`
	Title      string    `json:"title" db:"title"`
	CreatedBy  *string   `json:"created_by,omitempty" db:"created_by"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// FlowNode IDs are strings so that editor-side temporary IDs can travel
// alongside persisted UUIDs until the graph is saved.
type FlowNode struct {
	ID          string     `json:"id" db:"id"`
	FlowID      uuid.UUID  `json:"flow_id" db:"flow_id"`
	Label       string     `json:"label" db:"label"`
	Type        NodeType   `json:"type" db:"type"`
	ProcedureID *uuid.UUID `json:"procedure_id,omitempty" db:"procedure_id"`
	X           float64    `json:"x" db:"x"`
	Y           float64    `json:"y" db:"y"`
}

// FlowEdge is directed and unweighted. Duplicates are allowed.
type FlowEdge struct {
	ID     string    `json:"id" db:"id"`
	FlowID uuid.UUID `json:"flow_id" db:"flow_id"`
	Source string    `json:"source" db:"source"`
	Target string    `json:"target" db:"target"`
}

// FlowGraph is the unit of load and save.
type FlowGraph struct {
	Flow  Flow       `json:"flow"`
	Nodes []FlowNode `json:"nodes"`
	Edges []FlowEdge `json:"edges"`
}

type FlowCreate struct {
	Title string `json:"title" validate:"required"`
}
