package graph

import (
	"fmt"

	"tempiaops/internal/domain"
)

// Validate checks the invariants a graph must satisfy before it is persisted:
// node types come from the closed set, node IDs are unique, and every edge
// endpoint names a node of the same graph.
func Validate(nodes []domain.FlowNode, edges []domain.FlowEdge) error {
	ids := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if n.ID == "" {
			return fmt.Errorf("node without id")
		}
		if _, dup := ids[n.ID]; dup {
			return fmt.Errorf("duplicate node id %s", n.ID)
		}
		if !n.Type.Valid() {
			return fmt.Errorf("node %s: unknown node type %q", n.ID, n.Type)
		}
		ids[n.ID] = struct{}{}
	}
	for _, e := range edges {
		if _, ok := ids[e.Source]; !ok {
			return fmt.Errorf("edge %s: source %s is not a node of this flow", e.ID, e.Source)
		}
		if _, ok := ids[e.Target]; !ok {
			return fmt.Errorf("edge %s: target %s is not a node of this flow", e.ID, e.Target)
		}
	}
	return nil
}
