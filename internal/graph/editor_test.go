package graph

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempiaops/internal/domain"
)

func edgePairs(edges []domain.FlowEdge) [][2]string {
	out := make([][2]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, [2]string{e.Source, e.Target})
	}
	return out
}

func triangle() domain.FlowGraph {
	flowID := uuid.New()
	return domain.FlowGraph{
		Flow: domain.Flow{ID: flowID, Title: "Evakuering"},
		Nodes: []domain.FlowNode{
			{ID: "a", FlowID: flowID, Label: "A", Type: domain.NodeStart},
			{ID: "b", FlowID: flowID, Label: "B", Type: domain.NodeStep},
			{ID: "c", FlowID: flowID, Label: "C", Type: domain.NodeEnd},
		},
		Edges: []domain.FlowEdge{
			{ID: "e1", FlowID: flowID, Source: "a", Target: "b"},
			{ID: "e2", FlowID: flowID, Source: "b", Target: "c"},
			{ID: "e3", FlowID: flowID, Source: "a", Target: "c"},
		},
	}
}

func TestDeleteNodeRemovesOnlyIncidentEdges(t *testing.T) {
	e := NewEditor(triangle())

	require.NoError(t, e.DeleteNode("b"))

	g := e.Graph()
	assert.Len(t, g.Nodes, 2)
	assert.Equal(t, [][2]string{{"a", "c"}}, edgePairs(g.Edges))
}

func TestDeleteNodeDoesNotTouchLoadedGraph(t *testing.T) {
	loaded := triangle()
	e := NewEditor(loaded)

	require.NoError(t, e.DeleteNode("a"))

	assert.Len(t, loaded.Nodes, 3)
	assert.Len(t, loaded.Edges, 3)
	assert.Equal(t, "e1", loaded.Edges[0].ID)
}

func TestDeleteUnknownNode(t *testing.T) {
	e := NewEditor(triangle())
	assert.Error(t, e.DeleteNode("zzz"))
}

func TestAddNodeDefaults(t *testing.T) {
	e := NewEditor(triangle())

	n := e.AddNode()

	assert.True(t, IsTemporaryID(n.ID))
	assert.Equal(t, domain.NodeStep, n.Type)
	assert.Equal(t, DefaultNodeLabel, n.Label)
	assert.Equal(t, float64(DefaultNodeX), n.X)
	assert.Equal(t, float64(DefaultNodeY), n.Y)
	assert.Len(t, e.Graph().Nodes, 4)

	second := e.AddNode()
	assert.NotEqual(t, n.ID, second.ID)
}

func TestUpdateNode(t *testing.T) {
	e := NewEditor(triangle())
	procID := uuid.New()

	require.NoError(t, e.UpdateNode("b", NodeForm{Label: "", Type: domain.NodeDecision, ProcedureID: &procID}))

	b := e.Graph().Nodes[1]
	assert.Equal(t, "", b.Label)
	assert.Equal(t, domain.NodeDecision, b.Type)
	assert.Equal(t, procID, *b.ProcedureID)

	assert.Error(t, e.UpdateNode("b", NodeForm{Label: "x", Type: "loop"}))
	assert.Error(t, e.UpdateNode("missing", NodeForm{Type: domain.NodeStep}))
}

func TestConnectAllowsLoopsAndDuplicates(t *testing.T) {
	e := NewEditor(triangle())

	_, err := e.Connect("a", "a")
	require.NoError(t, err)
	_, err = e.Connect("a", "b")
	require.NoError(t, err)
	_, err = e.Connect("c", "a")
	require.NoError(t, err)

	assert.Len(t, e.Graph().Edges, 6)

	_, err = e.Connect("a", "nope")
	assert.Error(t, err)
}

func TestMoveNode(t *testing.T) {
	e := NewEditor(triangle())

	require.NoError(t, e.MoveNode("c", 200, 40.5))

	c := e.Graph().Nodes[2]
	assert.Equal(t, 200.0, c.X)
	assert.Equal(t, 40.5, c.Y)
}

func TestIsTemporaryID(t *testing.T) {
	assert.True(t, IsTemporaryID("temp-1"))
	assert.True(t, IsTemporaryID("reactflow__edge-ab"))
	assert.False(t, IsTemporaryID(uuid.NewString()))
}

func TestValidate(t *testing.T) {
	g := triangle()
	assert.NoError(t, Validate(g.Nodes, g.Edges))
	assert.NoError(t, Validate(nil, nil))

	dangling := append(g.Edges, domain.FlowEdge{ID: "e4", Source: "a", Target: "ghost"})
	assert.ErrorContains(t, Validate(g.Nodes, dangling), "ghost")

	badType := append([]domain.FlowNode{}, g.Nodes...)
	badType[0].Type = "loop"
	assert.Error(t, Validate(badType, nil))

	dup := append(g.Nodes, domain.FlowNode{ID: "a", Type: domain.NodeStep})
	assert.Error(t, Validate(dup, nil))
}

func TestViewerClick(t *testing.T) {
	procID := uuid.New()
	link := "https://docs.example.no/brann.pdf"
	g := triangle()
	g.Nodes[1].ProcedureID = &procID

	v := NewViewer(g, []domain.Document{{ID: procID, Title: "Brann", Link: &link}})

	got, ok := v.Click("b")
	assert.True(t, ok)
	assert.Equal(t, link, got)

	_, ok = v.Click("a")
	assert.False(t, ok)
	_, ok = v.Click("unknown")
	assert.False(t, ok)
}

func TestViewerClickDanglingProcedure(t *testing.T) {
	g := triangle()
	missing := uuid.New()
	g.Nodes[0].ProcedureID = &missing

	_, ok := NewViewer(g, nil).Click("a")
	assert.False(t, ok)
}

func TestApply_BatchAddressesNewNodesByTemporaryID(t *testing.T) {
	e := NewEditor(domain.FlowGraph{})

	err := e.Apply(
		Edit{Op: OpAddNode},
		Edit{Op: OpAddNode},
		Edit{Op: OpUpdateNode, NodeID: "temp-1", Form: NodeForm{Label: "Begin", Type: domain.NodeStart}},
		Edit{Op: OpMoveNode, NodeID: "temp-2", X: 100, Y: 0},
		Edit{Op: OpConnect, Source: "temp-1", Target: "temp-2"},
	)
	require.NoError(t, err)

	g := e.Graph()
	require.Len(t, g.Nodes, 2)
	assert.Equal(t, "Begin", g.Nodes[0].Label)
	assert.Equal(t, domain.NodeStart, g.Nodes[0].Type)
	assert.Equal(t, 100.0, g.Nodes[1].X)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "temp-1", g.Edges[0].Source)
	assert.Equal(t, "temp-2", g.Edges[0].Target)
}

func TestApply_StopsAtFirstFailure(t *testing.T) {
	e := NewEditor(domain.FlowGraph{})

	err := e.Apply(
		Edit{Op: OpAddNode},
		Edit{Op: OpConnect, Source: "temp-1", Target: "missing"},
		Edit{Op: OpAddNode},
	)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "edit 1")
	assert.Len(t, e.Graph().Nodes, 1)
}

func TestApply_UnknownOperation(t *testing.T) {
	e := NewEditor(domain.FlowGraph{})

	err := e.Apply(Edit{Op: "rotate"})

	assert.Error(t, err)
}
