package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempiaops/internal/apperror"
	"tempiaops/internal/domain"
	"tempiaops/internal/graph"
)

type flowFixture struct {
	svc        *FlowService
	flows      *fakeFlows
	procedures *fakeDocs
}

func newFlowFixture() *flowFixture {
	flows := newFakeFlows()
	procedures := newFakeDocs(domain.KindProcedure)
	return &flowFixture{
		svc:        NewFlowService(flows, newFakeBuildings(40), procedures, NewPermissionService()),
		flows:      flows,
		procedures: procedures,
	}
}

// labelEdges describes edges by endpoint labels so graphs can be compared
// across an ID rewrite.
func labelEdges(g domain.FlowGraph) [][2]string {
	labels := map[string]string{}
	for _, n := range g.Nodes {
		labels[n.ID] = n.Label
	}
	out := make([][2]string, 0, len(g.Edges))
	for _, e := range g.Edges {
		out = append(out, [2]string{labels[e.Source], labels[e.Target]})
	}
	return out
}

func TestSaveGraph_RoundTripIsIsomorphic(t *testing.T) {
	ctx := context.Background()
	fx := newFlowFixture()

	flow, err := fx.svc.CreateFlow(ctx, admin, 40, domain.FlowCreate{Title: "Evakuering"})
	require.NoError(t, err)

	loaded, err := fx.svc.LoadGraph(ctx, admin, flow.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.Nodes)

	ed := graph.NewEditor(*loaded)
	start := ed.AddNode()
	step := ed.AddNode()
	end := ed.AddNode()
	require.NoError(t, ed.UpdateNode(start.ID, graph.NodeForm{Label: "Alarm går", Type: domain.NodeStart}))
	require.NoError(t, ed.UpdateNode(step.ID, graph.NodeForm{Label: "Evakuer bygget", Type: domain.NodeStep}))
	require.NoError(t, ed.UpdateNode(end.ID, graph.NodeForm{Label: "Oppmøteplass", Type: domain.NodeEnd}))
	require.NoError(t, ed.MoveNode(start.ID, 0, 0))
	require.NoError(t, ed.MoveNode(step.ID, 100, 0))
	require.NoError(t, ed.MoveNode(end.ID, 200, 0))
	_, err = ed.Connect(start.ID, step.ID)
	require.NoError(t, err)
	_, err = ed.Connect(step.ID, end.ID)
	require.NoError(t, err)
	edited := ed.Graph()

	_, err = fx.svc.SaveGraph(ctx, admin, flow.ID, edited.Nodes, edited.Edges)
	require.NoError(t, err)

	reloaded, err := fx.svc.LoadGraph(ctx, viewer, flow.ID)
	require.NoError(t, err)

	require.Len(t, reloaded.Nodes, 3)
	require.Len(t, reloaded.Edges, 2)
	for _, n := range reloaded.Nodes {
		assert.False(t, graph.IsTemporaryID(n.ID), "node %s kept a temporary id", n.ID)
	}
	assert.ElementsMatch(t, labelEdges(edited), labelEdges(*reloaded))

	types := map[string]domain.NodeType{}
	for _, n := range reloaded.Nodes {
		types[n.Label] = n.Type
	}
	assert.Equal(t, domain.NodeStart, types["Alarm går"])
	assert.Equal(t, domain.NodeStep, types["Evakuer bygget"])
	assert.Equal(t, domain.NodeEnd, types["Oppmøteplass"])

	type position struct{ X, Y float64 }
	positions := func(nodes []domain.FlowNode) map[string]position {
		out := map[string]position{}
		for _, n := range nodes {
			out[n.Label] = position{n.X, n.Y}
		}
		return out
	}
	want := map[string]position{
		"Alarm går":      {0, 0},
		"Evakuer bygget": {100, 0},
		"Oppmøteplass":   {200, 0},
	}
	assert.Equal(t, want, positions(edited.Nodes))
	assert.Equal(t, positions(edited.Nodes), positions(reloaded.Nodes))
}

func TestSaveGraph_SecondSaveKeepsPersistedIDs(t *testing.T) {
	ctx := context.Background()
	fx := newFlowFixture()
	flow, err := fx.svc.CreateFlow(ctx, admin, 40, domain.FlowCreate{Title: "Brann"})
	require.NoError(t, err)

	first, err := fx.svc.SaveGraph(ctx, admin, flow.ID, []domain.FlowNode{
		{ID: "temp-1", Label: "Start", Type: domain.NodeStart},
	}, nil)
	require.NoError(t, err)
	persisted := first.Nodes[0].ID

	second, err := fx.svc.SaveGraph(ctx, admin, flow.ID, first.Nodes, first.Edges)
	require.NoError(t, err)

	require.Len(t, second.Nodes, 1)
	assert.Equal(t, persisted, second.Nodes[0].ID)
}

func TestSaveGraph_ViewerIsForbidden(t *testing.T) {
	ctx := context.Background()
	fx := newFlowFixture()
	flow, err := fx.svc.CreateFlow(ctx, admin, 40, domain.FlowCreate{Title: "Brann"})
	require.NoError(t, err)

	_, err = fx.svc.SaveGraph(ctx, viewer, flow.ID, []domain.FlowNode{{ID: "temp-1", Label: "x", Type: domain.NodeStep}}, nil)

	assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))
	assert.Equal(t, 0, fx.flows.replaceCalls)
}

func TestSaveGraph_ValidatesBeforeStorage(t *testing.T) {
	ctx := context.Background()
	fx := newFlowFixture()
	flow, err := fx.svc.CreateFlow(ctx, admin, 40, domain.FlowCreate{Title: "Brann"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		nodes []domain.FlowNode
		edges []domain.FlowEdge
	}{
		{
			name:  "dangling edge",
			nodes: []domain.FlowNode{{ID: "temp-1", Label: "a", Type: domain.NodeStart}},
			edges: []domain.FlowEdge{{ID: "edge-2", Source: "temp-1", Target: "temp-9"}},
		},
		{
			name:  "unknown type",
			nodes: []domain.FlowNode{{ID: "temp-1", Label: "a", Type: "milestone"}},
		},
		{
			name: "duplicate id",
			nodes: []domain.FlowNode{
				{ID: "temp-1", Label: "a", Type: domain.NodeStep},
				{ID: "temp-1", Label: "b", Type: domain.NodeStep},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.svc.SaveGraph(ctx, admin, flow.ID, tt.nodes, tt.edges)
			assert.True(t, apperror.IsCode(err, apperror.CodeInvalid))
		})
	}
	assert.Equal(t, 0, fx.flows.replaceCalls)
}

func TestSaveGraph_UnknownFlow(t *testing.T) {
	fx := newFlowFixture()

	_, err := fx.svc.SaveGraph(context.Background(), admin, uuid.New(), nil, nil)

	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
	assert.Equal(t, 0, fx.flows.replaceCalls)
}

func TestCreateFlow_Rules(t *testing.T) {
	ctx := context.Background()
	fx := newFlowFixture()

	_, err := fx.svc.CreateFlow(ctx, viewer, 40, domain.FlowCreate{Title: "Brann"})
	assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))

	_, err = fx.svc.CreateFlow(ctx, admin, 40, domain.FlowCreate{Title: "   "})
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalid))

	_, err = fx.svc.CreateFlow(ctx, admin, 41, domain.FlowCreate{Title: "Brann"})
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))

	flow, err := fx.svc.CreateFlow(ctx, admin, 40, domain.FlowCreate{Title: "Brann"})
	require.NoError(t, err)
	require.NotNil(t, flow.CreatedBy)
	assert.Equal(t, admin.UserID, *flow.CreatedBy)

	flows, err := fx.svc.ListFlows(ctx, viewer, 40)
	require.NoError(t, err)
	assert.Len(t, flows, 1)
}

func TestDeleteFlow(t *testing.T) {
	ctx := context.Background()
	fx := newFlowFixture()
	flow, err := fx.svc.CreateFlow(ctx, admin, 40, domain.FlowCreate{Title: "Brann"})
	require.NoError(t, err)

	assert.True(t, apperror.IsCode(fx.svc.DeleteFlow(ctx, viewer, flow.ID), apperror.CodeForbidden))
	require.NoError(t, fx.svc.DeleteFlow(ctx, admin, flow.ID))

	_, err = fx.svc.LoadGraph(ctx, admin, flow.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
}

func TestOpenNodeProcedure(t *testing.T) {
	ctx := context.Background()
	fx := newFlowFixture()
	flow, err := fx.svc.CreateFlow(ctx, admin, 40, domain.FlowCreate{Title: "Brann"})
	require.NoError(t, err)

	link := "https://docs.tempia.no/brann"
	proc := &domain.Document{Kind: domain.KindProcedure, Title: "Brannrutine", Link: &link}
	require.NoError(t, fx.procedures.Create(ctx, proc))
	missing := uuid.New()

	saved, err := fx.svc.SaveGraph(ctx, admin, flow.ID, []domain.FlowNode{
		{ID: "temp-1", Label: "Ring 110", Type: domain.NodeStep, ProcedureID: &proc.ID},
		{ID: "temp-2", Label: "Vent", Type: domain.NodeStep},
		{ID: "temp-3", Label: "Slettet", Type: domain.NodeStep, ProcedureID: &missing},
	}, nil)
	require.NoError(t, err)

	ids := map[string]string{}
	for _, n := range saved.Nodes {
		ids[n.Label] = n.ID
	}

	got, err := fx.svc.OpenNodeProcedure(ctx, viewer, flow.ID, ids["Ring 110"])
	require.NoError(t, err)
	assert.Equal(t, link, got)

	_, err = fx.svc.OpenNodeProcedure(ctx, viewer, flow.ID, ids["Vent"])
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))

	_, err = fx.svc.OpenNodeProcedure(ctx, viewer, flow.ID, ids["Slettet"])
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))

	_, err = fx.svc.OpenNodeProcedure(ctx, viewer, flow.ID, "no-such-node")
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
}

func TestApplyEdits_PersistsEditorBatch(t *testing.T) {
	ctx := context.Background()
	fx := newFlowFixture()

	flow, err := fx.svc.CreateFlow(ctx, admin, 40, domain.FlowCreate{Title: "Brann"})
	require.NoError(t, err)

	g, err := fx.svc.ApplyEdits(ctx, admin, flow.ID, []graph.Edit{
		{Op: graph.OpAddNode},
		{Op: graph.OpAddNode},
		{Op: graph.OpUpdateNode, NodeID: "temp-1", Form: graph.NodeForm{Label: "Begin", Type: domain.NodeStart}},
		{Op: graph.OpUpdateNode, NodeID: "temp-2", Form: graph.NodeForm{Label: "Ring brannvesenet", Type: domain.NodeStep}},
		{Op: graph.OpConnect, Source: "temp-1", Target: "temp-2"},
	})
	require.NoError(t, err)

	require.Len(t, g.Nodes, 2)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, [][2]string{{"Begin", "Ring brannvesenet"}}, labelEdges(*g))
	assert.Equal(t, 1, fx.flows.replaceCalls)
}

func TestApplyEdits_FailedEditWritesNothing(t *testing.T) {
	ctx := context.Background()
	fx := newFlowFixture()

	flow, err := fx.svc.CreateFlow(ctx, admin, 40, domain.FlowCreate{Title: "Brann"})
	require.NoError(t, err)

	_, err = fx.svc.ApplyEdits(ctx, admin, flow.ID, []graph.Edit{
		{Op: graph.OpAddNode},
		{Op: graph.OpDeleteNode, NodeID: "temp-7"},
	})

	assert.True(t, apperror.IsCode(err, apperror.CodeInvalid))
	assert.Equal(t, 0, fx.flows.replaceCalls)
}

func TestApplyEdits_ViewerForbidden(t *testing.T) {
	fx := newFlowFixture()

	_, err := fx.svc.ApplyEdits(context.Background(), viewer, uuid.New(), []graph.Edit{{Op: graph.OpAddNode}})

	assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))
}
