package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"tempiaops/internal/apperror"
	"tempiaops/internal/domain"
	"tempiaops/internal/graph"
)

type FlowRepository struct {
	db *sqlx.DB
}

func NewFlowRepository(db *sqlx.DB) *FlowRepository {
	return &FlowRepository{db: db}
}

func (r *FlowRepository) ListByBuilding(ctx context.Context, buildingID uuid.UUID) ([]domain.Flow, error) {
	flows := []domain.Flow{}
	query := `
        SELECT id, building_id, title, created_by, created_at
        FROM flows
        WHERE building_id = $1
        ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &flows, query, buildingID); err != nil {
		return nil, translate(err, "flows not found", "failed to list flows")
	}
	return flows, nil
}

func (r *FlowRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Flow, error) {
	var flow domain.Flow
	query := `SELECT id, building_id, title, created_by, created_at FROM flows WHERE id = $1`

	if err := r.db.GetContext(ctx, &flow, query, id); err != nil {
		return nil, translate(err, "flow not found", "failed to get flow")
	}
	return &flow, nil
}

func (r *FlowRepository) Create(ctx context.Context, flow *domain.Flow) error {
	query := `
        INSERT INTO flows (building_id, title, created_by)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query, flow.BuildingID, flow.Title, flow.CreatedBy).
		Scan(&flow.ID, &flow.CreatedAt)
	return translate(err, "building not found", "failed to create flow")
}

// Delete removes the flow; nodes and edges go with it through ON DELETE CASCADE.
func (r *FlowRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM flows WHERE id = $1`, id)
	if err != nil {
		return translate(err, "flow not found", "failed to delete flow")
	}
	return mustAffect(res, "flow not found")
}

// LoadGraph reads the flow and all of its nodes and edges. Any failing query
// aborts the load.
func (r *FlowRepository) LoadGraph(ctx context.Context, flowID uuid.UUID) (*domain.FlowGraph, error) {
	flow, err := r.GetByID(ctx, flowID)
	if err != nil {
		return nil, err
	}

	nodes := []domain.FlowNode{}
	nodesQuery := `
        SELECT id, flow_id, label, type, procedure_id, x, y
        FROM flow_nodes
        WHERE flow_id = $1`
	if err := r.db.SelectContext(ctx, &nodes, nodesQuery, flowID); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInternal, "failed to load flow nodes")
	}

	edges := []domain.FlowEdge{}
	edgesQuery := `
        SELECT id, flow_id, source, target
        FROM flow_edges
        WHERE flow_id = $1`
	if err := r.db.SelectContext(ctx, &edges, edgesQuery, flowID); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInternal, "failed to load flow edges")
	}

	return &domain.FlowGraph{Flow: *flow, Nodes: nodes, Edges: edges}, nil
}

// ReplaceGraph swaps the persisted node and edge set of a flow for the given
// one inside a single transaction. Nodes with temporary IDs get generated
// UUIDs; edges are rewritten through the resulting temp->real mapping. The
// returned map holds the real ID of every submitted node. A missing flow is
// NotFound.
func (r *FlowRepository) ReplaceGraph(
	ctx context.Context,
	flowID uuid.UUID,
	nodes []domain.FlowNode,
	edges []domain.FlowEdge,
) (map[string]string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInternal, "failed to begin transaction")
	}
	defer tx.Rollback()

	// Concurrent saves of one flow queue on this row lock, so the later one
	// replaces the earlier graph instead of merging with it.
	var locked uuid.UUID
	if err := tx.GetContext(ctx, &locked, `SELECT id FROM flows WHERE id = $1 FOR UPDATE`, flowID); err != nil {
		return nil, translate(err, "flow not found", "failed to lock flow")
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM flow_edges WHERE flow_id = $1`, flowID); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInternal, "failed to delete flow edges")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM flow_nodes WHERE flow_id = $1`, flowID); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInternal, "failed to delete flow nodes")
	}

	insertNode := `
        INSERT INTO flow_nodes (id, flow_id, label, type, procedure_id, x, y)
        VALUES (COALESCE($1::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7)
        RETURNING id`

	idMap := make(map[string]string, len(nodes))
	for _, n := range nodes {
		var realID string
		err := tx.QueryRowxContext(ctx, insertNode,
			persistedID(n.ID),
			flowID,
			n.Label,
			string(n.Type),
			n.ProcedureID,
			n.X,
			n.Y,
		).Scan(&realID)
		if err != nil {
			return nil, translateWrite(err,
				"node "+n.ID+": unknown procedure_id",
				"node "+n.ID+": id already in use",
				"failed to insert flow nodes")
		}
		idMap[n.ID] = realID
	}

	insertEdge := `
        INSERT INTO flow_edges (id, flow_id, source, target)
        VALUES (COALESCE($1::uuid, gen_random_uuid()), $2, $3, $4)`

	for _, e := range edges {
		_, err := tx.ExecContext(ctx, insertEdge,
			persistedID(e.ID),
			flowID,
			resolveID(idMap, e.Source),
			resolveID(idMap, e.Target),
		)
		if err != nil {
			return nil, translateWrite(err,
				"edge "+e.ID+": endpoint is not a node of this flow",
				"edge "+e.ID+": id already in use",
				"failed to insert flow edges")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInternal, "failed to commit flow graph")
	}
	return idMap, nil
}

// persistedID returns nil for client-side IDs so the database assigns one.
func persistedID(id string) any {
	if graph.IsTemporaryID(id) {
		return nil
	}
	return id
}

func resolveID(idMap map[string]string, id string) string {
	if real, ok := idMap[id]; ok {
		return real
	}
	return id
}
